package storage

import (
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v3"
)

// DefaultStock is the initial count assigned to an item the first time it
// is seen. Bundles carry no stock of their own.
const DefaultStock = 10

// StockStore tracks per-item inventory counts. Decrements are atomic: the
// read and the write happen in one transaction under the store mutex, so
// concurrent purchases can never drive a count negative.
type StockStore struct {
	db *DBStorage
}

func NewStockStore(db *DBStorage) *StockStore {
	return &StockStore{db: db}
}

func stockKey(itemID string) string {
	return fmt.Sprintf("stock:%s", itemID)
}

func parseCount(data []byte) (int, bool) {
	if data == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Get returns the current stock of an item, initializing it to DefaultStock
// on first access.
func (s *StockStore) Get(itemID string) (int, error) {
	count := DefaultStock
	err := s.db.update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stockKey(itemID)))
		if err == badger.ErrKeyNotFound {
			return txn.Set([]byte(stockKey(itemID)), []byte(strconv.Itoa(DefaultStock)))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if n, ok := parseCount(val); ok {
				count = n
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// InStock reports whether the item has at least one unit left.
func (s *StockStore) InStock(itemID string) (bool, error) {
	count, err := s.Get(itemID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BundleInStock reports whether every component item has stock remaining.
func (s *StockStore) BundleInStock(itemIDs []string) (bool, error) {
	for _, id := range itemIDs {
		ok, err := s.InStock(id)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// DecrementIfPositive atomically decrements the item's stock when it is
// above zero. It returns the remaining count and whether the decrement
// happened.
func (s *StockStore) DecrementIfPositive(itemID string) (int, bool, error) {
	remaining := 0
	decremented := false
	err := s.db.update(func(txn *badger.Txn) error {
		count := DefaultStock
		item, err := txn.Get([]byte(stockKey(itemID)))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err == nil {
			if readErr := item.Value(func(val []byte) error {
				if n, ok := parseCount(val); ok {
					count = n
				}
				return nil
			}); readErr != nil {
				return readErr
			}
		}

		if count > 0 {
			count--
			decremented = true
		}
		remaining = count
		return txn.Set([]byte(stockKey(itemID)), []byte(strconv.Itoa(count)))
	})
	if err != nil {
		return 0, false, err
	}
	return remaining, decremented, nil
}

// DecrementBundle decrements every component item and returns the remaining
// stock per item id.
func (s *StockStore) DecrementBundle(itemIDs []string) (map[string]int, error) {
	remaining := make(map[string]int, len(itemIDs))
	for _, id := range itemIDs {
		left, _, err := s.DecrementIfPositive(id)
		if err != nil {
			return nil, err
		}
		remaining[id] = left
	}
	return remaining, nil
}

// Reset restores an item to DefaultStock. Used for restocking and tests.
func (s *StockStore) Reset(itemID string) error {
	return s.db.Put(stockKey(itemID), []byte(strconv.Itoa(DefaultStock)))
}

// Set overrides an item's stock count.
func (s *StockStore) Set(itemID string, count int) error {
	if count < 0 {
		return fmt.Errorf("stock count must not be negative")
	}
	return s.db.Put(stockKey(itemID), []byte(strconv.Itoa(count)))
}
