package storage

import (
	"encoding/json"
	"fmt"

	"github.com/x402-demos/agent-launchpad/core"
)

// PurchaseStore persists purchase receipts keyed by their generated id.
type PurchaseStore struct {
	db *DBStorage
}

func NewPurchaseStore(db *DBStorage) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func purchaseKey(id string) string {
	return fmt.Sprintf("purchase:%s", id)
}

// Save writes the purchase record.
func (s *PurchaseStore) Save(purchase core.PurchaseRecord) error {
	if purchase.ID == "" {
		return fmt.Errorf("purchase id must not be empty")
	}
	return s.db.PutObject(purchaseKey(purchase.ID), purchase)
}

// List returns all recorded purchases in unspecified order.
func (s *PurchaseStore) List() ([]core.PurchaseRecord, error) {
	raw, err := s.db.GetByPrefix("purchase:")
	if err != nil {
		return nil, err
	}
	purchases := make([]core.PurchaseRecord, 0, len(raw))
	for key, data := range raw {
		var purchase core.PurchaseRecord
		if err := unmarshalValue(data, &purchase); err != nil {
			return nil, fmt.Errorf("corrupt purchase record %s: %v", key, err)
		}
		purchases = append(purchases, purchase)
	}
	return purchases, nil
}

func unmarshalValue(data []byte, obj interface{}) error {
	return json.Unmarshal(data, obj)
}
