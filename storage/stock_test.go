package storage

import (
	"sync"
	"testing"
)

func newTestDB(t *testing.T) *DBStorage {
	t.Helper()
	db, err := Open(InMemoryConfig())
	if err != nil {
		t.Fatalf("failed to open in-memory storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStockInitializesToDefault(t *testing.T) {
	stock := NewStockStore(newTestDB(t))

	count, err := stock.Get("sword")
	if err != nil {
		t.Fatal(err)
	}
	if count != DefaultStock {
		t.Fatalf("initial stock = %d, want %d", count, DefaultStock)
	}
}

func TestDecrementIfPositive(t *testing.T) {
	stock := NewStockStore(newTestDB(t))
	if err := stock.Set("sword", 2); err != nil {
		t.Fatal(err)
	}

	remaining, decremented, err := stock.DecrementIfPositive("sword")
	if err != nil {
		t.Fatal(err)
	}
	if !decremented || remaining != 1 {
		t.Fatalf("got remaining=%d decremented=%v, want 1 true", remaining, decremented)
	}

	remaining, decremented, err = stock.DecrementIfPositive("sword")
	if err != nil {
		t.Fatal(err)
	}
	if !decremented || remaining != 0 {
		t.Fatalf("got remaining=%d decremented=%v, want 0 true", remaining, decremented)
	}

	// Sold out: the decrement must refuse instead of going negative.
	remaining, decremented, err = stock.DecrementIfPositive("sword")
	if err != nil {
		t.Fatal(err)
	}
	if decremented || remaining != 0 {
		t.Fatalf("got remaining=%d decremented=%v, want 0 false", remaining, decremented)
	}
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	stock := NewStockStore(newTestDB(t))
	const initial = 10
	if err := stock.Set("shield", initial); err != nil {
		t.Fatal(err)
	}

	const buyers = 50
	var wg sync.WaitGroup
	successes := make(chan struct{}, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, decremented, err := stock.DecrementIfPositive("shield")
			if err != nil {
				t.Errorf("decrement failed: %v", err)
				return
			}
			if decremented {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	if got := len(successes); got != initial {
		t.Fatalf("%d purchases succeeded, want exactly %d", got, initial)
	}
	count, err := stock.Get("shield")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("final stock = %d, want 0", count)
	}
}

func TestBundleStock(t *testing.T) {
	stock := NewStockStore(newTestDB(t))
	items := []string{"sword", "shield"}

	ok, err := stock.BundleInStock(items)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("fresh bundle should be in stock")
	}

	remaining, err := stock.DecrementBundle(items)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range items {
		if remaining[id] != DefaultStock-1 {
			t.Fatalf("%s remaining = %d, want %d", id, remaining[id], DefaultStock-1)
		}
	}

	// One component sold out blocks the whole bundle.
	if err := stock.Set("shield", 0); err != nil {
		t.Fatal(err)
	}
	ok, err = stock.BundleInStock(items)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("bundle must be out of stock when a component is")
	}
}

