package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/x402-demos/agent-launchpad/core"
	"github.com/x402-demos/agent-launchpad/storage"
)

// RegisterStoreTools adds the game store tools: catalog listing, item lookup
// (both with live stock counts) and purchase receipt recording.
func RegisterStoreTools(r *Registry, purchases *storage.PurchaseStore, stock *storage.StockStore) {
	itemWithStock := func(item core.StoreItem) (core.StoreItem, error) {
		if item.IsBundle {
			ok, err := stock.BundleInStock(item.BundleItems)
			if err != nil {
				return item, err
			}
			// Bundles show 1 when every component is available, 0 otherwise.
			if ok {
				item.Stock = 1
			} else {
				item.Stock = 0
			}
			return item, nil
		}
		count, err := stock.Get(item.ID)
		if err != nil {
			return item, err
		}
		item.Stock = count
		return item, nil
	}

	r.Register("store.listItems", func(ctx context.Context, input map[string]any) (any, error) {
		items := make([]core.StoreItem, 0, len(core.StoreItems))
		for _, item := range core.StoreItems {
			withStock, err := itemWithStock(item)
			if err != nil {
				return nil, err
			}
			items = append(items, withStock)
		}
		return map[string]any{"items": items}, nil
	})

	r.Register("store.getItemById", func(ctx context.Context, input map[string]any) (any, error) {
		itemID := stringInput(input, "itemId")
		item, ok := core.GetStoreItem(itemID)
		if !ok {
			return nil, fmt.Errorf("Item with id '%s' not found", itemID)
		}
		withStock, err := itemWithStock(item)
		if err != nil {
			return nil, err
		}
		return map[string]any{"item": withStock}, nil
	})

	r.Register("store.recordPurchase", func(ctx context.Context, input map[string]any) (any, error) {
		amount, _ := input["amount"].(float64)
		purchase := core.PurchaseRecord{
			ID:           uuid.New().String(),
			AgentID:      stringInput(input, "agentId"),
			BuyerAddress: stringInput(input, "buyerAddress"),
			ItemID:       stringInput(input, "itemId"),
			ItemName:     stringInput(input, "itemName"),
			Amount:       amount,
			Token:        stringInput(input, "token"),
			PaidAt:       time.Now().UTC().Format(time.RFC3339),
			TxHash:       stringInput(input, "txHash"),
		}
		if err := purchases.Save(purchase); err != nil {
			return nil, err
		}
		return map[string]any{"purchase": purchase}, nil
	})
}
