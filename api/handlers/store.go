package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/x402-demos/agent-launchpad/communication"
	"github.com/x402-demos/agent-launchpad/core"
	"github.com/x402-demos/agent-launchpad/x402"
)

// storeRun dispatches game store actions. Reads are free; purchases are
// gated per item with a 402 challenge priced off the catalog.
func (h *Handlers) storeRun(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		body = map[string]any{}
	}
	action, _ := body["action"].(string)
	itemID, _ := body["itemId"].(string)

	agent, found, err := h.getOrCreate("game-item-store")
	if err != nil || !found {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store agent"})
		return
	}

	switch action {
	case "", "list":
		h.runStoreTool(c, "store.listItems", map[string]any{})
		return
	case "get":
		if itemID != "" {
			h.runStoreTool(c, "store.getItemById", map[string]any{"itemId": itemID})
			return
		}
	case "purchase", "buy":
		h.purchase(c, agent, body, itemID)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown action: %s", action)})
}

func (h *Handlers) runStoreTool(c *gin.Context, name string, input map[string]any) {
	fn, ok := h.Tools.Get(name)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("tool %s not registered", name)})
		return
	}
	result, err := fn(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) purchase(c *gin.Context, agent core.AgentSpec, body map[string]any, itemID string) {
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required for purchase"})
		return
	}
	item, ok := core.GetStoreItem(itemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Item with id '%s' not found", itemID)})
		return
	}

	if item.IsBundle {
		inStock, err := h.Stock.BundleInStock(item.BundleItems)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !inStock {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Bundle '%s' is out of stock (one or more items unavailable)", item.Name)})
			return
		}
	} else {
		inStock, err := h.Stock.InStock(item.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !inStock {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Item '%s' is out of stock", item.Name)})
			return
		}
	}

	// Item-specific price; the agent's wallet receives the funds.
	if !x402.VerifyPayment(c.Request) {
		x402.Challenge(c, x402.Requirement{
			Token:       item.Token,
			Amount:      item.Price,
			Destination: agent.Wallet.Address,
		})
		return
	}

	buyerAddress, _ := body["buyerAddress"].(string)
	if buyerAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buyerAddress is required"})
		return
	}
	txHash, _ := body["txHash"].(string)
	if txHash == "" {
		txHash = c.GetHeader(x402.HeaderPaymentProof)
	}

	purchase, err := h.recordPurchase(c.Request.Context(), agent.ID, buyerAddress, item, txHash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Decrement after payment. The count cannot go negative: a concurrent
	// buyer taking the last unit makes the decrement report a sellout.
	var remainingStock any
	if item.IsBundle {
		remaining, err := h.Stock.DecrementBundle(item.BundleItems)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		remainingStock = remaining
	} else {
		remaining, decremented, err := h.Stock.DecrementIfPositive(item.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !decremented {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Item '%s' is out of stock", item.Name)})
			return
		}
		remainingStock = remaining
	}

	communication.BroadcastEvent(communication.EventItemPurchased, purchase)
	if err := h.Broker.PublishJSON(core.SubjectPurchase, purchase); err != nil {
		log.Printf("Failed to publish purchase event: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"item":           gin.H{"id": item.ID, "name": item.Name},
		"txHash":         purchase.TxHash,
		"buyerAddress":   purchase.BuyerAddress,
		"purchase":       purchase,
		"remainingStock": remainingStock,
		"isBundle":       item.IsBundle,
	})
}

func (h *Handlers) recordPurchase(ctx context.Context, agentID, buyerAddress string, item core.StoreItem, txHash string) (core.PurchaseRecord, error) {
	fn, ok := h.Tools.Get("store.recordPurchase")
	if !ok {
		return core.PurchaseRecord{}, fmt.Errorf("tool store.recordPurchase not registered")
	}
	out, err := fn(ctx, map[string]any{
		"agentId":      agentID,
		"buyerAddress": buyerAddress,
		"itemId":       item.ID,
		"itemName":     item.Name,
		"amount":       item.Price,
		"token":        item.Token,
		"txHash":       txHash,
	})
	if err != nil {
		return core.PurchaseRecord{}, err
	}
	result, _ := out.(map[string]any)
	purchase, ok := result["purchase"].(core.PurchaseRecord)
	if !ok {
		return core.PurchaseRecord{}, fmt.Errorf("unexpected recordPurchase result")
	}
	return purchase, nil
}
