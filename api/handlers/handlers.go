package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/x402-demos/agent-launchpad/communication"
	"github.com/x402-demos/agent-launchpad/core"
	"github.com/x402-demos/agent-launchpad/crypto"
	"github.com/x402-demos/agent-launchpad/runtime"
	"github.com/x402-demos/agent-launchpad/storage"
	"github.com/x402-demos/agent-launchpad/tools"
	"github.com/x402-demos/agent-launchpad/x402"
)

// Amount of MON seeded into freshly created custom-agent wallets.
const initialWalletFunding = 0.01

// Funder seeds new wallets from the master account. Nil disables funding.
type Funder interface {
	FundWallet(ctx context.Context, to string, amountMON float64) (string, error)
}

// Handlers carries the wired dependencies for every API endpoint. Funder and
// Broker may be nil; the endpoints then skip funding and event publishing.
type Handlers struct {
	Agents    *storage.AgentStore
	Purchases *storage.PurchaseStore
	Stock     *storage.StockStore
	Runtime   *runtime.Runtime
	Tools     *tools.Registry
	Funder    Funder
	Broker    *core.NATSBroker
}

func New(agents *storage.AgentStore, purchases *storage.PurchaseStore, stock *storage.StockStore,
	rt *runtime.Runtime, registry *tools.Registry, funder Funder, broker *core.NATSBroker) *Handlers {
	return &Handlers{
		Agents:    agents,
		Purchases: purchases,
		Stock:     stock,
		Runtime:   rt,
		Tools:     registry,
		Funder:    funder,
		Broker:    broker,
	}
}

// getOrCreate loads an agent, instantiating it from its template on first
// access. The bool reports whether the agent exists or could be created.
func (h *Handlers) getOrCreate(id string) (core.AgentSpec, bool, error) {
	agent, found, err := h.Agents.Get(id)
	if err != nil {
		return core.AgentSpec{}, false, err
	}
	if found {
		return agent, true, nil
	}

	tpl, ok := core.Template(id)
	if !ok {
		return core.AgentSpec{}, false, nil
	}
	address, signingKey, err := crypto.GenerateWallet()
	if err != nil {
		return core.AgentSpec{}, false, err
	}
	tpl.Wallet = core.Wallet{Address: address, SigningKey: signingKey}
	if err := h.Agents.Save(tpl); err != nil {
		return core.AgentSpec{}, false, err
	}
	return tpl, true, nil
}

// ListAgents - GET /api/agents
func (h *Handlers) ListAgents(c *gin.Context) {
	agents, err := h.Agents.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	sanitized := make([]core.AgentSpec, 0, len(agents))
	for _, agent := range agents {
		sanitized = append(sanitized, agent.Sanitized())
	}
	c.JSON(http.StatusOK, gin.H{"agents": sanitized})
}

// AgentAddress - GET /api/agents/:id/address
// Instantiates template agents on first access so callers can fund them
// before the first run.
func (h *Handlers) AgentAddress(c *gin.Context) {
	id := c.Param("id")
	agent, found, err := h.getOrCreate(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Agent template with ID '%s' not found.", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": agent.Wallet.Address,
		"agentId": agent.ID,
	})
}

// CreateAgent - POST /api/agents/create
// Builds a custom agent from a name, price and free-form instructions. Step
// planning is keyword heuristics; no LLM planner.
func (h *Handlers) CreateAgent(c *gin.Context) {
	var body struct {
		Name         string  `json:"name"`
		Description  string  `json:"description"`
		Price        float64 `json:"price"`
		Instructions string  `json:"instructions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent data"})
		return
	}

	address, signingKey, err := crypto.GenerateWallet()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := body.Name
	if name == "" {
		name = "Untitled Agent"
	}
	price := body.Price
	if price <= 0 {
		price = 0.001
	}

	agent := core.AgentSpec{
		ID:          uuid.New().String(),
		Name:        name,
		Description: body.Description,
		Wallet:      core.Wallet{Address: address, SigningKey: signingKey},
		Pricing:     core.Pricing{Enabled: true, Token: "MON", Amount: price},
		Logic:       core.Logic{Steps: planSteps(body.Instructions)},
		Tools:       []string{"http.get", "coinbase.getPrice"},
	}
	if err := h.Agents.Save(agent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Seed the wallet with gas money. Best effort: creation succeeds even
	// when the master wallet is missing or broke.
	if h.Funder != nil {
		if _, err := h.Funder.FundWallet(c.Request.Context(), agent.Wallet.Address, initialWalletFunding); err != nil {
			log.Printf("Failed to fund wallet %s: %v", agent.Wallet.Address, err)
		}
	}

	communication.BroadcastEvent(communication.EventAgentCreated, agent.Sanitized())
	if err := h.Broker.PublishJSON(core.SubjectAgentCreated, agent.Sanitized()); err != nil {
		log.Printf("Failed to publish agent created event: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "agent": agent.Sanitized()})
}

// planSteps maps free-form instructions to a step list.
func planSteps(instructions string) []core.Step {
	lower := strings.ToLower(instructions)
	if strings.Contains(lower, "price of bitcoin") || strings.Contains(lower, "bitcoin price") {
		return []core.Step{{Type: "coinbase.getPrice", Input: map[string]any{"pair": "BTC-USD"}}}
	}
	if strings.Contains(lower, "mon") && (strings.Contains(lower, "price") || strings.Contains(lower, "usd")) {
		return []core.Step{{Type: "coinbase.getPrice", Input: map[string]any{"pair": "MON-USD"}}}
	}
	return []core.Step{{Type: "llm.generate", Input: map[string]any{"prompt": instructions}}}
}

// CreateWallet - POST /api/create-agent-wallet
// Returns a throwaway keypair. The key is handed to the caller, not stored.
func (h *Handlers) CreateWallet(c *gin.Context) {
	address, signingKey, err := crypto.GenerateWallet()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":    address,
		"privateKey": signingKey,
	})
}

// RunAgent - POST /api/agents/:id/run
// The single run entrypoint: payment-gated when the agent has pricing
// enabled. The game store agent gets its own action dispatch because its
// price depends on the item, not the agent.
func (h *Handlers) RunAgent(c *gin.Context) {
	id := c.Param("id")
	if id == "game-item-store" {
		h.storeRun(c)
		return
	}

	agent, found, err := h.getOrCreate(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	if agent.Pricing.Enabled && !x402.VerifyPayment(c.Request) {
		x402.Challenge(c, x402.Requirement{
			Token:       agent.Pricing.Token,
			Amount:      agent.Pricing.Amount,
			Destination: agent.Wallet.Address,
		})
		return
	}

	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		input = map[string]any{}
	}

	if id == "auto-item-buyer" {
		if v, _ := input["itemId"].(string); v == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
			return
		}
		if v, _ := input["buyerAddress"].(string); v == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "buyerAddress is required"})
			return
		}
	}

	communication.BroadcastEvent(communication.EventRunStarted, gin.H{"agentId": agent.ID})
	result := h.Runtime.Run(c.Request.Context(), agent, input)
	communication.BroadcastEvent(communication.EventRunCompleted, gin.H{"agentId": agent.ID, "output": result.Output})
	if err := h.Broker.PublishJSON(core.SubjectAgentRun, gin.H{"agentId": agent.ID, "output": result.Output}); err != nil {
		log.Printf("Failed to publish run event: %v", err)
	}

	c.JSON(http.StatusOK, result)
}

// ListPurchases - GET /api/purchases
func (h *Handlers) ListPurchases(c *gin.Context) {
	purchases, err := h.Purchases.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].PaidAt > purchases[j].PaidAt })
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// StorageStatus - GET /api/storage/status
func (h *Handlers) StorageStatus(c *gin.Context) {
	agents, err := h.Agents.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ids := make([]string, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, agent.ID)
	}
	sort.Strings(ids)
	c.JSON(http.StatusOK, gin.H{
		"storage": gin.H{"backend": "badgerdb", "status": "working"},
		"agents":  gin.H{"count": len(ids), "ids": ids},
	})
}
