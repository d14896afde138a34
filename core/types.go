package core

// Log entry types emitted by the runtime, in the order they appear in a trace.
const (
	LogStart     = "start"
	LogStepStart = "step_start"
	LogStepEnd   = "step_end"
	LogComplete  = "complete"
)

// Wallet is the blockchain account owned by one agent. The signing key is
// stored in plaintext next to the spec; callers must strip it before the
// record leaves the trusted boundary (see AgentSpec.Sanitized).
type Wallet struct {
	Address    string `json:"address"`
	SigningKey string `json:"signingKey,omitempty"`
}

// Pricing describes what a caller must pay per run of an agent.
type Pricing struct {
	Enabled bool    `json:"enabled"`
	Token   string  `json:"token"` // "MON" or "USDC"
	Amount  float64 `json:"amount"`
}

// Step is one declarative unit of work inside an agent's logic.
type Step struct {
	Type  string         `json:"type"`
	Input map[string]any `json:"input,omitempty"`
}

// Logic holds the ordered step list. Execution is strictly sequential.
type Logic struct {
	Steps []Step `json:"steps"`
}

// AgentSpec is the persisted description of one agent: identity, price,
// wallet and step sequence. The ID doubles as the storage key.
type AgentSpec struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Wallet      Wallet   `json:"wallet"`
	Pricing     Pricing  `json:"pricing"`
	Logic       Logic    `json:"logic"`
	Tools       []string `json:"tools"`
}

// Sanitized returns a copy of the spec with the signing key removed,
// safe to return from the API.
func (a AgentSpec) Sanitized() AgentSpec {
	a.Wallet.SigningKey = ""
	return a
}

// LogEntry is one timestamped record in a run trace.
type LogEntry struct {
	Type      string `json:"type"`
	Step      string `json:"step,omitempty"`
	Result    any    `json:"result,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// RunResult is what one agent run returns: the last step's result plus the
// full trace. It is never persisted.
type RunResult struct {
	Output any        `json:"output"`
	Logs   []LogEntry `json:"logs"`
}

// FundingTarget is one repository selected for funding, with the on-chain
// address that should receive the transfer.
type FundingTarget struct {
	Repo    string   `json:"repo"`
	To      string   `json:"to"`
	Signals []string `json:"signals,omitempty"`
}

// StoreItem is one purchasable item in the game store. Bundles have no stock
// of their own; they are in stock iff every component item is.
type StoreItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Token       string   `json:"token"`
	Image       string   `json:"image,omitempty"`
	Stock       int      `json:"stock"`
	IsBundle    bool     `json:"isBundle,omitempty"`
	BundleItems []string `json:"bundleItems,omitempty"`
}

// PurchaseRecord is the persisted receipt of one store purchase.
type PurchaseRecord struct {
	ID           string  `json:"id"`
	AgentID      string  `json:"agentId"`
	BuyerAddress string  `json:"buyerAddress"`
	ItemID       string  `json:"itemId"`
	ItemName     string  `json:"itemName"`
	Amount       float64 `json:"amount"`
	Token        string  `json:"token"`
	PaidAt       string  `json:"paidAt"`
	TxHash       string  `json:"txHash,omitempty"`
}
