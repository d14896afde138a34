// Package runtime executes agent step sequences. Steps run strictly in
// order; each step's result feeds the single lastOutput slot, and the final
// slot value becomes the run output.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/x402-demos/agent-launchpad/chain"
	"github.com/x402-demos/agent-launchpad/core"
	"github.com/x402-demos/agent-launchpad/storage"
	"github.com/x402-demos/agent-launchpad/tools"
	"github.com/x402-demos/agent-launchpad/x402"
)

const (
	// Funding runs transfer this amount to each selected project.
	fundingAmountMON = 0.0001
	// Cap per run, regardless of how many projects qualified.
	maxFundingTargets = 5
)

// Runtime walks an agent's step list. Every dependency is injected so tests
// can substitute fakes for the tool set, the chain and the store.
type Runtime struct {
	tools      *tools.Registry
	transferer chain.Transferer
	payer      *x402.Client
	stock      *storage.StockStore
	storeURL   string
	repos      []string
	funding    map[string]string
}

// New builds a runtime over the given tool registry. transferer, payer and
// stock may be nil when the deployment has no chain access; the paid steps
// then report errors in their results instead of running.
func New(registry *tools.Registry, transferer chain.Transferer, payer *x402.Client, stock *storage.StockStore, storeBaseURL string) *Runtime {
	return &Runtime{
		tools:      registry,
		transferer: transferer,
		payer:      payer,
		stock:      stock,
		storeURL:   storeBaseURL,
		repos:      core.OSSRepos,
		funding:    core.FundingRegistry,
	}
}

func now() int64 {
	return time.Now().UnixMilli()
}

// Run executes every step of the spec in order and returns the last step's
// result together with the full trace. Step failures are recorded as
// `{error}` results; they never abort the run, so Run itself cannot fail.
func (r *Runtime) Run(ctx context.Context, spec core.AgentSpec, input map[string]any) core.RunResult {
	logs := []core.LogEntry{{Type: core.LogStart, Timestamp: now()}}
	var lastOutput any

	for _, step := range spec.Logic.Steps {
		// Caller cancellation stops scheduling; the step in flight when the
		// context died has already recorded its result.
		if ctx.Err() != nil {
			break
		}
		logs = append(logs, core.LogEntry{Type: core.LogStepStart, Step: step.Type, Timestamp: now()})
		result := r.execStep(ctx, spec, step, input, lastOutput)
		lastOutput = result
		logs = append(logs, core.LogEntry{Type: core.LogStepEnd, Step: step.Type, Result: result, Timestamp: now()})
	}

	logs = append(logs, core.LogEntry{Type: core.LogComplete, Timestamp: now()})
	return core.RunResult{Output: lastOutput, Logs: logs}
}

func (r *Runtime) execStep(ctx context.Context, spec core.AgentSpec, step core.Step, input map[string]any, lastOutput any) any {
	switch step.Type {
	case "http.get":
		url := stringField(input, "url")
		if url == "" {
			url = stringField(step.Input, "url")
		}
		return r.callTool(ctx, "http.get", map[string]any{"url": url})

	case "llm.generate":
		prompt := stringField(step.Input, "prompt")
		if prompt == "" {
			prompt = "No prompt"
		}
		return r.callTool(ctx, "llm.generate", map[string]any{"prompt": prompt})

	case "coinbase.getPrice", "amadeus.searchFlights":
		// Caller input overrides the step's baked-in defaults.
		return r.callTool(ctx, step.Type, merge(step.Input, input))

	case "x402.call":
		return r.paidCall(ctx, spec, merge(step.Input, input))

	case "github.fetchAndAnalyzeAll":
		return r.analyzeRepos(ctx)

	case "wallet.fundProjects":
		return r.fundProjects(ctx, spec, input, lastOutput)

	case "store.handleAction":
		return r.handleStoreAction(ctx, merge(step.Input, input))

	case "store.purchaseItem":
		return r.purchaseItem(ctx, spec, merge(step.Input, input))
	}

	if fn, ok := r.tools.Get(step.Type); ok {
		in := step.Input
		if in == nil {
			in = map[string]any{}
		}
		return toResult(fn(ctx, in))
	}
	return errResult(fmt.Sprintf("Unknown step type: %s", step.Type))
}

// callTool dispatches to a registered tool, folding errors into the result.
func (r *Runtime) callTool(ctx context.Context, name string, input map[string]any) any {
	fn, ok := r.tools.Get(name)
	if !ok {
		return errResult(fmt.Sprintf("Unknown step type: %s", name))
	}
	return toResult(fn(ctx, input))
}

// analyzeRepos fans out over the curated repo list, classifying each one and
// keeping the crypto-friendly repos that have a registered funding address.
// Result order follows the curated list regardless of fetch timing.
func (r *Runtime) analyzeRepos(ctx context.Context) any {
	selected := make([]*core.FundingTarget, len(r.repos))
	var wg sync.WaitGroup
	for i, repo := range r.repos {
		wg.Add(1)
		go func(i int, repo string) {
			defer wg.Done()
			readme := r.fetchText(ctx, "github.fetchReadme", repo)
			funding := r.fetchText(ctx, "github.fetchFundingFile", repo)
			accepts, signals := tools.DetectCryptoFunding(readme, funding)
			if !accepts {
				return
			}
			address, ok := r.funding[repo]
			if !ok {
				return
			}
			selected[i] = &core.FundingTarget{Repo: repo, To: address, Signals: signals}
		}(i, repo)
	}
	wg.Wait()

	targets := make([]core.FundingTarget, 0, len(selected))
	for _, t := range selected {
		if t != nil {
			targets = append(targets, *t)
		}
	}
	return map[string]any{"projectsToFund": targets}
}

func (r *Runtime) fetchText(ctx context.Context, tool, repo string) string {
	fn, ok := r.tools.Get(tool)
	if !ok {
		return ""
	}
	// Fetch failures count as empty content, not step errors.
	out, err := fn(ctx, map[string]any{"repo": repo})
	if err != nil {
		return ""
	}
	s, _ := out.(string)
	return s
}

// fundProjects transfers a fixed amount to each selected project, capped at
// maxFundingTargets per run. Targets come from the caller input or from the
// previous step's output.
func (r *Runtime) fundProjects(ctx context.Context, spec core.AgentSpec, input map[string]any, lastOutput any) any {
	if spec.Wallet.SigningKey == "" {
		return errResult("Agent wallet missing private key")
	}

	targets := fundingTargets(input["projectsToFund"])
	if targets == nil {
		if prev, ok := lastOutput.(map[string]any); ok {
			targets = fundingTargets(prev["projectsToFund"])
		}
	}
	if len(targets) > maxFundingTargets {
		targets = targets[:maxFundingTargets]
	}

	if r.transferer == nil {
		return errResult("no chain client configured, cannot fund projects")
	}

	// One failed transfer must not block the rest.
	results := make([]map[string]any, 0, len(targets))
	for _, target := range targets {
		txHash, err := r.transferer.Transfer(ctx, spec.Wallet.SigningKey, target.To, fundingAmountMON)
		if err != nil {
			results = append(results, map[string]any{
				"repo": target.Repo, "to": target.To, "status": "failed", "error": err.Error(),
			})
			continue
		}
		results = append(results, map[string]any{
			"repo": target.Repo, "to": target.To, "status": "success", "tx": txHash,
		})
	}
	return map[string]any{"fundingResults": results}
}

// handleStoreAction routes free store reads by action name. Purchases are
// refused here: they must go through the paid API route.
func (r *Runtime) handleStoreAction(ctx context.Context, payload map[string]any) any {
	action := stringField(payload, "action")
	if action == "" {
		action = "list"
	}
	switch action {
	case "list", "listItems":
		return r.callTool(ctx, "store.listItems", map[string]any{})
	case "get", "getItem":
		return r.callTool(ctx, "store.getItemById", map[string]any{"itemId": stringField(payload, "itemId")})
	case "purchase", "buy":
		return errResult("Purchase action should be handled via API route with payment verification")
	default:
		return errResult(fmt.Sprintf("Unknown store action: %s", action))
	}
}

// purchaseItem buys a store item through the paid API route, settling the
// 402 challenge with the agent's own wallet.
func (r *Runtime) purchaseItem(ctx context.Context, spec core.AgentSpec, payload map[string]any) any {
	itemID := stringField(payload, "itemId")
	if itemID == "" {
		return errResult("itemId is required for purchase")
	}
	buyer := stringField(payload, "buyerAddress")
	if buyer == "" {
		return errResult("buyerAddress is required for purchase")
	}
	if spec.Wallet.SigningKey == "" {
		return errResult("Agent wallet missing private key")
	}
	if r.payer == nil {
		return errResult("no chain client configured, cannot settle payment")
	}

	item, ok := core.GetStoreItem(itemID)
	if !ok {
		return errResult(fmt.Sprintf("Item '%s' not found", itemID))
	}
	if r.stock != nil {
		if item.IsBundle {
			inStock, err := r.stock.BundleInStock(item.BundleItems)
			if err != nil {
				return errResult(err.Error())
			}
			if !inStock {
				return errResult(fmt.Sprintf("Bundle '%s' is out of stock (one or more items unavailable)", itemID))
			}
		} else {
			inStock, err := r.stock.InStock(itemID)
			if err != nil {
				return errResult(err.Error())
			}
			if !inStock {
				return errResult(fmt.Sprintf("Item '%s' is out of stock", itemID))
			}
		}
	}

	body := map[string]any{
		"action":       "purchase",
		"itemId":       itemID,
		"buyerAddress": buyer,
	}
	result, txHash, err := r.payer.PayAndCall(ctx, r.storeURL+"/api/agents/game-item-store/run", spec.Wallet.SigningKey, body)
	if err != nil {
		return errResult(err.Error())
	}
	if success, _ := result["success"].(bool); !success {
		if msg, ok := result["error"].(string); ok && msg != "" {
			return errResult(msg)
		}
		return errResult("Purchase failed")
	}
	out := map[string]any{"success": true, "purchase": result}
	if txHash != "" {
		out["txHash"] = txHash
	}
	return out
}

// paidCall is the generic paid HTTP step: POST a payload to a URL, paying
// one 402 challenge if the server issues one.
func (r *Runtime) paidCall(ctx context.Context, spec core.AgentSpec, payload map[string]any) any {
	url := stringField(payload, "url")
	if url == "" {
		return errResult("url is required")
	}
	if spec.Wallet.SigningKey == "" {
		return errResult("Agent wallet missing private key")
	}
	if r.payer == nil {
		return errResult("no chain client configured, cannot settle payment")
	}
	body, _ := payload["payload"].(map[string]any)
	if body == nil {
		body = map[string]any{}
	}
	result, txHash, err := r.payer.PayAndCall(ctx, url, spec.Wallet.SigningKey, body)
	if err != nil {
		return errResult(err.Error())
	}
	out := map[string]any{"result": result}
	if txHash != "" {
		out["txHash"] = txHash
	}
	return out
}

func toResult(out any, err error) any {
	if err != nil {
		return errResult(err.Error())
	}
	return out
}

func errResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// merge overlays caller input on top of the step's baked-in defaults.
func merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// fundingTargets coerces either typed targets or decoded JSON into the
// target list. A nil return means the field was absent.
func fundingTargets(v any) []core.FundingTarget {
	switch list := v.(type) {
	case []core.FundingTarget:
		return list
	case []any:
		targets := make([]core.FundingTarget, 0, len(list))
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			target := core.FundingTarget{
				Repo: stringField(m, "repo"),
				To:   stringField(m, "to"),
			}
			if rawSignals, ok := m["signals"].([]any); ok {
				for _, s := range rawSignals {
					if sig, ok := s.(string); ok {
						target.Signals = append(target.Signals, sig)
					}
				}
			}
			targets = append(targets, target)
		}
		return targets
	default:
		return nil
	}
}
