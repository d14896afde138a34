package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/x402-demos/agent-launchpad/core"
	"github.com/x402-demos/agent-launchpad/tools"
)

type fakeTransferer struct {
	calls  []string
	failTo string
}

func (f *fakeTransferer) Transfer(ctx context.Context, signingKey, to string, amountMON float64) (string, error) {
	if to == f.failTo {
		return "", fmt.Errorf("insufficient funds")
	}
	f.calls = append(f.calls, to)
	return "0xtx" + to, nil
}

func specWithSteps(steps ...core.Step) core.AgentSpec {
	return core.AgentSpec{
		ID:     "test-agent",
		Wallet: core.Wallet{Address: "0xagent", SigningKey: "0xkey"},
		Logic:  core.Logic{Steps: steps},
	}
}

func stepResult(t *testing.T, result core.RunResult, i int) any {
	t.Helper()
	var seen int
	for _, entry := range result.Logs {
		if entry.Type == core.LogStepEnd {
			if seen == i {
				return entry.Result
			}
			seen++
		}
	}
	t.Fatalf("no step_end entry %d in trace", i)
	return nil
}

func errOf(result any) string {
	m, _ := result.(map[string]any)
	s, _ := m["error"].(string)
	return s
}

func TestRunTraceShape(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register("fake.one", func(ctx context.Context, input map[string]any) (any, error) {
		return "first", nil
	})
	registry.Register("fake.two", func(ctx context.Context, input map[string]any) (any, error) {
		return "second", nil
	})
	rt := New(registry, nil, nil, nil, "")

	result := rt.Run(context.Background(), specWithSteps(
		core.Step{Type: "fake.one"},
		core.Step{Type: "fake.two"},
	), nil)

	wantTypes := []string{
		core.LogStart,
		core.LogStepStart, core.LogStepEnd,
		core.LogStepStart, core.LogStepEnd,
		core.LogComplete,
	}
	if len(result.Logs) != len(wantTypes) {
		t.Fatalf("trace has %d entries, want %d", len(result.Logs), len(wantTypes))
	}
	for i, want := range wantTypes {
		if result.Logs[i].Type != want {
			t.Errorf("logs[%d].Type = %s, want %s", i, result.Logs[i].Type, want)
		}
	}
	if result.Output != "second" {
		t.Fatalf("output = %v, want the last step's result", result.Output)
	}
}

func TestEmptyStepsYieldBareTrace(t *testing.T) {
	rt := New(tools.NewRegistry(), nil, nil, nil, "")
	result := rt.Run(context.Background(), specWithSteps(), nil)

	if result.Output != nil {
		t.Fatalf("output = %v, want nil", result.Output)
	}
	if len(result.Logs) != 2 || result.Logs[0].Type != core.LogStart || result.Logs[1].Type != core.LogComplete {
		t.Fatalf("trace = %+v", result.Logs)
	}
}

func TestUnknownStepDoesNotAbortRun(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register("fake.ok", func(ctx context.Context, input map[string]any) (any, error) {
		return "done", nil
	})
	rt := New(registry, nil, nil, nil, "")

	result := rt.Run(context.Background(), specWithSteps(
		core.Step{Type: "no.such.step"},
		core.Step{Type: "fake.ok"},
	), nil)

	if got := errOf(stepResult(t, result, 0)); got != "Unknown step type: no.such.step" {
		t.Fatalf("first step result = %q", got)
	}
	if result.Output != "done" {
		t.Fatalf("run aborted after unknown step: output = %v", result.Output)
	}
}

func TestToolErrorBecomesStepResult(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register("fake.broken", func(ctx context.Context, input map[string]any) (any, error) {
		return nil, fmt.Errorf("upstream unavailable")
	})
	rt := New(registry, nil, nil, nil, "")

	result := rt.Run(context.Background(), specWithSteps(core.Step{Type: "fake.broken"}), nil)
	if got := errOf(result.Output); got != "upstream unavailable" {
		t.Fatalf("output = %v", result.Output)
	}
}

func TestCallerInputOverridesStepDefaults(t *testing.T) {
	registry := tools.NewRegistry()
	var gotPair string
	registry.Register("coinbase.getPrice", func(ctx context.Context, input map[string]any) (any, error) {
		gotPair, _ = input["pair"].(string)
		return map[string]any{"price": "1.00"}, nil
	})
	rt := New(registry, nil, nil, nil, "")

	spec := specWithSteps(core.Step{
		Type:  "coinbase.getPrice",
		Input: map[string]any{"pair": "BTC-USD"},
	})
	rt.Run(context.Background(), spec, map[string]any{"pair": "MON-USD"})

	if gotPair != "MON-USD" {
		t.Fatalf("pair = %q, caller input must win", gotPair)
	}
}

func TestAnalyzeReposSelectsRegisteredCryptoRepos(t *testing.T) {
	readmes := map[string]string{
		"bitcoin/bitcoin":      "Donate via bitcoin and lightning",
		"monadlabs/monad-node": "A node implementation",
		"someuser/someproject": "We accept ethereum grants",
	}
	registry := tools.NewRegistry()
	registry.Register("github.fetchReadme", func(ctx context.Context, input map[string]any) (any, error) {
		repo, _ := input["repo"].(string)
		return readmes[repo], nil
	})
	registry.Register("github.fetchFundingFile", func(ctx context.Context, input map[string]any) (any, error) {
		return "", nil
	})
	rt := New(registry, nil, nil, nil, "")

	result := rt.Run(context.Background(), specWithSteps(core.Step{Type: "github.fetchAndAnalyzeAll"}), nil)

	out, ok := result.Output.(map[string]any)
	if !ok {
		t.Fatalf("output = %v", result.Output)
	}
	targets, ok := out["projectsToFund"].([]core.FundingTarget)
	if !ok {
		t.Fatalf("projectsToFund = %v", out["projectsToFund"])
	}
	if len(targets) != 2 {
		t.Fatalf("%d targets, want 2: %+v", len(targets), targets)
	}
	// "monad" matches the monad-node repo name, not its content; only
	// content counts, so the middle repo is skipped. Curated order holds.
	if targets[0].Repo != "bitcoin/bitcoin" || targets[1].Repo != "someuser/someproject" {
		t.Fatalf("targets = %+v", targets)
	}
	if targets[0].To != core.FundingRegistry["bitcoin/bitcoin"] {
		t.Fatalf("target address = %s", targets[0].To)
	}
}

func TestFundProjectsCapsAndSurvivesFailures(t *testing.T) {
	transferer := &fakeTransferer{failTo: "0x3"}
	rt := New(tools.NewRegistry(), transferer, nil, nil, "")

	projects := make([]any, 0, 7)
	for i := 1; i <= 7; i++ {
		projects = append(projects, map[string]any{
			"repo": fmt.Sprintf("org/repo%d", i),
			"to":   fmt.Sprintf("0x%d", i),
		})
	}

	result := rt.Run(context.Background(),
		specWithSteps(core.Step{Type: "wallet.fundProjects"}),
		map[string]any{"projectsToFund": projects})

	out, _ := result.Output.(map[string]any)
	results, _ := out["fundingResults"].([]map[string]any)
	if len(results) != 5 {
		t.Fatalf("%d funding results, want cap of 5", len(results))
	}
	var failed, succeeded int
	for _, r := range results {
		switch r["status"] {
		case "success":
			succeeded++
		case "failed":
			failed++
		}
	}
	if succeeded != 4 || failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 4/1", succeeded, failed)
	}
	if len(transferer.calls) != 4 {
		t.Fatalf("%d transfers sent, want 4", len(transferer.calls))
	}
}

func TestFundProjectsRequiresSigningKey(t *testing.T) {
	rt := New(tools.NewRegistry(), &fakeTransferer{}, nil, nil, "")

	spec := specWithSteps(core.Step{Type: "wallet.fundProjects"})
	spec.Wallet.SigningKey = ""
	result := rt.Run(context.Background(), spec, nil)

	if got := errOf(result.Output); got != "Agent wallet missing private key" {
		t.Fatalf("output = %v", result.Output)
	}
}

func TestFundProjectsReadsPreviousStepOutput(t *testing.T) {
	transferer := &fakeTransferer{}
	registry := tools.NewRegistry()
	registry.Register("fake.analysis", func(ctx context.Context, input map[string]any) (any, error) {
		return map[string]any{"projectsToFund": []core.FundingTarget{
			{Repo: "org/repo", To: "0xrepo"},
		}}, nil
	})
	rt := New(registry, transferer, nil, nil, "")

	result := rt.Run(context.Background(), specWithSteps(
		core.Step{Type: "fake.analysis"},
		core.Step{Type: "wallet.fundProjects"},
	), nil)

	out, _ := result.Output.(map[string]any)
	results, _ := out["fundingResults"].([]map[string]any)
	if len(results) != 1 || results[0]["status"] != "success" {
		t.Fatalf("fundingResults = %+v", results)
	}
	if len(transferer.calls) != 1 || transferer.calls[0] != "0xrepo" {
		t.Fatalf("transfers = %v", transferer.calls)
	}
}

func TestCancellationStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	registry := tools.NewRegistry()
	registry.Register("fake.cancel", func(ctx context.Context, input map[string]any) (any, error) {
		cancel()
		return "ran", nil
	})
	registry.Register("fake.never", func(ctx context.Context, input map[string]any) (any, error) {
		t.Error("step scheduled after cancellation")
		return nil, nil
	})
	rt := New(registry, nil, nil, nil, "")

	result := rt.Run(ctx, specWithSteps(
		core.Step{Type: "fake.cancel"},
		core.Step{Type: "fake.never"},
	), nil)

	if result.Output != "ran" {
		t.Fatalf("output = %v, want the in-flight step's result", result.Output)
	}
	if result.Logs[len(result.Logs)-1].Type != core.LogComplete {
		t.Fatal("trace must still end with a complete entry")
	}
}

func TestStoreActionDispatch(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register("store.listItems", func(ctx context.Context, input map[string]any) (any, error) {
		return map[string]any{"items": []any{}}, nil
	})
	rt := New(registry, nil, nil, nil, "")

	spec := specWithSteps(core.Step{Type: "store.handleAction"})

	// Default action is list.
	result := rt.Run(context.Background(), spec, nil)
	if out, _ := result.Output.(map[string]any); out["items"] == nil {
		t.Fatalf("default action output = %v", result.Output)
	}

	result = rt.Run(context.Background(), spec, map[string]any{"action": "purchase"})
	if got := errOf(result.Output); got != "Purchase action should be handled via API route with payment verification" {
		t.Fatalf("purchase action output = %v", result.Output)
	}

	result = rt.Run(context.Background(), spec, map[string]any{"action": "explode"})
	if got := errOf(result.Output); got != "Unknown store action: explode" {
		t.Fatalf("unknown action output = %v", result.Output)
	}
}

func TestPurchaseItemValidation(t *testing.T) {
	rt := New(tools.NewRegistry(), nil, nil, nil, "")
	spec := specWithSteps(core.Step{Type: "store.purchaseItem"})

	result := rt.Run(context.Background(), spec, nil)
	if got := errOf(result.Output); got != "itemId is required for purchase" {
		t.Fatalf("missing itemId: %v", result.Output)
	}

	result = rt.Run(context.Background(), spec, map[string]any{"itemId": "sword"})
	if got := errOf(result.Output); got != "buyerAddress is required for purchase" {
		t.Fatalf("missing buyerAddress: %v", result.Output)
	}

	noKey := spec
	noKey.Wallet.SigningKey = ""
	result = rt.Run(context.Background(), noKey, map[string]any{"itemId": "sword", "buyerAddress": "0xbuyer"})
	if got := errOf(result.Output); got != "Agent wallet missing private key" {
		t.Fatalf("missing key: %v", result.Output)
	}

	result = rt.Run(context.Background(), spec, map[string]any{"itemId": "no-such-item", "buyerAddress": "0xbuyer"})
	if got := errOf(result.Output); got != "no chain client configured, cannot settle payment" {
		t.Fatalf("nil payer: %v", result.Output)
	}
}
