package storage

import (
	"testing"

	"github.com/x402-demos/agent-launchpad/core"
)

func TestAgentStoreRoundTrip(t *testing.T) {
	agents := NewAgentStore(newTestDB(t))

	if _, found, err := agents.Get("missing"); err != nil || found {
		t.Fatalf("missing agent: found=%v err=%v", found, err)
	}

	agent := core.AgentSpec{
		ID:      "a1",
		Name:    "Test Agent",
		Wallet:  core.Wallet{Address: "0xabc", SigningKey: "0xkey"},
		Pricing: core.Pricing{Enabled: true, Token: "MON", Amount: 0.001},
		Logic:   core.Logic{Steps: []core.Step{{Type: "llm.generate"}}},
	}
	if err := agents.Save(agent); err != nil {
		t.Fatal(err)
	}

	loaded, found, err := agents.Get("a1")
	if err != nil || !found {
		t.Fatalf("get saved agent: found=%v err=%v", found, err)
	}
	if loaded.Name != agent.Name || loaded.Wallet.SigningKey != agent.Wallet.SigningKey {
		t.Fatalf("loaded agent differs: %+v", loaded)
	}
	if len(loaded.Logic.Steps) != 1 || loaded.Logic.Steps[0].Type != "llm.generate" {
		t.Fatalf("loaded steps differ: %+v", loaded.Logic.Steps)
	}

	all, err := agents.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("list returned %d agents, want 1", len(all))
	}
}

func TestAgentStoreRejectsEmptyID(t *testing.T) {
	agents := NewAgentStore(newTestDB(t))
	if err := agents.Save(core.AgentSpec{}); err == nil {
		t.Fatal("saving an agent without an id must fail")
	}
}

func TestPurchaseStoreRoundTrip(t *testing.T) {
	purchases := NewPurchaseStore(newTestDB(t))

	record := core.PurchaseRecord{
		ID:           "p1",
		AgentID:      "game-item-store",
		BuyerAddress: "0xbuyer",
		ItemID:       "sword",
		ItemName:     "Sword of Monad",
		Amount:       0.0001,
		Token:        "MON",
		PaidAt:       "2026-08-28T00:00:00Z",
		TxHash:       "0xhash",
	}
	if err := purchases.Save(record); err != nil {
		t.Fatal(err)
	}

	all, err := purchases.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].TxHash != "0xhash" {
		t.Fatalf("unexpected purchase list: %+v", all)
	}
}
