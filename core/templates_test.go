package core

import (
	"math"
	"testing"
)

func TestTemplateLookup(t *testing.T) {
	for _, id := range []string{
		"open-source-crypto-funder",
		"flight-search-agent",
		"github-support-agent",
		"game-item-store",
		"auto-item-buyer",
	} {
		tpl, ok := Template(id)
		if !ok {
			t.Fatalf("template %s not found", id)
		}
		if tpl.ID != id {
			t.Errorf("template %s has id %s", id, tpl.ID)
		}
		if len(tpl.Logic.Steps) == 0 {
			t.Errorf("template %s has no steps", id)
		}
		if tpl.Wallet.Address != "" || tpl.Wallet.SigningKey != "" {
			t.Errorf("template %s must not carry a wallet", id)
		}
	}

	if _, ok := Template("no-such-agent"); ok {
		t.Fatal("unknown template id must not resolve")
	}
}

func TestBundlePriceDiscount(t *testing.T) {
	bundle, ok := GetStoreItem("bundle")
	if !ok {
		t.Fatal("bundle item missing from catalog")
	}
	want := BundlePrice()
	if math.Abs(bundle.Price-want) > 1e-12 {
		t.Fatalf("bundle price %v, want %v", bundle.Price, want)
	}
	// 10% off two 0.0001 items.
	if math.Abs(want-0.00018) > 1e-12 {
		t.Fatalf("bundle price %v, want 0.00018", want)
	}
}

func TestSanitizedStripsSigningKey(t *testing.T) {
	agent := AgentSpec{
		ID:     "a1",
		Wallet: Wallet{Address: "0xabc", SigningKey: "0xsecret"},
	}
	clean := agent.Sanitized()
	if clean.Wallet.SigningKey != "" {
		t.Fatal("sanitized spec still carries the signing key")
	}
	if clean.Wallet.Address != "0xabc" {
		t.Fatal("sanitized spec lost the address")
	}
	if agent.Wallet.SigningKey != "0xsecret" {
		t.Fatal("Sanitized must not mutate the original")
	}
}
