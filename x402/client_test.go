package x402

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeTransferer struct {
	calls []transferCall
	fail  bool
}

type transferCall struct {
	to     string
	amount float64
}

func (f *fakeTransferer) Transfer(ctx context.Context, signingKey, to string, amountMON float64) (string, error) {
	if f.fail {
		return "", fmt.Errorf("insufficient funds")
	}
	f.calls = append(f.calls, transferCall{to: to, amount: amountMON})
	return "0xpaid", nil
}

// paidEndpoint answers 402 until the request carries a proof, then echoes
// the proof and body back.
func paidEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proof := r.Header.Get(HeaderPaymentProof)
		if proof == "" {
			w.Header().Set(HeaderPrice, "0.0001")
			w.Header().Set(HeaderToken, "MON")
			w.Header().Set(HeaderDestination, "0xstore")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]any{"error": "Payment Required"})
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"proof":   proof,
			"txHash":  body["txHash"],
		})
	}))
}

func TestPayAndCallSettlesChallenge(t *testing.T) {
	srv := paidEndpoint(t)
	defer srv.Close()

	transferer := &fakeTransferer{}
	client := NewClient(transferer)

	result, txHash, err := client.PayAndCall(context.Background(), srv.URL, "0xkey", map[string]any{"action": "purchase"})
	if err != nil {
		t.Fatal(err)
	}
	if txHash != "0xpaid" {
		t.Fatalf("txHash = %q, want 0xpaid", txHash)
	}
	if success, _ := result["success"].(bool); !success {
		t.Fatalf("result = %v", result)
	}
	if result["proof"] != "0xpaid" || result["txHash"] != "0xpaid" {
		t.Fatalf("proof not forwarded: %v", result)
	}

	if len(transferer.calls) != 1 {
		t.Fatalf("%d transfers, want 1", len(transferer.calls))
	}
	if call := transferer.calls[0]; call.to != "0xstore" || call.amount != 0.0001 {
		t.Fatalf("transfer = %+v", call)
	}
}

func TestPayAndCallSkipsPaymentWhenFree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	transferer := &fakeTransferer{}
	client := NewClient(transferer)

	result, txHash, err := client.PayAndCall(context.Background(), srv.URL, "0xkey", nil)
	if err != nil {
		t.Fatal(err)
	}
	if txHash != "" {
		t.Fatalf("txHash = %q, want empty", txHash)
	}
	if success, _ := result["success"].(bool); !success {
		t.Fatalf("result = %v", result)
	}
	if len(transferer.calls) != 0 {
		t.Fatal("no transfer expected for a free call")
	}
}

func TestPayAndCallReportsTransferFailure(t *testing.T) {
	srv := paidEndpoint(t)
	defer srv.Close()

	client := NewClient(&fakeTransferer{fail: true})
	_, _, err := client.PayAndCall(context.Background(), srv.URL, "0xkey", nil)
	if err == nil {
		t.Fatal("expected error when the payment transfer fails")
	}
}

func TestPayAndCallRequiresSigningKey(t *testing.T) {
	srv := paidEndpoint(t)
	defer srv.Close()

	client := NewClient(&fakeTransferer{})
	_, _, err := client.PayAndCall(context.Background(), srv.URL, "", nil)
	if err == nil {
		t.Fatal("expected error without a signing key")
	}
}
