package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/x402-demos/agent-launchpad/chain"
)

// Client performs paid HTTP calls: it posts a request, and when the server
// answers 402 it settles the quoted amount on-chain and retries with the
// transaction hash as proof.
type Client struct {
	http       *http.Client
	transferer chain.Transferer
}

// NewClient returns a paying client that settles challenges through the
// given transferer.
func NewClient(t chain.Transferer) *Client {
	return &Client{
		http:       &http.Client{Timeout: 60 * time.Second},
		transferer: t,
	}
}

func (c *Client) post(ctx context.Context, url string, body map[string]any, proof string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if proof != "" {
		req.Header.Set(HeaderPaymentProof, proof)
	}
	return c.http.Do(req)
}

func decodeBody(resp *http.Response) (map[string]any, error) {
	defer resp.Body.Close()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	return result, nil
}

// PayAndCall posts the body to the url, paying one 402 challenge if the
// server issues one. It returns the final response body and the payment
// transaction hash (empty when no payment was needed).
func (c *Client) PayAndCall(ctx context.Context, url, signingKey string, body map[string]any) (map[string]any, string, error) {
	resp, err := c.post(ctx, url, body, "")
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		result, err := decodeBody(resp)
		if err != nil {
			return nil, "", err
		}
		return result, "", nil
	}

	price := resp.Header.Get(HeaderPrice)
	destination := resp.Header.Get(HeaderDestination)
	resp.Body.Close()
	if price == "" || destination == "" {
		return nil, "", fmt.Errorf("402 response missing payment headers")
	}
	amount, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return nil, "", fmt.Errorf("invalid price %q in 402 response: %v", price, err)
	}
	if c.transferer == nil {
		return nil, "", fmt.Errorf("no chain client configured, cannot settle payment")
	}
	if signingKey == "" {
		return nil, "", fmt.Errorf("missing signing key, cannot settle payment")
	}

	txHash, err := c.transferer.Transfer(ctx, signingKey, destination, amount)
	if err != nil {
		return nil, "", fmt.Errorf("payment transfer failed: %v", err)
	}

	// The proof travels in the header; the hash is echoed into the body so
	// the server can persist it with the receipt.
	retryBody := make(map[string]any, len(body)+1)
	for k, v := range body {
		retryBody[k] = v
	}
	retryBody["txHash"] = txHash

	resp, err = c.post(ctx, url, retryBody, txHash)
	if err != nil {
		return nil, txHash, err
	}
	result, err := decodeBody(resp)
	if err != nil {
		return nil, txHash, err
	}
	return result, txHash, nil
}
