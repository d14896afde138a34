package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RegisterCoinbaseTool adds coinbase.getPrice, a spot price lookup against
// the public Coinbase API.
func RegisterCoinbaseTool(r *Registry, client *http.Client) {
	r.Register("coinbase.getPrice", func(ctx context.Context, input map[string]any) (any, error) {
		pair := stringInput(input, "pair")
		if pair == "" {
			pair = "BTC-USD"
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("https://api.coinbase.com/v2/prices/%s/spot", pair), nil)
		if err != nil {
			return nil, err
		}
		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Coinbase API error: %d", res.StatusCode)
		}

		var body struct {
			Data struct {
				Amount   string `json:"amount"`
				Currency string `json:"currency"`
			} `json:"data"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, err
		}
		return map[string]any{
			"price":    body.Data.Amount,
			"currency": body.Data.Currency,
			"source":   "Coinbase",
		}, nil
	})
}
