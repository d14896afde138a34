package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const amadeusBaseURL = "https://test.api.amadeus.com"

// RegisterAmadeusTools adds amadeus.searchFlights and amadeus.citySearch.
// Both authenticate per call with the OAuth2 client-credentials flow against
// the Amadeus test environment.
func RegisterAmadeusTools(r *Registry, client *http.Client, clientID, clientSecret string) {
	authenticate := func(ctx context.Context) (string, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", clientID)
		form.Set("client_secret", clientSecret)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			amadeusBaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		res, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer res.Body.Close()

		var body struct {
			AccessToken      string `json:"access_token"`
			ErrorDescription string `json:"error_description"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return "", err
		}
		if res.StatusCode != http.StatusOK || body.AccessToken == "" {
			return "", fmt.Errorf("failed to authenticate with Amadeus: %s", body.ErrorDescription)
		}
		return body.AccessToken, nil
	}

	r.Register("amadeus.searchFlights", func(ctx context.Context, input map[string]any) (any, error) {
		if clientID == "" || clientSecret == "" {
			return nil, fmt.Errorf("Amadeus API keys are missing in environment configuration")
		}
		origin := stringInput(input, "origin")
		destination := stringInput(input, "destination")
		departureDate := stringInput(input, "departureDate")

		token, err := authenticate(ctx)
		if err != nil {
			return nil, err
		}

		// Cap at 5 offers to keep the response concise.
		searchURL := fmt.Sprintf(
			"%s/v2/shopping/flight-offers?originLocationCode=%s&destinationLocationCode=%s&departureDate=%s&adults=1&max=5",
			amadeusBaseURL, origin, destination, departureDate)
		if code := stringInput(input, "currencyCode"); code != "" {
			searchURL += "&currencyCode=" + code
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		var body struct {
			Data []struct {
				Itineraries []struct {
					Duration string `json:"duration"`
					Segments []struct {
						CarrierCode string `json:"carrierCode"`
						Departure   struct {
							IataCode string `json:"iataCode"`
							At       string `json:"at"`
						} `json:"departure"`
						Arrival struct {
							IataCode string `json:"iataCode"`
							At       string `json:"at"`
						} `json:"arrival"`
					} `json:"segments"`
				} `json:"itineraries"`
				Price struct {
					Total    string `json:"total"`
					Currency string `json:"currency"`
				} `json:"price"`
			} `json:"data"`
			Issues []struct {
				Detail string `json:"detail"`
			} `json:"issues"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			issue := res.Status
			if len(body.Issues) > 0 {
				issue = body.Issues[0].Detail
			}
			return nil, fmt.Errorf("flight search failed: %s", issue)
		}

		var flights []map[string]any
		for _, offer := range body.Data {
			if len(offer.Itineraries) == 0 {
				continue
			}
			itinerary := offer.Itineraries[0]
			segments := itinerary.Segments
			if len(segments) == 0 {
				continue
			}
			first := segments[0]
			last := segments[len(segments)-1]
			flights = append(flights, map[string]any{
				"price":     fmt.Sprintf("%s %s", offer.Price.Total, offer.Price.Currency),
				"airline":   first.CarrierCode,
				"departure": fmt.Sprintf("%s at %s", first.Departure.IataCode, first.Departure.At),
				"arrival":   fmt.Sprintf("%s at %s", last.Arrival.IataCode, last.Arrival.At),
				"duration":  itinerary.Duration,
				"stops":     len(segments) - 1,
			})
		}
		return map[string]any{"flights": flights}, nil
	})

	r.Register("amadeus.citySearch", func(ctx context.Context, input map[string]any) (any, error) {
		if clientID == "" || clientSecret == "" {
			return nil, fmt.Errorf("Amadeus API keys are missing in environment configuration")
		}
		keyword := stringInput(input, "keyword")
		if keyword == "" {
			return nil, fmt.Errorf("keyword is required")
		}

		token, err := authenticate(ctx)
		if err != nil {
			return nil, err
		}

		searchURL := fmt.Sprintf("%s/v1/reference-data/locations?subType=CITY,AIRPORT&keyword=%s",
			amadeusBaseURL, url.QueryEscape(keyword))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		res, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, nil
		}

		var body struct {
			Data []struct {
				IataCode string `json:"iataCode"`
			} `json:"data"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return nil, nil
		}
		if len(body.Data) == 0 {
			return nil, nil
		}
		return body.Data[0].IataCode, nil
	})
}
