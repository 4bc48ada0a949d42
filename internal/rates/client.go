package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/emberleaf/storefront/internal/currency"
	"github.com/sony/gobreaker/v2"
)

// DefaultEndpoint serves the latest rates relative to the base currency.
const DefaultEndpoint = "https://api.exchangerate-api.com/v4/latest/INR"

// Fetcher performs one remote rate lookup.
type Fetcher interface {
	Fetch(ctx context.Context) (map[currency.Code]float64, error)
}

// Client fetches the rate table over HTTP. The call goes through a circuit
// breaker so a flapping rate API stops costing a round trip per refresh.
type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[map[currency.Code]float64]
}

func NewClient(url string) *Client {
	if url == "" {
		url = DefaultEndpoint
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[map[currency.Code]float64](gobreaker.Settings{
			Name:    "exchange-rates",
			Timeout: 2 * time.Minute,
		}),
	}
}

type ratesResponse struct {
	Rates map[currency.Code]float64 `json:"rates"`
}

func (c *Client) Fetch(ctx context.Context) (map[currency.Code]float64, error) {
	return c.breaker.Execute(func() (map[currency.Code]float64, error) {
		return c.fetch(ctx)
	})
}

func (c *Client) fetch(ctx context.Context) (map[currency.Code]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates endpoint returned %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}

	// A response missing any supported currency is treated as a total
	// failure of the call, the same as a network error.
	table := make(map[currency.Code]float64, len(currency.Codes()))
	table[currency.Base] = 1
	for _, code := range currency.Codes() {
		if code == currency.Base {
			continue
		}
		rate, ok := body.Rates[code]
		if !ok || rate <= 0 {
			return nil, fmt.Errorf("rates response missing %s", code)
		}
		table[code] = rate
	}
	return table, nil
}
