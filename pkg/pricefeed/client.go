/**
 * @description
 * This package provides a client for the market data provider that supplies USD
 * spot quotes for the dashboard's portfolio view. It encapsulates the HTTP call
 * so the rest of the service only sees a symbol-to-price map.
 */
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a client for the market data provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new price feed client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type quoteResponse struct {
	Data []struct {
		Symbol string  `json:"symbol"`
		USD    float64 `json:"usd"`
	} `json:"data"`
}

// GetSpotQuotes fetches the USD spot price for each requested symbol. Symbols
// the provider does not know are simply absent from the result map.
func (c *Client) GetSpotQuotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("price feed base url is empty")
	}

	endpoint := fmt.Sprintf("%s/v1/spot?symbols=%s", c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to price feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("price feed returned error status %d", resp.StatusCode)
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	quotes := make(map[string]float64, len(payload.Data))
	for _, quote := range payload.Data {
		quotes[strings.ToUpper(strings.TrimSpace(quote.Symbol))] = quote.USD
	}
	return quotes, nil
}
