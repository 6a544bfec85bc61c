// Package advice wraps the external content-generation collaborator. The
// contract is text in, text out; a failure of the collaborator must never
// block a ledger operation, so every path here degrades to a canned
// fallback string instead of returning an error.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	fallbackAdvice      = "Markets are steady. Reinvesting daily income compounds your returns."
	fallbackDescription = "A reliable energy plan with consistent daily output."
)

// Client talks to the advice service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. An empty baseURL disables the collaborator;
// callers then always get the fallback text.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 3 * time.Second},
	}
}

// InvestmentAdvice returns freeform advice text keyed by a balance
func (c *Client) InvestmentAdvice(ctx context.Context, balance int64) string {
	return c.post(ctx, "/advice", map[string]any{"balance": balance}, fallbackAdvice)
}

// ProductDescription returns freeform marketing text for a product
func (c *Client) ProductDescription(ctx context.Context, name string, dailyIncome int64) string {
	return c.post(ctx, "/describe", map[string]any{"name": name, "daily_income": dailyIncome}, fallbackDescription)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any, fallback string) string {
	if c.baseURL == "" {
		return fallback
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fallback
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fallback
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil || out.Text == "" {
		return fallback
	}
	return out.Text
}
