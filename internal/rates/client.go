package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kudi/internal/core"
)

// Client fetches live conversion rates from an exchangerate-api v6 compatible
// endpoint and caches the table for a TTL. A stale table is still served when
// a refresh fails, so a flaky rate service degrades instead of breaking entry
// creation.
type Client struct {
	baseURL string
	apiKey  string
	base    string
	ttl     time.Duration
	httpc   *http.Client
	now     func() time.Time

	mu        sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
}

func NewClient(baseURL, apiKey, baseCurrency string, ttl time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		base:    baseCurrency,
		ttl:     ttl,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

type ratesResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (c *Client) Convert(ctx context.Context, m core.Money, from string) (core.Money, error) {
	if from == c.base {
		return m, nil
	}
	table, err := c.table(ctx)
	if err != nil {
		return core.Money{}, err
	}
	rate, ok := table[from]
	if !ok {
		return core.Money{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	return convertToBase(m, from, rate)
}

func (c *Client) table(ctx context.Context) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := c.rates != nil && c.now().Sub(c.fetchedAt) < c.ttl
	if fresh {
		return c.rates, nil
	}

	table, err := c.fetch(ctx)
	if err != nil {
		if c.rates != nil {
			slog.WarnContext(ctx, "Rate refresh failed, serving stale table",
				"error", err,
				"age", c.now().Sub(c.fetchedAt).Round(time.Second))
			return c.rates, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.rates = table
	c.fetchedAt = c.now()
	return c.rates, nil
}

func (c *Client) fetch(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/v6/%s/latest/%s", c.baseURL, c.apiKey, c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate service returned %s", resp.Status)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if body.Result != "success" || len(body.ConversionRates) == 0 {
		return nil, fmt.Errorf("rate service result %q", body.Result)
	}

	slog.InfoContext(ctx, "Conversion rates refreshed",
		"base", body.BaseCode,
		"currencies", len(body.ConversionRates))

	return body.ConversionRates, nil
}
