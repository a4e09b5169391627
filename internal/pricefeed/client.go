// internal/pricefeed/client.go
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultURL     = "https://fapi.binance.com/fapi/v1/ticker/24hr"
	DefaultTimeout = 10 * time.Second
)

// Ticker is the 24h statistics row for one symbol.
type Ticker struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
}

// FetchError reports a failed ticker fetch.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("price fetch failed: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("price fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher returns the latest tickers.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Ticker, error)
}

// Client reads 24h tickers from the exchange REST API.
type Client struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a REST client for url.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("prices"),
	}
}

// Fetch returns all tickers.
func (c *Client) Fetch(ctx context.Context) ([]Ticker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("body: %s", string(body))}
	}

	var tickers []Ticker
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Debug("Fetched tickers", zap.Int("count", len(tickers)))
	return tickers, nil
}
