// Package prices resolves historical USD token prices via the DefiLlama
// coins API.
package prices

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bribecast/internal/types"
)

// Source resolves a USD price for a token at a point in time. A zero at
// means "current price".
type Source interface {
	Price(ctx context.Context, token types.Address, network types.Network, at time.Time) (float64, error)
}

// ClientOptions parameterise the DefiLlama client.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client is a single-round-trip DefiLlama prices client.
type Client struct {
	opts    ClientOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a prices client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://coins.llama.fi/prices"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "prices").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type priceRequest struct {
	Coins     []string `json:"coins"`
	Timestamp int64    `json:"timestamp"`
}

type priceResponse struct {
	Coins map[string]struct {
		Decimals  int     `json:"decimals"`
		Price     float64 `json:"price"`
		Symbol    string  `json:"symbol"`
		Timestamp int64   `json:"timestamp"`
	} `json:"coins"`
}

// Price fetches the USD price for token on network, keyed as
// "<network>:<address>". A zero at requests the current price.
func (c *Client) Price(ctx context.Context, token types.Address, network types.Network, at time.Time) (float64, error) {
	key := fmt.Sprintf("%s:%s", network, token.Hex())

	var ts int64
	if !at.IsZero() {
		ts = at.Unix()
	}

	body, err := json.Marshal(priceRequest{Coins: []string{key}, Timestamp: ts})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("defillama error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed priceResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return 0, fmt.Errorf("parse defillama response: %w", err)
	}

	coin, ok := parsed.Coins[key]
	if !ok {
		return 0, fmt.Errorf("no price found for %s", key)
	}

	return coin.Price, nil
}

var _ Source = (*Client)(nil)
