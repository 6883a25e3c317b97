// Package subgraph fetches raw bribe epochs from the Votium and HiddenHand
// subgraphs.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type graphClient struct {
	url       string
	client    *http.Client
	userAgent string
}

func newGraphClient(url, userAgent string, timeout time.Duration) graphClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return graphClient{
		url:       strings.TrimRight(url, "/"),
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (g graphClient) query(ctx context.Context, query string, variables map[string]any, out any) error {
	if g.url == "" {
		return fmt.Errorf("subgraph url not configured")
	}

	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(g.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subgraph error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("parse subgraph response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("subgraph error: %s", envelope.Errors[0].Message)
	}

	return json.Unmarshal(envelope.Data, out)
}
