// Package offline implements the client-side durable mutation queue and the
// sync manager that replays it against the live API. This file contains the
// HTTP replay client.
package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tbourn/go-attendance-backend/internal/domain"
)

// HTTPClient replays stored mutations over HTTP, reproducing the original
// method, endpoint, headers, and body. A 2xx status resolves the mutation:
// the server has reached a terminal state for it, even when the response
// body reports per-item conflicts (a retried replay cannot improve a
// duplicate).
type HTTPClient struct {
	// BaseURL prefixes stored endpoints (e.g. "https://api.example.org").
	BaseURL string
	// HC is the underlying HTTP client. Nil falls back to a 30s-timeout client.
	HC *http.Client
	// AuthToken, when set, is sent as a bearer token on every replay.
	AuthToken string
}

// Replay implements Client.
func (c *HTTPClient) Replay(ctx context.Context, m domain.QueuedMutation) error {
	url := strings.TrimRight(c.BaseURL, "/") + m.Endpoint

	req, err := http.NewRequestWithContext(ctx, m.Method, url, bytes.NewReader(m.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.Headers != "" {
		var hdrs map[string]string
		if err := json.Unmarshal([]byte(m.Headers), &hdrs); err == nil {
			for k, v := range hdrs {
				req.Header.Set(k, v)
			}
		}
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	hc := c.HC
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("replay %s %s: unexpected status %d", m.Method, m.Endpoint, resp.StatusCode)
	}
	return nil
}
