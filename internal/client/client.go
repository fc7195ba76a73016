// Package client is a typed Go client for the Kisan Mandi JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("client: api status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("client: api status %d: %s", e.Status, e.Message)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Price is one row of GET /api/prices.
type Price struct {
	Commodity    string          `json:"commodity"`
	Price        decimal.Decimal `json:"price"`
	DisplayPrice string          `json:"display_price"`
	Unit         string          `json:"unit"`
	Market       string          `json:"market"`
}

// Stats is the body of GET /api/chat/stats.
type Stats struct {
	Total   int64               `json:"total"`
	Intents []domain.IntentStat `json:"intents"`
}

// Client calls the API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for baseURL. A zero timeout uses the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := do(ctx, c, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("client: unexpected health status %q", out.Status)
	}
	return nil
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (domain.ChatExchange, error) {
	var out domain.ChatExchange
	err := do(ctx, c, http.MethodPost, "/api/chat", req, &out)
	return out, err
}

func (c *Client) Prices(ctx context.Context) ([]Price, error) {
	var out struct {
		Prices []Price `json:"prices"`
	}
	if err := do(ctx, c, http.MethodGet, "/api/prices", nil, &out); err != nil {
		return nil, err
	}
	return out.Prices, nil
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := do(ctx, c, http.MethodGet, "/api/chat/stats", nil, &out)
	return out, err
}

func do[T any](ctx context.Context, c *Client, method, path string, body any, out *T) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
