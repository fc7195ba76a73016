// Package llm provides the advisor adapter for OpenAI-compatible chat completion APIs.
// It sends the farmer's message with a topic-specific system prompt and returns the
// assistant's reply text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-3.5-turbo"
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 500
)

var systemPrompts = map[domain.Topic]string{
	domain.TopicAgronomy:    "You are an expert agricultural advisor for Indian farmers. Provide practical farming advice considering Indian climate and crops. Keep responses concise and actionable.",
	domain.TopicMarketplace: "You are a helpful guide for an agricultural marketplace platform. Help users understand how to buy and sell crops, pricing, and platform features.",
	domain.TopicGeneral:     "You are a helpful agricultural assistant for farmers in India. You can answer questions about farming practices, crop prices, market trends, and our Kisan Mandi platform. Keep responses concise and practical.",
}

// Config describes how to reach the completion endpoint.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Temperature  float64
	MaxTokens    int
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
}

var _ ports.Advisor = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient builds a client. The API key is sent as an OAuth2 bearer token.
// Temperature is sent as configured, so zero means deterministic sampling.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{}
	if cfg.APIKey != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	httpClient.Timeout = timeout

	return &Client{
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient:  httpClient,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.RetryBackoff,
		logger:      logger,
	}
}

// Advise asks the model for a reply to message using the persona for topic.
func (c *Client) Advise(ctx context.Context, topic domain.Topic, message string) (string, error) {
	prompt, ok := systemPrompts[topic]
	if !ok {
		prompt = systemPrompts[domain.TopicGeneral]
	}
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: message},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrAdvisorUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("llm: %w: status %d", ports.ErrAdvisorUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm: %w: status %d: %s", ports.ErrAdvisorUnavailable, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: %w: decode response: %v", ports.ErrAdvisorUnavailable, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm: %w: %s", ports.ErrAdvisorUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("llm: %w: empty response", ports.ErrAdvisorUnavailable)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
