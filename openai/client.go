// Package openai is a minimal client for the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/metrics"
	"github.com/giygas/medcompanion-api/upstream"
)

// Vendor is the name used in errors, metrics and probes
const Vendor = "openai"

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the chat client.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL. Compatible APIs can be used by changing it.
	BaseURL string

	// Model is used when a call does not name one.
	Model string

	Timeout time.Duration
}

// ErrMissingAPIKey is returned by NewClient without an API key
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Client implements interfaces.TextGenerator and interfaces.Prober.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

var (
	_ interfaces.TextGenerator = (*Client)(nil)
	_ interfaces.Prober        = (*Client)(nil)
)

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string                 `json:"model"`
	Messages    []entities.ChatMessage `json:"messages"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Temperature *float64               `json:"temperature,omitempty"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:    upstream.NewHTTPClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

func (c *Client) Name() string {
	return Vendor
}

// Chat sends one completion request and returns the first choice's text.
// No retries are attempted.
func (c *Client) Chat(ctx context.Context, messages []entities.ChatMessage, opts entities.ChatOptions) (reply string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveVendorCall(Vendor, start, err) }()

	reqBody := chatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: opts.MaxTokens,
	}
	if opts.Model != "" {
		reqBody.Model = opts.Model
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = &opts.Temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", upstream.TransportError(Vendor, err)
	}
	defer upstream.CloseBody(Vendor, resp.Body)

	if !upstream.IsSuccess(resp.StatusCode) {
		return "", upstream.StatusError(Vendor, resp)
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", upstream.TransportError(Vendor, fmt.Errorf("decode response: %w", err))
	}

	if chatResp.Error != nil {
		return "", &entities.UpstreamError{Vendor: Vendor, StatusCode: resp.StatusCode, Detail: chatResp.Error.Message}
	}

	if len(chatResp.Choices) == 0 {
		return "", &entities.UpstreamError{Vendor: Vendor, StatusCode: resp.StatusCode, Detail: "no choices returned"}
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Ping validates the key and reachability via the /models endpoint
// without running inference.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return upstream.TransportError(Vendor, err)
	}
	defer upstream.CloseBody(Vendor, resp.Body)

	if !upstream.IsSuccess(resp.StatusCode) {
		return upstream.StatusError(Vendor, resp)
	}
	return nil
}
