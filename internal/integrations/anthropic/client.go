// Package anthropic is a focused client for the Anthropic Messages API.
package anthropic

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

	"github.com/jans-saya/DOIT/internal/domain"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultTimeout = 10 * time.Minute
	apiVersion     = "2023-06-01"
)

// messagesRequest is the request shape for POST /v1/messages.
type messagesRequest struct {
	Model     string               `json:"model"`
	MaxTokens int                  `json:"max_tokens"`
	System    string               `json:"system,omitempty"`
	Messages  []domain.ChatMessage `json:"messages"`
}

// messagesResponse is the subset of the Messages API response the gateway relays.
type messagesResponse struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Role       string                `json:"role"`
	Model      string                `json:"model"`
	StopReason string                `json:"stop_reason"`
	Content    []domain.ContentBlock `json:"content"`
	Usage      domain.Usage          `json:"usage"`
}

// errorEnvelope is the body Anthropic returns on non-2xx responses.
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client issues Messages API calls with a single long-lived key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a Client bound to apiKey. It performs no network calls.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func messagesURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/messages"
	}
	return base + "/v1/messages"
}

// CreateMessage sends one non-streaming Messages API call. Failures reported
// by the provider, including transport failures, are *domain.ProviderError.
func (c *Client) CreateMessage(ctx context.Context, in domain.CompletionRequest) (domain.Completion, error) {
	if strings.TrimSpace(in.Model) == "" {
		return domain.Completion{}, errors.New("anthropic: model must not be empty")
	}
	if in.MaxTokens <= 0 {
		return domain.Completion{}, errors.New("anthropic: max tokens must be positive")
	}
	messages := in.Messages
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	body, err := json.Marshal(messagesRequest{
		Model:     in.Model,
		MaxTokens: in.MaxTokens,
		System:    in.System,
		Messages:  messages,
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	url := messagesURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("anthropic: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	raw, err := c.doJSONRequest(req)
	if err != nil {
		return domain.Completion{}, err
	}

	var payload messagesResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Completion{}, fmt.Errorf("anthropic: decode response: %w", err)
	}
	return domain.Completion{
		ID:         payload.ID,
		Model:      payload.Model,
		Role:       payload.Role,
		StopReason: payload.StopReason,
		Content:    payload.Content,
		Usage:      payload.Usage,
	}, nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, &domain.ProviderError{
			Kind:    domain.ProviderAPI,
			Message: "connection error: " + err.Error(),
			Err:     err,
		}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, statusError(res.StatusCode, buf)
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("anthropic: read response body: %w", err)
	}
	return buf, nil
}

// statusError classifies a non-2xx response. The HTTP status decides the kind;
// the error type in the body is only used when the status is ambiguous.
func statusError(status int, body []byte) *domain.ProviderError {
	pe := &domain.ProviderError{
		Kind:       domain.ProviderAPI,
		StatusCode: status,
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		pe.Type = env.Error.Type
		pe.Message = env.Error.Message
	} else {
		pe.Message = strings.TrimSpace(string(body))
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized, pe.Type == "authentication_error":
		pe.Kind = domain.ProviderAuthentication
	case status == http.StatusTooManyRequests, pe.Type == "rate_limit_error":
		pe.Kind = domain.ProviderRateLimit
	}
	return pe
}
