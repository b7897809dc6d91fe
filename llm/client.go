// Package llm provides a single-shot text-generation client. One request is
// sent per call; there is no retry or fallback. Provider adapters live in
// llm/providers and register themselves via init().
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 60 * time.Second

// Generator produces text for a prompt. Client and the genai-backed
// generator in llm/providers implement it.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request defines a generation request.
type Request struct {
	// Prompt is the full instruction text.
	Prompt string

	// MaxOutputTokens limits response length. 0 uses the API default.
	MaxOutputTokens int
}

// TokenUsage represents token consumption details for a call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response contains the generation result. Content is untrusted raw text.
type Response struct {
	// RequestID uniquely identifies this call for log correlation.
	RequestID string

	// Content is the first non-empty text entry of the response.
	Content string

	// Model is the model that answered, as reported by the API.
	Model string

	// Usage contains token consumption, when reported.
	Usage TokenUsage

	// Duration is the wall time of the call.
	Duration time.Duration
}

// Endpoint describes where and how to reach a provider.
type Endpoint struct {
	Provider string
	URL      string
	Model    string
	APIKey   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		if d > 0 {
			client.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// Client is an HTTP Generator backed by a registered Provider.
type Client struct {
	endpoint   Endpoint
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for ep.
func NewClient(ep Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   ep,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Generate sends one request and returns the first text payload.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	if c.endpoint.Model == "" {
		return nil, errors.New("model is required")
	}

	provider := GetProvider(c.endpoint.Provider)
	if provider == nil {
		return nil, fmt.Errorf("unknown provider: %s (registered: %s)",
			c.endpoint.Provider, strings.Join(ListProviders(), ", "))
	}

	requestID := uuid.New().String()
	startedAt := time.Now()

	resp, err := c.doRequest(ctx, provider, req)
	if err != nil {
		c.logger.Warn("Generation failed",
			"request_id", requestID,
			"provider", provider.Name(),
			"model", c.endpoint.Model,
			"duration", time.Since(startedAt),
			"error", err)
		return nil, err
	}

	resp.RequestID = requestID
	resp.Duration = time.Since(startedAt)

	c.logger.Debug("Generation complete",
		"request_id", requestID,
		"provider", provider.Name(),
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", resp.Duration)

	return resp, nil
}

// doRequest executes a single HTTP request to the endpoint.
func (c *Client) doRequest(ctx context.Context, provider Provider, req Request) (*Response, error) {
	url := provider.BuildURL(c.endpoint.URL)

	body, err := provider.BuildRequestBody(c.endpoint.Model, req.Prompt, req.MaxOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}

	c.logger.Debug("Sending generation request",
		"provider", provider.Name(),
		"model", c.endpoint.Model,
		"url", url,
		"prompt_chars", len(req.Prompt))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq, c.endpoint.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", provider.Name(), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return nil, &UpstreamError{
			Provider:   provider.Name(),
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	return provider.ParseResponse(respBody, c.endpoint.Model)
}
