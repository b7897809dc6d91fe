// Package providers implements generation provider adapters.
package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/newghostisfun/dailypost/llm"
)

// AnthropicProvider implements the Anthropic Messages API.
type AnthropicProvider struct{}

// anthropicVersion is the API version to use.
const anthropicVersion = "2023-06-01"

// anthropicDefaultMaxTokens is sent when the caller sets no budget;
// the Messages API requires max_tokens.
const anthropicDefaultMaxTokens = 1024

func init() {
	llm.RegisterProvider(&AnthropicProvider{})
}

// Name returns the provider identifier.
func (a *AnthropicProvider) Name() string {
	return "anthropic"
}

// BuildURL constructs the Anthropic messages endpoint.
func (a *AnthropicProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return baseURL + "/v1/messages"
}

// SetHeaders adds Anthropic-specific authentication headers.
func (a *AnthropicProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	req.Header.Set("anthropic-version", anthropicVersion)
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequestBody creates the Messages API request body.
func (a *AnthropicProvider) BuildRequestBody(model, prompt string, maxOutputTokens int) ([]byte, error) {
	if maxOutputTokens <= 0 {
		maxOutputTokens = anthropicDefaultMaxTokens
	}
	return json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: maxOutputTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ParseResponse returns the first non-empty text block.
func (a *AnthropicProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "text" || block.Text == "" {
			continue
		}
		if resp.Model != "" {
			model = resp.Model
		}
		return &llm.Response{
			Content: block.Text,
			Model:   model,
			Usage: llm.TokenUsage{
				InputTokens:  resp.Usage.InputTokens,
				OutputTokens: resp.Usage.OutputTokens,
				TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
			},
		}, nil
	}

	return nil, fmt.Errorf("anthropic message %s (stop %q): %w", resp.ID, resp.StopReason, llm.ErrEmptyGeneration)
}
