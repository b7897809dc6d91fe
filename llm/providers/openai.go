package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/newghostisfun/dailypost/llm"
)

// OpenAIProvider implements the OpenAI Responses API.
type OpenAIProvider struct{}

func init() {
	llm.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL constructs the OpenAI responses endpoint.
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if strings.HasSuffix(baseURL, "/responses") {
		return baseURL
	}

	return baseURL + "/responses"
}

// SetHeaders adds OpenAI authentication headers.
func (o *OpenAIProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	MaxOutputTokens *int   `json:"max_output_tokens,omitempty"`
}

// BuildRequestBody creates the Responses API request body.
func (o *OpenAIProvider) BuildRequestBody(model, prompt string, maxOutputTokens int) ([]byte, error) {
	req := responsesRequest{
		Model: model,
		Input: prompt,
	}
	if maxOutputTokens > 0 {
		req.MaxOutputTokens = &maxOutputTokens
	}
	return json.Marshal(req)
}

type responsesResponse struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Status string `json:"status"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// ParseResponse scans output[].content[] in order and returns the first
// textual entry with non-empty text.
func (o *OpenAIProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp responsesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse openai response: %w", err)
	}

	for _, item := range resp.Output {
		for _, content := range item.Content {
			if !isTextType(content.Type) || content.Text == "" {
				continue
			}
			if resp.Model != "" {
				model = resp.Model
			}
			return &llm.Response{
				Content: content.Text,
				Model:   model,
				Usage: llm.TokenUsage{
					InputTokens:  resp.Usage.InputTokens,
					OutputTokens: resp.Usage.OutputTokens,
					TotalTokens:  resp.Usage.TotalTokens,
				},
			}, nil
		}
	}

	return nil, fmt.Errorf("openai response %s (status %q): %w", resp.ID, resp.Status, llm.ErrEmptyGeneration)
}

func isTextType(t string) bool {
	return t == "output_text" || t == "text"
}
