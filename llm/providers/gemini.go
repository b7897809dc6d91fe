package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/newghostisfun/dailypost/llm"
)

// GeminiProvider is the provider name accepted by NewGenerator.
const GeminiProvider = "gemini"

// GeminiGenerator generates text through the Gemini API using the genai SDK.
// It implements llm.Generator rather than llm.Provider because the SDK owns
// the wire format.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiGenerator creates a generator for ep. ep.URL overrides the SDK
// base URL and is mostly useful in tests.
func NewGeminiGenerator(ctx context.Context, ep llm.Endpoint, httpClient *http.Client, logger *slog.Logger) (*GeminiGenerator, error) {
	if ep.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if ep.Model == "" {
		return nil, errors.New("model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: llm.DefaultTimeout}
	}

	cfg := &genai.ClientConfig{
		APIKey:     ep.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if ep.URL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: ep.URL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: ep.Model, logger: logger}, nil
}

// Generate sends one GenerateContent call and returns the first non-empty
// text part.
func (g *GeminiGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}

	requestID := uuid.New().String()
	startedAt := time.Now()

	var config *genai.GenerateContentConfig
	if req.MaxOutputTokens > 0 {
		config = &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxOutputTokens)}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		err = mapGenAIError(err)
		g.logger.Warn("Generation failed",
			"request_id", requestID,
			"provider", GeminiProvider,
			"model", g.model,
			"duration", time.Since(startedAt),
			"error", err)
		return nil, err
	}

	text := firstText(result)
	if text == "" {
		return nil, fmt.Errorf("gemini response with %d candidates: %w", len(result.Candidates), llm.ErrEmptyGeneration)
	}

	resp := &llm.Response{
		RequestID: requestID,
		Content:   text,
		Model:     g.model,
		Duration:  time.Since(startedAt),
	}
	if result.ModelVersion != "" {
		resp.Model = result.ModelVersion
	}
	if usage := result.UsageMetadata; usage != nil {
		resp.Usage = llm.TokenUsage{
			InputTokens:  int(usage.PromptTokenCount),
			OutputTokens: int(usage.CandidatesTokenCount),
			TotalTokens:  int(usage.TotalTokenCount),
		}
	}

	g.logger.Debug("Generation complete",
		"request_id", requestID,
		"provider", GeminiProvider,
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", resp.Duration)

	return resp, nil
}

func firstText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

// mapGenAIError converts SDK API errors into *llm.UpstreamError so callers
// see one error shape regardless of provider.
func mapGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{Provider: GeminiProvider, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &llm.UpstreamError{Provider: GeminiProvider, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("%s request failed: %w", GeminiProvider, err)
}

// NewGenerator returns the Generator for ep: the genai SDK for gemini and
// the HTTP client with a registered provider adapter otherwise.
func NewGenerator(ctx context.Context, ep llm.Endpoint, timeout time.Duration, logger *slog.Logger) (llm.Generator, error) {
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	if ep.Provider == GeminiProvider {
		return NewGeminiGenerator(ctx, ep, &http.Client{Timeout: timeout}, logger)
	}
	if llm.GetProvider(ep.Provider) == nil {
		return nil, fmt.Errorf("unknown provider: %s (registered: %s, %s)",
			ep.Provider, strings.Join(llm.ListProviders(), ", "), GeminiProvider)
	}
	opts := []llm.ClientOption{llm.WithTimeout(timeout)}
	if logger != nil {
		opts = append(opts, llm.WithLogger(logger))
	}
	return llm.NewClient(ep, opts...), nil
}
