package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newghostisfun/dailypost/llm"
)

func newGeminiServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), "path %s", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeminiGenerator_Generate(t *testing.T) {
	server := newGeminiServer(t, http.StatusOK, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": ""}, {"text": "#tank kelp forest"}]}}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 4, "totalTokenCount": 16},
		"modelVersion": "gemini-2.5-flash-001"
	}`)

	gen, err := NewGeminiGenerator(context.Background(), llm.Endpoint{
		Provider: GeminiProvider,
		URL:      server.URL,
		Model:    "gemini-2.5-flash",
		APIKey:   "test-key",
	}, server.Client(), nil)
	require.NoError(t, err)

	resp, err := gen.Generate(context.Background(), llm.Request{Prompt: "write", MaxOutputTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "#tank kelp forest", resp.Content)
	assert.Equal(t, "gemini-2.5-flash-001", resp.Model)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
	assert.NotEmpty(t, resp.RequestID)
}

func TestGeminiGenerator_EmptyCandidates(t *testing.T) {
	server := newGeminiServer(t, http.StatusOK, `{"candidates": []}`)

	gen, err := NewGeminiGenerator(context.Background(), llm.Endpoint{
		URL: server.URL, Model: "gemini-2.5-flash", APIKey: "test-key",
	}, server.Client(), nil)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), llm.Request{Prompt: "write"})
	assert.ErrorIs(t, err, llm.ErrEmptyGeneration)
}

func TestGeminiGenerator_APIError(t *testing.T) {
	server := newGeminiServer(t, http.StatusTooManyRequests,
		`{"error": {"code": 429, "message": "quota exhausted", "status": "RESOURCE_EXHAUSTED"}}`)

	gen, err := NewGeminiGenerator(context.Background(), llm.Endpoint{
		URL: server.URL, Model: "gemini-2.5-flash", APIKey: "test-key",
	}, server.Client(), nil)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), llm.Request{Prompt: "write"})
	require.Error(t, err)

	var upstream *llm.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, GeminiProvider, upstream.Provider)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.True(t, upstream.Transient())
}

func TestNewGeminiGenerator_Validation(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), llm.Endpoint{Model: "m"}, nil, nil)
	assert.ErrorContains(t, err, "API key")

	_, err = NewGeminiGenerator(context.Background(), llm.Endpoint{APIKey: "k"}, nil, nil)
	assert.ErrorContains(t, err, "model")
}

func TestMapGenAIError_PassesThroughOtherErrors(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := mapGenAIError(base)
	assert.ErrorIs(t, err, base)
	assert.False(t, llm.IsUpstream(err))
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("http provider", func(t *testing.T) {
		gen, err := NewGenerator(ctx, llm.Endpoint{Provider: "openai", Model: "gpt-5", APIKey: "k"}, 0, nil)
		require.NoError(t, err)
		assert.IsType(t, &llm.Client{}, gen)
	})

	t.Run("gemini", func(t *testing.T) {
		gen, err := NewGenerator(ctx, llm.Endpoint{Provider: GeminiProvider, Model: "gemini-2.5-flash", APIKey: "k"}, 0, nil)
		require.NoError(t, err)
		assert.IsType(t, &GeminiGenerator{}, gen)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewGenerator(ctx, llm.Endpoint{Provider: "nope", Model: "m"}, 0, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai")
		assert.Contains(t, err.Error(), GeminiProvider)
	})
}
