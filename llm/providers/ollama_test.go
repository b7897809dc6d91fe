package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newghostisfun/dailypost/llm"
)

func TestOllamaProvider_BuildURL(t *testing.T) {
	p := &OllamaProvider{}

	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"empty uses default", "", "http://localhost:11434/v1/chat/completions"},
		{"custom base", "http://gpu-box:8000/v1", "http://gpu-box:8000/v1/chat/completions"},
		{"full endpoint kept", "http://gpu-box:8000/v1/chat/completions", "http://gpu-box:8000/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.BuildURL(tt.baseURL))
		})
	}
}

func TestOllamaProvider_BuildRequestBody(t *testing.T) {
	p := &OllamaProvider{}

	body, err := p.BuildRequestBody("qwen2.5", "say hi", 64)
	require.NoError(t, err)

	var got chatRequest
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "qwen2.5", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "say hi"}, got.Messages[0])
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 64, *got.MaxTokens)
}

func TestOllamaProvider_SetHeaders(t *testing.T) {
	p := &OllamaProvider{}

	req, _ := http.NewRequest("POST", "http://localhost:11434/v1/chat/completions", nil)
	p.SetHeaders(req, "")
	assert.Empty(t, req.Header.Get("Authorization"))

	p.SetHeaders(req, "local-key")
	assert.Equal(t, "Bearer local-key", req.Header.Get("Authorization"))
}

func TestOllamaProvider_ParseResponse(t *testing.T) {
	p := &OllamaProvider{}

	t.Run("success", func(t *testing.T) {
		body := []byte(`{
			"model": "qwen2.5:7b",
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`)

		resp, err := p.ParseResponse(body, "qwen2.5")
		require.NoError(t, err)
		assert.Equal(t, "hello", resp.Content)
		assert.Equal(t, "qwen2.5:7b", resp.Model)
		assert.Equal(t, 4, resp.Usage.TotalTokens)
	})

	t.Run("no choices", func(t *testing.T) {
		_, err := p.ParseResponse([]byte(`{"choices": []}`), "qwen2.5")
		assert.ErrorIs(t, err, llm.ErrEmptyGeneration)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := p.ParseResponse([]byte(`{"choices": [{"message": {"content": ""}}]}`), "qwen2.5")
		assert.ErrorIs(t, err, llm.ErrEmptyGeneration)
	})
}
