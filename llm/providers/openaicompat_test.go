package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fernvoice/fernando/llm"
	"github.com/fernvoice/fernando/types"
)

func newCompatServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Provider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(Config{
		ProviderName: "testprov",
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
	}, zap.NewNop())
	return srv, p
}

func TestCompletion_Success(t *testing.T) {
	t.Parallel()

	var captured compatRequest
	_, p := newCompatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"model":   "gpt-4o-mini",
			"created": 1756500000,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]string{"role": "assistant", "content": "Buonasera!"},
				},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []types.Message{
			types.NewSystemMessage("You are Fernando."),
			types.NewUserMessage("Ciao"),
		},
		Temperature: 0.5,
		MaxTokens:   256,
	})
	require.NoError(t, err)

	assert.Equal(t, "Buonasera!", resp.Text())
	assert.Equal(t, "testprov", resp.Provider)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "Ciao", captured.Messages[1].Content)
	assert.Equal(t, float32(0.5), captured.Temperature)
	assert.Equal(t, 256, captured.MaxTokens)
}

func TestCompletion_DefaultModelApplied(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req compatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)
		json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	p := New(Config{
		ProviderName: "groq",
		APIKey:       "gsk-test",
		BaseURL:      srv.URL,
		DefaultModel: "llama-3.1-8b-instant",
	}, zap.NewNop())

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []types.Message{types.NewUserMessage("Ciao")},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
}

func TestCompletion_HTTPErrorsMapped(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status    int
		body      string
		code      types.ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, types.ErrUnauthorized, false},
		{http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, types.ErrRateLimited, true},
		{http.StatusInternalServerError, `{"error":{"message":"oops"}}`, types.ErrUpstreamError, true},
	}

	for _, tc := range cases {
		status := tc.status
		_, p := newCompatServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(tc.body))
		})

		_, err := p.Completion(context.Background(), &llm.ChatRequest{
			Model:    "gpt-4o-mini",
			Messages: []types.Message{types.NewUserMessage("Ciao")},
		})
		require.Error(t, err)
		assert.Equal(t, tc.code, types.GetErrorCode(err), "status %d", tc.status)
		assert.Equal(t, tc.retryable, types.IsRetryable(err), "status %d", tc.status)
	}
}

func TestCompletion_ConnectionFailureIsRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening

	p := New(Config{ProviderName: "openai", BaseURL: srv.URL}, zap.NewNop())

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []types.Message{types.NewUserMessage("Ciao")},
	})
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}

func TestOllama_NoAuthHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"model": "qwen2.5:3b",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "pronto"}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	p := NewOllama(srv.URL, "qwen2.5:3b", zap.NewNop())
	require.Equal(t, "ollama", p.Name())

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "qwen2.5:3b",
		Messages: []types.Message{types.NewUserMessage("Ciao")},
	})
	require.NoError(t, err)
	assert.Equal(t, "pronto", resp.Text())
}
