package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(name, url string) Options {
	return Options{
		Name:         name,
		BaseURL:      url,
		APIKey:       "test-key",
		Model:        "test-model",
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	}
}

func TestOpenAI_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "override-model" {
			t.Errorf("model = %q, want override-model", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiResponse{
			Model:   "override-model",
			Choices: []openaiChoice{{Message: openaiMessage{Role: "assistant", Content: "[]"}}},
			Usage:   openaiUsage{PromptTokens: 40, CompletionTokens: 10},
		})
	}))
	defer server.Close()

	p, err := New(testOptions("openai", server.URL), nil)
	require.NoError(t, err)

	resp, err := p.Review(context.Background(), ReviewRequest{
		Model:        "override-model",
		SystemPrompt: "system",
		UserPrompt:   "user",
		MaxTokens:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, "[]", resp.Content)
	assert.Equal(t, "override-model", resp.Model)
	assert.Equal(t, 40, resp.TokensIn)
	assert.Equal(t, 10, resp.TokensOut)
}

func TestOpenAI_RetriesRateLimit(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{Content: "ok"}}},
		})
	}))
	defer server.Close()

	p, err := New(testOptions("openrouter", server.URL), nil)
	require.NoError(t, err)

	resp, err := p.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestOpenAI_RateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	opts := testOptions("openai", server.URL)
	opts.MaxRetries = 1
	p, err := New(opts, nil)
	require.NoError(t, err)

	_, err = p.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited), "err = %v", err)
}

func TestOpenAI_AuthErrorNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	p, err := New(testOptions("openai", server.URL), nil)
	require.NoError(t, err)

	_, err = p.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p, err := New(testOptions("ollama", server.URL), nil)
	require.NoError(t, err)

	_, err = p.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantErr  bool
		wantAuth bool
	}{
		{"openai", Options{Name: "openai", APIKey: "k"}, false, false},
		{"openai no key", Options{Name: "openai"}, true, true},
		{"anthropic no key", Options{Name: "anthropic"}, true, true},
		{"ollama no key", Options{Name: "ollama"}, false, false},
		{"unknown", Options{Name: "bogus", APIKey: "k"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantAuth, IsAuthError(err))
				return
			}
			require.NoError(t, err)
			if p.Name() != tt.opts.Name {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.opts.Name)
			}
		})
	}
}
