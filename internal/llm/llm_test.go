// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/portfolio-research/internal/httputil"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func TestOpenAIProviderComplete(t *testing.T) {
	var got map[string]any
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"nome\":\"X\"}]"},"finish_reason":"stop"}]}`)
	}))
	defer ts.Close()

	p := NewOpenAIProvider(types.LLMCerebras, "csk", ts.URL, "llama-4-scout-17b-16e-instruct", ts.Client())
	out, err := p.Complete(context.Background(), "extract", 4000, 0.1)
	require.NoError(t, err)

	assert.Equal(t, `[{"nome":"X"}]`, out)
	assert.Equal(t, "Bearer csk", auth)
	assert.Equal(t, "llama-4-scout-17b-16e-instruct", got["model"])
	assert.EqualValues(t, 4000, got["max_tokens"])
	assert.Equal(t, "cerebras", p.Name())
}

func TestOpenAIProviderHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	p := NewOpenAIProvider(types.LLMOpenAI, "k", ts.URL, "gpt-4o-mini", ts.Client())
	_, err := p.Complete(context.Background(), "x", 10, 0)
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "HTTP_401", pe.Code)
}

func TestAnthropicProviderComplete(t *testing.T) {
	var req anthropicRequest
	var headers http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"{\"site\":"},{"type":"text","text":"\"https://a.io\"}"}]}`)
	}))
	defer ts.Close()

	old := anthropicAPIURL
	anthropicAPIURL = ts.URL
	defer func() { anthropicAPIURL = old }()

	p := &AnthropicProvider{APIKey: "ak", Model: "claude-sonnet-4-5", Client: ts.Client()}
	out, err := p.Complete(context.Background(), "enrich", 300, 1.7)
	require.NoError(t, err)

	assert.Equal(t, `{"site":"https://a.io"}`, out)
	assert.Equal(t, "ak", headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", headers.Get("anthropic-version"))
	assert.Equal(t, 300, req.MaxTokens)
	assert.Equal(t, 1.0, req.Temperature)
}

func TestAnthropicProviderNoText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer ts.Close()

	p := &AnthropicProvider{APIKey: "ak", URL: ts.URL, Client: ts.Client()}
	_, err := p.Complete(context.Background(), "x", 0, 0)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

type flakyProvider struct {
	failures int
	calls    int
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Complete(context.Context, string, int, float64) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient")
	}
	return "ok", nil
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantCalls  int
		wantErr    bool
	}{
		{"first call succeeds", 0, 2, 1, false},
		{"recovers after failures", 2, 2, 3, false},
		{"gives up", 5, 2, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flakyProvider{failures: tt.failures}
			p := WithRetry(f, tt.maxRetries)
			out, err := p.Complete(context.Background(), "p", 1, 0)
			assert.Equal(t, tt.wantCalls, f.calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "after 2 retries")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", out)
		})
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	old := backoffBase
	backoffBase = time.Second
	defer func() { backoffBase = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f := &flakyProvider{failures: 10}
	_, err := WithRetry(f, 3).Complete(ctx, "p", 1, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, f.calls)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.LLMConfig
		wantName string
		wantErr  error
	}{
		{"cerebras default", types.LLMConfig{APIKey: "k"}, "cerebras", nil},
		{"openai with retries", types.LLMConfig{Provider: "openai", APIKey: "k", MaxRetries: 2}, "openai", nil},
		{"perplexity", types.LLMConfig{Provider: "perplexity", APIKey: "k"}, "perplexity", nil},
		{"anthropic", types.LLMConfig{Provider: "anthropic", APIKey: "k"}, "anthropic", nil},
		{"ollama needs no key", types.LLMConfig{Provider: "ollama"}, "ollama", nil},
		{"missing key", types.LLMConfig{Provider: "openai"}, "", ErrMissingAPIKey},
		{"unknown", types.LLMConfig{Provider: "gemini", APIKey: "k"}, "", ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestClampTemperature(t *testing.T) {
	assert.Equal(t, 0.0, clampTemperature(-1))
	assert.Equal(t, 0.1, clampTemperature(0.1))
	assert.Equal(t, 1.0, clampTemperature(2))
}
