// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm runs text completions against language model APIs. Every
// provider exposes the same narrow Complete call so the research pipeline
// can swap providers and test doubles freely.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// Provider completes a prompt and returns the model's raw text.
// Temperature is expected in [0,1].
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

var (
	// ErrMissingAPIKey is returned by New when the provider needs a key and none is configured.
	ErrMissingAPIKey = errors.New("llm: missing API key")

	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("llm: unknown provider")

	// ErrEmptyResponse is returned when the API answers without any text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// ProviderError describes a failed call to a language model API.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// providerDefaults holds the endpoint and model used when the
// configuration leaves them empty.
var providerDefaults = map[string]struct{ baseURL, model string }{
	types.LLMCerebras:   {"https://api.cerebras.ai/v1", "llama-4-scout-17b-16e-instruct"},
	types.LLMOpenAI:     {"https://api.openai.com/v1", "gpt-4o-mini"},
	types.LLMPerplexity: {"https://api.perplexity.ai", "sonar-pro"},
	types.LLMAnthropic:  {"", "claude-sonnet-4-5"},
	types.LLMOllama:     {"http://localhost:11434", "llama3.1"},
}

// New builds the provider selected by cfg and wraps it with retries when
// cfg.MaxRetries is positive.
func New(cfg types.LLMConfig) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = types.LLMCerebras
	}
	defaults, ok := providerDefaults[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if cfg.APIKey == "" && name != types.LLMOllama {
		return nil, fmt.Errorf("%w for %q", ErrMissingAPIKey, name)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaults.baseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaults.model
	}
	client := &http.Client{Timeout: cfg.Timeout}

	var p Provider
	switch name {
	case types.LLMAnthropic:
		p = &AnthropicProvider{APIKey: cfg.APIKey, Model: model, URL: baseURL, Client: client}
	case types.LLMOllama:
		op, err := NewOllamaProvider(baseURL, model, client)
		if err != nil {
			return nil, err
		}
		p = op
	default:
		p = NewOpenAIProvider(name, cfg.APIKey, baseURL, model, client)
	}

	if cfg.MaxRetries > 0 {
		p = WithRetry(p, cfg.MaxRetries)
	}
	return p, nil
}

// clampTemperature keeps t within [0,1].
func clampTemperature(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
