// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// OllamaProvider runs completions on a local Ollama server.
type OllamaProvider struct {
	model llms.Model
}

// NewOllamaProvider connects to the Ollama server at serverURL.
func NewOllamaProvider(serverURL, model string, client *http.Client) (*OllamaProvider, error) {
	opts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithServerURL(serverURL),
	}
	if client != nil {
		opts = append(opts, ollama.WithHTTPClient(client))
	}
	m, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return &OllamaProvider{model: m}, nil
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string { return types.LLMOllama }

// Complete generates a single completion for prompt.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(clampTemperature(temperature)),
	)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Code: "REQUEST_FAILED", Err: err}
	}
	return out, nil
}
