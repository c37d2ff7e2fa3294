// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint:
// Cerebras, OpenAI, and Perplexity.
type OpenAIProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewOpenAIProvider returns a provider for the chat completions API at baseURL.
func NewOpenAIProvider(name, apiKey, baseURL, model string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIProvider{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return p.name }

// Complete sends prompt as a single user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(clampTemperature(temperature)),
	})
	if err != nil {
		code := "REQUEST_FAILED"
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			code = fmt.Sprintf("HTTP_%d", apiErr.HTTPStatusCode)
		}
		return "", &ProviderError{Provider: p.name, Code: code, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.name, Code: "NO_CHOICES", Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}
