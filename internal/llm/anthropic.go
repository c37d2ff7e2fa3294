// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/portfolio-research/internal/httputil"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// anthropicAPIURL is the Messages API endpoint. Package-level var for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicProvider calls the Claude Messages API.
type AnthropicProvider struct {
	APIKey string
	Model  string
	// URL overrides anthropicAPIURL when set.
	URL    string
	Client *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string { return types.LLMAnthropic }

// Complete sends prompt as a single user message and joins the text blocks
// of the reply.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	body, err := json.Marshal(anthropicRequest{
		Model:       p.Model,
		MaxTokens:   maxTokens,
		Temperature: clampTemperature(temperature),
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := p.URL
	if url == "" {
		url = anthropicAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Code: "REQUEST_FAILED", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &ProviderError{
			Provider: p.Name(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  strings.TrimSpace(string(msg)),
		}
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", &ProviderError{Provider: p.Name(), Code: "DECODE_FAILED", Err: err}
	}

	var parts []string
	for _, block := range ar.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", &ProviderError{Provider: p.Name(), Code: "NO_TEXT", Err: ErrEmptyResponse}
	}
	return strings.Join(parts, ""), nil
}
