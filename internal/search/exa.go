// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

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

// exaAPIBase is the Exa API host. Declared as a var so tests can substitute
// an httptest server.
var exaAPIBase = "https://api.exa.ai"

// ExaProvider queries the Exa search API with full-text contents.
type ExaProvider struct {
	Client       *http.Client
	APIKey       string
	Host         string
	UserAgent    string
	MaxRetries   int
	ContentChars int
}

// Name returns the provider identifier.
func (p *ExaProvider) Name() string { return types.SearchExa }

type exaRequest struct {
	Query      string      `json:"query"`
	NumResults int         `json:"numResults"`
	Type       string      `json:"type"`
	Contents   exaContents `json:"contents"`
}

type exaContents struct {
	Text exaText `json:"text"`
}

type exaText struct {
	MaxCharacters int `json:"maxCharacters,omitempty"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

type exaResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Text          string   `json:"text"`
	Score         *float64 `json:"score"`
	PublishedDate string   `json:"publishedDate"`
}

// Search runs an auto-type Exa search. Results without text are dropped.
func (p *ExaProvider) Search(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	body, err := json.Marshal(exaRequest{
		Query:      query,
		NumResults: limit,
		Type:       "auto",
		Contents:   exaContents{Text: exaText{MaxCharacters: p.ContentChars}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	host := p.Host
	if host == "" {
		host = exaAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(host, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, p.MaxRetries)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Code: "REQUEST_FAILED", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{
			Provider: p.Name(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  strings.TrimSpace(string(msg)),
		}
	}

	var er exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Code: "DECODE_FAILED", Err: err}
	}

	snippets := make([]types.SourceSnippet, 0, len(er.Results))
	for _, r := range er.Results {
		text := cleanText(r.Text, p.ContentChars)
		if text == "" {
			continue
		}
		snippets = append(snippets, types.SourceSnippet{
			Title:       strings.TrimSpace(r.Title),
			Content:     text,
			URL:         r.URL,
			Score:       r.Score,
			PublishedAt: r.PublishedDate,
		})
		if len(snippets) == limit {
			break
		}
	}
	return snippets, nil
}
