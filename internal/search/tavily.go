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

// tavilyAPIBase is the Tavily API host. Declared as a var so tests can
// substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com"

// TavilyProvider queries the Tavily search API.
type TavilyProvider struct {
	Client       *http.Client
	APIKey       string
	Host         string
	UserAgent    string
	MaxRetries   int
	ContentChars int
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return types.SearchTavily }

type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		Content       string   `json:"content"`
		RawContent    string   `json:"raw_content"`
		Score         *float64 `json:"score"`
		PublishedDate string   `json:"published_date"`
	} `json:"results"`
}

// Search runs an advanced-depth Tavily search. The raw page content is
// preferred over the summary snippet when the API returns it.
func (p *TavilyProvider) Search(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	body, err := json.Marshal(tavilyRequest{
		Query:             query,
		SearchDepth:       "advanced",
		MaxResults:        limit,
		IncludeRawContent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	host := p.Host
	if host == "" {
		host = tavilyAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(host, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
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

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Code: "DECODE_FAILED", Err: err}
	}

	snippets := make([]types.SourceSnippet, 0, len(tr.Results))
	for _, r := range tr.Results {
		content := r.RawContent
		if strings.TrimSpace(content) == "" {
			content = r.Content
		}
		text := cleanText(content, p.ContentChars)
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
