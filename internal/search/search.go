// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search APIs and returns plain-text source
// snippets for the research pipeline.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// Provider executes a text query against one search API. Implementations
// return fewer than limit results, including zero, without error; an error
// means a transport or API failure.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error)
}

var (
	// ErrMissingAPIKey is returned by New when the provider needs a key and none is configured.
	ErrMissingAPIKey = errors.New("search: missing API key")

	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("search: unknown provider")
)

// ProviderError describes a failed call to a search API.
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

// New builds the provider selected by cfg, wrapped in a rate limiter when
// cfg.RateLimit is positive.
func New(cfg types.SearchConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for %q", ErrMissingAPIKey, cfg.Provider)
	}
	client := &http.Client{Timeout: cfg.Timeout}

	var p Provider
	switch strings.ToLower(cfg.Provider) {
	case types.SearchExa, "":
		p = &ExaProvider{
			Client:       client,
			APIKey:       cfg.APIKey,
			Host:         cfg.APIHost,
			UserAgent:    cfg.UserAgent,
			MaxRetries:   cfg.MaxRetries,
			ContentChars: cfg.ContentChars,
		}
	case types.SearchTavily:
		p = &TavilyProvider{
			Client:       client,
			APIKey:       cfg.APIKey,
			Host:         cfg.APIHost,
			UserAgent:    cfg.UserAgent,
			MaxRetries:   cfg.MaxRetries,
			ContentChars: cfg.ContentChars,
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.RateLimit > 0 {
		p = Limit(p, cfg.RateLimit)
	}
	return p, nil
}

var htmlTag = regexp.MustCompile(`<(?i:/?[a-z][a-z0-9]*)[^>]*>`)

// cleanText reduces provider content to plain text: HTML is stripped of
// markup, scripts, and styles, and whitespace runs collapse to one space.
// The result is cut to maxChars runes when maxChars is positive.
func cleanText(content string, maxChars int) string {
	if htmlTag.MatchString(content) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
			doc.Find("script, style, noscript").Remove()
			content = doc.Text()
		}
	}
	content = strings.Join(strings.Fields(content), " ")
	return truncateRunes(content, maxChars)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
