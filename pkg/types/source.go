// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceSnippet is one search hit returned by a search provider. Snippets
// are scoped to a single research call and are not persisted, except for
// the trimmed SourceRef kept in metadata.
type SourceSnippet struct {
	// Title is the page title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Content is the extracted page text, already reduced to plain text.
	Content string `json:"content" yaml:"content"`

	// URL is the page address.
	URL string `json:"url" yaml:"url"`

	// Score is the provider relevance score, when the provider reports one.
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// PublishedAt is the provider-reported publication date, if any.
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// SourceRef is the diagnostic subset of a SourceSnippet kept in metadata.
type SourceRef struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// Ref returns the diagnostic reference for s.
func (s SourceSnippet) Ref() SourceRef {
	return SourceRef{Title: s.Title, URL: s.URL}
}
