// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the layered investor research pipeline: a broad
// search, LLM extraction, gap enrichment, an optional supplemental search,
// and completeness-ranked selection.
package research

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/portfolio-research/internal/enrich"
	"github.com/pdiddy/portfolio-research/internal/extract"
	"github.com/pdiddy/portfolio-research/internal/llm"
	"github.com/pdiddy/portfolio-research/internal/logging"
	"github.com/pdiddy/portfolio-research/internal/search"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// maxSourceRefs bounds the source references kept in target metadata.
const maxSourceRefs = 5

// InitialQuery is the broad first-layer query for target.
func InitialQuery(target string) string {
	return target + " portfolio investments startups"
}

// SupplementalQuery is the third-layer query for target.
func SupplementalQuery(target string) string {
	return target + " recent investments 2020-2024 startup funding details portfolio"
}

// Researcher runs the pipeline for one target at a time. It holds no
// per-target state and is safe for concurrent use when its providers are.
type Researcher struct {
	Search search.Provider
	LLM    llm.Provider
	Config types.ResearchConfig
	Logger *zap.Logger
}

// Research returns the selected records and the metadata for target.
// Provider failures are recorded in the metadata and never returned.
// The target fails with types.ReasonNoSources when the broad search finds
// nothing, and with types.ReasonNoRecords when no record survives.
func (r *Researcher) Research(ctx context.Context, target string) ([]types.StartupRecord, types.TargetMetadata) {
	cfg := r.Config
	log := r.logger().With(zap.String("target", target))
	meta := types.TargetMetadata{Target: target, Queries: []string{}}

	// Layer 1: broad search.
	query := InitialQuery(target)
	sources := r.search(ctx, query, cfg.InitialResults, &meta)
	meta.Layers = 1
	meta.InitialSources = len(sources)
	meta.SourceCount = len(sources)
	meta.Sources = sourceRefs(sources, maxSourceRefs)
	if len(sources) == 0 {
		meta.Reason = types.ReasonNoSources
		log.Warn("no sources found", zap.String("query", query))
		return nil, meta
	}

	records := r.extract(ctx, target, sources, &meta)
	log.Info("extracted records", zap.Int("sources", len(sources)), zap.Int("records", len(records)))

	// Layer 2: gap enrichment.
	if len(records) > 0 && cfg.Enrich.MaxRounds > 0 {
		e := &enrich.Enricher{
			Search:   r.searchFunc,
			Complete: r.completeFunc,
			Config:   cfg.Enrich,
			Logger:   log,
		}
		var report enrich.Report
		records, report = e.Enrich(ctx, records, target)
		meta.Layers = 2
		meta.Queries = append(meta.Queries, report.Queries...)
		meta.Errors = append(meta.Errors, report.Errors...)
		log.Info("enriched records", zap.Int("rounds", report.Rounds), zap.Int("filled", report.Filled))
	}

	// Layer 3: supplemental search when the target is still short.
	if len(records) < cfg.Limit && ctx.Err() == nil {
		meta.Layers = 3
		query := SupplementalQuery(target)
		extra := r.search(ctx, query, cfg.SupplementalResults, &meta)
		meta.SupplementSources = len(extra)
		meta.SourceCount += len(extra)
		if len(meta.Sources) < maxSourceRefs {
			meta.Sources = append(meta.Sources, sourceRefs(extra, maxSourceRefs-len(meta.Sources))...)
		}
		if len(extra) > 0 {
			var added int
			records, added = mergeNew(records, r.extract(ctx, target, extra, &meta))
			log.Info("supplemental search", zap.Int("sources", len(extra)), zap.Int("added", added))
		}
	}

	records = enrich.Select(records, cfg.Limit)
	meta.RecordCount = len(records)
	meta.Success = len(records) > 0
	if !meta.Success {
		meta.Reason = types.ReasonNoRecords
	}
	return records, meta
}

// extract asks the model for records found in sources. Failures yield no
// records.
func (r *Researcher) extract(ctx context.Context, target string, sources []types.SourceSnippet, meta *types.TargetMetadata) []types.StartupRecord {
	cfg := r.Config
	prompt, err := extract.ExtractionPrompt(target, sources, cfg.ExtractionSources, cfg.SourceChars)
	if err != nil {
		meta.Errors = append(meta.Errors, fmt.Sprintf("rendering extraction prompt: %v", err))
		return nil
	}

	raw, err := r.completeFunc(ctx, prompt, cfg.ExtractionMaxTokens, cfg.ExtractionTemperature)
	if err != nil {
		meta.Errors = append(meta.Errors, fmt.Sprintf("extraction: %v", err))
		r.logger().Warn("extraction failed", zap.String("target", target), zap.Error(err))
		return nil
	}

	parsed := extract.Parse(raw)
	if len(parsed) == 0 {
		r.logger().Debug("extraction returned no JSON records", zap.String("target", target), zap.Int("response_chars", len(raw)))
	}
	return dedupe(extract.Validate(parsed, target))
}

// search runs one query, recording it and any failure in meta. A failure
// counts as zero sources.
func (r *Researcher) search(ctx context.Context, query string, limit int, meta *types.TargetMetadata) []types.SourceSnippet {
	meta.Queries = append(meta.Queries, query)
	sources, err := r.searchFunc(ctx, query, limit)
	if err != nil {
		meta.Errors = append(meta.Errors, fmt.Sprintf("search %q: %v", query, err))
		r.logger().Warn("search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return sources
}

// searchFunc calls the search provider under the per-call timeout.
func (r *Researcher) searchFunc(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error) {
	ctx, cancel := r.callContext(ctx)
	defer cancel()
	return r.Search.Search(ctx, query, limit)
}

// completeFunc calls the language model under the per-call timeout.
func (r *Researcher) completeFunc(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	ctx, cancel := r.callContext(ctx)
	defer cancel()
	return r.LLM.Complete(ctx, prompt, maxTokens, temperature)
}

func (r *Researcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Config.CallTimeout > 0 {
		return context.WithTimeout(ctx, r.Config.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func (r *Researcher) logger() *zap.Logger {
	return logging.OrNop(r.Logger)
}

func sourceRefs(sources []types.SourceSnippet, n int) []types.SourceRef {
	if len(sources) > n {
		sources = sources[:n]
	}
	refs := make([]types.SourceRef, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, s.Ref())
	}
	return refs
}

// elapsed is the time since start, rounded for logs.
func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
