// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/portfolio-research/internal/extract"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// SearchFunc runs a web search. See search.Provider.
type SearchFunc func(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error)

// CompleteFunc runs a text completion. See llm.Provider.
type CompleteFunc func(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)

// fieldPhrases maps each enrichable field to the search phrase used in
// follow-up queries.
var fieldPhrases = map[string]string{
	types.FieldInvestmentAmount: "funding amount raised",
	types.FieldInvestmentDate:   "investment date",
	types.FieldRound:            "funding round series",
	types.FieldFounderLinkedIn:  "founder LinkedIn profile",
	types.FieldSite:             "official website",
	types.FieldFoundedYear:      "founded year",
}

// Enricher fills missing record fields with targeted search-and-extract
// rounds.
type Enricher struct {
	Search   SearchFunc
	Complete CompleteFunc
	Config   types.EnrichConfig
	Logger   *zap.Logger
}

// Report summarizes an enrichment pass.
type Report struct {
	// Queries lists every follow-up search executed, in order.
	Queries []string

	// Errors lists recovered search and completion failures.
	Errors []string

	// Rounds is the number of rounds that ran.
	Rounds int

	// Filled counts the fields that received a value.
	Filled int
}

// Enrich runs up to Config.MaxRounds rounds over a copy of records. Each
// round picks at most Config.RecordsPerRound incomplete records, preferring
// those attempted least often, then earlier ones. A failure on one record
// moves on to the next; Enrich itself never fails.
func (e *Enricher) Enrich(ctx context.Context, records []types.StartupRecord, target string) ([]types.StartupRecord, Report) {
	cfg := e.config()
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]types.StartupRecord, len(records))
	copy(out, records)

	var report Report
	attempts := make([]int, len(out))

	for round := 0; round < cfg.MaxRounds; round++ {
		if ctx.Err() != nil {
			break
		}

		batch := pickBatch(out, attempts, cfg.RecordsPerRound)
		if len(batch) == 0 {
			break
		}
		report.Rounds++

		for _, i := range batch {
			if ctx.Err() != nil {
				break
			}
			attempts[i]++

			fields := MissingFields(out[i])
			if len(fields) > cfg.FieldsPerQuery {
				fields = fields[:cfg.FieldsPerQuery]
			}
			query := BuildQuery(out[i].Name, target, fields)
			report.Queries = append(report.Queries, query)

			filled, err := e.enrichOne(ctx, &out[i], target, query, fields, cfg)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", out[i].Name, err))
				log.Warn("enrichment failed",
					zap.String("target", target),
					zap.String("startup", out[i].Name),
					zap.Error(err),
				)
				continue
			}
			report.Filled += filled
			log.Debug("enriched record",
				zap.String("target", target),
				zap.String("startup", out[i].Name),
				zap.Strings("fields", fields),
				zap.Int("filled", filled),
			)
		}
	}
	return out, report
}

func (e *Enricher) enrichOne(ctx context.Context, rec *types.StartupRecord, target, query string, fields []string, cfg types.EnrichConfig) (int, error) {
	sources, err := e.Search(ctx, query, cfg.SearchResults)
	if err != nil {
		return 0, fmt.Errorf("search: %w", err)
	}
	if len(sources) == 0 {
		return 0, nil
	}

	prompt, err := extract.EnrichmentPrompt(*rec, target, fields, sources)
	if err != nil {
		return 0, fmt.Errorf("rendering prompt: %w", err)
	}
	raw, err := e.Complete(ctx, prompt, cfg.MaxTokens, cfg.Temperature)
	if err != nil {
		return 0, fmt.Errorf("completion: %w", err)
	}
	return Merge(rec, extract.ParseObject(raw), fields), nil
}

// Merge copies the requested fields from found into rec and returns how
// many were set. Empty and NotInformed values are ignored, URL fields must
// pass IsValidURL, and amounts are normalized.
func Merge(rec *types.StartupRecord, found map[string]string, fields []string) int {
	n := 0
	for _, f := range fields {
		v := strings.TrimSpace(found[f])
		if !types.IsKnown(v) {
			continue
		}
		switch f {
		case types.FieldSite, types.FieldFounderLinkedIn:
			if !IsValidURL(v) {
				continue
			}
		case types.FieldInvestmentAmount:
			v = NormalizeAmount(v)
		}
		if rec.Set(f, v) {
			n++
		}
	}
	return n
}

// BuildQuery joins the record name, the target, and the search phrase of
// each field.
func BuildQuery(name, target string, fields []string) string {
	parts := []string{name, target}
	for _, f := range fields {
		if p, ok := fieldPhrases[f]; ok {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// pickBatch returns the indices of up to n incomplete records, fewest
// attempts first, ties by position.
func pickBatch(records []types.StartupRecord, attempts []int, n int) []int {
	var incomplete []int
	for i, rec := range records {
		if len(MissingFields(rec)) > 0 {
			incomplete = append(incomplete, i)
		}
	}
	sort.SliceStable(incomplete, func(a, b int) bool {
		return attempts[incomplete[a]] < attempts[incomplete[b]]
	})
	if len(incomplete) > n {
		incomplete = incomplete[:n]
	}
	return incomplete
}

func (e *Enricher) config() types.EnrichConfig {
	cfg := e.Config
	def := types.DefaultResearchConfig().Enrich
	if cfg.MaxRounds < 0 {
		cfg.MaxRounds = 0
	}
	if cfg.RecordsPerRound <= 0 {
		cfg.RecordsPerRound = def.RecordsPerRound
	}
	if cfg.FieldsPerQuery <= 0 {
		cfg.FieldsPerQuery = def.FieldsPerQuery
	}
	if cfg.SearchResults <= 0 {
		cfg.SearchResults = def.SearchResults
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return cfg
}
