// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/portfolio-research/internal/llm"
	"github.com/pdiddy/portfolio-research/internal/logging"
	"github.com/pdiddy/portfolio-research/internal/search"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// ProgressFunc is called once per finished target. Calls are serialized.
type ProgressFunc func(done, total int, meta types.TargetMetadata)

// Orchestrator researches a list of targets and aggregates the outcome.
type Orchestrator struct {
	search   search.Provider
	llm      llm.Provider
	config   types.ResearchConfig
	logger   *zap.Logger
	progress ProgressFunc
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithProgress registers a per-target completion callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// NewOrchestrator builds an orchestrator over the given providers. Either
// provider may be nil; Run then reports a configuration error.
func NewOrchestrator(s search.Provider, l llm.Provider, cfg types.ResearchConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{search: s, llm: l, config: withDefaults(cfg)}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.OrNop(o.logger)
	return o
}

type targetOutcome struct {
	records []types.StartupRecord
	meta    types.TargetMetadata
}

// Run researches every target and returns the combined result. Targets are
// trimmed and exact duplicates dropped. Records are grouped in target
// order whether targets ran sequentially or in parallel. Run never
// fails: problems are reported through the result's Success, Error, and
// Metadata fields.
func (o *Orchestrator) Run(ctx context.Context, targets []string) types.ResearchResult {
	started := time.Now()
	targets = cleanTargets(targets)
	result := types.ResearchResult{
		Records: []types.StartupRecord{},
		Metadata: types.ResearchMetadata{
			RunID:     uuid.NewString(),
			Targets:   targets,
			PerTarget: []types.TargetMetadata{},
			StartedAt: started.UTC(),
		},
	}
	log := o.logger.With(zap.String("run_id", result.Metadata.RunID))

	finish := func() types.ResearchResult {
		result.Metadata.FinishedAt = time.Now().UTC()
		return result
	}

	if o.search == nil || o.llm == nil {
		result.Error = types.ErrorCodeConfig
		result.Message = types.MessageConfigError
		log.Error("research not configured",
			zap.Bool("search", o.search != nil),
			zap.Bool("llm", o.llm != nil),
		)
		return finish()
	}
	if len(targets) == 0 {
		result.Error = types.ErrorCodeNoTargets
		result.Message = types.MessageNoTargets
		return finish()
	}

	log.Info("research started", zap.Strings("targets", targets), zap.Int("concurrency", o.config.Concurrency))

	outcomes := o.runTargets(ctx, targets, log)
	for _, oc := range outcomes {
		result.Records = append(result.Records, oc.records...)
		result.Metadata.PerTarget = append(result.Metadata.PerTarget, oc.meta)
		result.Metadata.TotalSources += oc.meta.SourceCount
	}

	result.Success = len(result.Records) > 0
	if !result.Success {
		result.Error = types.ErrorCodeNoResults
		result.Message = types.MessageNoStartups
	}
	log.Info("research finished",
		zap.Int("records", len(result.Records)),
		zap.Int("sources", result.Metadata.TotalSources),
		zap.Bool("success", result.Success),
		zap.Duration("elapsed", elapsed(started)),
	)
	return finish()
}

// runTargets researches each target into its own slot, sequentially or
// with bounded parallelism.
func (o *Orchestrator) runTargets(ctx context.Context, targets []string, log *zap.Logger) []targetOutcome {
	outcomes := make([]targetOutcome, len(targets))
	researcher := &Researcher{Search: o.search, LLM: o.llm, Config: o.config, Logger: log}

	var mu sync.Mutex
	done := 0
	report := func(meta types.TargetMetadata) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if o.progress != nil {
			o.progress(done, len(targets), meta)
		}
	}

	if o.config.Concurrency <= 1 {
		for i, target := range targets {
			if i > 0 && !sleep(ctx, o.config.TargetDelay) {
				outcomes[i] = cancelledOutcome(target, ctx.Err())
				report(outcomes[i].meta)
				continue
			}
			outcomes[i] = o.researchOne(ctx, researcher, target, log)
			report(outcomes[i].meta)
		}
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Concurrency)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			outcomes[i] = o.researchOne(gctx, researcher, target, log)
			report(outcomes[i].meta)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// researchOne runs one target and converts a panic into a failed target.
func (o *Orchestrator) researchOne(ctx context.Context, r *Researcher, target string, log *zap.Logger) (oc targetOutcome) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error("target panicked", zap.String("target", target), zap.Any("panic", p))
			oc = targetOutcome{meta: types.TargetMetadata{
				Target:  target,
				Reason:  fmt.Sprintf("internal error: %v", p),
				Queries: []string{},
			}}
		}
	}()

	if ctx.Err() != nil {
		return cancelledOutcome(target, ctx.Err())
	}
	records, meta := r.Research(ctx, target)
	log.Info("target finished",
		zap.String("target", target),
		zap.Bool("success", meta.Success),
		zap.Int("records", meta.RecordCount),
		zap.Int("queries", len(meta.Queries)),
		zap.String("reason", meta.Reason),
		zap.Duration("elapsed", elapsed(start)),
	)
	return targetOutcome{records: records, meta: meta}
}

func cancelledOutcome(target string, err error) targetOutcome {
	return targetOutcome{meta: types.TargetMetadata{
		Target:  target,
		Reason:  fmt.Sprintf("cancelled: %v", err),
		Queries: []string{},
	}}
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func cleanTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// withDefaults fills zero settings with the defaults of
// types.DefaultResearchConfig.
func withDefaults(cfg types.ResearchConfig) types.ResearchConfig {
	def := types.DefaultResearchConfig()
	if cfg.InitialResults <= 0 {
		cfg.InitialResults = def.InitialResults
	}
	if cfg.SupplementalResults <= 0 {
		cfg.SupplementalResults = def.SupplementalResults
	}
	if cfg.ExtractionSources <= 0 {
		cfg.ExtractionSources = def.ExtractionSources
	}
	if cfg.SourceChars <= 0 {
		cfg.SourceChars = def.SourceChars
	}
	if cfg.ExtractionMaxTokens <= 0 {
		cfg.ExtractionMaxTokens = def.ExtractionMaxTokens
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Enrich == (types.EnrichConfig{}) {
		cfg.Enrich = def.Enrich
	}
	return cfg
}
