// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/portfolio-research/internal/llm"
	"github.com/pdiddy/portfolio-research/internal/search"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// --- test doubles ---

type stubSearch struct {
	mu      sync.Mutex
	queries []string
	fn      func(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error)
}

func (s *stubSearch) Name() string { return "stub" }

func (s *stubSearch) Search(ctx context.Context, query string, limit int) ([]types.SourceSnippet, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(ctx, query, limit)
}

type stubLLM struct {
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) (string, error)
}

func (l *stubLLM) Name() string { return "stub" }

func (l *stubLLM) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	if l.fn == nil {
		return "", nil
	}
	return l.fn(prompt)
}

func isExtraction(prompt string) bool { return strings.Contains(prompt, "JSON array") }

func fixedSnippets(n int, text string) []types.SourceSnippet {
	out := make([]types.SourceSnippet, n)
	for i := range out {
		out[i] = types.SourceSnippet{
			Title:   fmt.Sprintf("Article %d", i+1),
			URL:     fmt.Sprintf("https://news.example.com/%d", i+1),
			Content: text,
		}
	}
	return out
}

func testConfig() types.ResearchConfig {
	cfg := types.DefaultResearchConfig()
	cfg.CallTimeout = time.Second
	return cfg
}

func names(records []types.StartupRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

// --- scenarios ---

func TestRunEndToEndSingleRecord(t *testing.T) {
	s := &stubSearch{fn: func(context.Context, string, int) ([]types.SourceSnippet, error) {
		return fixedSnippets(12, "Sequoia Capital led a $10M round in Startup Alpha."), nil
	}}
	l := &stubLLM{fn: func(prompt string) (string, error) {
		if isExtraction(prompt) {
			return "```json\n[{\"nome\":\"Startup Alpha\",\"valor_investimento\":\"$10M\",\"vc_investidor\":\"Someone Else\"}]\n```", nil
		}
		return "{}", nil
	}}

	result := NewOrchestrator(s, l, testConfig()).Run(context.Background(), []string{"Sequoia Capital"})

	require.True(t, result.Success)
	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, "Startup Alpha", rec.Name)
	assert.Equal(t, "Sequoia Capital", rec.Investor)
	assert.Equal(t, "$10M", rec.InvestmentAmount)
	assert.Equal(t, types.NotInformed, rec.Site)

	require.Len(t, result.Metadata.PerTarget, 1)
	meta := result.Metadata.PerTarget[0]
	assert.True(t, meta.Success)
	assert.Equal(t, 1, meta.RecordCount)
	assert.Equal(t, 3, meta.Layers)
	assert.Equal(t, 12, meta.InitialSources)
	assert.Equal(t, 12, meta.SupplementSources)
	assert.Equal(t, 24, result.Metadata.TotalSources)
	assert.Len(t, meta.Sources, maxSourceRefs)
	assert.Equal(t, []string{"Sequoia Capital"}, result.Metadata.Targets)
	assert.NotEmpty(t, result.Metadata.RunID)

	require.Len(t, meta.Queries, 5)
	assert.Equal(t, InitialQuery("Sequoia Capital"), meta.Queries[0])
	assert.Equal(t, SupplementalQuery("Sequoia Capital"), meta.Queries[4])
	assert.Equal(t, s.queries, meta.Queries)
}

func TestRunTotalFailure(t *testing.T) {
	s := &stubSearch{}
	l := &stubLLM{}

	result := NewOrchestrator(s, l, testConfig()).Run(context.Background(), []string{"Unknown VC"})

	assert.False(t, result.Success)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)
	assert.Equal(t, types.ErrorCodeNoResults, result.Error)
	assert.Equal(t, types.MessageNoStartups, result.Message)
	require.Len(t, result.Metadata.PerTarget, 1)
	assert.False(t, result.Metadata.PerTarget[0].Success)
	assert.Equal(t, types.ReasonNoSources, result.Metadata.PerTarget[0].Reason)
	assert.Empty(t, l.prompts, "no completion without sources")
}

func TestRunConfigurationError(t *testing.T) {
	tests := []struct {
		name string
		s    search.Provider
		l    llm.Provider
	}{
		{"no search", nil, &stubLLM{}},
		{"no llm", &stubSearch{}, nil},
		{"neither", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewOrchestrator(tt.s, tt.l, testConfig()).Run(context.Background(), []string{"Sequoia Capital"})
			assert.False(t, result.Success)
			assert.Equal(t, types.ErrorCodeConfig, result.Error)
			assert.Equal(t, types.MessageConfigError, result.Message)
			assert.Empty(t, result.Metadata.PerTarget)
			if s, ok := tt.s.(*stubSearch); ok {
				assert.Empty(t, s.queries)
			}
		})
	}
}

func TestRunNoTargets(t *testing.T) {
	s := &stubSearch{}
	result := NewOrchestrator(s, &stubLLM{}, testConfig()).Run(context.Background(), []string{"  ", ""})
	assert.Equal(t, types.ErrorCodeNoTargets, result.Error)
	assert.Empty(t, s.queries)
}

func TestRunMixedTargetsKeepsGoing(t *testing.T) {
	s := &stubSearch{fn: func(_ context.Context, query string, _ int) ([]types.SourceSnippet, error) {
		if strings.HasPrefix(query, "Broken VC") {
			return nil, errors.New("connection reset")
		}
		return fixedSnippets(3, "text"), nil
	}}
	l := &stubLLM{fn: func(prompt string) (string, error) {
		if isExtraction(prompt) {
			return `[{"nome":"Gamma"}]`, nil
		}
		return "{}", nil
	}}

	result := NewOrchestrator(s, l, testConfig()).Run(context.Background(), []string{"Broken VC", "Good VC", "Broken VC"})

	assert.True(t, result.Success)
	assert.Equal(t, []string{"Broken VC", "Good VC"}, result.Metadata.Targets)
	require.Len(t, result.Metadata.PerTarget, 2)
	broken := result.Metadata.PerTarget[0]
	assert.Equal(t, types.ReasonNoSources, broken.Reason)
	require.NotEmpty(t, broken.Errors)
	assert.Contains(t, broken.Errors[0], "connection reset")
	assert.True(t, result.Metadata.PerTarget[1].Success)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Good VC", result.Records[0].Investor)
}

func TestResearchDedupAndSelectionBound(t *testing.T) {
	var entries []string
	for i := 0; i < 14; i++ {
		entry := fmt.Sprintf(`{"nome":"Startup %02d"}`, i)
		if i%2 == 0 {
			entry = fmt.Sprintf(`{"nome":"Startup %02d","site":"https://s%02d.io","rodada":"Seed"}`, i, i)
		}
		entries = append(entries, entry)
	}
	entries = append(entries, `{"nome":"startup 01","setor":"Fintech"}`)
	extraction := "[" + strings.Join(entries, ",") + "]"

	s := &stubSearch{fn: func(context.Context, string, int) ([]types.SourceSnippet, error) {
		return fixedSnippets(4, "text"), nil
	}}
	l := &stubLLM{fn: func(prompt string) (string, error) {
		if isExtraction(prompt) {
			return extraction, nil
		}
		return "{}", nil
	}}

	cfg := testConfig()
	cfg.Enrich.MaxRounds = 1
	r := &Researcher{Search: s, LLM: l, Config: cfg}
	records, meta := r.Research(context.Background(), "VC")

	require.Len(t, records, 10)
	assert.Equal(t, 2, meta.Layers, "layer 3 skipped when the limit is already reached")

	seen := map[string]bool{}
	for _, rec := range records {
		key := strings.ToLower(rec.Name)
		assert.False(t, seen[key], "duplicate %q", rec.Name)
		seen[key] = true
		assert.Equal(t, "VC", rec.Investor)
	}

	// The seven even records score 4, the gap-filled "Startup 01" scores 3,
	// and the remaining ties keep their position.
	assert.Equal(t, []string{
		"Startup 00", "Startup 02", "Startup 04", "Startup 06", "Startup 08", "Startup 10", "Startup 12",
		"Startup 01", "Startup 03", "Startup 05",
	}, names(records))
	assert.Equal(t, "Fintech", records[7].Sector)
}

func TestResearchSupplementalMerge(t *testing.T) {
	s := &stubSearch{fn: func(context.Context, string, int) ([]types.SourceSnippet, error) {
		return fixedSnippets(2, "text"), nil
	}}
	extractions := 0
	l := &stubLLM{fn: func(prompt string) (string, error) {
		if !isExtraction(prompt) {
			return "{}", nil
		}
		extractions++
		if extractions == 1 {
			return `[{"nome":"Alpha"}]`, nil
		}
		return `[{"nome":"ALPHA","rodada":"Series A"},{"nome":"Beta"}]`, nil
	}}

	cfg := testConfig()
	cfg.Enrich.MaxRounds = 0
	r := &Researcher{Search: s, LLM: l, Config: cfg}
	records, meta := r.Research(context.Background(), "VC")

	require.Len(t, records, 2)
	assert.Equal(t, "Alpha", records[0].Name)
	assert.Equal(t, "Series A", records[0].Round)
	assert.Equal(t, "Beta", records[1].Name)
	assert.Equal(t, 3, meta.Layers)
	assert.Equal(t, []string{InitialQuery("VC"), SupplementalQuery("VC")}, meta.Queries)
}

func TestResearchMalformedExtraction(t *testing.T) {
	s := &stubSearch{fn: func(context.Context, string, int) ([]types.SourceSnippet, error) {
		return fixedSnippets(2, "text"), nil
	}}
	l := &stubLLM{fn: func(string) (string, error) { return "I could not find anything.", nil }}

	r := &Researcher{Search: s, LLM: l, Config: testConfig()}
	records, meta := r.Research(context.Background(), "VC")

	assert.Empty(t, records)
	assert.False(t, meta.Success)
	assert.Equal(t, types.ReasonNoRecords, meta.Reason)
	assert.Equal(t, 3, meta.Layers)
}

func TestResearchTimeoutIsRecoverable(t *testing.T) {
	s := &stubSearch{fn: func(ctx context.Context, _ string, _ int) ([]types.SourceSnippet, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testConfig()
	cfg.CallTimeout = 10 * time.Millisecond

	result := NewOrchestrator(s, &stubLLM{}, cfg).Run(context.Background(), []string{"Slow VC"})

	assert.False(t, result.Success)
	meta := result.Metadata.PerTarget[0]
	assert.Equal(t, types.ReasonNoSources, meta.Reason)
	require.Len(t, meta.Errors, 1)
	assert.Contains(t, meta.Errors[0], context.DeadlineExceeded.Error())
}

func TestRunParallelPreservesTargetOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &stubSearch{fn: func(_ context.Context, query string, _ int) ([]types.SourceSnippet, error) {
		if strings.HasPrefix(query, "VC 1") {
			time.Sleep(20 * time.Millisecond)
		}
		return fixedSnippets(1, query), nil
	}}
	l := &stubLLM{fn: func(prompt string) (string, error) {
		if !isExtraction(prompt) {
			return "{}", nil
		}
		for _, vc := range []string{"VC 1", "VC 2", "VC 3"} {
			if strings.Contains(prompt, `"`+vc+`"`) {
				return fmt.Sprintf(`[{"nome":"Startup of %s"}]`, vc), nil
			}
		}
		return "[]", nil
	}}

	cfg := testConfig()
	cfg.Concurrency = 3
	var mu sync.Mutex
	var progress []int
	o := NewOrchestrator(s, l, cfg, WithProgress(func(done, total int, _ types.TargetMetadata) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	}))

	result := o.Run(context.Background(), []string{"VC 1", "VC 2", "VC 3"})

	require.True(t, result.Success)
	assert.Equal(t, []string{"Startup of VC 1", "Startup of VC 2", "Startup of VC 3"}, names(result.Records))
	for i, meta := range result.Metadata.PerTarget {
		assert.Equal(t, fmt.Sprintf("VC %d", i+1), meta.Target)
		assert.Equal(t, meta.Target, result.Records[i].Investor)
	}
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &stubSearch{}
	result := NewOrchestrator(s, &stubLLM{}, testConfig()).Run(ctx, []string{"A", "B"})

	assert.False(t, result.Success)
	require.Len(t, result.Metadata.PerTarget, 2)
	assert.Contains(t, result.Metadata.PerTarget[0].Reason, "cancelled")
	assert.Empty(t, s.queries)
}

func TestMergeNew(t *testing.T) {
	a := types.NewStartupRecord()
	a.Name = "Alpha"
	a2 := types.NewStartupRecord()
	a2.Name = " alpha "
	a2.Site = "https://alpha.io"
	b := types.NewStartupRecord()
	b.Name = "Beta"

	out, added := mergeNew([]types.StartupRecord{a}, []types.StartupRecord{a2, b, b})
	assert.Equal(t, 1, added)
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "https://alpha.io", out[0].Site)
	assert.Equal(t, types.NotInformed, a.Site, "existing input is not mutated")
}
