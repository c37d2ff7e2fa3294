// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, env := range providerKeyEnv {
		t.Setenv(env, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearKeyEnv(t)

	got, err := loadConfig(viper.New(), nil)
	require.NoError(t, err)
	if diff := cmp.Diff(types.DefaultConfig(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("PORTFOLIO_RESEARCH_SEARCH_PROVIDER", "tavily")
	t.Setenv("PORTFOLIO_RESEARCH_RESEARCH_LIMIT", "5")
	t.Setenv("PORTFOLIO_RESEARCH_RESEARCH_CALL_TIMEOUT", "30s")
	t.Setenv("PORTFOLIO_RESEARCH_RESEARCH_ENRICH_MAX_ROUNDS", "1")
	t.Setenv("PORTFOLIO_RESEARCH_SERVER_PORT", "8080")
	t.Setenv("TAVILY_API_KEY", "tvly-key")

	got, err := loadConfig(viper.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.SearchTavily, got.Search.Provider)
	assert.Equal(t, "tvly-key", got.Search.APIKey)
	assert.Equal(t, 5, got.Research.Limit)
	assert.Equal(t, 30*time.Second, got.Research.CallTimeout)
	assert.Equal(t, 1, got.Research.Enrich.MaxRounds)
	assert.Equal(t, 8080, got.Server.Port)
}

func TestLoadConfigSecretsFallback(t *testing.T) {
	clearKeyEnv(t)
	secretValues := map[string]string{
		"exa-api-key":      "exa-secret",
		"cerebras-api-key": "cerebras-secret",
	}

	got, err := loadConfig(viper.New(), secretValues)
	require.NoError(t, err)
	assert.Equal(t, "exa-secret", got.Search.APIKey)
	assert.Equal(t, "cerebras-secret", got.LLM.APIKey)
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("EXA_API_KEY", "from-env")
	secretValues := map[string]string{"exa-api-key": "from-secret"}

	assert.Equal(t, "configured", resolveAPIKey("configured", "exa", secretValues))
	assert.Equal(t, "from-env", resolveAPIKey("", "exa", secretValues))
	assert.Equal(t, "from-env", resolveAPIKey("", "EXA", secretValues))
	assert.Equal(t, "", resolveAPIKey("", "ollama", secretValues))
}

func TestPad(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcde", 5, "abcde"},
		{"abcdefgh", 6, "abc..."},
		{"Não informado", 10, "Não inf..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pad(tt.in, tt.width), tt.in)
	}
}

func TestWriteResultTable(t *testing.T) {
	color.NoColor = true

	r := types.NewStartupRecord()
	r.Name = "Nubank"
	r.Investor = "Kaszek"
	result := types.ResearchResult{
		Records: []types.StartupRecord{r},
		Success: true,
		Metadata: types.ResearchMetadata{
			TotalSources: 12,
			PerTarget: []types.TargetMetadata{
				{Target: "Kaszek", Success: true, RecordCount: 1, SourceCount: 12, Layers: 2},
				{Target: "Nobody", Reason: types.ReasonNoSources},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "table", result))
	out := buf.String()

	assert.Contains(t, out, "Startup")
	assert.Contains(t, out, "Nubank")
	assert.Contains(t, out, "Kaszek: 1 startups, 12 sources, 2 layers (ok)")
	assert.Contains(t, out, "Nobody: 0 startups, 0 sources, 0 layers (failed: no sources found)")
	assert.Contains(t, out, "1 startups from 12 sources")
}

func TestWriteResultEmptyTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "table", types.ResearchResult{Message: types.MessageNoStartups}))
	assert.True(t, strings.HasPrefix(buf.String(), "No startups found."))
	assert.Contains(t, buf.String(), types.MessageNoStartups)
}

func TestWriteResultJSON(t *testing.T) {
	r := types.NewStartupRecord()
	r.Name = "Nubank"
	result := types.ResearchResult{Records: []types.StartupRecord{r}, Success: true}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "json", result))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["sucesso"])
	assert.Len(t, decoded["resultado"], 1)
}
