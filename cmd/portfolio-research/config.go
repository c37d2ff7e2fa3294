// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/portfolio-research/internal/secrets"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

const envPrefix = "PORTFOLIO_RESEARCH"

// providerKeyEnv maps provider names to the conventional environment
// variable holding their API key.
var providerKeyEnv = map[string]string{
	types.SearchExa:     "EXA_API_KEY",
	types.SearchTavily:  "TAVILY_API_KEY",
	types.LLMCerebras:   "CEREBRAS_API_KEY",
	types.LLMOpenAI:     "OPENAI_API_KEY",
	types.LLMPerplexity: "PERPLEXITY_API_KEY",
	types.LLMAnthropic:  "ANTHROPIC_API_KEY",
}

// setDefaults registers every configuration key so that environment
// variables such as PORTFOLIO_RESEARCH_SEARCH_PROVIDER are picked up.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	defaults := map[string]any{
		"search.provider":      d.Search.Provider,
		"search.api_host":      d.Search.APIHost,
		"search.api_key":       d.Search.APIKey,
		"search.rate_limit":    d.Search.RateLimit,
		"search.content_chars": d.Search.ContentChars,
		"search.timeout":       d.Search.Timeout,
		"search.user_agent":    d.Search.UserAgent,
		"search.max_retries":   d.Search.MaxRetries,

		"llm.provider":    d.LLM.Provider,
		"llm.base_url":    d.LLM.BaseURL,
		"llm.api_key":     d.LLM.APIKey,
		"llm.model":       d.LLM.Model,
		"llm.timeout":     d.LLM.Timeout,
		"llm.max_retries": d.LLM.MaxRetries,

		"research.initial_results":        d.Research.InitialResults,
		"research.supplemental_results":   d.Research.SupplementalResults,
		"research.extraction_sources":     d.Research.ExtractionSources,
		"research.source_chars":           d.Research.SourceChars,
		"research.extraction_max_tokens":  d.Research.ExtractionMaxTokens,
		"research.extraction_temperature": d.Research.ExtractionTemperature,
		"research.limit":                  d.Research.Limit,
		"research.concurrency":            d.Research.Concurrency,
		"research.call_timeout":           d.Research.CallTimeout,
		"research.target_delay":           d.Research.TargetDelay,

		"research.enrich.max_rounds":        d.Research.Enrich.MaxRounds,
		"research.enrich.records_per_round": d.Research.Enrich.RecordsPerRound,
		"research.enrich.fields_per_query":  d.Research.Enrich.FieldsPerQuery,
		"research.enrich.search_results":    d.Research.Enrich.SearchResults,
		"research.enrich.max_tokens":        d.Research.Enrich.MaxTokens,
		"research.enrich.temperature":       d.Research.Enrich.Temperature,

		"history.data_dir": d.History.DataDir,

		"server.host": d.Server.Host,
		"server.port": d.Server.Port,

		"log.level":            d.Log.Level,
		"log.format":           d.Log.Format,
		"log.output":           d.Log.Output,
		"log.file.filename":    d.Log.File.Filename,
		"log.file.max_size":    d.Log.File.MaxSize,
		"log.file.max_age":     d.Log.File.MaxAge,
		"log.file.max_backups": d.Log.File.MaxBackups,
		"log.file.compress":    d.Log.File.Compress,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// loadConfig resolves the configuration from defaults, the config file,
// and PORTFOLIO_RESEARCH_* environment variables. Missing API keys fall
// back to the provider's conventional variable, then to .secrets/.
func loadConfig(v *viper.Viper, secretValues map[string]string) (types.Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	c.Search.APIKey = resolveAPIKey(c.Search.APIKey, c.Search.Provider, secretValues)
	c.LLM.APIKey = resolveAPIKey(c.LLM.APIKey, c.LLM.Provider, secretValues)
	return c, nil
}

func resolveAPIKey(configured, provider string, secretValues map[string]string) string {
	if configured != "" {
		return configured
	}
	provider = strings.ToLower(provider)
	if env, ok := providerKeyEnv[provider]; ok {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return secretValues[secrets.KeyFor(provider)]
}
