// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by providers that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "portfolio-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Search provider identifiers.
const (
	SearchExa    = "exa"
	SearchTavily = "tavily"
)

// SearchConfig holds settings for the web search provider.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the search API: exa or tavily.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// APIHost overrides the provider base URL.
	APIHost string `json:"api_host,omitempty" yaml:"api_host,omitempty" mapstructure:"api_host"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RateLimit is the maximum number of searches per second (default 2, 0 = unlimited).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// ContentChars caps the text returned per result (default 4000).
	ContentChars int `json:"content_chars" yaml:"content_chars" mapstructure:"content_chars"`
}

// Language model provider identifiers.
const (
	LLMCerebras   = "cerebras"
	LLMOpenAI     = "openai"
	LLMPerplexity = "perplexity"
	LLMAnthropic  = "anthropic"
	LLMOllama     = "ollama"
)

// LLMConfig holds settings for the language model provider.
type LLMConfig struct {
	// Provider selects the model API: cerebras, openai, perplexity, anthropic, or ollama.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates against the provider. Ollama needs none.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Model is the model identifier (e.g. "llama-4-scout-17b-16e-instruct").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Timeout bounds one HTTP round trip (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retry attempts for failed completions (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// EnrichConfig holds the gap enrichment bounds.
type EnrichConfig struct {
	// MaxRounds is the number of enrichment rounds (default 3).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" mapstructure:"max_rounds"`

	// RecordsPerRound caps the records enriched in one round (default 5).
	RecordsPerRound int `json:"records_per_round" yaml:"records_per_round" mapstructure:"records_per_round"`

	// FieldsPerQuery caps the missing fields combined into one query (default 3).
	FieldsPerQuery int `json:"fields_per_query" yaml:"fields_per_query" mapstructure:"fields_per_query"`

	// SearchResults is the number of sources fetched per enrichment query (default 3).
	SearchResults int `json:"search_results" yaml:"search_results" mapstructure:"search_results"`

	// MaxTokens bounds the enrichment completion (default 300).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature is the enrichment sampling temperature (default 0.1).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// ResearchConfig holds the layered research pipeline settings.
type ResearchConfig struct {
	// InitialResults is the number of sources fetched by the broad search (default 12).
	InitialResults int `json:"initial_results" yaml:"initial_results" mapstructure:"initial_results"`

	// SupplementalResults is the number of sources fetched by the supplemental search (default 8).
	SupplementalResults int `json:"supplemental_results" yaml:"supplemental_results" mapstructure:"supplemental_results"`

	// ExtractionSources caps the sources embedded in the extraction prompt (default 10).
	ExtractionSources int `json:"extraction_sources" yaml:"extraction_sources" mapstructure:"extraction_sources"`

	// SourceChars caps the content characters embedded per source (default 4000).
	SourceChars int `json:"source_chars" yaml:"source_chars" mapstructure:"source_chars"`

	// ExtractionMaxTokens bounds the extraction completion (default 4000).
	ExtractionMaxTokens int `json:"extraction_max_tokens" yaml:"extraction_max_tokens" mapstructure:"extraction_max_tokens"`

	// ExtractionTemperature is the extraction sampling temperature (default 0.1).
	ExtractionTemperature float64 `json:"extraction_temperature" yaml:"extraction_temperature" mapstructure:"extraction_temperature"`

	// Limit is the maximum number of records kept per target (default 10).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Concurrency is the number of targets researched at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// CallTimeout bounds every provider call; a timeout counts as an empty result (default 90s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout" mapstructure:"call_timeout"`

	// TargetDelay is the pause between sequential targets (default 0).
	TargetDelay time.Duration `json:"target_delay" yaml:"target_delay" mapstructure:"target_delay"`

	Enrich EnrichConfig `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
}

// HistoryConfig holds settings for the result history store.
type HistoryConfig struct {
	// DataDir contains history.db (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host" yaml:"host" mapstructure:"host"`
	Port int    `json:"port" yaml:"port" mapstructure:"port"`
}

// LogFileConfig holds rotation settings for file log output.
type LogFileConfig struct {
	Filename   string `json:"filename" yaml:"filename" mapstructure:"filename"`
	MaxSize    int    `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	MaxAge     int    `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	Compress   bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is console, file, or both.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	File LogFileConfig `json:"file" yaml:"file" mapstructure:"file"`
}

// Config groups all settings of the application.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	LLM      LLMConfig      `json:"llm" yaml:"llm" mapstructure:"llm"`
	Research ResearchConfig `json:"research" yaml:"research" mapstructure:"research"`
	History  HistoryConfig  `json:"history" yaml:"history" mapstructure:"history"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultResearchConfig returns the research pipeline defaults.
func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		InitialResults:        12,
		SupplementalResults:   8,
		ExtractionSources:     10,
		SourceChars:           4000,
		ExtractionMaxTokens:   4000,
		ExtractionTemperature: 0.1,
		Limit:                 10,
		Concurrency:           1,
		CallTimeout:           90 * time.Second,
		Enrich: EnrichConfig{
			MaxRounds:       3,
			RecordsPerRound: 5,
			FieldsPerQuery:  3,
			SearchResults:   3,
			MaxTokens:       300,
			Temperature:     0.1,
		},
	}
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    30 * time.Second,
				UserAgent:  "portfolio-research/0.1",
				MaxRetries: 3,
			},
			Provider:     SearchExa,
			RateLimit:    2,
			ContentChars: 4000,
		},
		LLM: LLMConfig{
			Provider:   LLMCerebras,
			Timeout:    120 * time.Second,
			MaxRetries: 2,
		},
		Research: DefaultResearchConfig(),
		History:  HistoryConfig{DataDir: "data"},
		Server:   ServerConfig{Host: "127.0.0.1", Port: 5000},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "console",
			File: LogFileConfig{
				Filename:   "logs/portfolio-research.log",
				MaxSize:    100,
				MaxAge:     30,
				MaxBackups: 10,
				Compress:   true,
			},
		},
	}
}
