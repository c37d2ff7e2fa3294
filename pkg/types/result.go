// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Per-target failure reasons.
const (
	ReasonNoSources = "no sources found"
	ReasonNoRecords = "no records extracted"
)

// Overall result messages.
const (
	MessageNoStartups  = "no startups found"
	MessageNoTargets   = "at least one investor name is required"
	MessageConfigError = "search and language model providers must be configured"
)

// ResearchResult is the unit returned by a research run and persisted by
// the history store.
type ResearchResult struct {
	// Records holds the selected records of all targets, in target order.
	Records []StartupRecord `json:"resultado" yaml:"resultado"`

	// Metadata describes what the run did, including failures.
	Metadata ResearchMetadata `json:"metadados" yaml:"metadados"`

	// Success is true when at least one target produced a record.
	Success bool `json:"sucesso" yaml:"sucesso"`

	// Error is a short failure code ("config", "no_results"), empty on success.
	Error string `json:"erro,omitempty" yaml:"erro,omitempty"`

	// Message is a human-readable explanation of Error.
	Message string `json:"mensagem,omitempty" yaml:"mensagem,omitempty"`
}

// Error codes carried in ResearchResult.Error.
const (
	ErrorCodeConfig    = "config"
	ErrorCodeNoTargets = "no_targets"
	ErrorCodeNoResults = "no_results"
)

// ResearchMetadata carries the run-level diagnostics.
type ResearchMetadata struct {
	RunID        string           `json:"run_id" yaml:"run_id"`
	Targets      []string         `json:"vcs_pesquisadas" yaml:"vcs_pesquisadas"`
	TotalSources int              `json:"total_fontes" yaml:"total_fontes"`
	PerTarget    []TargetMetadata `json:"por_vc" yaml:"por_vc"`
	StartedAt    time.Time        `json:"iniciado_em" yaml:"iniciado_em"`
	FinishedAt   time.Time        `json:"finalizado_em" yaml:"finalizado_em"`
}

// TargetMetadata describes the outcome of one target.
type TargetMetadata struct {
	Target  string `json:"vc" yaml:"vc"`
	Success bool   `json:"sucesso" yaml:"sucesso"`

	// Reason explains a failure (ReasonNoSources, ReasonNoRecords).
	Reason string `json:"motivo,omitempty" yaml:"motivo,omitempty"`

	RecordCount       int `json:"total_startups" yaml:"total_startups"`
	SourceCount       int `json:"total_fontes" yaml:"total_fontes"`
	InitialSources    int `json:"fontes_iniciais" yaml:"fontes_iniciais"`
	SupplementSources int `json:"fontes_suplementares" yaml:"fontes_suplementares"`
	Layers            int `json:"camadas_pesquisa" yaml:"camadas_pesquisa"`

	// Queries lists every search query executed for the target, in order.
	Queries []string `json:"queries" yaml:"queries"`

	// Errors lists recovered provider failures.
	Errors []string `json:"erros,omitempty" yaml:"erros,omitempty"`

	// Sources holds up to five source references for diagnostics.
	Sources []SourceRef `json:"fontes,omitempty" yaml:"fontes,omitempty"`
}
