// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the portfolio research
// pipeline: startup records, source snippets, research results, and
// configuration.
package types

import "strings"

// NotInformed marks a record field whose value was not found in any source.
// It is never conflated with the empty string.
const NotInformed = "Não informado"

// Record field names. These are the wire names used in LLM prompts, JSON
// output, CSV headers, and the history store.
const (
	FieldName             = "nome"
	FieldSite             = "site"
	FieldSector           = "setor"
	FieldFoundedYear      = "ano_fundacao"
	FieldInvestmentAmount = "valor_investimento"
	FieldRound            = "rodada"
	FieldInvestmentDate   = "data_investimento"
	FieldInvestor         = "vc_investidor"
	FieldDescription      = "descricao_breve"
	FieldFounderLinkedIn  = "linkedin_fundador"
)

// RecordFields lists the ten record fields in canonical order.
var RecordFields = []string{
	FieldName,
	FieldSite,
	FieldSector,
	FieldFoundedYear,
	FieldInvestmentAmount,
	FieldRound,
	FieldInvestmentDate,
	FieldInvestor,
	FieldDescription,
	FieldFounderLinkedIn,
}

// EnrichableFields lists the fields targeted by gap enrichment, in the
// priority order used to build follow-up queries.
var EnrichableFields = []string{
	FieldInvestmentAmount,
	FieldInvestmentDate,
	FieldRound,
	FieldFounderLinkedIn,
	FieldSite,
	FieldFoundedYear,
}

// StartupRecord is one startup attributed to an investor. Every field is
// always set; missing values hold NotInformed.
type StartupRecord struct {
	Name             string `json:"nome" yaml:"nome"`
	Site             string `json:"site" yaml:"site"`
	Sector           string `json:"setor" yaml:"setor"`
	FoundedYear      string `json:"ano_fundacao" yaml:"ano_fundacao"`
	InvestmentAmount string `json:"valor_investimento" yaml:"valor_investimento"`
	Round            string `json:"rodada" yaml:"rodada"`
	InvestmentDate   string `json:"data_investimento" yaml:"data_investimento"`
	Investor         string `json:"vc_investidor" yaml:"vc_investidor"`
	Description      string `json:"descricao_breve" yaml:"descricao_breve"`
	FounderLinkedIn  string `json:"linkedin_fundador" yaml:"linkedin_fundador"`
}

// NewStartupRecord returns a record with every field set to NotInformed.
func NewStartupRecord() StartupRecord {
	var r StartupRecord
	for _, f := range RecordFields {
		r.Set(f, NotInformed)
	}
	return r
}

// field returns a pointer to the named field, or nil for an unknown name.
func (r *StartupRecord) field(name string) *string {
	switch name {
	case FieldName:
		return &r.Name
	case FieldSite:
		return &r.Site
	case FieldSector:
		return &r.Sector
	case FieldFoundedYear:
		return &r.FoundedYear
	case FieldInvestmentAmount:
		return &r.InvestmentAmount
	case FieldRound:
		return &r.Round
	case FieldInvestmentDate:
		return &r.InvestmentDate
	case FieldInvestor:
		return &r.Investor
	case FieldDescription:
		return &r.Description
	case FieldFounderLinkedIn:
		return &r.FounderLinkedIn
	}
	return nil
}

// Get returns the value of the named field. Unknown names return "".
func (r StartupRecord) Get(name string) string {
	if p := r.field(name); p != nil {
		return *p
	}
	return ""
}

// Set assigns the named field and reports whether the name is known.
func (r *StartupRecord) Set(name, value string) bool {
	p := r.field(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Values returns the field values in RecordFields order.
func (r StartupRecord) Values() []string {
	out := make([]string, len(RecordFields))
	for i, f := range RecordFields {
		out[i] = r.Get(f)
	}
	return out
}

// IsKnown reports whether v carries information, i.e. is neither empty nor
// the NotInformed sentinel.
func IsKnown(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotInformed
}

// Key returns the identity key used for deduplication: the lowercased,
// trimmed startup name.
func (r StartupRecord) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Name))
}
