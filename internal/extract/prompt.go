// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// MinEntities is the number of distinct startups the extraction prompt asks for.
const MinEntities = 10

// enrichmentSourceChars caps the content of each source in enrichment prompts.
const enrichmentSourceChars = 1500

var extractionPromptTmpl = template.Must(template.New("extraction").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are a venture capital research analyst. Using ONLY the sources below, list the startups that received investment from "{{.Target}}".

Find at least {{.MinEntities}} distinct startups when the sources allow it. For each startup return an object with exactly these fields:
{{- range .Fields}}
- {{.}}{{end}}

Rules:
- "vc_investidor" is always "{{.Target}}".
- Use "{{.Missing}}" for any field the sources do not state. Never invent values.
- "site" and "linkedin_fundador" must be full URLs starting with http:// or https://.
- "valor_investimento" keeps the amount and currency as written in the source (e.g. "US$ 10M").
- "descricao_breve" is one short sentence.

Respond with a JSON array only, no text before or after it.

Sources:
{{range $i, $s := .Sources}}
[{{inc $i}}] {{$s.Title}}
URL: {{$s.URL}}
{{$s.Content}}
{{end}}`))

var enrichmentPromptTmpl = template.Must(template.New("enrichment").Parse(`You are completing a research record for the startup "{{.Name}}", an investment of "{{.Target}}".

From the sources below, find ONLY these fields:
{{- range .Fields}}
- {{.}}{{end}}

Respond with a single JSON object containing only the fields you found, for example {"{{index .Fields 0}}": "..."}.
URLs must start with http:// or https://. If nothing is found respond with {}.

Sources:
{{range .Sources}}
- {{.Title}} ({{.URL}})
{{.Content}}
{{end}}`))

// ExtractionPrompt renders the prompt that asks the model for a JSON array
// of records. At most maxSources sources are embedded, each cut to
// charLimit characters.
func ExtractionPrompt(target string, sources []types.SourceSnippet, maxSources, charLimit int) (string, error) {
	if maxSources > 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	trimmed := make([]types.SourceSnippet, len(sources))
	for i, s := range sources {
		s.Content = truncate(s.Content, charLimit)
		trimmed[i] = s
	}

	var buf bytes.Buffer
	err := extractionPromptTmpl.Execute(&buf, struct {
		Target      string
		MinEntities int
		Fields      []string
		Missing     string
		Sources     []types.SourceSnippet
	}{target, MinEntities, types.RecordFields, types.NotInformed, trimmed})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EnrichmentPrompt renders the prompt that asks the model for only the
// given missing fields of one record.
func EnrichmentPrompt(rec types.StartupRecord, target string, fields []string, sources []types.SourceSnippet) (string, error) {
	trimmed := make([]types.SourceSnippet, len(sources))
	for i, s := range sources {
		s.Content = truncate(s.Content, enrichmentSourceChars)
		trimmed[i] = s
	}

	var buf bytes.Buffer
	err := enrichmentPromptTmpl.Execute(&buf, struct {
		Name    string
		Target  string
		Fields  []string
		Sources []types.SourceSnippet
	}{rec.Name, target, fields, trimmed})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
