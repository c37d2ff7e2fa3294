// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns free-form language model output into startup
// records. Parsing never fails: malformed output degrades to an empty
// result so the pipeline continues with whatever it already has.
package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// Parse extracts a list of untyped records from model output. A fenced
// code block is unwrapped, then the span from the first '[' to the last ']'
// (or, without brackets, the first '{' to the last '}') is decoded as
// strict JSON. A lone object yields a one-element list. Anything else,
// including invalid JSON, yields nil.
func Parse(raw string) []any {
	span, ok := jsonSpan(raw)
	if !ok {
		return nil
	}

	var v any
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	}
	return nil
}

// ParseObject extracts a flat field map from model output, as returned by
// enrichment prompts. Only string and numeric members are kept; numbers
// keep their literal text. Invalid or missing JSON yields an empty map.
func ParseObject(raw string) map[string]string {
	out := make(map[string]string)
	text := stripFence(strings.TrimSpace(raw))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return out
	}
	span := text[start : end+1]
	if !gjson.Valid(span) {
		return out
	}

	gjson.Parse(span).ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			out[key.String()] = strings.TrimSpace(value.String())
		case gjson.Number:
			out[key.String()] = value.Raw
		}
		return true
	})
	return out
}

// jsonSpan locates the bracket-delimited JSON candidate inside raw.
func jsonSpan(raw string) (string, bool) {
	text := stripFence(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			return text[start : end+1], true
		}
	}
	return "", false
}

// stripFence removes the first line of a ``` fenced block and its closing
// fence line when present.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Validate converts untyped entries into StartupRecords. Entries that are
// not JSON objects are dropped. Each of the ten fields is copied when it
// holds a non-empty scalar and set to types.NotInformed otherwise. The
// investor is always set to target, and entries without a usable name are
// dropped. Order is preserved.
func Validate(raw []any, target string) []types.StartupRecord {
	var records []types.StartupRecord
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		rec := types.NewStartupRecord()
		for _, field := range types.RecordFields {
			if v := scalarString(m[field]); v != "" {
				rec.Set(field, v)
			}
		}
		rec.Investor = target

		if !types.IsKnown(rec.Name) {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// scalarString renders a decoded JSON scalar as trimmed text. Objects,
// arrays, and null render as "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	return ""
}
