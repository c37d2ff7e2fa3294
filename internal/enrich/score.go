// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich scores record completeness and fills missing record
// fields through targeted follow-up searches.
package enrich

import (
	"sort"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

// Score counts the fields of rec that carry information, 0 to 10.
func Score(rec types.StartupRecord) int {
	n := 0
	for _, f := range types.RecordFields {
		if types.IsKnown(rec.Get(f)) {
			n++
		}
	}
	return n
}

// MissingFields returns the enrichable fields of rec that carry no
// information, in enrichment priority order.
func MissingFields(rec types.StartupRecord) []string {
	var missing []string
	for _, f := range types.EnrichableFields {
		if !types.IsKnown(rec.Get(f)) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Select returns the records ordered by descending Score, ties kept in
// input order, truncated to limit. A limit of zero or less keeps all.
// The input slice is not modified.
func Select(records []types.StartupRecord, limit int) []types.StartupRecord {
	out := make([]types.StartupRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return Score(out[i]) > Score(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
