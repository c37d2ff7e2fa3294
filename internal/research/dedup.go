// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import "github.com/pdiddy/portfolio-research/pkg/types"

// dedupe collapses records sharing a case-insensitive name. The first
// occurrence wins and its missing fields are filled from later duplicates.
func dedupe(records []types.StartupRecord) []types.StartupRecord {
	out, _ := mergeNew(nil, records)
	return out
}

// mergeNew appends the incoming records whose name is not yet present and
// fills missing fields of existing records from colliding ones. It returns
// the merged list and the number of records appended.
func mergeNew(existing, incoming []types.StartupRecord) ([]types.StartupRecord, int) {
	out := make([]types.StartupRecord, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	seen := make(map[string]int, len(out))
	for i, r := range out {
		seen[r.Key()] = i
	}

	added := 0
	for _, r := range incoming {
		key := r.Key()
		if idx, ok := seen[key]; ok {
			fillGaps(&out[idx], r)
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
		added++
	}
	return out, added
}

// fillGaps copies src fields into dst where dst has no information.
func fillGaps(dst *types.StartupRecord, src types.StartupRecord) {
	for _, f := range types.RecordFields {
		if !types.IsKnown(dst.Get(f)) && types.IsKnown(src.Get(f)) {
			dst.Set(f, src.Get(f))
		}
	}
}
