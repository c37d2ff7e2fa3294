// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

var validURL = regexp.MustCompile(`^https?://[^\s/.]+(\.[^\s/.]+)+(/\S*)?$`)

// IsValidURL reports whether v is an http(s) URL whose host contains a dot.
func IsValidURL(v string) bool {
	return validURL.MatchString(strings.TrimSpace(v))
}

var amountPattern = regexp.MustCompile(`(?i)(us\$|usd|r\$|brl|\$)?\s*(\d+(?:[.,]\d+)*)(?:\s*(billion|bilh(?:ões|oes|ão|ao)|bi|b|million|milh(?:ões|oes|ão|ao)|mm|mil|mi|m|thousand|k)\b)?`)

type unit int

const (
	unitNone unit = iota
	unitThousand
	unitMillion
	unitBillion
)

// NormalizeAmount rewrites a monetary amount into one of the canonical
// forms "US$ 1.5 bilhões", "US$ 250 mil", "US$ 10.0 milhões", or
// "R$ 10.0 milhões". The first number carrying a unit or a currency is
// used; a bare number with a currency is scaled by magnitude. Values that
// cannot be interpreted are returned unchanged.
func NormalizeAmount(v string) string {
	if !types.IsKnown(v) {
		return v
	}

	for _, m := range amountPattern.FindAllStringSubmatch(v, -1) {
		currency := strings.ToUpper(m[1])
		u := parseUnit(m[3])
		if currency == "" && u == unitNone {
			continue
		}
		n, ok := parseNumber(m[2])
		if !ok {
			continue
		}

		if u == unitNone {
			switch {
			case n >= 1e9:
				n, u = n/1e9, unitBillion
			case n >= 1e6:
				n, u = n/1e6, unitMillion
			case n >= 1e3:
				n, u = n/1e3, unitThousand
			default:
				return v
			}
		}

		switch u {
		case unitBillion:
			return fmt.Sprintf("US$ %.1f bilhões", n)
		case unitThousand:
			return fmt.Sprintf("US$ %.0f mil", n)
		default:
			if currency == "R$" || currency == "BRL" {
				return fmt.Sprintf("R$ %.1f milhões", n)
			}
			return fmt.Sprintf("US$ %.1f milhões", n)
		}
	}
	return v
}

func parseUnit(s string) unit {
	s = strings.ToLower(s)
	switch {
	case s == "":
		return unitNone
	case s == "billion" || s == "bi" || s == "b" || strings.HasPrefix(s, "bilh"):
		return unitBillion
	case s == "thousand" || s == "k" || s == "mil":
		return unitThousand
	default:
		return unitMillion
	}
}

// parseNumber reads a number written with US or pt-BR separators
// ("1,234.5", "1.234,5", "1.5", "1,5", "10,000").
func parseNumber(s string) (float64, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
