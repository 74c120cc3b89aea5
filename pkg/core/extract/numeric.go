package extract

import (
	"strconv"
	"strings"
)

// significanceFloor filters out zero and near-zero matches that are almost
// always table artifacts rather than reported amounts.
const significanceFloor = 0.01

// parseNumeric converts a reported literal to a float64. It strips currency
// symbols, comma grouping and whitespace, and recovers negatives from the
// accounting parenthesis notation: "(1,234)" parses to -1234.
// Returns false for empty, placeholder or malformed literals; the caller is
// expected to move on to the next alias.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "—" || s == "N/A" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		val = -val
	}
	return val, true
}

// normalizeScale applies the millions heuristic: filings that print statement
// tables in millions yield literals like "1.5" where the full-dollar amount is
// 1,500,000. Any positive value under 1000 is scaled up by 1e6.
//
// This is a deliberately approximate unit-inference rule. It can misclassify
// legitimately small full-dollar or per-share amounts, and the source data does
// not carry a reliable unit tag to disambiguate. Known limitation, not a bug.
func normalizeScale(v float64) float64 {
	if v > 0 && v < 1000 {
		return v * 1000000
	}
	return v
}
