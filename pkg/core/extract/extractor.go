// Package extract pulls named financial metrics out of raw filing content.
// Three strategies run in order for each alias of a metric: a structured scan
// for XBRL concept tags in the markup, a free-text label pattern match, and a
// goquery-based HTML table walk as the last resort. The first alias that
// produces a significant value wins; a metric with no match anywhere is
// reported as absent, never as zero.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"quantfacts/pkg/core/metrics"
)

// Strategy identifies which extraction path produced a value.
type Strategy string

const (
	StrategyStructured Strategy = "structured"
	StrategyText       Strategy = "text"
	StrategyHTMLTable  Strategy = "html_table"
)

// Extraction is a successfully extracted value with its provenance.
type Extraction struct {
	Value        float64
	MatchedAlias string
	Strategy     Strategy
}

// Extractor resolves canonical metrics against raw filing content using an
// injected alias table. It holds no mutable state and is safe for concurrent
// use; compiled patterns are cached per alias.
type Extractor struct {
	table *metrics.Table

	mu       sync.RWMutex
	patterns map[string][]*regexp.Regexp
}

// New creates an extractor over the given alias table.
func New(table *metrics.Table) *Extractor {
	return &Extractor{
		table:    table,
		patterns: make(map[string][]*regexp.Regexp),
	}
}

// Extract returns the best candidate value for a canonical metric, or false
// when no alias matches under any strategy. The structured scan is attempted
// for every tag alias before falling back to text labels, mirroring the
// preference order encoded in the alias table.
func (e *Extractor) Extract(content, canonical string) (Extraction, bool) {
	alias, ok := e.table.Lookup(canonical)
	if !ok {
		return Extraction{}, false
	}

	for _, tag := range alias.Tags {
		if v, ok := e.scanTag(content, tag); ok {
			return Extraction{Value: v, MatchedAlias: tag, Strategy: StrategyStructured}, true
		}
	}
	for _, label := range alias.Labels {
		if v, ok := e.scanLabel(content, label); ok {
			return Extraction{Value: normalizeScale(v), MatchedAlias: label, Strategy: StrategyText}, true
		}
	}
	if ex, ok := e.extractFromTables(content, alias); ok {
		return ex, true
	}
	return Extraction{}, false
}

// scanTag searches the markup for an XBRL concept under its common serialized
// forms: the us-gaap namespace, no namespace, and any other namespace prefix.
func (e *Extractor) scanTag(content, tag string) (float64, bool) {
	for _, re := range e.tagPatterns(tag) {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			v, ok := parseNumeric(m[1])
			if !ok {
				continue
			}
			if math.Abs(v) > significanceFloor {
				return v, true
			}
		}
	}
	return 0, false
}

// scanLabel matches a statement line label followed by a numeric token, with
// optional currency symbol, comma grouping and parenthesized negatives.
func (e *Extractor) scanLabel(content, label string) (float64, bool) {
	re := e.labelPattern(label)
	matches := re.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return 0, false
	}
	// Statements print the most recent period in the first column, so the
	// first significant occurrence wins, same as the table strategy.
	for _, m := range matches {
		v, ok := parseNumeric(m[1])
		if !ok {
			continue
		}
		if math.Abs(v) > significanceFloor {
			return v, true
		}
	}
	return 0, false
}

func (e *Extractor) tagPatterns(tag string) []*regexp.Regexp {
	key := "tag:" + tag
	e.mu.RLock()
	res, ok := e.patterns[key]
	e.mu.RUnlock()
	if ok {
		return res
	}

	quoted := regexp.QuoteMeta(tag)
	res = []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`(?i)<us-gaap:%s[^>]*>([^<]+)</us-gaap:%s>`, quoted, quoted)),
		regexp.MustCompile(fmt.Sprintf(`(?i)<%s[^>]*>([^<]+)</%s>`, quoted, quoted)),
		regexp.MustCompile(fmt.Sprintf(`(?i)<[^>\s]*:%s[^>]*>([^<]+)</[^>\s]*:%s>`, quoted, quoted)),
	}

	e.mu.Lock()
	e.patterns[key] = res
	e.mu.Unlock()
	return res
}

func (e *Extractor) labelPattern(label string) *regexp.Regexp {
	key := "label:" + label
	e.mu.RLock()
	res, ok := e.patterns[key]
	e.mu.RUnlock()
	if ok {
		return res[0]
	}

	// Label, optional separators, optional $, then a number that may carry
	// comma groups, a decimal part and accounting parentheses.
	re := regexp.MustCompile(fmt.Sprintf(
		`(?im)%s[\s:]*[\$]?\s*(\(?[\d,]+\.?\d*\)?)`,
		regexp.QuoteMeta(label)))

	e.mu.Lock()
	e.patterns[key] = []*regexp.Regexp{re}
	e.mu.Unlock()
	return re
}

// looksLikeHTML is a cheap gate before handing content to the table parser.
func looksLikeHTML(content string) bool {
	return strings.Contains(content, "<table") || strings.Contains(content, "<TABLE")
}
