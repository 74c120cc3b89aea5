package extract

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"quantfacts/pkg/core/metrics"
)

// extractFromTables walks HTML statement tables looking for a row whose first
// cell contains one of the metric's labels, then takes the first parseable
// number from the following cells. This is the last-resort strategy for
// filings whose statements survive only as presentation tables.
func (e *Extractor) extractFromTables(content string, alias metrics.Alias) (Extraction, bool) {
	if len(alias.Labels) == 0 || !looksLikeHTML(content) {
		return Extraction{}, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return Extraction{}, false
	}

	var result Extraction
	found := false

	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		if label == "" {
			return true
		}

		for _, candidate := range alias.Labels {
			if !strings.Contains(label, strings.ToLower(candidate)) {
				continue
			}
			// Check up to three value columns after the label cell.
			limit := cells.Length()
			if limit > 4 {
				limit = 4
			}
			for i := 1; i < limit; i++ {
				raw := strings.TrimSpace(cells.Eq(i).Text())
				v, ok := parseNumeric(raw)
				if !ok || math.Abs(v) <= significanceFloor {
					continue
				}
				result = Extraction{
					Value:        normalizeScale(v),
					MatchedAlias: candidate,
					Strategy:     StrategyHTMLTable,
				}
				found = true
				return false
			}
		}
		return true
	})

	return result, found
}
