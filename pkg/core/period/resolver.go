// Package period classifies reported facts into fiscal periods and decomposes
// cumulative year-to-date figures into true non-overlapping quarterly values.
//
// Income statement and cash flow facts in XBRL filings are typically reported
// as fiscal year-to-date totals. The true value for quarter Q (Q2..Q4) is
// YTD(Q) - YTD(Q-1) within the same fiscal year; Q1's YTD value is its own
// quarterly value. The FY figure is kept as the annual total in its own right
// and is never force-reconciled against the sum of derived quarters;
// restatements can make those disagree, and the discrepancy is tolerated.
package period

import (
	"sort"
	"strings"
	"time"

	"quantfacts/pkg/models"
)

// QuarterValue is one resolved period value for a single entity and metric.
type QuarterValue struct {
	FiscalYear   int
	FiscalPeriod models.FiscalPeriod
	Value        float64
	PeriodEnd    time.Time
	FiledDate    time.Time
}

// Classify derives the fiscal period and year from a filing date and form
// type. Annual filings report the full fiscal year and are assigned Q4 of the
// filing's calendar year; quarterly filings are bucketed by filing month.
// Simplification carried from the source system: fiscal year == calendar year
// of the filing date.
func Classify(filingDate time.Time, formType string) (models.FiscalPeriod, int) {
	year := filingDate.Year()
	if isAnnualForm(formType) {
		return models.Q4, year
	}
	switch m := filingDate.Month(); {
	case m <= 3:
		return models.Q1, year
	case m <= 6:
		return models.Q2, year
	case m <= 9:
		return models.Q3, year
	default:
		return models.Q4, year
	}
}

func isAnnualForm(formType string) bool {
	form := strings.ToUpper(strings.TrimSpace(formType))
	return form == "10-K" || form == "10-K/A" || form == "20-F" || form == "20-F/A"
}

// Latest picks the authoritative fact between two candidates for the same
// period key: the one with the later filed date wins, the second argument on
// a tie (last encountered).
func Latest(a, b models.RawFact) models.RawFact {
	if a.FiledDate.After(b.FiledDate) {
		return a
	}
	return b
}

// ReconcileQuarterly turns the raw YTD facts for one entity+metric into true
// quarterly values plus the annual total. Duplicate facts at the same
// (fiscal_year, fiscal_period) are collapsed to the latest-filed one first.
// A quarter whose predecessor YTD value is missing cannot be derived and is
// omitted from the result: absent, not zero.
func ReconcileQuarterly(facts []models.RawFact) []QuarterValue {
	if len(facts) == 0 {
		return nil
	}

	byYear := dedupeByPeriod(facts)

	years := make([]int, 0, len(byYear))
	for fy := range byYear {
		years = append(years, fy)
	}
	sort.Ints(years)

	var out []QuarterValue
	for _, fy := range years {
		periods := byYear[fy]

		ytd := make(map[models.FiscalPeriod]models.RawFact, len(periods))
		for fp, f := range periods {
			ytd[fp] = f
		}
		// An annual filing's own figure is the Q4 YTD when Q4 was never
		// reported separately.
		if _, haveQ4 := ytd[models.Q4]; !haveQ4 {
			if annual, ok := ytd[models.FY]; ok {
				q4 := annual
				q4.FiscalPeriod = models.Q4
				ytd[models.Q4] = q4
			}
		}

		for _, q := range models.Quarters {
			f, ok := ytd[q]
			if !ok {
				continue
			}
			value := f.Value
			if prev, hasPrev := q.PrevQuarter(); hasPrev {
				prevFact, ok := ytd[prev]
				if !ok {
					// Period-arithmetic gap: predecessor YTD missing.
					continue
				}
				value -= prevFact.Value
			}
			out = append(out, QuarterValue{
				FiscalYear:   fy,
				FiscalPeriod: q,
				Value:        value,
				PeriodEnd:    f.PeriodEnd,
				FiledDate:    f.FiledDate,
			})
		}

		if annual, ok := periods[models.FY]; ok {
			out = append(out, QuarterValue{
				FiscalYear:   fy,
				FiscalPeriod: models.FY,
				Value:        annual.Value,
				PeriodEnd:    annual.PeriodEnd,
				FiledDate:    annual.FiledDate,
			})
		}
	}
	return out
}

// ResolvePointInTime collapses balance sheet facts to one authoritative value
// per period via the latest-filed tie-break. No YTD arithmetic applies to
// point-in-time balances.
func ResolvePointInTime(facts []models.RawFact) []QuarterValue {
	if len(facts) == 0 {
		return nil
	}

	byYear := dedupeByPeriod(facts)

	years := make([]int, 0, len(byYear))
	for fy := range byYear {
		years = append(years, fy)
	}
	sort.Ints(years)

	var out []QuarterValue
	for _, fy := range years {
		periods := byYear[fy]
		for _, fp := range []models.FiscalPeriod{models.Q1, models.Q2, models.Q3, models.Q4, models.FY} {
			f, ok := periods[fp]
			if !ok {
				continue
			}
			out = append(out, QuarterValue{
				FiscalYear:   fy,
				FiscalPeriod: fp,
				Value:        f.Value,
				PeriodEnd:    f.PeriodEnd,
				FiledDate:    f.FiledDate,
			})
		}
	}
	return out
}

// dedupeByPeriod groups facts by fiscal year and period, keeping only the
// latest-filed fact per key. Input order only matters for exact filed-date
// ties, which are resolved deterministically after a stable sort.
func dedupeByPeriod(facts []models.RawFact) map[int]map[models.FiscalPeriod]models.RawFact {
	sorted := make([]models.RawFact, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FiscalYear != sorted[j].FiscalYear {
			return sorted[i].FiscalYear < sorted[j].FiscalYear
		}
		if sorted[i].FiscalPeriod != sorted[j].FiscalPeriod {
			return sorted[i].FiscalPeriod < sorted[j].FiscalPeriod
		}
		if !sorted[i].FiledDate.Equal(sorted[j].FiledDate) {
			return sorted[i].FiledDate.Before(sorted[j].FiledDate)
		}
		// Full ordering on exact filed-date ties keeps the result independent
		// of input order.
		if sorted[i].SourceMetricID != sorted[j].SourceMetricID {
			return sorted[i].SourceMetricID < sorted[j].SourceMetricID
		}
		return sorted[i].Value < sorted[j].Value
	})

	byYear := make(map[int]map[models.FiscalPeriod]models.RawFact)
	for _, f := range sorted {
		periods, ok := byYear[f.FiscalYear]
		if !ok {
			periods = make(map[models.FiscalPeriod]models.RawFact)
			byYear[f.FiscalYear] = periods
		}
		if existing, ok := periods[f.FiscalPeriod]; ok {
			periods[f.FiscalPeriod] = Latest(existing, f)
		} else {
			periods[f.FiscalPeriod] = f
		}
	}
	return byYear
}
