// Package reconcile merges the raw facts of one entity into normalized
// per-period financial records. Facts are grouped by canonical metric,
// cumulative metrics are decomposed into true quarterly values, duplicate
// filings are resolved to the latest-filed value, and the surviving values
// are assembled into one NormalizedRecord per (fiscal_year, fiscal_period).
package reconcile

import (
	"sort"

	"quantfacts/pkg/core/metrics"
	"quantfacts/pkg/core/period"
	"quantfacts/pkg/models"
)

// Reconciler assembles normalized records using the statement classification
// of an injected alias table.
type Reconciler struct {
	table *metrics.Table
}

// New creates a reconciler over the given alias table.
func New(table *metrics.Table) *Reconciler {
	return &Reconciler{table: table}
}

type periodKey struct {
	year   int
	period models.FiscalPeriod
}

// Reconcile produces one NormalizedRecord per distinct (fiscal_year,
// fiscal_period) observed in the input, sorted by year then period.
// Facts for other entities are ignored. An empty or fully foreign input
// yields an empty result. That is the caller's signal that the entity had
// nothing usable, not an error.
//
// Re-running on the same fact set, in any order, produces identical records.
func (r *Reconciler) Reconcile(entityID string, facts []models.RawFact) []models.NormalizedRecord {
	byMetric := make(map[string][]models.RawFact)
	for _, f := range facts {
		if f.EntityID != entityID || f.CanonicalName == "" {
			continue
		}
		byMetric[f.CanonicalName] = append(byMetric[f.CanonicalName], f)
	}
	if len(byMetric) == 0 {
		return nil
	}

	names := make([]string, 0, len(byMetric))
	for name := range byMetric {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make(map[periodKey]models.NormalizedRecord)
	for _, name := range names {
		var resolved []period.QuarterValue
		if r.table.IsCumulative(name) {
			resolved = period.ReconcileQuarterly(byMetric[name])
		} else {
			resolved = period.ResolvePointInTime(byMetric[name])
		}
		for _, qv := range resolved {
			key := periodKey{year: qv.FiscalYear, period: qv.FiscalPeriod}
			rec, ok := records[key]
			if !ok {
				rec = models.NewNormalizedRecord(entityID, qv.FiscalYear, qv.FiscalPeriod)
				records[key] = rec
			}
			rec.Set(name, qv.Value)
		}
	}

	keys := make([]periodKey, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return periodRank(keys[i].period) < periodRank(keys[j].period)
	})

	out := make([]models.NormalizedRecord, 0, len(keys))
	for _, key := range keys {
		rec := records[key]
		deriveFields(rec)
		out = append(out, rec)
	}
	return out
}

// deriveFields fills in values computable from directly reported ones.
// A derived field is only written when both operands are present and the
// directly reported counterpart is absent; a filer's own figure is never
// overwritten.
func deriveFields(rec models.NormalizedRecord) {
	revenue, haveRev := rec.Get(models.Revenue)
	cogs, haveCogs := rec.Get(models.CostOfRevenue)
	if haveRev && haveCogs && !rec.Has(models.GrossProfit) {
		rec.Set(models.GrossProfitCalc, revenue-cogs)
	}

	assets, haveAssets := rec.Get(models.TotalAssets)
	liabilities, haveLiab := rec.Get(models.TotalLiabilities)
	if haveAssets && haveLiab && !rec.Has(models.TotalEquity) {
		rec.Set(models.TotalEquity, assets-liabilities)
	}

	// Capex is carried as a negative outflow, so free cash flow is the sum.
	ocf, haveOCF := rec.Get(models.OperatingCashFlow)
	capex, haveCapex := rec.Get(models.Capex)
	if haveOCF && haveCapex && !rec.Has(models.FreeCashFlow) {
		rec.Set(models.FreeCashFlowCalc, ocf+capex)
	}
}

func periodRank(p models.FiscalPeriod) int {
	switch p {
	case models.Q1:
		return 1
	case models.Q2:
		return 2
	case models.Q3:
		return 3
	case models.Q4:
		return 4
	case models.FY:
		return 5
	}
	return 6
}
