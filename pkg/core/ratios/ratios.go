// Package ratios derives the standard financial ratio set from a normalized
// record. Compute is a pure function: it never mutates its inputs and the
// resulting RatioSet is a regenerable view, recomputed whenever the source
// record changes.
package ratios

import (
	"quantfacts/pkg/models"
)

// Compute derives the fixed ratio set for one record. prior is the preceding
// comparable period for growth ratios and may be nil.
//
// Every division goes through safeDiv: a zero or absent denominator yields 0
// rather than an error or NaN. This conflates "zero ratio" with "undefined
// ratio" and is kept deliberately for downstream compatibility.
func Compute(record models.NormalizedRecord, prior *models.NormalizedRecord) models.RatioSet {
	set := models.RatioSet{
		EntityID:     record.EntityID,
		FiscalYear:   record.FiscalYear,
		FiscalPeriod: record.FiscalPeriod,
		Ratios:       make(map[string]float64),
	}

	revenue := value(record, models.Revenue)
	netIncome := value(record, models.NetIncome)
	totalAssets := value(record, models.TotalAssets)
	totalEquity := value(record, models.TotalEquity)
	currentAssets := value(record, models.CurrentAssets)
	currentLiabilities := value(record, models.CurrentLiabilities)
	cash := value(record, models.Cash)
	inventory := value(record, models.Inventory)
	receivables := value(record, models.Receivables)
	ocf := value(record, models.OperatingCashFlow)
	totalDebt := debtFigure(record)
	freeCashFlow := freeCashFlowFigure(record)
	grossProfit := grossProfitFigure(record)
	operatingIncome := value(record, models.OperatingIncome)

	r := set.Ratios

	// Liquidity
	r["current_ratio"] = safeDiv(currentAssets, currentLiabilities)
	r["quick_ratio"] = safeDiv(currentAssets-inventory, currentLiabilities)
	r["cash_ratio"] = safeDiv(cash, currentLiabilities)

	// Solvency
	r["debt_to_equity"] = safeDiv(totalDebt, totalEquity)
	r["debt_to_assets"] = safeDiv(totalDebt, totalAssets)
	r["equity_multiplier"] = safeDiv(totalAssets, totalEquity)

	// Profitability
	r["roe"] = safeDiv(netIncome, totalEquity)
	r["roa"] = safeDiv(netIncome, totalAssets)
	r["return_on_tangible_equity"] = safeDiv(netIncome, totalEquity)
	r["gross_margin"] = safeDiv(grossProfit, revenue) * 100
	r["operating_margin"] = safeDiv(operatingIncome, revenue) * 100
	r["net_margin"] = safeDiv(netIncome, revenue) * 100

	// Efficiency
	r["asset_turnover"] = safeDiv(revenue, totalAssets)
	r["inventory_turnover"] = safeDiv(revenue, inventory)
	r["receivables_turnover"] = safeDiv(revenue, receivables)

	// Cash
	r["operating_cash_flow_ratio"] = safeDiv(ocf, currentLiabilities)
	r["free_cash_flow_margin"] = safeDiv(freeCashFlow, revenue) * 100

	// Growth
	r["revenue_growth"] = revenueGrowth(revenue, prior)

	// Other
	r["working_capital"] = currentAssets - currentLiabilities
	r["net_debt"] = totalDebt - cash

	return set
}

// safeDiv returns n/d, or 0 when the denominator is zero. Division-by-zero is
// defined behavior here, not an error.
func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

// value defaults an absent metric to 0. Absence semantics stop at the ratio
// layer; the record itself never holds implicit zeros.
func value(record models.NormalizedRecord, name string) float64 {
	v, _ := record.Get(name)
	return v
}

// debtFigure prefers the explicitly reported total debt and falls back to
// total liabilities, which many filers report without a combined debt line.
func debtFigure(record models.NormalizedRecord) float64 {
	if v, ok := record.Get(models.TotalDebt); ok {
		return v
	}
	return value(record, models.TotalLiabilities)
}

// freeCashFlowFigure prefers the reported figure over the derived one.
func freeCashFlowFigure(record models.NormalizedRecord) float64 {
	if v, ok := record.Get(models.FreeCashFlow); ok {
		return v
	}
	return value(record, models.FreeCashFlowCalc)
}

// grossProfitFigure prefers the reported figure over the derived one.
func grossProfitFigure(record models.NormalizedRecord) float64 {
	if v, ok := record.Get(models.GrossProfit); ok {
		return v
	}
	return value(record, models.GrossProfitCalc)
}

func revenueGrowth(revenue float64, prior *models.NormalizedRecord) float64 {
	if prior == nil {
		return 0
	}
	prev, ok := prior.Get(models.Revenue)
	if !ok || prev == 0 {
		return 0
	}
	return (revenue - prev) / prev * 100
}
