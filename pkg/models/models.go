// Package models defines the shared data types of the normalization engine:
// raw facts as reported by filers, the reconciled per-period record, and the
// derived ratio set.
package models

import (
	"sort"
	"time"
)

// FiscalPeriod identifies a reporting period relative to the filer's fiscal year.
type FiscalPeriod string

const (
	Q1 FiscalPeriod = "Q1"
	Q2 FiscalPeriod = "Q2"
	Q3 FiscalPeriod = "Q3"
	Q4 FiscalPeriod = "Q4"
	FY FiscalPeriod = "FY"
)

// PrevQuarter returns the preceding quarter within the same fiscal year.
// Q1 and FY have no predecessor.
func (p FiscalPeriod) PrevQuarter() (FiscalPeriod, bool) {
	switch p {
	case Q2:
		return Q1, true
	case Q3:
		return Q2, true
	case Q4:
		return Q3, true
	}
	return "", false
}

// Quarters in fiscal order.
var Quarters = []FiscalPeriod{Q1, Q2, Q3, Q4}

// Statement identifies which financial statement a metric belongs to.
type Statement string

const (
	IncomeStatement Statement = "income_statement"
	BalanceSheet    Statement = "balance_sheet"
	CashFlow        Statement = "cash_flow"
)

// Canonical metric names. Filer-specific tags are mapped onto these by the
// alias table; the reconciler and ratio engine only ever see canonical names.
const (
	Revenue              = "revenue"
	CostOfRevenue        = "cost_of_revenue"
	GrossProfit          = "gross_profit"
	GrossProfitCalc      = "gross_profit_calculated"
	ResearchDevelopment  = "research_development"
	SellingGeneralAdmin  = "selling_general_admin"
	OperatingIncome      = "operating_income"
	OtherIncome          = "other_income"
	PretaxIncome         = "pretax_income"
	IncomeTaxes          = "income_taxes"
	NetIncome            = "net_income"
	EPS                  = "eps"
	Cash                 = "cash"
	Receivables          = "receivables"
	Inventory            = "inventory"
	CurrentAssets        = "current_assets"
	PPE                  = "ppe"
	TotalAssets          = "total_assets"
	AccountsPayable      = "accounts_payable"
	CurrentLiabilities   = "current_liabilities"
	LongTermDebt         = "long_term_debt"
	TotalDebt            = "total_debt"
	TotalLiabilities     = "total_liabilities"
	TotalEquity          = "total_equity"
	Depreciation         = "depreciation"
	OperatingCashFlow    = "operating_cash_flow"
	Capex                = "capex"
	InvestingCashFlow    = "investing_cash_flow"
	FinancingCashFlow    = "financing_cash_flow"
	FreeCashFlow         = "free_cash_flow"
	FreeCashFlowCalc     = "free_cash_flow_calculated"
)

// RawFact is a single reported value extracted from a filing or from the
// structured company-facts feed. Among facts sharing the same
// (entity, canonical name, fiscal year, fiscal period) key, the one with the
// latest filed date is authoritative.
type RawFact struct {
	EntityID       string       `json:"entity_id"`
	SourceMetricID string       `json:"source_metric_id"`
	CanonicalName  string       `json:"canonical_name"`
	FiscalYear     int          `json:"fiscal_year"`
	FiscalPeriod   FiscalPeriod `json:"fiscal_period"`
	PeriodEnd      time.Time    `json:"period_end"`
	FiledDate      time.Time    `json:"filed_date"`
	Value          float64      `json:"value"`
	Unit           string       `json:"unit"`
}

// NormalizedRecord is the reconciled set of canonical metric values for one
// entity and period. A metric that was not extracted is absent from Values,
// never zero; callers must use Get and check the second return.
// Records are immutable once finalized; a restating filing produces a new
// record that supersedes the old one, it never mutates it.
type NormalizedRecord struct {
	EntityID     string             `json:"entity_id"`
	FiscalYear   int                `json:"fiscal_year"`
	FiscalPeriod FiscalPeriod       `json:"fiscal_period"`
	Values       map[string]float64 `json:"values"`
}

// NewNormalizedRecord creates an empty record for the given period key.
func NewNormalizedRecord(entityID string, year int, period FiscalPeriod) NormalizedRecord {
	return NormalizedRecord{
		EntityID:     entityID,
		FiscalYear:   year,
		FiscalPeriod: period,
		Values:       make(map[string]float64),
	}
}

// Get returns the value for a canonical metric and whether it is present.
func (r NormalizedRecord) Get(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Has reports whether a canonical metric is present.
func (r NormalizedRecord) Has(name string) bool {
	_, ok := r.Values[name]
	return ok
}

// Set stores a value for a canonical metric.
func (r NormalizedRecord) Set(name string, value float64) {
	r.Values[name] = value
}

// Clone returns a deep copy whose Values map shares nothing with the original.
func (r NormalizedRecord) Clone() NormalizedRecord {
	out := NewNormalizedRecord(r.EntityID, r.FiscalYear, r.FiscalPeriod)
	for name, v := range r.Values {
		out.Values[name] = v
	}
	return out
}

// Metrics returns the present canonical metric names in sorted order.
func (r NormalizedRecord) Metrics() []string {
	names := make([]string, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two records carry identical keys and values.
func (r NormalizedRecord) Equal(other NormalizedRecord) bool {
	if r.EntityID != other.EntityID ||
		r.FiscalYear != other.FiscalYear ||
		r.FiscalPeriod != other.FiscalPeriod ||
		len(r.Values) != len(other.Values) {
		return false
	}
	for name, v := range r.Values {
		ov, ok := other.Values[name]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// RatioSet holds the derived financial ratios for one entity and period.
// It is a regenerable view over a NormalizedRecord, never a source of truth.
type RatioSet struct {
	EntityID     string             `json:"entity_id"`
	FiscalYear   int                `json:"fiscal_year"`
	FiscalPeriod FiscalPeriod       `json:"fiscal_period"`
	Ratios       map[string]float64 `json:"ratios"`
}
