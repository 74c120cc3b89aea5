// Package metrics defines the tag alias table: the static mapping from a
// canonical metric name to the ordered list of source identifiers it may be
// reported under. Order encodes preference: more specific us-gaap concepts
// first, generic fallbacks last. The table is built once at process start and
// is read-only afterwards, so it is safe for concurrent use.
package metrics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"quantfacts/pkg/models"
)

// Alias maps one canonical metric to its acceptable source representations.
type Alias struct {
	Canonical string           `yaml:"canonical"`
	Statement models.Statement `yaml:"statement"`
	// Tags are XBRL concept names, tried in order during structured extraction.
	Tags []string `yaml:"tags"`
	// Labels are free-text line-item labels for the text/HTML fallback.
	Labels []string `yaml:"labels"`
}

// Table is the immutable alias table injected into the value extractor.
type Table struct {
	aliases map[string]Alias
	order   []string
}

// Default returns the built-in alias table covering the standard us-gaap
// taxonomy tags for income statement, balance sheet and cash flow metrics.
func Default() *Table {
	return build(defaultAliases)
}

// Load builds the table from the defaults merged with a YAML override file.
// An entry in the file whose canonical name matches a built-in metric replaces
// it entirely; new canonical names are appended. Adding a metric to the system
// requires nothing beyond an entry here.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table %s: %w", path, err)
	}
	var overrides []Alias
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse alias table %s: %w", path, err)
	}
	merged := make([]Alias, len(defaultAliases))
	copy(merged, defaultAliases)
	for _, o := range overrides {
		if o.Canonical == "" {
			return nil, fmt.Errorf("alias table %s: entry missing canonical name", path)
		}
		replaced := false
		for i := range merged {
			if merged[i].Canonical == o.Canonical {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return build(merged), nil
}

func build(aliases []Alias) *Table {
	t := &Table{aliases: make(map[string]Alias, len(aliases))}
	for _, a := range aliases {
		if _, dup := t.aliases[a.Canonical]; dup {
			continue
		}
		t.aliases[a.Canonical] = a
		t.order = append(t.order, a.Canonical)
	}
	return t
}

// AliasesFor returns the ordered source identifiers for a canonical metric:
// XBRL tags first, then text labels. Unknown names return an empty slice,
// signaling that no extraction is possible. There is no error path.
func (t *Table) AliasesFor(canonical string) []string {
	a, ok := t.aliases[canonical]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(a.Tags)+len(a.Labels))
	ids = append(ids, a.Tags...)
	ids = append(ids, a.Labels...)
	return ids
}

// Lookup returns the full alias entry for a canonical metric.
func (t *Table) Lookup(canonical string) (Alias, bool) {
	a, ok := t.aliases[canonical]
	return a, ok
}

// Canonicals returns every canonical metric name in declaration order.
func (t *Table) Canonicals() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// StatementOf returns the statement a canonical metric belongs to.
func (t *Table) StatementOf(canonical string) (models.Statement, bool) {
	a, ok := t.aliases[canonical]
	return a.Statement, ok
}

// IsCumulative reports whether the metric is reported as a fiscal
// year-to-date total (income statement and cash flow items) rather than a
// point-in-time balance. Cumulative metrics require quarterly decomposition.
func (t *Table) IsCumulative(canonical string) bool {
	a, ok := t.aliases[canonical]
	if !ok {
		return false
	}
	return a.Statement == models.IncomeStatement || a.Statement == models.CashFlow
}

// ResolveTag maps an XBRL concept name back to its canonical metric. When a
// concept appears under several canonicals the first declared one wins.
func (t *Table) ResolveTag(tag string) (string, bool) {
	for _, name := range t.order {
		for _, candidate := range t.aliases[name].Tags {
			if candidate == tag {
				return name, true
			}
		}
	}
	return "", false
}

var defaultAliases = []Alias{
	// Income statement
	{
		Canonical: models.Revenue, Statement: models.IncomeStatement,
		Tags: []string{
			"RevenueFromContractWithCustomerExcludingAssessedTax",
			"Revenues",
			"SalesRevenueNet",
			"RevenueFromContractWithCustomer",
			"SalesRevenueGoodsNet",
			"SalesRevenueServicesNet",
		},
		Labels: []string{"Total revenue", "Revenue", "Net sales", "Total net sales"},
	},
	{
		Canonical: models.CostOfRevenue, Statement: models.IncomeStatement,
		Tags: []string{
			"CostOfGoodsAndServicesSold",
			"CostOfRevenue",
			"CostOfGoodsSold",
			"CostOfSales",
		},
		Labels: []string{"Cost of revenue", "Cost of sales", "Cost of goods sold"},
	},
	{
		Canonical: models.GrossProfit, Statement: models.IncomeStatement,
		Tags:   []string{"GrossProfit"},
		Labels: []string{"Gross profit", "Gross margin"},
	},
	{
		Canonical: models.ResearchDevelopment, Statement: models.IncomeStatement,
		Tags:   []string{"ResearchAndDevelopmentExpense", "ResearchAndDevelopment"},
		Labels: []string{"Research and development"},
	},
	{
		Canonical: models.SellingGeneralAdmin, Statement: models.IncomeStatement,
		Tags:   []string{"SellingGeneralAndAdministrativeExpense"},
		Labels: []string{"Selling, general and administrative"},
	},
	{
		Canonical: models.OperatingIncome, Statement: models.IncomeStatement,
		Tags:   []string{"OperatingIncomeLoss"},
		Labels: []string{"Operating income", "Income from operations"},
	},
	{
		Canonical: models.OtherIncome, Statement: models.IncomeStatement,
		Tags:   []string{"NonoperatingIncomeExpense", "OtherIncomeExpense"},
		Labels: []string{"Other income"},
	},
	{
		Canonical: models.PretaxIncome, Statement: models.IncomeStatement,
		Tags: []string{
			"IncomeLossFromContinuingOperationsBeforeIncomeTaxes",
			"IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest",
		},
		Labels: []string{"Income before taxes", "Income before provision for income taxes"},
	},
	{
		Canonical: models.IncomeTaxes, Statement: models.IncomeStatement,
		Tags:   []string{"IncomeTaxExpenseBenefit"},
		Labels: []string{"Income tax expense", "Provision for income taxes"},
	},
	{
		Canonical: models.NetIncome, Statement: models.IncomeStatement,
		Tags:   []string{"NetIncomeLoss", "ProfitLoss"},
		Labels: []string{"Net income", "Net earnings", "Net loss"},
	},
	{
		Canonical: models.EPS, Statement: models.IncomeStatement,
		Tags:   []string{"EarningsPerShareBasic", "EarningsPerShareBasicAndDiluted"},
		Labels: []string{"Earnings per share"},
	},

	// Balance sheet
	{
		Canonical: models.Cash, Statement: models.BalanceSheet,
		Tags: []string{
			"CashAndCashEquivalentsAtCarryingValue",
			"Cash",
			"CashAndCashEquivalents",
		},
		Labels: []string{"Cash and cash equivalents", "Cash and equivalents"},
	},
	{
		Canonical: models.Receivables, Statement: models.BalanceSheet,
		Tags: []string{
			"AccountsReceivableNetCurrent",
			"AccountsReceivableNet",
			"AccountsReceivable",
		},
		Labels: []string{"Accounts receivable", "Receivables"},
	},
	{
		Canonical: models.Inventory, Statement: models.BalanceSheet,
		Tags:   []string{"InventoryNet", "Inventory"},
		Labels: []string{"Inventories", "Inventory"},
	},
	{
		Canonical: models.CurrentAssets, Statement: models.BalanceSheet,
		Tags:   []string{"AssetsCurrent"},
		Labels: []string{"Total current assets"},
	},
	{
		Canonical: models.PPE, Statement: models.BalanceSheet,
		Tags:   []string{"PropertyPlantAndEquipmentNet", "PropertyPlantAndEquipment"},
		Labels: []string{"Property, plant and equipment"},
	},
	{
		Canonical: models.TotalAssets, Statement: models.BalanceSheet,
		Tags:   []string{"Assets"},
		Labels: []string{"Total assets"},
	},
	{
		Canonical: models.AccountsPayable, Statement: models.BalanceSheet,
		Tags:   []string{"AccountsPayableCurrent", "AccountsPayable"},
		Labels: []string{"Accounts payable"},
	},
	{
		Canonical: models.CurrentLiabilities, Statement: models.BalanceSheet,
		Tags:   []string{"LiabilitiesCurrent"},
		Labels: []string{"Total current liabilities"},
	},
	{
		Canonical: models.LongTermDebt, Statement: models.BalanceSheet,
		Tags:   []string{"LongTermDebtNoncurrent", "LongTermDebt"},
		Labels: []string{"Long-term debt"},
	},
	{
		Canonical: models.TotalDebt, Statement: models.BalanceSheet,
		Tags:   []string{"DebtLongtermAndShorttermCombinedAmount"},
		Labels: []string{"Total debt"},
	},
	{
		Canonical: models.TotalLiabilities, Statement: models.BalanceSheet,
		Tags:   []string{"Liabilities"},
		Labels: []string{"Total liabilities"},
	},
	{
		Canonical: models.TotalEquity, Statement: models.BalanceSheet,
		Tags:   []string{"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"},
		Labels: []string{"Total stockholders equity", "Total equity"},
	},

	// Cash flow
	{
		Canonical: models.Depreciation, Statement: models.CashFlow,
		Tags:   []string{"DepreciationDepletionAndAmortization", "Depreciation"},
		Labels: []string{"Depreciation and amortization"},
	},
	{
		Canonical: models.OperatingCashFlow, Statement: models.CashFlow,
		Tags:   []string{"NetCashProvidedByUsedInOperatingActivities"},
		Labels: []string{"Net cash provided by operating activities", "Cash from operating activities", "Operating cash flow"},
	},
	{
		Canonical: models.Capex, Statement: models.CashFlow,
		Tags:   []string{"PaymentsToAcquirePropertyPlantAndEquipment"},
		Labels: []string{"Capital expenditures", "Purchase of property and equipment"},
	},
	{
		Canonical: models.InvestingCashFlow, Statement: models.CashFlow,
		Tags:   []string{"NetCashProvidedByUsedInInvestingActivities"},
		Labels: []string{"Net cash used in investing activities", "Cash from investing activities"},
	},
	{
		Canonical: models.FinancingCashFlow, Statement: models.CashFlow,
		Tags:   []string{"NetCashProvidedByUsedInFinancingActivities"},
		Labels: []string{"Net cash used in financing activities", "Cash from financing activities"},
	},
	{
		Canonical: models.FreeCashFlow, Statement: models.CashFlow,
		Tags:   []string{},
		Labels: []string{"Free cash flow"},
	},
}
