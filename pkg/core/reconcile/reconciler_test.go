package reconcile

import (
	"testing"
	"time"

	"quantfacts/pkg/core/metrics"
	"quantfacts/pkg/models"
)

func fact(entity, name string, fy int, fp models.FiscalPeriod, value float64, filed string) models.RawFact {
	filedDate, _ := time.Parse("2006-01-02", filed)
	return models.RawFact{
		EntityID:      entity,
		CanonicalName: name,
		FiscalYear:    fy,
		FiscalPeriod:  fp,
		FiledDate:     filedDate,
		Value:         value,
	}
}

func findRecord(t *testing.T, records []models.NormalizedRecord, fy int, fp models.FiscalPeriod) models.NormalizedRecord {
	t.Helper()
	for _, rec := range records {
		if rec.FiscalYear == fy && rec.FiscalPeriod == fp {
			return rec
		}
	}
	t.Fatalf("Expected a record for %d %s, got none", fy, fp)
	return models.NormalizedRecord{}
}

func acmeFacts() []models.RawFact {
	return []models.RawFact{
		fact("ACME", models.Revenue, 2023, models.Q1, 100, "2023-04-15"),
		fact("ACME", models.Revenue, 2023, models.Q2, 220, "2023-07-15"),
		fact("ACME", models.CostOfRevenue, 2023, models.Q1, 60, "2023-04-15"),
		fact("ACME", models.CostOfRevenue, 2023, models.Q2, 130, "2023-07-15"),
		fact("ACME", models.TotalAssets, 2023, models.Q2, 1000, "2023-07-15"),
		fact("ACME", models.TotalLiabilities, 2023, models.Q2, 400, "2023-07-15"),
	}
}

func TestReconcileEndToEnd(t *testing.T) {
	r := New(metrics.Default())

	records := r.Reconcile("ACME", acmeFacts())
	q2 := findRecord(t, records, 2023, models.Q2)

	if v, ok := q2.Get(models.Revenue); !ok || v != 120 {
		t.Errorf("Expected Q2 revenue 120 (220-100), got %v (ok=%v)", v, ok)
	}
	if v, ok := q2.Get(models.CostOfRevenue); !ok || v != 70 {
		t.Errorf("Expected Q2 cost of revenue 70 (130-60), got %v (ok=%v)", v, ok)
	}
	if v, ok := q2.Get(models.GrossProfitCalc); !ok || v != 50 {
		t.Errorf("Expected derived gross profit 50, got %v (ok=%v)", v, ok)
	}
	if v, ok := q2.Get(models.TotalEquity); !ok || v != 600 {
		t.Errorf("Expected derived total equity 600, got %v (ok=%v)", v, ok)
	}
	if q2.Has(models.NetIncome) {
		t.Error("Expected net income absent, not defaulted")
	}
}

func TestReconcileIdempotentAndOrderInsensitive(t *testing.T) {
	r := New(metrics.Default())
	facts := acmeFacts()

	first := r.Reconcile("ACME", facts)
	second := r.Reconcile("ACME", facts)
	if len(first) != len(second) {
		t.Fatalf("Expected identical record counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("Expected identical records on re-run, record %d differs", i)
		}
	}

	// Reverse the input; the output must not change.
	reversed := make([]models.RawFact, len(facts))
	for i, f := range facts {
		reversed[len(facts)-1-i] = f
	}
	third := r.Reconcile("ACME", reversed)
	if len(first) != len(third) {
		t.Fatalf("Expected identical record counts after reorder, got %d and %d", len(first), len(third))
	}
	for i := range first {
		if !first[i].Equal(third[i]) {
			t.Errorf("Expected identical records after reorder, record %d differs", i)
		}
	}
}

func TestReconcileEmptyInput(t *testing.T) {
	r := New(metrics.Default())

	if records := r.Reconcile("ACME", nil); len(records) != 0 {
		t.Errorf("Expected empty result for nil input, got %d records", len(records))
	}
	// Facts for other entities are not ours to reconcile.
	foreign := []models.RawFact{
		fact("OTHER", models.Revenue, 2023, models.Q1, 100, "2023-04-15"),
	}
	if records := r.Reconcile("ACME", foreign); len(records) != 0 {
		t.Errorf("Expected empty result for foreign facts, got %d records", len(records))
	}
}

func TestReconcileReportedFigureNotOverwritten(t *testing.T) {
	r := New(metrics.Default())

	facts := []models.RawFact{
		fact("ACME", models.Revenue, 2023, models.Q1, 100, "2023-04-15"),
		fact("ACME", models.CostOfRevenue, 2023, models.Q1, 60, "2023-04-15"),
		fact("ACME", models.GrossProfit, 2023, models.Q1, 45, "2023-04-15"),
	}
	records := r.Reconcile("ACME", facts)
	q1 := findRecord(t, records, 2023, models.Q1)

	if v, _ := q1.Get(models.GrossProfit); v != 45 {
		t.Errorf("Expected reported gross profit 45 kept, got %v", v)
	}
	if q1.Has(models.GrossProfitCalc) {
		t.Error("Expected no derived gross profit when the filer reports one")
	}
}

func TestReconcileFreeCashFlowDerived(t *testing.T) {
	r := New(metrics.Default())

	facts := []models.RawFact{
		fact("ACME", models.OperatingCashFlow, 2023, models.Q1, 300, "2023-04-15"),
		fact("ACME", models.Capex, 2023, models.Q1, -80, "2023-04-15"),
	}
	records := r.Reconcile("ACME", facts)
	q1 := findRecord(t, records, 2023, models.Q1)

	if v, ok := q1.Get(models.FreeCashFlowCalc); !ok || v != 220 {
		t.Errorf("Expected derived free cash flow 220, got %v (ok=%v)", v, ok)
	}
}
