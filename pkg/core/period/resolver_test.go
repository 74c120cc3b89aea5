package period

import (
	"testing"
	"time"

	"quantfacts/pkg/models"
)

func fact(fy int, fp models.FiscalPeriod, value float64, filed string) models.RawFact {
	filedDate, _ := time.Parse("2006-01-02", filed)
	return models.RawFact{
		EntityID:      "ACME",
		CanonicalName: models.Revenue,
		FiscalYear:    fy,
		FiscalPeriod:  fp,
		FiledDate:     filedDate,
		Value:         value,
	}
}

func findPeriod(t *testing.T, values []QuarterValue, fy int, fp models.FiscalPeriod) QuarterValue {
	t.Helper()
	for _, qv := range values {
		if qv.FiscalYear == fy && qv.FiscalPeriod == fp {
			return qv
		}
	}
	t.Fatalf("Expected a value for %d %s, got none", fy, fp)
	return QuarterValue{}
}

func TestReconcileQuarterlyDecomposition(t *testing.T) {
	// YTD series 100/250/400 with the annual 500 standing in for Q4.
	facts := []models.RawFact{
		fact(2023, models.Q1, 100, "2023-04-15"),
		fact(2023, models.Q2, 250, "2023-07-15"),
		fact(2023, models.Q3, 400, "2023-10-15"),
		fact(2023, models.FY, 500, "2024-02-15"),
	}

	values := ReconcileQuarterly(facts)

	want := map[models.FiscalPeriod]float64{
		models.Q1: 100,
		models.Q2: 150,
		models.Q3: 150,
		models.Q4: 100,
		models.FY: 500,
	}
	if len(values) != len(want) {
		t.Fatalf("Expected %d period values, got %d", len(want), len(values))
	}
	for fp, expected := range want {
		got := findPeriod(t, values, 2023, fp)
		if got.Value != expected {
			t.Errorf("Expected %s = %v, got %v", fp, expected, got.Value)
		}
	}
}

func TestReconcileQuarterlyReportedQ4Preferred(t *testing.T) {
	// When Q4 YTD is reported directly the annual value is not substituted.
	facts := []models.RawFact{
		fact(2023, models.Q3, 400, "2023-10-15"),
		fact(2023, models.Q4, 520, "2024-01-20"),
		fact(2023, models.FY, 500, "2024-02-15"),
	}

	values := ReconcileQuarterly(facts)

	q4 := findPeriod(t, values, 2023, models.Q4)
	if q4.Value != 120 {
		t.Errorf("Expected Q4 = 120 from reported YTD, got %v", q4.Value)
	}
	fy := findPeriod(t, values, 2023, models.FY)
	if fy.Value != 500 {
		t.Errorf("Expected FY kept at 500, got %v", fy.Value)
	}
}

func TestReconcileQuarterlyMissingPredecessor(t *testing.T) {
	// Q2 YTD without Q1 YTD cannot be decomposed and must be absent, not zero.
	facts := []models.RawFact{
		fact(2023, models.Q2, 250, "2023-07-15"),
		fact(2023, models.Q3, 400, "2023-10-15"),
	}

	values := ReconcileQuarterly(facts)

	for _, qv := range values {
		if qv.FiscalPeriod == models.Q2 {
			t.Errorf("Expected Q2 omitted without a Q1 predecessor, got %v", qv.Value)
		}
	}
	q3 := findPeriod(t, values, 2023, models.Q3)
	if q3.Value != 150 {
		t.Errorf("Expected Q3 = 150, got %v", q3.Value)
	}
}

func TestLatestFiledWins(t *testing.T) {
	// Two facts for the same period key: the later-filed amendment wins.
	facts := []models.RawFact{
		fact(2023, models.Q1, 10, "2023-04-15"),
		fact(2023, models.Q1, 12, "2023-06-01"),
	}

	values := ReconcileQuarterly(facts)

	q1 := findPeriod(t, values, 2023, models.Q1)
	if q1.Value != 12 {
		t.Errorf("Expected latest-filed value 12, got %v", q1.Value)
	}

	// Input order must not change the winner.
	reversed := []models.RawFact{facts[1], facts[0]}
	values = ReconcileQuarterly(reversed)
	q1 = findPeriod(t, values, 2023, models.Q1)
	if q1.Value != 12 {
		t.Errorf("Expected latest-filed value 12 after reorder, got %v", q1.Value)
	}
}

func TestResolvePointInTime(t *testing.T) {
	facts := []models.RawFact{
		fact(2023, models.Q1, 1000, "2023-04-15"),
		fact(2023, models.Q1, 1100, "2023-06-01"),
		fact(2023, models.Q2, 1200, "2023-07-15"),
	}

	values := ResolvePointInTime(facts)

	if len(values) != 2 {
		t.Fatalf("Expected 2 resolved balances, got %d", len(values))
	}
	q1 := findPeriod(t, values, 2023, models.Q1)
	if q1.Value != 1100 {
		t.Errorf("Expected latest-filed balance 1100, got %v", q1.Value)
	}
	q2 := findPeriod(t, values, 2023, models.Q2)
	if q2.Value != 1200 {
		t.Errorf("Expected Q2 balance 1200, got %v", q2.Value)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		date       string
		form       string
		wantPeriod models.FiscalPeriod
		wantYear   int
	}{
		{"2024-02-06", "10-K", models.Q4, 2024},
		{"2024-03-30", "20-F", models.Q4, 2024},
		{"2024-02-06", "10-Q", models.Q1, 2024},
		{"2024-05-10", "10-Q", models.Q2, 2024},
		{"2024-08-10", "10-Q", models.Q3, 2024},
		{"2024-11-10", "10-Q", models.Q4, 2024},
	}
	for _, tt := range tests {
		date, _ := time.Parse("2006-01-02", tt.date)
		fp, fy := Classify(date, tt.form)
		if fp != tt.wantPeriod || fy != tt.wantYear {
			t.Errorf("Classify(%s, %s): expected %s %d, got %s %d",
				tt.date, tt.form, tt.wantPeriod, tt.wantYear, fp, fy)
		}
	}
}
