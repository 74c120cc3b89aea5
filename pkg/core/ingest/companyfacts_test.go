package ingest

import (
	"testing"

	"quantfacts/pkg/core/metrics"
	"quantfacts/pkg/models"
)

func factsFixture() *CompanyFacts {
	return &CompanyFacts{
		EntityName: "ACME Corp",
		Facts: map[string]map[string]FactSeries{
			"us-gaap": {
				"Revenues": {
					Units: map[string][]FactItem{
						"USD": {
							{End: "2023-03-31", Value: 100, FY: 2023, FP: "Q1", Form: "10-Q", Filed: "2023-04-15"},
							{End: "2023-06-30", Value: 220, FY: 2023, FP: "Q2", Form: "10-Q", Filed: "2023-07-15"},
							// 8-K facts and facts without a period are skipped.
							{End: "2023-06-30", Value: 999, FY: 2023, FP: "Q2", Form: "8-K", Filed: "2023-07-20"},
							{End: "2023-09-30", Value: 340, FY: 0, FP: "", Form: "10-Q", Filed: "2023-10-15"},
						},
					},
				},
				"SalesRevenueNet": {
					Units: map[string][]FactItem{
						"USD": {
							{End: "2023-03-31", Value: 555, FY: 2023, FP: "Q1", Form: "10-Q", Filed: "2023-04-15"},
						},
					},
				},
				"Assets": {
					Units: map[string][]FactItem{
						"USD": {
							{End: "2023-06-30", Value: 1000, FY: 2023, FP: "Q2", Form: "10-Q", Filed: "2023-07-15"},
						},
						"EUR": {
							{End: "2023-06-30", Value: 900, FY: 2023, FP: "Q2", Form: "10-Q", Filed: "2023-07-15"},
						},
					},
				},
				"PaymentsToAcquirePropertyPlantAndEquipment": {
					Units: map[string][]FactItem{
						"USD": {
							{End: "2023-03-31", Value: 80, FY: 2023, FP: "Q1", Form: "10-Q", Filed: "2023-04-15"},
						},
					},
				},
			},
		},
	}
}

func TestFactsToRaw(t *testing.T) {
	table := metrics.Default()
	facts := FactsToRaw(table, "ACME", factsFixture())

	var revenue, assets, capex []models.RawFact
	for _, f := range facts {
		switch f.CanonicalName {
		case models.Revenue:
			revenue = append(revenue, f)
		case models.TotalAssets:
			assets = append(assets, f)
		case models.Capex:
			capex = append(capex, f)
		}
	}

	// Revenues has data, so the lower-preference SalesRevenueNet is ignored.
	if len(revenue) != 2 {
		t.Fatalf("Expected 2 revenue facts, got %d", len(revenue))
	}
	for _, f := range revenue {
		if f.SourceMetricID != "Revenues" {
			t.Errorf("Expected facts from the Revenues concept only, got %s", f.SourceMetricID)
		}
		if f.Value == 555 || f.Value == 999 {
			t.Errorf("Expected fallback-alias and 8-K values excluded, got %v", f.Value)
		}
	}

	if len(assets) != 1 || assets[0].Value != 1000 {
		t.Errorf("Expected one USD assets fact of 1000, got %v", assets)
	}
	if assets[0].Unit != "USD" {
		t.Errorf("Expected USD unit, got %s", assets[0].Unit)
	}

	// Payments concepts are flipped to the negative-outflow convention.
	if len(capex) != 1 || capex[0].Value != -80 {
		t.Errorf("Expected capex -80, got %v", capex)
	}
}

func TestFactsToRawAliasFallback(t *testing.T) {
	table := metrics.Default()
	fixture := factsFixture()
	delete(fixture.Facts["us-gaap"], "Revenues")

	facts := FactsToRaw(table, "ACME", fixture)

	var revenue []models.RawFact
	for _, f := range facts {
		if f.CanonicalName == models.Revenue {
			revenue = append(revenue, f)
		}
	}
	if len(revenue) != 1 {
		t.Fatalf("Expected 1 revenue fact from the fallback alias, got %d", len(revenue))
	}
	if revenue[0].SourceMetricID != "SalesRevenueNet" || revenue[0].Value != 555 {
		t.Errorf("Expected SalesRevenueNet 555, got %s %v", revenue[0].SourceMetricID, revenue[0].Value)
	}
}

func TestFactsToRawEmpty(t *testing.T) {
	table := metrics.Default()

	if facts := FactsToRaw(table, "ACME", nil); len(facts) != 0 {
		t.Errorf("Expected no facts for nil feed, got %d", len(facts))
	}
	if facts := FactsToRaw(table, "ACME", &CompanyFacts{}); len(facts) != 0 {
		t.Errorf("Expected no facts for empty feed, got %d", len(facts))
	}
}
