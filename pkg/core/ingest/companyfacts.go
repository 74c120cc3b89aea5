package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quantfacts/pkg/core/metrics"
	"quantfacts/pkg/models"
)

// CompanyFacts is the structured XBRL fact feed for one company, as served by
// the data.sec.gov companyfacts endpoint.
type CompanyFacts struct {
	CIK        json.Number                      `json:"cik"`
	EntityName string                           `json:"entityName"`
	Facts      map[string]map[string]FactSeries `json:"facts"`
}

// FactSeries is the unit-keyed history of one XBRL concept.
type FactSeries struct {
	Label string                `json:"label"`
	Units map[string][]FactItem `json:"units"`
}

// FactItem is a single reported value for one concept, unit and period.
type FactItem struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Value float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame"`
}

// FetchCompanyFacts retrieves the full structured fact feed for a CIK.
func (c *Client) FetchCompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	body, err := c.get(ctx, fmt.Sprintf(companyFactsURL, padCIK(cik)), "application/json")
	if err != nil {
		return nil, err
	}
	var facts CompanyFacts
	if err := json.Unmarshal(body, &facts); err != nil {
		return nil, fmt.Errorf("failed to parse company facts: %w", err)
	}
	return &facts, nil
}

// FactsToRaw converts a company's structured fact feed into raw facts keyed by
// canonical metric name. Only USD facts from 10-Q and 10-K filings with a
// resolvable fiscal period are kept. For each canonical metric the first alias
// tag with any data wins, matching the preference order of the alias table;
// later aliases for the same metric are ignored so one filer's dual-tagged
// values cannot mix.
func FactsToRaw(table *metrics.Table, entityID string, facts *CompanyFacts) []models.RawFact {
	if facts == nil {
		return nil
	}
	gaap, ok := facts.Facts["us-gaap"]
	if !ok {
		return nil
	}

	var out []models.RawFact
	for _, canonical := range table.Canonicals() {
		alias, ok := table.Lookup(canonical)
		if !ok {
			continue
		}
		for _, tag := range alias.Tags {
			series, ok := gaap[tag]
			if !ok {
				continue
			}
			items, ok := series.Units["USD"]
			if !ok || len(items) == 0 {
				continue
			}
			converted := convertItems(entityID, canonical, tag, items)
			if len(converted) == 0 {
				continue
			}
			out = append(out, converted...)
			break
		}
	}
	return out
}

func convertItems(entityID, canonical, tag string, items []FactItem) []models.RawFact {
	var out []models.RawFact
	for _, item := range items {
		form := strings.ToUpper(item.Form)
		if form != "10-Q" && form != "10-K" && form != "10-K/A" && form != "10-Q/A" {
			continue
		}
		fp, ok := parseFiscalPeriod(item.FP)
		if !ok || item.FY == 0 {
			continue
		}
		filed, err := time.Parse("2006-01-02", item.Filed)
		if err != nil {
			continue
		}
		periodEnd, _ := time.Parse("2006-01-02", item.End)
		value := item.Value
		// The PaymentsToAcquire concepts report outflows as positive amounts;
		// downstream arithmetic carries capex as a negative outflow.
		if canonical == models.Capex && value > 0 {
			value = -value
		}
		out = append(out, models.RawFact{
			EntityID:       entityID,
			SourceMetricID: tag,
			CanonicalName:  canonical,
			FiscalYear:     item.FY,
			FiscalPeriod:   fp,
			PeriodEnd:      periodEnd,
			FiledDate:      filed,
			Value:          value,
			Unit:           "USD",
		})
	}
	return out
}

func parseFiscalPeriod(fp string) (models.FiscalPeriod, bool) {
	switch strings.ToUpper(strings.TrimSpace(fp)) {
	case "Q1":
		return models.Q1, true
	case "Q2":
		return models.Q2, true
	case "Q3":
		return models.Q3, true
	case "Q4":
		return models.Q4, true
	case "FY":
		return models.FY, true
	}
	return "", false
}
