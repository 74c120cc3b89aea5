package ingest

import (
	"context"
	"fmt"
	"log"

	"quantfacts/pkg/core/extract"
	"quantfacts/pkg/core/metrics"
	"quantfacts/pkg/core/period"
	"quantfacts/pkg/models"
)

// FallbackExtractor produces raw facts from filing documents when the
// structured companyfacts feed yields nothing for an entity. Each filing is
// downloaded once and every canonical metric is run through the text/HTML
// extraction strategies; the filing's form type and date classify the period.
type FallbackExtractor struct {
	client    *Client
	table     *metrics.Table
	extractor *extract.Extractor
}

// NewFallbackExtractor wires the client and alias table into a fallback path.
func NewFallbackExtractor(client *Client, table *metrics.Table) *FallbackExtractor {
	return &FallbackExtractor{
		client:    client,
		table:     table,
		extractor: extract.New(table),
	}
}

// ExtractFilings fetches each filing and extracts every canonical metric it
// can. Extraction is best effort: a filing that fails to download is logged
// and skipped, and an error is returned only when no filing at all could be
// fetched. A metric that fails to extract is simply absent from the result.
func (f *FallbackExtractor) ExtractFilings(ctx context.Context, entityID string, filings []Filing) ([]models.RawFact, error) {
	var out []models.RawFact
	var fetched int
	for _, filing := range filings {
		content, err := f.client.FetchFiling(ctx, filing)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("%s: skipping filing %s: %v", entityID, filing.AccessionNumber, err)
			continue
		}
		fetched++
		out = append(out, f.extractOne(entityID, filing, content)...)
	}
	if fetched == 0 && len(filings) > 0 {
		return nil, fmt.Errorf("fallback extraction for %s: no filings could be fetched", entityID)
	}
	return out, nil
}

func (f *FallbackExtractor) extractOne(entityID string, filing Filing, content string) []models.RawFact {
	fp, fy := period.Classify(filing.FilingDate, filing.FormType)

	var out []models.RawFact
	for _, canonical := range f.table.Canonicals() {
		ex, ok := f.extractor.Extract(content, canonical)
		if !ok {
			continue
		}
		out = append(out, models.RawFact{
			EntityID:       entityID,
			SourceMetricID: ex.MatchedAlias,
			CanonicalName:  canonical,
			FiscalYear:     fy,
			FiscalPeriod:   fp,
			PeriodEnd:      filing.ReportDate,
			FiledDate:      filing.FilingDate,
			Value:          ex.Value,
			Unit:           "USD",
		})
	}
	return out
}
