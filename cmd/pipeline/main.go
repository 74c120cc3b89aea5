package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"quantfacts/pkg/core/ingest"
	"quantfacts/pkg/core/metrics"
	"quantfacts/pkg/core/ratios"
	"quantfacts/pkg/core/reconcile"
	"quantfacts/pkg/core/store"
	"quantfacts/pkg/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	var (
		tickersFlag = flag.String("tickers", "", "Comma-separated ticker symbols to process")
		inputFlag   = flag.String("input", "", "Path to a file with one ticker per line")
		formsFlag   = flag.String("forms", "10-Q,10-K", "Comma-separated SEC form types for the fallback path")
		yearsFlag   = flag.Int("years", 3, "Lookback window in years for the fallback path")
		fallback    = flag.Bool("fallback", true, "Extract from filing text when company facts are empty")
		aliasFile   = flag.String("aliases", "", "Optional YAML file with alias table overrides")
		show        = flag.Bool("show", false, "Print stored records and recomputed ratios instead of ingesting")
	)
	flag.Parse()

	tickers, err := collectTickers(*tickersFlag, *inputFlag)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if len(tickers) == 0 {
		log.Fatal("Error: no tickers given; use -tickers or -input.")
	}

	table := metrics.Default()
	if *aliasFile != "" {
		table, err = metrics.Load(*aliasFile)
		if err != nil {
			log.Fatalf("Error loading alias overrides: %v", err)
		}
	}

	ctx := context.Background()

	persist := os.Getenv("DATABASE_URL") != ""
	var repo *store.RecordRepo
	if persist {
		if err := store.InitDB(ctx); err != nil {
			log.Fatalf("Error initializing database: %v", err)
		}
		defer store.Close()
		repo = store.NewRecordRepo()
	}
	if *show && repo == nil {
		log.Fatal("Error: -show requires DATABASE_URL.")
	}

	client := ingest.NewClient()
	reconciler := reconcile.New(table)
	forms := splitList(*formsFlag)
	cutoff := time.Now().AddDate(-*yearsFlag, 0, 0)

	fmt.Printf("🚀 Fact normalization pipeline: %d entities\n", len(tickers))

	var processed, failed int
	for _, ticker := range tickers {
		var err error
		if *show {
			err = showEntity(ctx, repo, ticker)
		} else {
			err = processEntity(ctx, client, table, reconciler, repo, ticker, forms, cutoff, *fallback)
		}
		if err != nil {
			log.Printf("Skipping %s: %v", ticker, err)
			failed++
			continue
		}
		processed++
	}

	fmt.Printf("\n[Done] %d processed, %d failed.\n", processed, failed)
}

// processEntity runs the full flow for one ticker. Entities are independent;
// any error here is logged by the caller and the batch moves on.
func processEntity(ctx context.Context, client *ingest.Client, table *metrics.Table, reconciler *reconcile.Reconciler, repo *store.RecordRepo, ticker string, forms []string, cutoff time.Time, fallback bool) error {
	fmt.Printf("📂 Processing %s...\n", ticker)

	cik, err := client.LookupCIK(ctx, ticker)
	if err != nil {
		return fmt.Errorf("CIK lookup: %w", err)
	}

	var facts []models.RawFact
	companyFacts, err := client.FetchCompanyFacts(ctx, cik)
	if err != nil {
		log.Printf("%s: company facts unavailable (%v), trying fallback", ticker, err)
	} else {
		facts = ingest.FactsToRaw(table, ticker, companyFacts)
	}

	if len(facts) == 0 && fallback {
		info, err := client.Submissions(ctx, cik)
		if err != nil {
			return fmt.Errorf("submissions: %w", err)
		}
		filings := info.FilingsSince(forms, cutoff)
		extractor := ingest.NewFallbackExtractor(client, table)
		facts, err = extractor.ExtractFilings(ctx, ticker, filings)
		if err != nil {
			return err
		}
	}

	records := reconciler.Reconcile(ticker, facts)
	if len(records) == 0 {
		return fmt.Errorf("no usable facts")
	}

	sets := computeRatios(records)

	if repo != nil {
		runID, err := repo.SaveRecords(ctx, records)
		if err != nil {
			return err
		}
		if err := repo.SaveRatios(ctx, runID, sets); err != nil {
			return err
		}
		fmt.Printf("   %s: saved %d records (run %s)\n", ticker, len(records), runID)
		return nil
	}

	printSummary(ticker, records, sets)
	return nil
}

// showEntity reads an entity's stored records back and regenerates its ratio
// sets from them. Ratio sets are a derived view, so recomputing from the
// durable records is always valid.
func showEntity(ctx context.Context, repo *store.RecordRepo, ticker string) error {
	records, err := repo.LoadRecords(ctx, ticker)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no stored records")
	}
	printSummary(ticker, records, computeRatios(records))
	for _, rec := range records {
		fmt.Printf("      %d %s: %s\n", rec.FiscalYear, rec.FiscalPeriod, strings.Join(rec.Metrics(), ", "))
	}
	return nil
}

// computeRatios derives a ratio set per record, pairing each record with the
// same period of the previous fiscal year so growth ratios are year over year.
func computeRatios(records []models.NormalizedRecord) []models.RatioSet {
	type key struct {
		year   int
		period models.FiscalPeriod
	}
	byKey := make(map[key]models.NormalizedRecord, len(records))
	for _, rec := range records {
		byKey[key{rec.FiscalYear, rec.FiscalPeriod}] = rec
	}

	sets := make([]models.RatioSet, 0, len(records))
	for _, rec := range records {
		var prior *models.NormalizedRecord
		if prev, ok := byKey[key{rec.FiscalYear - 1, rec.FiscalPeriod}]; ok {
			clone := prev.Clone()
			prior = &clone
		}
		sets = append(sets, ratios.Compute(rec, prior))
	}
	return sets
}

func printSummary(ticker string, records []models.NormalizedRecord, sets []models.RatioSet) {
	for i, rec := range records {
		fmt.Printf("   %s %d %s: %d metrics", ticker, rec.FiscalYear, rec.FiscalPeriod, len(rec.Values))
		if rev, ok := rec.Get(models.Revenue); ok {
			fmt.Printf(", revenue $%.0f", rev)
		}
		if m := sets[i].Ratios["net_margin"]; m != 0 {
			fmt.Printf(", net margin %.1f%%", m)
		}
		fmt.Println()
	}
}

func collectTickers(tickersFlag, inputFlag string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || strings.HasPrefix(t, "#") || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}

	for _, t := range splitList(tickersFlag) {
		add(t)
	}
	if inputFlag != "" {
		f, err := os.Open(inputFlag)
		if err != nil {
			return nil, fmt.Errorf("opening ticker list: %w", err)
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			add(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading ticker list: %w", err)
		}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
