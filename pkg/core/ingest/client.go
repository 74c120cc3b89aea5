// Package ingest provides SEC EDGAR API integration: CIK resolution,
// structured company facts, submission history, and filing document downloads.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// SEC EDGAR API endpoints
	submissionsURL    = "https://data.sec.gov/submissions/CIK%s.json"
	companyFactsURL   = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
	filingArchiveBase = "https://www.sec.gov/Archives/edgar/data"
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"

	// Required User-Agent per SEC guidelines
	userAgent = "QuantFacts/1.0 (contact@example.com)"
)

// Client handles SEC EDGAR API requests. All requests share a rate limiter
// honoring the SEC fair-access guideline of at most 10 requests per second.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	// archiveBase is overridable in tests.
	archiveBase string

	mu       sync.Mutex
	cikCache map[string]string
}

// NewClient creates a new SEC EDGAR API client.
func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(10), 1),
		archiveBase: filingArchiveBase,
		cikCache:    make(map[string]string),
	}
}

// get performs a rate-limited GET with the SEC-required headers.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SEC returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// LookupCIK resolves a ticker symbol to its zero-padded 10-digit CIK using the
// SEC ticker mapping file. Resolutions are cached for the client's lifetime.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	c.mu.Lock()
	cached, ok := c.cikCache[ticker]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	body, err := c.get(ctx, companyTickersURL, "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	// Response structure: { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "..."}, ... }
	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", fmt.Errorf("failed to parse ticker mapping: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range mapping {
		c.cikCache[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
	}
	cik, ok := c.cikCache[ticker]
	if !ok {
		return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
	}
	return cik, nil
}

// padCIK zero-pads a CIK to the 10 digits the data.sec.gov endpoints expect.
func padCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}

// CompanyInfo represents the top-level company submission response.
type CompanyInfo struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds arrays of filing attributes (parallel arrays).
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing represents a single SEC filing (denormalized from parallel arrays).
type Filing struct {
	CIK             string
	AccessionNumber string
	FilingDate      time.Time
	ReportDate      time.Time
	FormType        string
	PrimaryDocument string
}

// Submissions retrieves the company submission history for a CIK.
func (c *Client) Submissions(ctx context.Context, cik string) (*CompanyInfo, error) {
	body, err := c.get(ctx, fmt.Sprintf(submissionsURL, padCIK(cik)), "application/json")
	if err != nil {
		return nil, err
	}
	var info CompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse submissions response: %w", err)
	}
	return &info, nil
}

// FilingsSince flattens the submission history into filings filtered by form
// type and filing-date cutoff. Pass nil formTypes for all forms and a zero
// cutoff for no window.
func (info *CompanyInfo) FilingsSince(formTypes []string, cutoff time.Time) []Filing {
	wanted := make(map[string]bool, len(formTypes))
	for _, ft := range formTypes {
		wanted[strings.ToUpper(ft)] = true
	}

	recent := info.Filings.Recent
	var filings []Filing
	for i := range recent.AccessionNumber {
		if len(wanted) > 0 && !wanted[strings.ToUpper(recent.Form[i])] {
			continue
		}
		filingDate, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		if !cutoff.IsZero() && filingDate.Before(cutoff) {
			continue
		}
		reportDate, _ := time.Parse("2006-01-02", recent.ReportDate[i])
		filings = append(filings, Filing{
			CIK:             info.CIK,
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      filingDate,
			ReportDate:      reportDate,
			FormType:        recent.Form[i],
			PrimaryDocument: recent.PrimaryDocument[i],
		})
	}
	return filings
}

// FetchFiling downloads a filing's primary document from the EDGAR archive.
func (c *Client) FetchFiling(ctx context.Context, f Filing) (string, error) {
	accession := strings.ReplaceAll(f.AccessionNumber, "-", "")
	cik := strings.TrimLeft(f.CIK, "0")
	url := fmt.Sprintf("%s/%s/%s/%s", c.archiveBase, cik, accession, f.PrimaryDocument)

	body, err := c.get(ctx, url, "text/html")
	if err != nil {
		return "", fmt.Errorf("failed to fetch filing %s: %w", f.AccessionNumber, err)
	}
	return string(body), nil
}
