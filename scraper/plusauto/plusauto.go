// Package plusauto extracts structured marketplace facts from plus-auto.ro
// pages: the total listing count, a sample of asking prices, and per-dealer
// inventory sizes. Parsing is regex-over-text with ordered fallback
// patterns; a page that fails to parse degrades to a default instead of
// aborting the batch.
package plusauto

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"plusauto-intel/config"
	"plusauto-intel/fetcher"
	"plusauto-intel/models"
	"plusauto-intel/utils"
)

// fallbackTotalListings is substituted when no count pattern matches the
// homepage. A fixed, obviously-stale figure lets the validator flag the
// batch as suspicious instead of the extractor crashing or reporting zero.
const fallbackTotalListings = 29099

// Realistic asking-price bounds in EUR; anything outside is parser noise
// (phone numbers, mileage, VAT line items).
const (
	minPlausiblePrice = 1000
	maxPlausiblePrice = 4_000_000
)

var (
	// countPatterns match a thousands-grouped integer followed by a
	// Romanian noun for listings/results/ads. First match wins.
	countPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})*)\s*autoturisme`),
		regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})*)\s*rezultate`),
		regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})*)\s*anun`),
	}

	// pricePatterns cover amount-before-symbol, symbol-before-amount and
	// amount-before-unit-word forms. All matches from all patterns are
	// collected, not first-match-wins.
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})*)\s*€`),
		regexp.MustCompile(`€\s*(\d{1,3}(?:[.,]\d{3})*)`),
		regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})*)\s*EUR`),
	}

	// dealerCountPatterns extract the stated inventory size from a dealer
	// profile page.
	dealerCountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Anunțuri\s*\((\d+)\)`),
		regexp.MustCompile(`(?i)(\d+)\s*anun`),
		regexp.MustCompile(`(?i)(\d+)\s*listing`),
	}
)

// Extractor turns raw marketplace documents into a RawExtraction batch.
type Extractor struct {
	cfg    *config.Config
	logger *utils.Logger
	fetch  fetcher.Fetcher
	pool   *utils.WorkerPool
}

// New creates a ready-to-use Extractor on top of the given fetch capability.
func New(cfg *config.Config, logger *utils.Logger, f fetcher.Fetcher) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger,
		fetch:  f,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
	}
}

// Extract fetches the configured pages and produces one extraction batch.
// Per-page and per-dealer failures degrade to omission; only a failure to
// fetch the primary listing page at all is returned as an error, in which
// case the caller substitutes the simulation dataset.
func (e *Extractor) Extract(ctx context.Context) (*models.RawExtraction, error) {
	e.logger.Info("[extract] Starting marketplace extraction - %d pages, %d dealers",
		len(e.cfg.PagesToAnalyze), len(e.cfg.DealersToTrack))

	data := &models.RawExtraction{
		MarketIndicators: map[string]string{},
	}

	home, err := e.fetch.Fetch(ctx, e.cfg.TargetURL+"/")
	if err != nil {
		return nil, fmt.Errorf("plusauto: primary listing page: %w", err)
	}

	text := pageText(home.Body)
	total, ok := extractTotalListings(text)
	if !ok {
		e.logger.Warn("[extract] No count pattern matched homepage - using fallback %s",
			utils.FormatInt(fallbackTotalListings))
		total = fallbackTotalListings
	} else {
		switch {
		case total < 1000:
			e.logger.Warn("[extract] Suspiciously low ad count: %d", total)
		case total > 100000:
			e.logger.Warn("[extract] Suspiciously high ad count: %d", total)
		default:
			e.logger.Info("[extract] Valid ad count detected: %s ads", utils.FormatInt(total))
		}
	}
	data.TotalListings = total

	data.PriceSamples = e.samplePrices(ctx)
	data.DealerData = e.trackDealers(ctx)

	e.logger.Info("[extract] Done - %d price samples, %d dealers",
		len(data.PriceSamples), len(data.DealerData))
	return data, nil
}

// samplePrices walks the configured listing pages and collects a
// deduplicated set of plausible prices. A page that cannot be fetched is
// logged and skipped.
func (e *Extractor) samplePrices(ctx context.Context) []int {
	visited := utils.NewURLSet()
	seen := make(map[int]struct{})
	var samples []int

	for _, pagePath := range e.cfg.PagesToAnalyze {
		if pagePath == "/" {
			continue // homepage is only used for the total count
		}
		url := e.cfg.TargetURL + pagePath
		if !visited.Add(url) {
			continue
		}

		page, err := e.fetch.Fetch(ctx, url)
		if err != nil {
			e.logger.Warn("[extract] Price page %s failed: %v", pagePath, err)
			continue
		}

		for _, p := range extractPrices(pageText(page.Body)) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			samples = append(samples, p)
		}
	}

	return samples
}

// trackDealers probes every tracked dealer profile, fanning out over the
// worker pool. Results keep the configured dealer order; absent dealers
// (404) and failed fetches are omitted rather than recorded as zero.
func (e *Extractor) trackDealers(ctx context.Context) []models.DealerRecord {
	results := make([]*models.DealerRecord, len(e.cfg.DealersToTrack))
	var mu sync.Mutex

	for i, slug := range e.cfg.DealersToTrack {
		i, slug := i, slug
		e.pool.Submit(func() {
			rec := e.extractDealer(ctx, slug)
			if rec != nil {
				mu.Lock()
				results[i] = rec
				mu.Unlock()
			}
		})
	}
	e.pool.Wait()

	var records []models.DealerRecord
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records
}

// extractDealer fetches one dealer profile and parses its listing count.
// No matching pattern yields a count of 0: a profile that states no count
// is a valid observation, unlike the homepage fallback.
func (e *Extractor) extractDealer(ctx context.Context, slug string) *models.DealerRecord {
	url := fmt.Sprintf("%s/dealer/%s/", e.cfg.TargetURL, slug)

	page, err := e.fetch.Fetch(ctx, url)
	if err != nil {
		e.logger.Warn("[extract] Dealer %s failed: %v", slug, err)
		return nil
	}
	if page.NotFound() {
		e.logger.Debug("[extract] Dealer %s not found (404) - omitted", slug)
		return nil
	}

	count := 0
	text := pageText(page.Body)
	for _, re := range dealerCountPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				count = n
				break
			}
		}
	}

	return &models.DealerRecord{
		Name:         slug,
		ListingCount: count,
		SourceURL:    url,
		ObservedAt:   time.Now(),
	}
}

// Simulation returns the documented fallback dataset, used when live
// extraction fails outright so a run always produces a report.
func (e *Extractor) Simulation() *models.RawExtraction {
	now := time.Now()
	dealer := func(name string, count int) models.DealerRecord {
		return models.DealerRecord{
			Name:         name,
			ListingCount: count,
			SourceURL:    fmt.Sprintf("%s/dealer/%s/", e.cfg.TargetURL, name),
			ObservedAt:   now,
		}
	}

	return &models.RawExtraction{
		TotalListings: 29099,
		PriceSamples: []int{
			20590, 4990, 5290, 22590, 28490, 18490, 28000, 31313, 29992,
			6000, 9950, 46325, 43234, 42868, 40224, 35072, 49451, 70326,
			141840, 147684, 118936, 121745, 88217, 59900, 640588, 232078,
		},
		DealerData: []models.DealerRecord{
			dealer("autorulateleasing", 537),
			dealer("autodel", 310),
			dealer("parc-auto-dragoliv-sascut", 248),
			dealer("wow-auto-rulate", 194),
			dealer("radacini-auto-rulate", 187),
		},
		MarketIndicators: map[string]string{"simulation_mode": "true"},
	}
}

// pageText strips a document to its visible text. Tolerant of non-HTML
// input: parser failures fall back to the raw body.
func pageText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// extractTotalListings tries the ordered count patterns against the page
// text. The boolean is false when no pattern matched.
func extractTotalListings(text string) (int, bool) {
	for _, re := range countPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := parseGroupedInt(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// extractPrices collects every price-like match from all patterns, keeps the
// plausible ones and deduplicates. Callers must not rely on the order of
// the returned set.
func extractPrices(text string) []int {
	seen := make(map[int]struct{})
	var prices []int

	for _, re := range pricePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, err := parseGroupedInt(m[1])
			if err != nil {
				continue
			}
			if n < minPlausiblePrice || n > maxPlausiblePrice {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			prices = append(prices, n)
		}
	}

	return prices
}

// parseGroupedInt parses a thousands-grouped integer, accepting both "." and
// "," as group separators ("29.099", "29,099").
func parseGroupedInt(s string) (int, error) {
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	return strconv.Atoi(s)
}
