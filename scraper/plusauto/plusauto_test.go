package plusauto

import (
	"context"
	"errors"
	"sort"
	"testing"

	"plusauto-intel/config"
	"plusauto-intel/fetcher"
	"plusauto-intel/utils"
)

// stubFetcher serves canned pages by URL.
type stubFetcher struct {
	pages map[string]*fetcher.Page
	errs  map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	if page, ok := s.pages[url]; ok {
		return page, nil
	}
	return &fetcher.Page{StatusCode: 404, Body: "not found"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		TargetURL:      "https://example.test",
		PagesToAnalyze: []string{"/", "/autoturisme/"},
		DealersToTrack: []string{"alpha", "beta", "gone"},
		MaxConcurrency: 2,
		RateLimitMs:    0,
	}
}

func newExtractor(f fetcher.Fetcher) *Extractor {
	return New(testConfig(), utils.NewLogger(), f)
}

func TestExtractTotalListings(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"cumpără din 29.099 autoturisme verificate", 29099, true},
		{"am găsit 1,234 rezultate pentru căutarea ta", 1234, true},
		{"512 anunțuri active", 512, true},
		{"29.099 AUTOTURISME", 29099, true}, // case-insensitive
		{"niciun rezultat aici", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := extractTotalListings(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("extractTotalListings(%q) = %d, %v; want %d, %v",
				tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExtractPrices(t *testing.T) {
	text := `BMW 520d 23.500 € · Audi A4 € 15.000 · Dacia 9.950 EUR
	piese 500 € · colecție 5.000.000 € · BMW 520d 23.500 €`

	got := extractPrices(text)
	sort.Ints(got)

	want := []int{9950, 15000, 23500}
	if len(got) != len(want) {
		t.Fatalf("extractPrices: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extractPrices: got %v, want %v", got, want)
		}
	}
}

func TestExtractPricesBounds(t *testing.T) {
	// 1000 and 4000000 are inclusive bounds.
	got := extractPrices("1.000 € x 999 € x 4.000.000 € x 4.000.001 €")
	sort.Ints(got)

	if len(got) != 2 || got[0] != 1000 || got[1] != 4000000 {
		t.Errorf("extractPrices bounds: got %v, want [1000 4000000]", got)
	}
}

func TestExtractPricesCrossPatternDedup(t *testing.T) {
	got := extractPrices("15.000 € sau € 15.000 sau 15,000 EUR")
	if len(got) != 1 || got[0] != 15000 {
		t.Errorf("expected a single deduplicated price, got %v", got)
	}
}

func TestPageTextStripsMarkup(t *testing.T) {
	html := `<html><head><script>var x = "9.999 autoturisme";</script></head>
	<body><p>29.099 autoturisme</p></body></html>`

	got, ok := extractTotalListings(pageText(html))
	if !ok || got != 29099 {
		t.Errorf("got %d, %v; want 29099 from body text only", got, ok)
	}
}

func TestExtract(t *testing.T) {
	stub := &stubFetcher{
		pages: map[string]*fetcher.Page{
			"https://example.test/": {
				StatusCode: 200,
				Body:       "<html><body>cumpără din 29.099 autoturisme</body></html>",
			},
			"https://example.test/autoturisme/": {
				StatusCode: 200,
				Body:       "<html><body>23.500 € · € 15.000 · 9.950 EUR</body></html>",
			},
			"https://example.test/dealer/alpha/": {
				StatusCode: 200,
				Body:       "<html><body>Anunțuri (537)</body></html>",
			},
			"https://example.test/dealer/beta/": {
				StatusCode: 200,
				Body:       "<html><body>profil dealer fără cifre</body></html>",
			},
			// "gone" intentionally missing: the stub answers 404.
		},
	}

	data, err := newExtractor(stub).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if data.TotalListings != 29099 {
		t.Errorf("TotalListings: got %d, want 29099", data.TotalListings)
	}
	if len(data.PriceSamples) != 3 {
		t.Errorf("PriceSamples: got %v, want 3 samples", data.PriceSamples)
	}

	if len(data.DealerData) != 2 {
		t.Fatalf("DealerData: got %d records, want 2 (404 dealer omitted)", len(data.DealerData))
	}
	// Configured order is preserved.
	if data.DealerData[0].Name != "alpha" || data.DealerData[0].ListingCount != 537 {
		t.Errorf("dealer[0]: got %+v", data.DealerData[0])
	}
	// A profile without a stated count is a valid zero, not an omission.
	if data.DealerData[1].Name != "beta" || data.DealerData[1].ListingCount != 0 {
		t.Errorf("dealer[1]: got %+v", data.DealerData[1])
	}

	if data.Simulated() {
		t.Error("live extraction must not be marked simulated")
	}
}

func TestExtractDealerFetchErrorOmitted(t *testing.T) {
	stub := &stubFetcher{
		pages: map[string]*fetcher.Page{
			"https://example.test/": {StatusCode: 200, Body: "29.099 autoturisme"},
		},
		errs: map[string]error{
			"https://example.test/dealer/alpha/": errors.New("connection reset"),
			"https://example.test/dealer/beta/":  errors.New("timeout"),
			"https://example.test/dealer/gone/":  errors.New("timeout"),
		},
	}

	data, err := newExtractor(stub).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(data.DealerData) != 0 {
		t.Errorf("expected all failing dealers omitted, got %+v", data.DealerData)
	}
}

func TestExtractPrimaryPageFailure(t *testing.T) {
	stub := &stubFetcher{
		errs: map[string]error{
			"https://example.test/": errors.New("connection refused"),
		},
	}

	if _, err := newExtractor(stub).Extract(context.Background()); err == nil {
		t.Fatal("expected error when the primary listing page cannot be fetched")
	}
}

func TestExtractHomepageFallbackCount(t *testing.T) {
	stub := &stubFetcher{
		pages: map[string]*fetcher.Page{
			"https://example.test/": {StatusCode: 200, Body: "<html><body>fără cifre</body></html>"},
		},
	}

	data, err := newExtractor(stub).Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if data.TotalListings != fallbackTotalListings {
		t.Errorf("TotalListings: got %d, want fallback %d", data.TotalListings, fallbackTotalListings)
	}
}

func TestSimulationDataset(t *testing.T) {
	data := newExtractor(&stubFetcher{}).Simulation()

	if data.TotalListings != 29099 {
		t.Errorf("TotalListings: got %d, want 29099", data.TotalListings)
	}
	if len(data.PriceSamples) != 26 {
		t.Errorf("PriceSamples: got %d, want 26", len(data.PriceSamples))
	}
	if len(data.DealerData) != 5 {
		t.Errorf("DealerData: got %d, want 5", len(data.DealerData))
	}
	if data.DealerData[0].Name != "autorulateleasing" || data.DealerData[0].ListingCount != 537 {
		t.Errorf("top dealer: got %+v", data.DealerData[0])
	}
	if !data.Simulated() {
		t.Error("simulation dataset must be marked simulated")
	}
}
