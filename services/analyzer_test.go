package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
	"github.com/profiteer-io/profiteer-api/scrapers"
)

// fakeScraper returns a canned result, optionally after a delay.
type fakeScraper struct {
	key     string
	display string
	result  *models.ScrapeResult
	delay   time.Duration
}

func (f *fakeScraper) Marketplace() string { return f.key }
func (f *fakeScraper) DisplayName() string { return f.display }

func (f *fakeScraper) Scrape(ctx context.Context, query, condition string) *models.ScrapeResult {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &models.ScrapeResult{
				Marketplace:  f.key,
				DisplayName:  f.display,
				Status:       models.StatusTimeout,
				ErrorMessage: ctx.Err().Error(),
			}
		}
	}
	return f.result
}

func okResult(key, display, avgSold string, volume int) *models.ScrapeResult {
	avg := dec(avgSold)
	return &models.ScrapeResult{
		Marketplace:  key,
		DisplayName:  display,
		Status:       models.StatusOK,
		AvgSoldPrice: &avg,
		SalesVolume:  volume,
		ScrapedAt:    time.Now().UTC(),
	}
}

func failResult(key, display string, status models.ScrapeStatus) *models.ScrapeResult {
	return &models.ScrapeResult{
		Marketplace:  key,
		DisplayName:  display,
		Status:       status,
		ErrorMessage: string(status),
		ScrapedAt:    time.Now().UTC(),
	}
}

func analyzerTestConfig() *config.Config {
	return &config.Config{
		// Unroutable Redis: every cache lookup degrades to a miss.
		RedisURL:             "redis://127.0.0.1:1/0",
		AdapterDeadline:      200 * time.Millisecond,
		StrongMarginPct:      20,
		MarginalMarginPct:    5,
		DefaultWeightOz:      16,
		DefaultPackagingCost: 1.50,
		DefaultCacheTTL:      time.Minute,
	}
}

func newTestAnalyzer(t *testing.T, cfg *config.Config, adapters ...scrapers.Scraper) *AnalyzerService {
	t.Helper()
	cache, err := NewCacheService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })

	recorder := NewRecorder(nil, nil, 8) // never started: jobs just queue
	return NewAnalyzerService(cfg, scrapers.NewRegistryWith(adapters...), cache, recorder)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzeRanksByNetProfit(t *testing.T) {
	analyzer := newTestAnalyzer(t, analyzerTestConfig(),
		&fakeScraper{key: "ebay", display: "eBay", result: okResult("ebay", "eBay", "100.00", 5)},
		&fakeScraper{key: "mercari", display: "Mercari", result: okResult("mercari", "Mercari", "120.00", 2)},
	)

	shipping := 5.00
	resp, err := analyzer.Analyze(context.Background(), models.AnalyzeRequest{
		Query:        "Pokemon 151 Booster Bundle",
		ShippingCost: &shipping,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(resp.Marketplaces) != 2 {
		t.Fatalf("got %d marketplaces, want 2", len(resp.Marketplaces))
	}
	// mercari: 120 − 12.00 − 3.98 − 5.00 − 1.50 = 97.52
	// ebay:    100 − 13.25 − 3.48 − 5.00 − 1.50 = 76.77
	if resp.BestMarketplace != "Mercari" {
		t.Errorf("BestMarketplace = %q, want Mercari", resp.BestMarketplace)
	}
	if !almostEqual(resp.BestProfit, 97.52) {
		t.Errorf("BestProfit = %v, want 97.52", resp.BestProfit)
	}
	if !almostEqual(resp.Marketplaces[1].NetProfit, 76.77) {
		t.Errorf("second NetProfit = %v, want 76.77", resp.Marketplaces[1].NetProfit)
	}
	if resp.Marketplaces[0].ROI != nil {
		t.Errorf("ROI = %v, want nil without purchase price", *resp.Marketplaces[0].ROI)
	}
}

func TestAnalyzeToleratesPartialFailure(t *testing.T) {
	analyzer := newTestAnalyzer(t, analyzerTestConfig(),
		&fakeScraper{key: "ebay", display: "eBay", result: okResult("ebay", "eBay", "50.00", 3)},
		&fakeScraper{key: "mercari", display: "Mercari", result: failResult("mercari", "Mercari", models.StatusBlocked)},
		&fakeScraper{key: "tcgplayer", display: "TCGPlayer", result: failResult("tcgplayer", "TCGPlayer", models.StatusEmpty)},
	)

	resp, err := analyzer.Analyze(context.Background(), models.AnalyzeRequest{Query: "gameboy color"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Marketplaces) != 1 {
		t.Fatalf("got %d marketplaces, want 1", len(resp.Marketplaces))
	}
	if resp.Marketplaces[0].Marketplace != "eBay" {
		t.Errorf("surviving marketplace = %q, want eBay", resp.Marketplaces[0].Marketplace)
	}
}

func TestAnalyzeNoData(t *testing.T) {
	analyzer := newTestAnalyzer(t, analyzerTestConfig(),
		&fakeScraper{key: "ebay", display: "eBay", result: failResult("ebay", "eBay", models.StatusBlocked)},
		&fakeScraper{key: "mercari", display: "Mercari", result: failResult("mercari", "Mercari", models.StatusEmpty)},
	)

	_, err := analyzer.Analyze(context.Background(), models.AnalyzeRequest{Query: "unobtainium"})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestAnalyzeSlowAdapterHitsDeadline(t *testing.T) {
	analyzer := newTestAnalyzer(t, analyzerTestConfig(),
		&fakeScraper{key: "ebay", display: "eBay", result: okResult("ebay", "eBay", "50.00", 3)},
		&fakeScraper{key: "mercari", display: "Mercari", delay: 5 * time.Second,
			result: okResult("mercari", "Mercari", "999.00", 9)},
	)

	start := time.Now()
	resp, err := analyzer.Analyze(context.Background(), models.AnalyzeRequest{Query: "gameboy color"})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("analysis took %v, slow adapter was not cut off at its deadline", elapsed)
	}
	if len(resp.Marketplaces) != 1 || resp.Marketplaces[0].Marketplace != "eBay" {
		t.Errorf("expected only eBay to contribute, got %+v", resp.Marketplaces)
	}
}

func TestRankResultsDeterministic(t *testing.T) {
	results := []models.MarketplaceResult{
		{Marketplace: "Mercari", NetProfit: 10, SalesVolume: 2},
		{Marketplace: "eBay", NetProfit: 10, SalesVolume: 5},
		{Marketplace: "TCGPlayer", NetProfit: 25, SalesVolume: 1},
		{Marketplace: "Whatnot", NetProfit: 10, SalesVolume: 2},
	}

	rankResults(results)

	want := []string{"TCGPlayer", "eBay", "Mercari", "Whatnot"}
	for i, name := range want {
		if results[i].Marketplace != name {
			t.Errorf("rank %d = %q, want %q", i, results[i].Marketplace, name)
		}
	}
}

func TestResolveShipping(t *testing.T) {
	analyzer := newTestAnalyzer(t, analyzerTestConfig())

	explicit := 12.34
	if got := analyzer.resolveShipping(models.AnalyzeRequest{ShippingCost: &explicit}); !got.Equal(dec("12.34")) {
		t.Errorf("explicit shipping = %s, want 12.34", got)
	}

	weight := 8.0
	if got := analyzer.resolveShipping(models.AnalyzeRequest{WeightOz: &weight}); !got.Equal(dec("4.70")) {
		t.Errorf("8oz shipping = %s, want 4.70", got)
	}

	// Default weight is one pound, past the first-class cutoff.
	if got := analyzer.resolveShipping(models.AnalyzeRequest{}); !got.Equal(dec("8.80")) {
		t.Errorf("default shipping = %s, want 8.80", got)
	}
}
