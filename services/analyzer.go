package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
	"github.com/profiteer-io/profiteer-api/scrapers"
	"github.com/profiteer-io/profiteer-api/utils"
)

// ErrNoData is returned when every marketplace failed or matched nothing.
// Callers surface it as "nothing found", distinct from a server fault.
var ErrNoData = errors.New("no marketplace data found for query")

// AnalyzerService fans a query out to every registered marketplace
// scraper, tolerates partial failure, and folds the surviving price data
// through the fee calculator into a ranked profitability response.
type AnalyzerService struct {
	cfg      *config.Config
	registry *scrapers.Registry
	cache    *CacheService
	calc     *ProfitCalculator
	recorder *Recorder
}

func NewAnalyzerService(cfg *config.Config, registry *scrapers.Registry, cache *CacheService, recorder *Recorder) *AnalyzerService {
	return &AnalyzerService{
		cfg:      cfg,
		registry: registry,
		cache:    cache,
		calc:     NewProfitCalculator(cfg),
		recorder: recorder,
	}
}

// adapterOutcome tags one scraper's result with its origin.
type adapterOutcome struct {
	scraper   scrapers.Scraper
	result    *models.ScrapeResult
	fromCache bool
}

// Analyze runs the full profitability analysis for one request.
//
//  1. Normalize the query.
//  2. Scrape all marketplaces concurrently (cache first, each under its
//     own deadline).
//  3. Keep contributing results, drop the rest silently.
//  4. Compute fees/profit per marketplace and rank by net profit.
//  5. Hand observations to the recorder off the response path.
//
// Returns ErrNoData when no marketplace contributed.
func (s *AnalyzerService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	normalized := utils.NormalizeQuery(req.Query)
	condition := req.Condition
	if condition == "" {
		condition = models.ConditionNew
	}

	outcomes := s.scrapeAll(ctx, normalized, condition)

	shipping := s.resolveShipping(req)
	packaging := decimal.NewFromFloat(s.cfg.DefaultPackagingCost)
	if req.PackagingCost != nil {
		packaging = decimal.NewFromFloat(*req.PackagingCost)
	}
	packaging = packaging.Round(2)

	var purchase *decimal.Decimal
	if req.PurchasePrice != nil {
		p := decimal.NewFromFloat(*req.PurchasePrice).Round(2)
		purchase = &p
	}

	var results []models.MarketplaceResult
	var contributing []*models.ScrapeResult

	for _, outcome := range outcomes {
		res := outcome.result
		if res == nil || !res.Contributing() {
			if res != nil && res.Status != models.StatusOK {
				log.Printf("[Analyzer] %s did not contribute: %s (%s)",
					outcome.scraper.DisplayName(), res.Status, res.ErrorMessage)
			}
			continue
		}

		contributing = append(contributing, res)
		results = append(results, s.buildMarketplaceResult(res, purchase, shipping, packaging))
	}

	if len(results) == 0 {
		return nil, ErrNoData
	}

	rankResults(results)
	best := results[0]

	response := &models.AnalyzeResponse{
		ItemName:        strings.TrimSpace(req.Query),
		ItemImage:       firstListingImage(contributing),
		BestMarketplace: best.Marketplace,
		BestProfit:      best.NetProfit,
		Marketplaces:    results,
	}
	if purchase != nil {
		response.PurchasePrice = purchase.InexactFloat64()
	}

	image := ""
	if response.ItemImage != nil {
		image = *response.ItemImage
	}
	s.recorder.Enqueue(RecordJob{
		Query:     normalized,
		Condition: condition,
		ImageURL:  image,
		Results:   contributing,
	})

	return response, nil
}

// Marketplaces describes every registered marketplace with its fee
// schedule, for the metadata endpoint.
func (s *AnalyzerService) Marketplaces() []models.MarketplaceInfo {
	infos := make([]models.MarketplaceInfo, 0, s.registry.Len())
	for _, sc := range s.registry.All() {
		fees := FeeScheduleFor(sc.Marketplace())
		infos = append(infos, models.MarketplaceInfo{
			Marketplace:           sc.Marketplace(),
			DisplayName:           sc.DisplayName(),
			SellerFeePct:          fees.SellerFeePct.InexactFloat64(),
			PaymentProcessingPct:  fees.PaymentProcessingPct.InexactFloat64(),
			PaymentProcessingFlat: fees.PaymentFlat.InexactFloat64(),
		})
	}
	return infos
}

// scrapeAll runs one goroutine per registered scraper and joins all of
// them. Every task is independently cancellable; a slow adapter is capped
// by its own deadline and never delays siblings beyond that.
func (s *AnalyzerService) scrapeAll(ctx context.Context, normalizedQuery, condition string) []adapterOutcome {
	adapters := s.registry.All()
	out := make(chan adapterOutcome, len(adapters))

	for _, sc := range adapters {
		go s.scrapeOne(ctx, sc, normalizedQuery, condition, out)
	}

	outcomes := make([]adapterOutcome, 0, len(adapters))
	for range adapters {
		outcomes = append(outcomes, <-out)
	}
	return outcomes
}

// scrapeOne resolves a single marketplace: cache hit, or a live scrape
// under the per-adapter deadline with cancel-on-timeout.
func (s *AnalyzerService) scrapeOne(ctx context.Context, sc scrapers.Scraper, normalizedQuery, condition string, out chan<- adapterOutcome) {
	if cached := s.cache.Get(ctx, sc.Marketplace(), normalizedQuery, condition); cached != nil {
		log.Printf("[Analyzer] ✅ Cache HIT for %s: %q", sc.Marketplace(), normalizedQuery)
		out <- adapterOutcome{scraper: sc, result: cached, fromCache: true}
		return
	}
	log.Printf("[Analyzer] Cache MISS for %s: %q, scraping", sc.Marketplace(), normalizedQuery)

	scrapeCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterDeadline)
	defer cancel()

	done := make(chan *models.ScrapeResult, 1)
	go func() {
		done <- sc.Scrape(scrapeCtx, normalizedQuery, condition)
	}()

	var result *models.ScrapeResult
	select {
	case result = <-done:
	case <-scrapeCtx.Done():
		result = &models.ScrapeResult{
			Marketplace:  sc.Marketplace(),
			DisplayName:  sc.DisplayName(),
			Status:       models.StatusTimeout,
			ErrorMessage: "adapter deadline exceeded",
		}
	}

	if result.Status == models.StatusOK {
		s.cache.Set(ctx, sc.Marketplace(), normalizedQuery, condition, result)
	}
	out <- adapterOutcome{scraper: sc, result: result}
}

func (s *AnalyzerService) resolveShipping(req models.AnalyzeRequest) decimal.Decimal {
	if req.ShippingCost != nil {
		return decimal.NewFromFloat(*req.ShippingCost).Round(2)
	}
	weight := s.cfg.DefaultWeightOz
	if req.WeightOz != nil {
		weight = *req.WeightOz
	}
	return CheapestShipping(weight).Cost
}

func (s *AnalyzerService) buildMarketplaceResult(res *models.ScrapeResult, purchase *decimal.Decimal, shipping, packaging decimal.Decimal) models.MarketplaceResult {
	sale := res.SalePrice()
	breakdown := s.calc.Compute(res.Marketplace, *sale, purchase, shipping, packaging)

	result := models.MarketplaceResult{
		Marketplace:          res.DisplayName,
		PlatformFee:          breakdown.PlatformFee.InexactFloat64(),
		PaymentProcessingFee: breakdown.PaymentProcessingFee.InexactFloat64(),
		EstimatedShipping:    breakdown.ShippingCost.InexactFloat64(),
		PackagingCost:        breakdown.PackagingCost.InexactFloat64(),
		NetProfit:            breakdown.NetProfit.InexactFloat64(),
		ProfitMargin:         breakdown.ProfitMargin.InexactFloat64(),
		SalesVolume:          res.SalesVolume,
		Profitability:        breakdown.Profitability,
	}

	if res.AvgSoldPrice != nil {
		result.AvgSoldPrice = res.AvgSoldPrice.InexactFloat64()
	} else {
		result.AvgSoldPrice = sale.InexactFloat64()
	}
	if res.ActiveListingPrice != nil {
		v := res.ActiveListingPrice.InexactFloat64()
		result.ActiveListingPrice = &v
	}
	if breakdown.ROI != nil {
		v := breakdown.ROI.InexactFloat64()
		result.ROI = &v
	}

	return result
}

// rankResults sorts by net profit descending, breaking ties by sales
// volume descending and then marketplace name ascending so the order is
// fully deterministic.
func rankResults(results []models.MarketplaceResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].NetProfit != results[j].NetProfit {
			return results[i].NetProfit > results[j].NetProfit
		}
		if results[i].SalesVolume != results[j].SalesVolume {
			return results[i].SalesVolume > results[j].SalesVolume
		}
		return results[i].Marketplace < results[j].Marketplace
	})
}

// firstListingImage picks the first listing image among contributing
// results, sold listings first.
func firstListingImage(results []*models.ScrapeResult) *string {
	for _, res := range results {
		for _, l := range res.SoldListings {
			if l.ImageURL != "" {
				img := l.ImageURL
				return &img
			}
		}
		for _, l := range res.ActiveListings {
			if l.ImageURL != "" {
				img := l.ImageURL
				return &img
			}
		}
	}
	return nil
}
