package scrapers

import (
	"context"
	"log"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
)

// Scraper is the uniform contract every marketplace adapter implements.
// Marketplace() is the internal key matching the fee schedule ("ebay"),
// DisplayName() the human-readable form ("eBay"). Scrape never returns a
// nil result: failures are reported through ScrapeResult.Status so the
// orchestrator can treat all adapters uniformly.
type Scraper interface {
	Marketplace() string
	DisplayName() string
	Scrape(ctx context.Context, query, condition string) *models.ScrapeResult
}

// Registry holds the enabled marketplace scrapers. It is constructed once
// at startup and injected into the analyzer, never accessed as a global.
type Registry struct {
	scrapers []Scraper
	byKey    map[string]Scraper
}

// NewRegistry builds scrapers for every marketplace enabled in config.
// Unknown marketplace keys are skipped with a warning.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{byKey: make(map[string]Scraper)}

	for _, key := range cfg.EnabledMarketplaces {
		var s Scraper
		switch key {
		case "ebay":
			s = newEbayScraper(cfg)
		case "tcgplayer":
			s = newTcgplayerScraper(cfg)
		case "mercari":
			s = newMercariScraper(cfg)
		default:
			log.Printf("[scrapers] ⚠️  Unknown marketplace %q in MARKETPLACES, skipping", key)
			continue
		}
		r.register(s)
	}

	return r
}

// NewRegistryWith builds a registry from explicit scrapers, bypassing
// config. Intended for wiring custom adapters.
func NewRegistryWith(scrapers ...Scraper) *Registry {
	r := &Registry{byKey: make(map[string]Scraper)}
	for _, s := range scrapers {
		r.register(s)
	}
	return r
}

func (r *Registry) register(s Scraper) {
	if _, exists := r.byKey[s.Marketplace()]; exists {
		return
	}
	r.byKey[s.Marketplace()] = s
	r.scrapers = append(r.scrapers, s)
}

// All returns the registered scrapers in registration order.
func (r *Registry) All() []Scraper {
	return r.scrapers
}

// Get returns the scraper for a marketplace key.
func (r *Registry) Get(marketplace string) (Scraper, bool) {
	s, ok := r.byKey[marketplace]
	return s, ok
}

// Len returns the number of registered scrapers.
func (r *Registry) Len() int {
	return len(r.scrapers)
}
