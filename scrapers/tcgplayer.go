package scrapers

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
)

const tcgplayerSearchURL = "https://www.tcgplayer.com/search/all/product"

// tcgplayerScraper pulls product cards from TCGPlayer search.
//
// TCGPlayer exposes a Market Price (proxy for average sold price) and a
// lowest listed price per product; individual sold listings are not
// available from search pages.
type tcgplayerScraper struct {
	client *client
}

func newTcgplayerScraper(cfg *config.Config) *tcgplayerScraper {
	return &tcgplayerScraper{
		client: newClient("TCGPlayer", 20*time.Second, cfg.ScrapeMaxRetries, cfg.ScrapeBaseDelay),
	}
}

func (s *tcgplayerScraper) Marketplace() string { return "tcgplayer" }
func (s *tcgplayerScraper) DisplayName() string { return "TCGPlayer" }

func (s *tcgplayerScraper) Scrape(ctx context.Context, query, condition string) *models.ScrapeResult {
	params := url.Values{}
	params.Set("q", query)
	params.Set("view", "grid")

	html, err := s.client.fetch(ctx, tcgplayerSearchURL, params)
	if err != nil {
		return failedResult(s.Marketplace(), s.DisplayName(), classifyError(err), err.Error())
	}

	doc, err := parseDoc(html)
	if err != nil {
		return failedResult(s.Marketplace(), s.DisplayName(), models.StatusParseError, err.Error())
	}

	cards := s.findProductCards(doc)
	if cards == nil || cards.Length() == 0 {
		if market, active := s.extractFromNextData(doc); len(market) > 0 || len(active) > 0 {
			return buildResult(s.Marketplace(), s.DisplayName(), market, active)
		}
		return failedResult(s.Marketplace(), s.DisplayName(), models.StatusEmpty, "no product cards found")
	}

	var marketPrices, activeListings []models.ScrapedListing
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxListingsPerPage {
			return false
		}
		market, active := s.parseProductCard(card)
		if market != nil {
			marketPrices = append(marketPrices, *market)
		}
		if active != nil {
			activeListings = append(activeListings, *active)
		}
		return true
	})

	// Market prices stand in for sold prices in the aggregates.
	return buildResult(s.Marketplace(), s.DisplayName(), marketPrices, activeListings)
}

// findProductCards walks the selector variants TCGPlayer has used for its
// search result grid.
func (s *tcgplayerScraper) findProductCards(doc *goquery.Document) *goquery.Selection {
	for _, sl := range []string{
		".search-result__product",
		"[class*='product-card']",
		".product-card",
		"[data-testid='product-card']",
	} {
		if cards := doc.Find(sl); cards.Length() > 0 {
			return cards
		}
	}
	return nil
}

// parseProductCard returns (marketPriceListing, activeListing); either may
// be nil.
func (s *tcgplayerScraper) parseProductCard(card *goquery.Selection) (*models.ScrapedListing, *models.ScrapedListing) {
	name := firstText(card,
		".search-result__product-name",
		"[class*='product-card__name']",
		".product-card__name",
		"h3",
		"[data-testid='product-name']",
	)
	if name == "" {
		return nil, nil
	}

	listingURL := ""
	if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		if strings.HasPrefix(href, "http") {
			listingURL = href
		} else {
			listingURL = "https://www.tcgplayer.com" + href
		}
	}

	imageURL := ""
	if img := card.Find("img").First(); img.Length() > 0 {
		imageURL = firstAttr(img, "src", "data-src")
	}

	var market, active *models.ScrapedListing
	if p := s.extractLabeledPrice(card, "market"); p != nil {
		market = &models.ScrapedListing{Title: name, Price: *p, URL: listingURL, ImageURL: imageURL}
	}
	if p := s.extractLabeledPrice(card, "list"); p != nil {
		active = &models.ScrapedListing{Title: name, Price: *p, URL: listingURL, ImageURL: imageURL}
	}

	// Cards without a labeled market price sometimes show a single bare
	// price; treat it as the market price.
	if market == nil && active == nil {
		if p := parsePriceText(card.Text()); p != nil {
			market = &models.ScrapedListing{Title: name, Price: *p, URL: listingURL, ImageURL: imageURL}
		}
	}

	return market, active
}

// extractLabeledPrice finds a price element whose class or label contains
// the given keyword ("market" or "list").
func (s *tcgplayerScraper) extractLabeledPrice(card *goquery.Selection, keyword string) *decimal.Decimal {
	var found *decimal.Decimal
	card.Find("[class*='price'], [class*='Price']").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		haystack := strings.ToLower(class + " " + el.Text())
		if !strings.Contains(haystack, keyword) {
			return true
		}
		if p := parsePriceText(el.Text()); p != nil && p.IsPositive() {
			found = p
			return false
		}
		return true
	})
	return found
}

// extractFromNextData is the fallback for when the grid is rendered purely
// client-side: product data still ships in the __NEXT_DATA__ blob.
func (s *tcgplayerScraper) extractFromNextData(doc *goquery.Document) ([]models.ScrapedListing, []models.ScrapedListing) {
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil, nil
	}

	var payload struct {
		Props struct {
			PageProps struct {
				SearchResults []struct {
					ProductName  string          `json:"productName"`
					ProductURL   string          `json:"productUrlName"`
					MarketPrice  json.RawMessage `json:"marketPrice"`
					LowestPrice  json.RawMessage `json:"lowestPrice"`
					ProductImage string          `json:"productImage"`
				} `json:"searchResults"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, nil
	}

	var market, active []models.ScrapedListing
	for i, product := range payload.Props.PageProps.SearchResults {
		if i >= maxListingsPerPage || product.ProductName == "" {
			continue
		}
		if p := rawToDecimal(product.MarketPrice); p != nil && p.IsPositive() {
			market = append(market, models.ScrapedListing{
				Title:    product.ProductName,
				Price:    *p,
				ImageURL: product.ProductImage,
			})
		}
		if p := rawToDecimal(product.LowestPrice); p != nil && p.IsPositive() {
			active = append(active, models.ScrapedListing{
				Title:    product.ProductName,
				Price:    *p,
				ImageURL: product.ProductImage,
			})
		}
	}
	return market, active
}
