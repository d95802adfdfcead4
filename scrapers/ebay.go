package scrapers

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
)

const ebaySearchURL = "https://www.ebay.com/sch/i.html"

// eBay condition filter IDs.
var ebayConditionIDs = map[string]string{
	models.ConditionNew:         "1000",
	models.ConditionOpenBox:     "1500",
	models.ConditionRefurbished: "2500",
	models.ConditionUsed:        "3000",
	models.ConditionForParts:    "7000",
}

// Phantom header cards eBay injects into search results.
var ebaySkipTitles = map[string]struct{}{
	"shop on ebay":                 {},
	"results matching fewer words": {},
	"new listing":                  {},
}

var soldDateRe = regexp.MustCompile(`(?i)^sold\s+`)

// ebayScraper pulls sold and active listings from eBay search results.
// eBay's current card-based layout (.s-card) is tried first, with the
// legacy .s-item layout as a fallback for regional variants.
type ebayScraper struct {
	client *client
}

func newEbayScraper(cfg *config.Config) *ebayScraper {
	return &ebayScraper{
		client: newClient("eBay", 25*time.Second, cfg.ScrapeMaxRetries, cfg.ScrapeBaseDelay),
	}
}

func (s *ebayScraper) Marketplace() string { return "ebay" }
func (s *ebayScraper) DisplayName() string { return "eBay" }

func (s *ebayScraper) Scrape(ctx context.Context, query, condition string) *models.ScrapeResult {
	sold, err := s.fetchListings(ctx, query, condition, true)
	if err != nil {
		return failedResult(s.Marketplace(), s.DisplayName(), classifyError(err), err.Error())
	}

	active, err := s.fetchListings(ctx, query, condition, false)
	if err != nil {
		// Sold data alone is enough to price the item; active listings are
		// a bonus.
		if len(sold) == 0 {
			return failedResult(s.Marketplace(), s.DisplayName(), classifyError(err), err.Error())
		}
		active = nil
	}

	return buildResult(s.Marketplace(), s.DisplayName(), sold, active)
}

// fetchListings fetches and parses a single eBay search results page.
func (s *ebayScraper) fetchListings(ctx context.Context, query, condition string, soldOnly bool) ([]models.ScrapedListing, error) {
	params := url.Values{}
	params.Set("_nkw", query)
	params.Set("_sop", "12") // sort by end date, most recent first
	params.Set("_ipg", "60") // items per page

	if soldOnly {
		params.Set("LH_Complete", "1")
		params.Set("LH_Sold", "1")
	}
	if id, ok := ebayConditionIDs[condition]; ok {
		params.Set("LH_ItemCondition", id)
	}

	html, err := s.client.fetch(ctx, ebaySearchURL, params)
	if err != nil {
		return nil, err
	}

	doc, err := parseDoc(html)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(".s-card.s-card--horizontal")
	if cards.Length() > 0 {
		return s.parseCards(cards, soldOnly), nil
	}
	return s.parseLegacyItems(doc.Find(".s-item"), soldOnly), nil
}

// ---- Current card-based layout ----

func (s *ebayScraper) parseCards(cards *goquery.Selection, soldOnly bool) []models.ScrapedListing {
	var listings []models.ScrapedListing
	cards.Each(func(_ int, card *goquery.Selection) {
		if l, ok := s.parseCard(card, soldOnly); ok {
			listings = append(listings, l)
		}
	})
	return listings
}

func (s *ebayScraper) parseCard(card *goquery.Selection, soldOnly bool) (models.ScrapedListing, bool) {
	var listing models.ScrapedListing

	title := strings.TrimSpace(card.Find(".s-card__title").First().Text())
	if title == "" {
		return listing, false
	}
	if _, skip := ebaySkipTitles[strings.ToLower(title)]; skip {
		return listing, false
	}

	// Several price elements can coexist (sold price plus a strikethrough
	// original); take the first non-strikethrough one.
	var price *decimal.Decimal
	card.Find("[class*='s-card__price']").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		if strings.Contains(class, "strikethrough") {
			return true
		}
		if p := parsePriceText(el.Text()); p != nil && p.IsPositive() {
			price = p
			return false
		}
		return true
	})
	if price == nil {
		return listing, false
	}

	listing.Title = title
	listing.Price = *price
	listing.URL, _ = card.Find("a.s-card__link[href]").First().Attr("href")
	listing.Condition = strings.TrimSpace(card.Find(".s-card__subtitle").First().Text())

	if img := card.Find("img.s-card__image").First(); img.Length() > 0 {
		listing.ImageURL = firstAttr(img, "src", "data-defer-load", "data-src")
	}

	if soldOnly {
		caption := strings.TrimSpace(card.Find(".s-card__caption").First().Text())
		listing.SoldDate = parseEbaySoldDate(caption)
	}

	return listing, true
}

// ---- Legacy .s-item layout ----

func (s *ebayScraper) parseLegacyItems(items *goquery.Selection, soldOnly bool) []models.ScrapedListing {
	var listings []models.ScrapedListing
	items.Each(func(_ int, item *goquery.Selection) {
		if l, ok := s.parseLegacyItem(item, soldOnly); ok {
			listings = append(listings, l)
		}
	})
	return listings
}

func (s *ebayScraper) parseLegacyItem(item *goquery.Selection, soldOnly bool) (models.ScrapedListing, bool) {
	var listing models.ScrapedListing

	title := strings.TrimSpace(item.Find(".s-item__title").First().Text())
	if title == "" {
		return listing, false
	}
	if _, skip := ebaySkipTitles[strings.ToLower(title)]; skip {
		return listing, false
	}

	price := parsePriceText(item.Find(".s-item__price").First().Text())
	if price == nil || !price.IsPositive() {
		return listing, false
	}

	listing.Title = title
	listing.Price = *price
	listing.URL, _ = item.Find(".s-item__link").First().Attr("href")
	listing.Condition = strings.TrimSpace(item.Find(".SECONDARY_INFO").First().Text())

	if img := item.Find(".s-item__image-img").First(); img.Length() > 0 {
		listing.ImageURL = firstAttr(img, "src", "data-src")
	}

	if soldOnly {
		tag := strings.TrimSpace(item.Find(".s-item__title--tagblock .POSITIVE").First().Text())
		listing.SoldDate = parseEbaySoldDate(tag)
	}

	return listing, true
}

// ---- Shared helpers ----

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// parseEbaySoldDate parses "Sold  Feb 3, 2026" into a UTC timestamp.
func parseEbaySoldDate(text string) *time.Time {
	cleaned := strings.TrimSpace(soldDateRe.ReplaceAllString(text, ""))
	if cleaned == "" {
		return nil
	}

	for _, layout := range []string{"Jan 2, 2006", "Jan 2 2006"} {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}
