package scrapers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/config"
	"github.com/profiteer-io/profiteer-api/models"
)

const (
	mercariSearchURL = "https://www.mercari.com/search/"
	mercariItemURL   = "https://www.mercari.com/us/item/%s/"
)

// mercariScraper pulls sold and active items from Mercari search.
//
// Mercari renders client-side, so extraction is fragile by nature. The
// Next.js __NEXT_DATA__ blob is tried first, then plain HTML cards. A
// single retry only: Mercari is aggressive about anti-bot blocking.
type mercariScraper struct {
	client *client
}

func newMercariScraper(cfg *config.Config) *mercariScraper {
	retries := cfg.ScrapeMaxRetries
	if retries > 1 {
		retries = 1
	}
	return &mercariScraper{
		client: newClient("Mercari", 20*time.Second, retries, cfg.ScrapeBaseDelay),
	}
}

func (s *mercariScraper) Marketplace() string { return "mercari" }
func (s *mercariScraper) DisplayName() string { return "Mercari" }

func (s *mercariScraper) Scrape(ctx context.Context, query, condition string) *models.ScrapeResult {
	sold, err := s.fetchListings(ctx, query, condition, "sold_out")
	if err != nil {
		return failedResult(s.Marketplace(), s.DisplayName(), classifyError(err), err.Error())
	}

	active, err := s.fetchListings(ctx, query, condition, "on_sale")
	if err != nil {
		if len(sold) == 0 {
			return failedResult(s.Marketplace(), s.DisplayName(), classifyError(err), err.Error())
		}
		active = nil
	}

	return buildResult(s.Marketplace(), s.DisplayName(), sold, active)
}

func (s *mercariScraper) fetchListings(ctx context.Context, query, condition, status string) ([]models.ScrapedListing, error) {
	params := url.Values{}
	params.Set("keyword", query)
	params.Set("status", status)
	if condition == models.ConditionNew {
		params.Set("itemCondition", "1") // New / Unused
	}

	html, err := s.client.fetch(ctx, mercariSearchURL, params)
	if err != nil {
		return nil, err
	}

	doc, err := parseDoc(html)
	if err != nil {
		return nil, err
	}

	sold := status == "sold_out"
	if listings := s.extractFromNextData(doc, sold); len(listings) > 0 {
		return listings, nil
	}
	return s.extractFromHTML(doc), nil
}

// mercariItem covers the field variants Mercari has shipped for search
// result items across frontend versions.
// Numeric fields are RawMessage because Mercari has shipped them both as
// JSON numbers and as strings; a strict type would abort the whole decode.
type mercariItem struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Price     json.RawMessage `json:"price"`
	ItemPrice json.RawMessage `json:"itemPrice"`
	ImageURL  string          `json:"imageUrl"`
	Updated   json.RawMessage `json:"updated"`
	SoldAt    json.RawMessage `json:"soldAt"`
	Condition json.RawMessage `json:"itemCondition"`
}

// extractFromNextData pulls listings out of the __NEXT_DATA__ SSR blob.
func (s *mercariScraper) extractFromNextData(doc *goquery.Document, sold bool) []models.ScrapedListing {
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil
	}

	var payload struct {
		Props struct {
			PageProps struct {
				SearchResults []mercariItem `json:"searchResults"`
				Items         []mercariItem `json:"items"`
				Data          struct {
					Search struct {
						ItemsList []mercariItem `json:"itemsList"`
					} `json:"search"`
				} `json:"data"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	items := payload.Props.PageProps.SearchResults
	if len(items) == 0 {
		items = payload.Props.PageProps.Items
	}
	if len(items) == 0 {
		items = payload.Props.PageProps.Data.Search.ItemsList
	}
	if len(items) > maxListingsPerPage {
		items = items[:maxListingsPerPage]
	}

	var listings []models.ScrapedListing
	for _, item := range items {
		listing, ok := s.convertItem(item, sold)
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	return listings
}

func (s *mercariScraper) convertItem(item mercariItem, sold bool) (models.ScrapedListing, bool) {
	var listing models.ScrapedListing

	name := item.Name
	if name == "" {
		name = item.Title
	}
	if name == "" {
		return listing, false
	}

	price := rawToDecimal(item.Price)
	if price == nil {
		price = rawToDecimal(item.ItemPrice)
	}
	if price == nil || !price.IsPositive() {
		return listing, false
	}

	listing.Title = name
	listing.Price = *price
	listing.ImageURL = item.ImageURL
	listing.Condition = parseMercariCondition(item.Condition)

	id := item.ID
	if id == "" {
		id = item.ItemID
	}
	if id != "" {
		listing.URL = fmt.Sprintf(mercariItemURL, id)
	}

	if sold {
		unix := rawToInt64(item.SoldAt)
		if unix == 0 {
			unix = rawToInt64(item.Updated)
		}
		if unix > 0 {
			t := time.Unix(unix, 0).UTC()
			listing.SoldDate = &t
		}
	}

	return listing, true
}

// extractFromHTML is the fallback parse over rendered item cards. Card
// markup varies between Mercari frontend versions, hence the selector
// cascade.
func (s *mercariScraper) extractFromHTML(doc *goquery.Document) []models.ScrapedListing {
	cards := doc.Find("[data-testid='ItemCell']")
	if cards.Length() == 0 {
		cards = doc.Find("[class*='ItemCell']")
	}
	if cards.Length() == 0 {
		cards = doc.Find("[class*='SearchResultItem']")
	}
	if cards.Length() == 0 {
		return nil
	}

	var listings []models.ScrapedListing
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxListingsPerPage {
			return false
		}

		name := firstText(card, "[data-testid='ItemName']", "[class*='ItemName']", "span[class*='name']", "p")
		if name == "" {
			return true
		}

		priceText := firstText(card, "[data-testid='ItemPrice']", "[class*='ItemPrice']", "[class*='price']")
		price := parsePriceText(priceText)
		if price == nil || !price.IsPositive() {
			return true
		}

		listing := models.ScrapedListing{Title: name, Price: *price}
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				href = "https://www.mercari.com" + href
			}
			listing.URL = href
		}
		if img := card.Find("img").First(); img.Length() > 0 {
			listing.ImageURL = firstAttr(img, "src", "data-src")
		}

		listings = append(listings, listing)
		return true
	})
	return listings
}

func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, sl := range selectors {
		if text := strings.TrimSpace(sel.Find(sl).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// rawToDecimal parses a raw JSON value ("239.99" or 239.99) as a decimal.
func rawToDecimal(raw json.RawMessage) *decimal.Decimal {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// rawToInt64 parses a raw JSON value as a unix timestamp, 0 on failure.
func rawToInt64(raw json.RawMessage) int64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseMercariCondition handles itemCondition arriving as either a plain
// string or an object with a name field.
func parseMercariCondition(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asObject struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.Name
	}
	return ""
}
