package scrapers

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/models"
)

var (
	dollarAmountRe  = regexp.MustCompile(`\$([0-9,]+\.?\d*)`)
	foreignDollarRe = regexp.MustCompile(`^[A-Z]{1,3}\s*\$`)
	two             = decimal.NewFromInt(2)
)

// maxListingsPerPage caps how many cards a single parse keeps.
const maxListingsPerPage = 50

// parseDoc wraps an HTML body in a goquery document.
func parseDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// parsePriceText extracts a USD price from marketplace price text.
// Handles "$74.99", "$50.00 to $75.00" (averaged), and rejects non-USD
// forms like "C $74.99". Returns nil when no usable amount is found.
func parsePriceText(text string) *decimal.Decimal {
	text = strings.TrimSpace(text)
	if foreignDollarRe.MatchString(text) {
		return nil
	}

	matches := dollarAmountRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sum := decimal.Zero
	count := 0
	for _, m := range matches {
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		sum = sum.Add(amount)
		count++
	}
	if count == 0 {
		return nil
	}

	// A range ("$50.00 to $75.00") averages to its midpoint.
	avg := sum.Div(decimal.NewFromInt(int64(count))).Round(2)
	return &avg
}

// dedupeByURL drops listings whose URL was already seen. The same listing
// can surface through both the current and legacy page layouts; without a
// URL there is nothing reliable to match on, so those are kept.
func dedupeByURL(listings []models.ScrapedListing) []models.ScrapedListing {
	seen := make(map[string]struct{}, len(listings))
	out := listings[:0]
	for _, l := range listings {
		if l.URL != "" {
			if _, dup := seen[l.URL]; dup {
				continue
			}
			seen[l.URL] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}

// buildResult assembles a ScrapeResult with price aggregates from parsed
// sold and active listings. Status is ok when at least one priced listing
// survived, empty otherwise.
func buildResult(marketplace, displayName string, sold, active []models.ScrapedListing) *models.ScrapeResult {
	sold = dedupeByURL(sold)
	active = dedupeByURL(active)

	soldPrices := positivePrices(sold)
	activePrices := positivePrices(active)

	result := &models.ScrapeResult{
		Marketplace:    marketplace,
		DisplayName:    displayName,
		SoldListings:   sold,
		ActiveListings: active,
		SalesVolume:    len(soldPrices),
		ScrapedAt:      time.Now().UTC(),
	}

	if len(soldPrices) == 0 && len(activePrices) == 0 {
		result.Status = models.StatusEmpty
		result.ErrorMessage = "no listings found"
		return result
	}

	result.Status = models.StatusOK
	if len(soldPrices) > 0 {
		avg := decimalAvg(soldPrices).Round(2)
		med := decimalMedian(soldPrices).Round(2)
		result.AvgSoldPrice = &avg
		result.MedianSoldPrice = &med
	}
	if len(activePrices) > 0 {
		med := decimalMedian(activePrices).Round(2)
		result.ActiveListingPrice = &med
	}
	return result
}

// failedResult reports a scrape that produced no listings at all.
func failedResult(marketplace, displayName string, status models.ScrapeStatus, msg string) *models.ScrapeResult {
	return &models.ScrapeResult{
		Marketplace:  marketplace,
		DisplayName:  displayName,
		Status:       status,
		ErrorMessage: msg,
		ScrapedAt:    time.Now().UTC(),
	}
}

func positivePrices(listings []models.ScrapedListing) []decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(listings))
	for _, l := range listings {
		if l.Price.IsPositive() {
			prices = append(prices, l.Price)
		}
	}
	return prices
}

func decimalAvg(prices []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}

func decimalMedian(prices []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(two)
}
