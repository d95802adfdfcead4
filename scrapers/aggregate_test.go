package scrapers

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func listing(url, price string) models.ScrapedListing {
	return models.ScrapedListing{Title: "t", URL: url, Price: dec(price)}
}

func TestParsePriceText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // "" means nil
	}{
		{"plain price", "$74.99", "74.99"},
		{"with whitespace", "  $74.99  ", "74.99"},
		{"thousands separator", "$1,299.00", "1299.00"},
		{"no cents", "$45", "45"},
		{"range averages to midpoint", "$50.00 to $75.00", "62.50"},
		{"canadian dollars rejected", "C $74.99", ""},
		{"australian dollars rejected", "AU $12.50", ""},
		{"no dollar sign", "74.99", ""},
		{"empty", "", ""},
		{"free text", "Best Offer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePriceText(tt.input)
			if tt.want == "" {
				if got != nil {
					t.Errorf("parsePriceText(%q) = %s, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parsePriceText(%q) = nil, want %s", tt.input, tt.want)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("parsePriceText(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDedupeByURL(t *testing.T) {
	in := []models.ScrapedListing{
		listing("https://x/a", "10"),
		listing("https://x/b", "20"),
		listing("https://x/a", "10"), // same listing via both layouts
		listing("", "30"),
		listing("", "40"), // no URL, nothing to match on
	}

	out := dedupeByURL(in)
	if len(out) != 4 {
		t.Fatalf("got %d listings, want 4", len(out))
	}
	if out[0].URL != "https://x/a" || out[1].URL != "https://x/b" {
		t.Errorf("unexpected order after dedupe: %v", out)
	}
}

func TestBuildResultAggregates(t *testing.T) {
	sold := []models.ScrapedListing{
		listing("https://x/1", "10.00"),
		listing("https://x/2", "20.00"),
		listing("https://x/3", "40.00"),
		listing("https://x/4", "0"), // unpriced, must not count toward volume
	}
	active := []models.ScrapedListing{
		listing("https://x/5", "15.00"),
		listing("https://x/6", "25.00"),
	}

	r := buildResult("ebay", "eBay", sold, active)

	if r.Status != models.StatusOK {
		t.Fatalf("status = %s, want %s", r.Status, models.StatusOK)
	}
	if r.SalesVolume != 3 {
		t.Errorf("SalesVolume = %d, want 3", r.SalesVolume)
	}
	if r.AvgSoldPrice == nil || !r.AvgSoldPrice.Equal(dec("23.33")) {
		t.Errorf("AvgSoldPrice = %v, want 23.33", r.AvgSoldPrice)
	}
	if r.MedianSoldPrice == nil || !r.MedianSoldPrice.Equal(dec("20.00")) {
		t.Errorf("MedianSoldPrice = %v, want 20.00", r.MedianSoldPrice)
	}
	// Even count median is the average of the middle two.
	if r.ActiveListingPrice == nil || !r.ActiveListingPrice.Equal(dec("20.00")) {
		t.Errorf("ActiveListingPrice = %v, want 20.00", r.ActiveListingPrice)
	}
}

func TestBuildResultEmpty(t *testing.T) {
	r := buildResult("mercari", "Mercari", nil, nil)
	if r.Status != models.StatusEmpty {
		t.Errorf("status = %s, want %s", r.Status, models.StatusEmpty)
	}
	if r.AvgSoldPrice != nil || r.ActiveListingPrice != nil {
		t.Error("empty result should carry no price aggregates")
	}
}

func TestBuildResultActiveOnly(t *testing.T) {
	active := []models.ScrapedListing{listing("https://x/1", "99.99")}
	r := buildResult("tcgplayer", "TCGPlayer", nil, active)

	if r.Status != models.StatusOK {
		t.Fatalf("status = %s, want %s", r.Status, models.StatusOK)
	}
	if r.SalesVolume != 0 {
		t.Errorf("SalesVolume = %d, want 0", r.SalesVolume)
	}
	if r.AvgSoldPrice != nil {
		t.Errorf("AvgSoldPrice = %s, want nil with no sold listings", r.AvgSoldPrice)
	}
	if r.ActiveListingPrice == nil || !r.ActiveListingPrice.Equal(dec("99.99")) {
		t.Errorf("ActiveListingPrice = %v, want 99.99", r.ActiveListingPrice)
	}
}
