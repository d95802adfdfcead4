package scrapers

import (
	"testing"
	"time"

	"github.com/profiteer-io/profiteer-api/config"
)

const ebayCardHTML = `
<ul>
  <li class="s-card s-card--horizontal">
    <div class="s-card__title">Shop on eBay</div>
    <span class="s-card__price">$20.00</span>
  </li>
  <li class="s-card s-card--horizontal">
    <a class="s-card__link" href="https://www.ebay.com/itm/111"><div class="s-card__title">Pokemon 151 Booster Bundle Sealed</div></a>
    <span class="s-card__price s-card__price--strikethrough">$59.99</span>
    <span class="s-card__price">$44.95</span>
    <div class="s-card__subtitle">Brand New</div>
    <div class="s-card__caption">Sold  Feb 3, 2026</div>
    <img class="s-card__image" data-defer-load="https://i.ebayimg.com/111.jpg">
  </li>
  <li class="s-card s-card--horizontal">
    <a class="s-card__link" href="https://www.ebay.com/itm/222"><div class="s-card__title">Pokemon 151 Booster Bundle</div></a>
    <span class="s-card__price">C $61.20</span>
  </li>
</ul>`

const ebayLegacyHTML = `
<ul>
  <li class="s-item">
    <a class="s-item__link" href="https://www.ebay.com/itm/333"><div class="s-item__title">Gameboy Color Teal</div></a>
    <span class="s-item__price">$50.00 to $70.00</span>
    <span class="SECONDARY_INFO">Pre-Owned</span>
    <img class="s-item__image-img" src="https://i.ebayimg.com/333.jpg">
  </li>
</ul>`

func TestParseEbayCards(t *testing.T) {
	doc, err := parseDoc(ebayCardHTML)
	if err != nil {
		t.Fatal(err)
	}

	s := newEbayScraper(&config.Config{})
	listings := s.parseCards(doc.Find(".s-card.s-card--horizontal"), true)

	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1 (phantom and non-USD cards skipped)", len(listings))
	}

	l := listings[0]
	if l.Title != "Pokemon 151 Booster Bundle Sealed" {
		t.Errorf("Title = %q", l.Title)
	}
	if !l.Price.Equal(dec("44.95")) {
		t.Errorf("Price = %s, want 44.95 (strikethrough original skipped)", l.Price)
	}
	if l.URL != "https://www.ebay.com/itm/111" {
		t.Errorf("URL = %q", l.URL)
	}
	if l.Condition != "Brand New" {
		t.Errorf("Condition = %q", l.Condition)
	}
	if l.ImageURL != "https://i.ebayimg.com/111.jpg" {
		t.Errorf("ImageURL = %q", l.ImageURL)
	}
	if l.SoldDate == nil {
		t.Fatal("SoldDate = nil")
	}
	if want := time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC); !l.SoldDate.Equal(want) {
		t.Errorf("SoldDate = %v, want %v", l.SoldDate, want)
	}
}

func TestParseEbayLegacyItems(t *testing.T) {
	doc, err := parseDoc(ebayLegacyHTML)
	if err != nil {
		t.Fatal(err)
	}

	s := newEbayScraper(&config.Config{})
	listings := s.parseLegacyItems(doc.Find(".s-item"), false)

	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	l := listings[0]
	if l.Title != "Gameboy Color Teal" {
		t.Errorf("Title = %q", l.Title)
	}
	if !l.Price.Equal(dec("60.00")) {
		t.Errorf("Price = %s, want 60.00 (midpoint of range)", l.Price)
	}
	if l.Condition != "Pre-Owned" {
		t.Errorf("Condition = %q", l.Condition)
	}
	if l.SoldDate != nil {
		t.Errorf("SoldDate = %v, want nil for active search", l.SoldDate)
	}
}

func TestParseEbaySoldDate(t *testing.T) {
	tests := []struct {
		input string
		want  string // "" means nil
	}{
		{"Sold  Feb 3, 2026", "2026-02-03"},
		{"Sold Dec 25, 2025", "2025-12-25"},
		{"sold Jan 2 2026", "2026-01-02"},
		{"Feb 3, 2026", "2026-02-03"},
		{"", ""},
		{"Sold recently", ""},
	}

	for _, tt := range tests {
		got := parseEbaySoldDate(tt.input)
		if tt.want == "" {
			if got != nil {
				t.Errorf("parseEbaySoldDate(%q) = %v, want nil", tt.input, got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("parseEbaySoldDate(%q) = nil, want %s", tt.input, tt.want)
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("parseEbaySoldDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
		}
	}
}
