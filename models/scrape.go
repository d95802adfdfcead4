package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScrapeStatus classifies the outcome of a single marketplace scrape.
type ScrapeStatus string

const (
	StatusOK          ScrapeStatus = "ok"
	StatusEmpty       ScrapeStatus = "empty"
	StatusBlocked     ScrapeStatus = "blocked"
	StatusRateLimited ScrapeStatus = "rate_limited"
	StatusTimeout     ScrapeStatus = "timeout"
	StatusParseError  ScrapeStatus = "parse_error"
)

// ScrapedListing is a single listing or completed sale pulled from a
// marketplace search page.
type ScrapedListing struct {
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Condition string          `json:"condition,omitempty"`
	SoldDate  *time.Time      `json:"sold_date,omitempty"`
	URL       string          `json:"url,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// ScrapeResult is the aggregated outcome of one marketplace scrape.
// Marketplace is the internal key matching the fee schedule ("ebay"),
// DisplayName the human-readable form ("eBay").
type ScrapeResult struct {
	Marketplace        string           `json:"marketplace"`
	DisplayName        string           `json:"display_name"`
	Status             ScrapeStatus     `json:"status"`
	SoldListings       []ScrapedListing `json:"sold_listings,omitempty"`
	ActiveListings     []ScrapedListing `json:"active_listings,omitempty"`
	AvgSoldPrice       *decimal.Decimal `json:"avg_sold_price,omitempty"`
	MedianSoldPrice    *decimal.Decimal `json:"median_sold_price,omitempty"`
	ActiveListingPrice *decimal.Decimal `json:"active_listing_price,omitempty"`
	SalesVolume        int              `json:"sales_volume"`
	ErrorMessage       string           `json:"error_message,omitempty"`
	ScrapedAt          time.Time        `json:"scraped_at"`
}

// SalePrice returns the price usable for profitability math: the average
// sold price when available, otherwise the active listing price.
func (r *ScrapeResult) SalePrice() *decimal.Decimal {
	if r.AvgSoldPrice != nil && r.AvgSoldPrice.IsPositive() {
		return r.AvgSoldPrice
	}
	if r.ActiveListingPrice != nil && r.ActiveListingPrice.IsPositive() {
		return r.ActiveListingPrice
	}
	return nil
}

// Contributing reports whether this result carries usable price data and
// should appear in the analysis response.
func (r *ScrapeResult) Contributing() bool {
	return r.Status == StatusOK && r.SalePrice() != nil
}
