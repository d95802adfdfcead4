package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is the canonical product record. Identity is established by a
// case-insensitive name match; items are created on first analysis of an
// unseen query and never deleted here.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UPC         string    `json:"upc,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceObservation is one externally observed price point. Rows are
// append-only; they accumulate per item/marketplace and feed trend analysis.
type PriceObservation struct {
	ItemID      string          `json:"item_id"`
	Marketplace string          `json:"marketplace"`
	Price       decimal.Decimal `json:"price"`
	Condition   string          `json:"condition,omitempty"`
	SoldDate    *time.Time      `json:"sold_date,omitempty"`
	RecordedAt  time.Time       `json:"recorded_at"`
}
