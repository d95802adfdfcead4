package models

// Item conditions accepted by the analyzer. These map onto per-marketplace
// search filters inside each scraper.
const (
	ConditionNew         = "new"
	ConditionOpenBox     = "open_box"
	ConditionRefurbished = "refurbished"
	ConditionUsed        = "used"
	ConditionForParts    = "for_parts"
)

// AnalyzeRequest is the body of POST /analyzer/analyze. Optional numeric
// fields are pointers so that "absent" and "zero" stay distinguishable.
type AnalyzeRequest struct {
	Query         string   `json:"query" binding:"required"`
	PurchasePrice *float64 `json:"purchase_price" binding:"omitempty,gte=0"`
	Condition     string   `json:"condition" binding:"omitempty,oneof=new open_box refurbished used for_parts"`
	WeightOz      *float64 `json:"weight_oz" binding:"omitempty,gt=0"`
	ShippingCost  *float64 `json:"shipping_cost" binding:"omitempty,gte=0"`
	PackagingCost *float64 `json:"packaging_cost" binding:"omitempty,gte=0"`
}

// MarketplaceResult is one marketplace's profitability breakdown in the
// response. ROI is null when no purchase price was supplied.
type MarketplaceResult struct {
	Marketplace          string   `json:"marketplace"`
	AvgSoldPrice         float64  `json:"avg_sold_price"`
	ActiveListingPrice   *float64 `json:"active_listing_price"`
	PlatformFee          float64  `json:"platform_fee"`
	PaymentProcessingFee float64  `json:"payment_processing_fee"`
	EstimatedShipping    float64  `json:"estimated_shipping"`
	PackagingCost        float64  `json:"packaging_cost"`
	NetProfit            float64  `json:"net_profit"`
	ProfitMargin         float64  `json:"profit_margin"`
	ROI                  *float64 `json:"roi"`
	SalesVolume          int      `json:"sales_volume"`
	Profitability        string   `json:"profitability"`
}

// AnalyzeResponse is the full analyzer payload. Marketplaces is sorted by
// net profit descending; BestMarketplace/BestProfit mirror its first entry.
type AnalyzeResponse struct {
	ItemName        string              `json:"item_name"`
	ItemImage       *string             `json:"item_image"`
	PurchasePrice   float64             `json:"purchase_price"`
	BestMarketplace string              `json:"best_marketplace"`
	BestProfit      float64             `json:"best_profit"`
	Marketplaces    []MarketplaceResult `json:"marketplaces"`
}

// MarketplaceInfo describes one supported marketplace for the metadata
// endpoint.
type MarketplaceInfo struct {
	Marketplace           string  `json:"marketplace"`
	DisplayName           string  `json:"display_name"`
	SellerFeePct          float64 `json:"seller_fee_pct"`
	PaymentProcessingPct  float64 `json:"payment_processing_pct"`
	PaymentProcessingFlat float64 `json:"payment_processing_flat"`
}
