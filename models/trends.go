package models

// PricePoint is a single dated price in a trend series.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// MarketplaceTrend summarizes one marketplace's price history for an item.
type MarketplaceTrend struct {
	Data    []PricePoint `json:"data"`
	Current float64      `json:"current"`
	High    float64      `json:"high"`
	Low     float64      `json:"low"`
	Avg     float64      `json:"avg"`
}

// TrendVolume carries sale-count statistics for the requested period.
type TrendVolume struct {
	TotalSalesPeriod int     `json:"total_sales_period"`
	AvgDailySales    float64 `json:"avg_daily_sales"`
}

// TrendResponse is the payload of GET /trends/:item_id.
type TrendResponse struct {
	ItemID         string                      `json:"item_id"`
	ItemName       string                      `json:"item_name"`
	Period         string                      `json:"period"`
	CurrentPrice   float64                     `json:"current_price"`
	PriceChangePct float64                     `json:"price_change_pct"`
	Trend          string                      `json:"trend"`
	Marketplaces   map[string]MarketplaceTrend `json:"marketplaces"`
	Volume         TrendVolume                 `json:"volume"`
}
