package services

import (
	"github.com/shopspring/decimal"

	"github.com/profiteer-io/profiteer-api/config"
)

// Profitability tiers assigned from profit margin.
const (
	ProfitabilityStrong   = "strong"
	ProfitabilityMarginal = "marginal"
	ProfitabilityLoss     = "loss"
)

// FeeSchedule describes a marketplace's seller-side fees: a percentage of
// the sale price plus an optional payment-processing percentage and flat
// component.
type FeeSchedule struct {
	DisplayName          string
	SellerFeePct         decimal.Decimal
	PaymentProcessingPct decimal.Decimal
	PaymentFlat          decimal.Decimal
}

var marketplaceFees = map[string]FeeSchedule{
	"ebay": {
		DisplayName:          "eBay",
		SellerFeePct:         decimal.NewFromFloat(0.1325),
		PaymentProcessingPct: decimal.NewFromFloat(0.0299),
		PaymentFlat:          decimal.NewFromFloat(0.49),
	},
	"amazon": {
		DisplayName:  "Amazon",
		SellerFeePct: decimal.NewFromFloat(0.15),
	},
	"mercari": {
		DisplayName:          "Mercari",
		SellerFeePct:         decimal.NewFromFloat(0.10),
		PaymentProcessingPct: decimal.NewFromFloat(0.029),
		PaymentFlat:          decimal.NewFromFloat(0.50),
	},
	"stockx": {
		DisplayName:          "StockX",
		SellerFeePct:         decimal.NewFromFloat(0.095),
		PaymentProcessingPct: decimal.NewFromFloat(0.03),
	},
	"tcgplayer": {
		DisplayName:          "TCGPlayer",
		SellerFeePct:         decimal.NewFromFloat(0.1089),
		PaymentProcessingPct: decimal.NewFromFloat(0.025),
		PaymentFlat:          decimal.NewFromFloat(0.25),
	},
	"whatnot": {
		DisplayName:          "Whatnot",
		SellerFeePct:         decimal.NewFromFloat(0.099),
		PaymentProcessingPct: decimal.NewFromFloat(0.029),
		PaymentFlat:          decimal.NewFromFloat(0.30),
	},
	"facebook": {
		DisplayName:  "Facebook Marketplace",
		SellerFeePct: decimal.NewFromFloat(0.05),
	},
	"craigslist": {
		DisplayName: "Craigslist",
	},
}

// FeeScheduleFor returns the fee schedule for a marketplace key, falling
// back to eBay's schedule for unknown marketplaces.
func FeeScheduleFor(marketplace string) FeeSchedule {
	if fees, ok := marketplaceFees[marketplace]; ok {
		return fees
	}
	return marketplaceFees["ebay"]
}

// ProfitBreakdown is the output of the fee and profit calculation. All
// components are already rounded to cents, so
// NetProfit = SalePrice − PlatformFee − PaymentProcessingFee −
// ShippingCost − PackagingCost − PurchasePrice holds exactly.
type ProfitBreakdown struct {
	PlatformFee          decimal.Decimal
	PaymentProcessingFee decimal.Decimal
	ShippingCost         decimal.Decimal
	PackagingCost        decimal.Decimal
	TotalCosts           decimal.Decimal
	NetProfit            decimal.Decimal
	ProfitMargin         decimal.Decimal
	ROI                  *decimal.Decimal
	Profitability        string
}

// ProfitCalculator computes per-marketplace profit breakdowns. The tier
// thresholds come from config.
type ProfitCalculator struct {
	strongMargin   decimal.Decimal
	marginalMargin decimal.Decimal
}

func NewProfitCalculator(cfg *config.Config) *ProfitCalculator {
	return &ProfitCalculator{
		strongMargin:   decimal.NewFromFloat(cfg.StrongMarginPct),
		marginalMargin: decimal.NewFromFloat(cfg.MarginalMarginPct),
	}
}

var oneHundred = decimal.NewFromInt(100)

// Compute derives the full profit breakdown for one marketplace sale.
// salePrice must be positive. purchasePrice nil means unknown: costs are
// computed as if it were zero and ROI is left nil rather than dividing by
// zero.
func (pc *ProfitCalculator) Compute(marketplace string, salePrice decimal.Decimal, purchasePrice *decimal.Decimal, shippingCost, packagingCost decimal.Decimal) ProfitBreakdown {
	fees := FeeScheduleFor(marketplace)

	platformFee := salePrice.Mul(fees.SellerFeePct).Round(2)
	paymentFee := salePrice.Mul(fees.PaymentProcessingPct).Add(fees.PaymentFlat).Round(2)
	shipping := shippingCost.Round(2)
	packaging := packagingCost.Round(2)

	purchase := decimal.Zero
	if purchasePrice != nil {
		purchase = purchasePrice.Round(2)
	}

	totalCosts := purchase.Add(platformFee).Add(paymentFee).Add(shipping).Add(packaging)
	netProfit := salePrice.Sub(totalCosts)

	margin := decimal.Zero
	if salePrice.IsPositive() {
		margin = netProfit.Div(salePrice).Mul(oneHundred).Round(2)
	}

	var roi *decimal.Decimal
	if purchase.IsPositive() {
		r := netProfit.Div(purchase).Mul(oneHundred).Round(2)
		roi = &r
	}

	return ProfitBreakdown{
		PlatformFee:          platformFee,
		PaymentProcessingFee: paymentFee,
		ShippingCost:         shipping,
		PackagingCost:        packaging,
		TotalCosts:           totalCosts,
		NetProfit:            netProfit,
		ProfitMargin:         margin,
		ROI:                  roi,
		Profitability:        pc.classify(margin),
	}
}

func (pc *ProfitCalculator) classify(margin decimal.Decimal) string {
	switch {
	case margin.GreaterThanOrEqual(pc.strongMargin):
		return ProfitabilityStrong
	case margin.GreaterThanOrEqual(pc.marginalMargin):
		return ProfitabilityMarginal
	default:
		return ProfitabilityLoss
	}
}
