package services

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ShippingEstimate is one carrier's estimated cost for a package weight.
type ShippingEstimate struct {
	Carrier string          `json:"carrier"`
	Service string          `json:"service"`
	Cost    decimal.Decimal `json:"cost"`
}

// Flat-rate tables by carrier. Base price plus a per-ounce component,
// modeled on published retail ground rates.
var (
	uspsFirstClassMaxOz = decimal.NewFromFloat(15.99)
	uspsFirstClassBase  = decimal.NewFromFloat(3.50)
	uspsFirstClassPerOz = decimal.NewFromFloat(0.15)
	uspsPriorityBase    = decimal.NewFromFloat(8.00)
	uspsPriorityPerOz   = decimal.NewFromFloat(0.05)

	upsGroundBase  = decimal.NewFromFloat(9.50)
	upsGroundPerOz = decimal.NewFromFloat(0.06)

	fedexGroundBase  = decimal.NewFromFloat(9.75)
	fedexGroundPerOz = decimal.NewFromFloat(0.06)
)

// EstimateShipping returns per-carrier estimates for the given weight,
// cheapest first.
func EstimateShipping(weightOz float64) []ShippingEstimate {
	w := decimal.NewFromFloat(weightOz)

	estimates := []ShippingEstimate{
		estimateUSPS(w),
		{Carrier: "UPS", Service: "UPS Ground", Cost: upsGroundBase.Add(w.Mul(upsGroundPerOz)).Round(2)},
		{Carrier: "FedEx", Service: "FedEx Ground", Cost: fedexGroundBase.Add(w.Mul(fedexGroundPerOz)).Round(2)},
	}

	sort.Slice(estimates, func(i, j int) bool {
		return estimates[i].Cost.LessThan(estimates[j].Cost)
	})
	return estimates
}

// CheapestShipping returns the lowest-cost carrier estimate for the weight.
func CheapestShipping(weightOz float64) ShippingEstimate {
	return EstimateShipping(weightOz)[0]
}

func estimateUSPS(w decimal.Decimal) ShippingEstimate {
	if w.LessThanOrEqual(uspsFirstClassMaxOz) {
		return ShippingEstimate{
			Carrier: "USPS",
			Service: "USPS First Class",
			Cost:    uspsFirstClassBase.Add(w.Mul(uspsFirstClassPerOz)).Round(2),
		}
	}
	return ShippingEstimate{
		Carrier: "USPS",
		Service: "USPS Priority Mail",
		Cost:    uspsPriorityBase.Add(w.Mul(uspsPriorityPerOz)).Round(2),
	}
}
