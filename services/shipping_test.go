package services

import "testing"

func TestEstimateShippingOrder(t *testing.T) {
	estimates := EstimateShipping(8)
	if len(estimates) != 3 {
		t.Fatalf("got %d estimates, want 3", len(estimates))
	}
	for i := 1; i < len(estimates); i++ {
		if estimates[i].Cost.LessThan(estimates[i-1].Cost) {
			t.Errorf("estimates not sorted cheapest first: %s before %s",
				estimates[i-1].Cost, estimates[i].Cost)
		}
	}
}

func TestCheapestShipping(t *testing.T) {
	tests := []struct {
		name        string
		weightOz    float64
		wantService string
		wantCost    string
	}{
		{
			name:        "light package rides first class",
			weightOz:    8,
			wantService: "USPS First Class",
			wantCost:    "4.70",
		},
		{
			name:        "first class cutoff at 15.99oz",
			weightOz:    15.99,
			wantService: "USPS First Class",
			wantCost:    "5.90",
		},
		{
			name:        "default one pound falls to priority",
			weightOz:    16,
			wantService: "USPS Priority Mail",
			wantCost:    "8.80",
		},
		{
			name:        "heavy package stays on priority",
			weightOz:    80,
			wantService: "USPS Priority Mail",
			wantCost:    "12.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheapestShipping(tt.weightOz)
			if got.Service != tt.wantService {
				t.Errorf("service = %q, want %q", got.Service, tt.wantService)
			}
			if !got.Cost.Equal(dec(tt.wantCost)) {
				t.Errorf("cost = %s, want %s", got.Cost, tt.wantCost)
			}
		})
	}
}
