// Package pricing implements the owner subscription tariff grid and the
// fixed client price list. Amounts are XAF.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Owner tariff grid: a flat base plus a per-square-meter rate that
// drops across four area tiers. Annual billing carries a 10% discount.
const (
	BasePrice      = 1000.0
	AnnualDiscount = 0.9

	tier1MaxArea = 1000.0
	tier2MaxArea = 5000.0
	tier3MaxArea = 10000.0

	tier1Rate = 2.0
	tier2Rate = 1.5
	tier3Rate = 1.0
	tier4Rate = 0.5
)

// ErrInvalidArea indicates a non-positive declared area.
var ErrInvalidArea = errors.New("declared area must be positive")

// OwnerPricing is the detailed tariff computation for a declared area.
type OwnerPricing struct {
	TierName        string  `json:"tierName"`
	TierDescription string  `json:"tierDescription"`
	Calculation     string  `json:"calculation"`
	AreaM2          float64 `json:"areaM2"`
	PricePerM2      float64 `json:"pricePerM2"`
	BasePrice       float64 `json:"basePrice"`
	MonthlyPrice    float64 `json:"monthlyPrice"`
	AnnualPrice     float64 `json:"annualPrice"`
	AnnualSavings   float64 `json:"annualSavings"`
}

// ClientPlan is one entry of the fixed client price list.
type ClientPlan struct {
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	Price       float64 `json:"price"`
	Savings     float64 `json:"savings,omitempty"`
}

// ForOwner computes the owner tariff for a declared area in m².
// Monthly and annual prices are rounded up to whole currency units;
// the annual discount applies before rounding.
func ForOwner(areaM2 float64) (OwnerPricing, error) {
	if areaM2 <= 0 {
		return OwnerPricing{}, fmt.Errorf("%w: got %f", ErrInvalidArea, areaM2)
	}

	var rate float64
	var tierName, tierDescription string
	switch {
	case areaM2 <= tier1MaxArea:
		rate = tier1Rate
		tierName = "Tier 1 (0-1000 m²)"
		tierDescription = "Standard rate for small parcels"
	case areaM2 <= tier2MaxArea:
		rate = tier2Rate
		tierName = "Tier 2 (1001-5000 m²)"
		tierDescription = "Reduced rate for medium parcels"
	case areaM2 <= tier3MaxArea:
		rate = tier3Rate
		tierName = "Tier 3 (5001-10000 m²)"
		tierDescription = "Preferential rate for large parcels"
	default:
		rate = tier4Rate
		tierName = "Tier 4 (over 10000 m²)"
		tierDescription = "Bulk rate for very large parcels"
	}

	monthly := BasePrice + areaM2*rate
	annual := monthly * 12 * AnnualDiscount

	monthlyRounded := math.Ceil(monthly)
	annualRounded := math.Ceil(annual)

	return OwnerPricing{
		AreaM2:          areaM2,
		TierName:        tierName,
		TierDescription: tierDescription,
		BasePrice:       BasePrice,
		PricePerM2:      rate,
		MonthlyPrice:    monthlyRounded,
		AnnualPrice:     annualRounded,
		AnnualSavings:   math.Ceil(monthly*12 - annual),
		Calculation: fmt.Sprintf("%.0f XAF + (%.0f m² × %.1f XAF/m²) = %.0f XAF/month",
			BasePrice, areaM2, rate, monthlyRounded),
	}, nil
}

// ForClient returns the fixed client price grid, keyed by zone
// ("africa", "international") then by period ("monthly", "annual").
func ForClient() map[string]map[string]ClientPlan {
	return map[string]map[string]ClientPlan{
		"africa": {
			"monthly": {Price: 5000, Currency: "XAF", Description: "Full platform access"},
			"annual":  {Price: 50000, Currency: "XAF", Description: "Two months free", Savings: 10000},
		},
		"international": {
			"monthly": {Price: 50000, Currency: "XAF", Description: "Full platform access"},
			"annual":  {Price: 500000, Currency: "XAF", Description: "Two months free", Savings: 100000},
		},
	}
}
