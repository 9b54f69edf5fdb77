package settlement

import "github.com/shopspring/decimal"

// Tier boundaries on the unit price, in cents.
const (
	tierMidFloorCents     int64 = 30000
	tierHighFloorCents    int64 = 80000
	tierPremiumFloorCents int64 = 200000
)

var (
	feeRateBase    = decimal.RequireFromString("0.18")
	feeRateMid     = decimal.RequireFromString("0.15")
	feeRateHigh    = decimal.RequireFromString("0.12")
	feeRatePremium = decimal.RequireFromString("0.10")
)

// FeeRateFor returns the platform commission rate for an item priced at
// unitPriceCents.
func FeeRateFor(unitPriceCents int64) decimal.Decimal {
	switch {
	case unitPriceCents >= tierPremiumFloorCents:
		return feeRatePremium
	case unitPriceCents >= tierHighFloorCents:
		return feeRateHigh
	case unitPriceCents >= tierMidFloorCents:
		return feeRateMid
	default:
		return feeRateBase
	}
}

// ItemSplit is how one line item's total divides between seller and platform.
type ItemSplit struct {
	TotalCents      int64
	FeeRate         decimal.Decimal
	CommissionCents int64
	EarningsCents   int64
}

// SplitItem applies the tier rate to the item total. Commission is rounded
// half away from zero to the cent and earnings take the rest, so the two
// always add back to the total.
func SplitItem(unitPriceCents int64, quantity int) ItemSplit {
	if unitPriceCents < 0 || quantity <= 0 {
		return ItemSplit{FeeRate: FeeRateFor(unitPriceCents)}
	}
	total := unitPriceCents * int64(quantity)
	rate := FeeRateFor(unitPriceCents)
	commission := decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
	return ItemSplit{
		TotalCents:      total,
		FeeRate:         rate,
		CommissionCents: commission,
		EarningsCents:   total - commission,
	}
}
