package settlement

import (
	"math/bits"
	"sort"
)

// SellerCommission is one seller's commission before any discount.
type SellerCommission struct {
	SellerID        string
	CommissionCents int64
}

// SellerDeduction is the discount share taken from one seller's commission.
type SellerDeduction struct {
	SellerID                string
	OriginalCommissionCents int64
	DeductionCents          int64
	AdjustedCommissionCents int64
}

// Allocation is the outcome of spreading a discount over commissions.
type Allocation struct {
	Deductions []SellerDeduction
	// AppliedCents is the part of the discount absorbed by commissions.
	AppliedCents int64
	// UnabsorbedCents is the part commissions could not cover; the platform
	// takes it out of shipping revenue.
	UnabsorbedCents int64
	// ShippingRevenueCents is the shipping fee left to the platform after the
	// unabsorbed part. It can be negative.
	ShippingRevenueCents int64
}

// AllocateDiscount spreads discountCents over the commissions in proportion
// to their size, using largest-remainder rounding so the deductions add up to
// the discount exactly. Ties go to the lower seller id. When the commissions
// cannot cover the discount every commission is zeroed and the rest is
// reported as unabsorbed. Deductions come back in the input order and the
// input slice is never modified.
func AllocateDiscount(commissions []SellerCommission, shippingFeeCents, discountCents int64) Allocation {
	out := Allocation{
		Deductions:           make([]SellerDeduction, len(commissions)),
		ShippingRevenueCents: shippingFeeCents,
	}
	var total int64
	for i, c := range commissions {
		commission := max(c.CommissionCents, 0)
		total += commission
		out.Deductions[i] = SellerDeduction{
			SellerID:                c.SellerID,
			OriginalCommissionCents: commission,
			AdjustedCommissionCents: commission,
		}
	}
	if discountCents <= 0 {
		return out
	}

	if total < discountCents {
		for i := range out.Deductions {
			d := &out.Deductions[i]
			d.DeductionCents = d.OriginalCommissionCents
			d.AdjustedCommissionCents = 0
		}
		out.AppliedCents = total
		out.UnabsorbedCents = discountCents - total
		out.ShippingRevenueCents = shippingFeeCents - out.UnabsorbedCents
		return out
	}

	weights := make([]weight, len(out.Deductions))
	for i, d := range out.Deductions {
		weights[i] = weight{key: d.SellerID, value: d.OriginalCommissionCents}
	}
	for i, share := range distribute(discountCents, weights) {
		d := &out.Deductions[i]
		d.DeductionCents = share
		d.AdjustedCommissionCents = d.OriginalCommissionCents - share
	}
	out.AppliedCents = discountCents
	return out
}

type weight struct {
	key   string
	value int64
}

// distribute splits amount over weights by largest remainder. Shares are
// returned in weight order and always sum to amount. A zero total weight puts
// everything on the lowest key.
func distribute(amount int64, weights []weight) []int64 {
	shares := make([]int64, len(weights))
	if amount <= 0 || len(weights) == 0 {
		return shares
	}

	var total uint64
	for _, w := range weights {
		if w.value > 0 {
			total += uint64(w.value)
		}
	}
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	if total == 0 {
		sort.SliceStable(order, func(a, b int) bool { return weights[order[a]].key < weights[order[b]].key })
		shares[order[0]] = amount
		return shares
	}

	remainders := make([]uint64, len(weights))
	leftover := amount
	for i, w := range weights {
		if w.value <= 0 {
			continue
		}
		// amount*w/total never exceeds amount, so the 128-bit quotient fits.
		hi, lo := bits.Mul64(uint64(amount), uint64(w.value))
		quo, rem := bits.Div64(hi, lo, total)
		shares[i] = int64(quo)
		remainders[i] = rem
		leftover -= int64(quo)
	}

	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := remainders[order[a]], remainders[order[b]]
		if ra != rb {
			return ra > rb
		}
		return weights[order[a]].key < weights[order[b]].key
	})
	for i := 0; leftover > 0; i = (i + 1) % len(order) {
		idx := order[i]
		if weights[idx].value <= 0 {
			continue
		}
		shares[idx]++
		leftover--
	}
	return shares
}
