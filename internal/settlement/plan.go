package settlement

import (
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
)

// SellerPlan is one seller's part of a settlement.
type SellerPlan struct {
	SellerID                uuid.UUID
	ItemTotalCents          int64
	EarningsCents           int64
	OriginalCommissionCents int64
	AdjustedCommissionCents int64
	DiscountShareCents      int64
	ShippingShareCents      int64
	UnabsorbedShareCents    int64
}

// PlatformAmountCents is the platform's net revenue from this seller's items.
func (p SellerPlan) PlatformAmountCents() int64 {
	return p.AdjustedCommissionCents + p.ShippingShareCents - p.UnabsorbedShareCents
}

// Plan is the full money split of an order, sellers ordered by id.
type Plan struct {
	Sellers              []SellerPlan
	SubtotalCents        int64
	ShippingFeeCents     int64
	DiscountCents        int64
	DiscountAppliedCents int64
	UnabsorbedCents      int64
}

func (p Plan) SellerEarningsCents() int64 {
	var total int64
	for _, s := range p.Sellers {
		total += s.EarningsCents
	}
	return total
}

func (p Plan) CommissionCents() int64 {
	var total int64
	for _, s := range p.Sellers {
		total += s.OriginalCommissionCents
	}
	return total
}

func (p Plan) AdjustedCommissionCents() int64 {
	var total int64
	for _, s := range p.Sellers {
		total += s.AdjustedCommissionCents
	}
	return total
}

func (p Plan) PlatformAmountCents() int64 {
	var total int64
	for _, s := range p.Sellers {
		total += s.PlatformAmountCents()
	}
	return total
}

// GrandTotalCents is what the buyer paid according to the split:
// subtotal + shipping - discount.
func (p Plan) GrandTotalCents() int64 {
	return p.SellerEarningsCents() + p.PlatformAmountCents()
}

// BuildPlan splits an order's items per seller, applies the tier commissions,
// spreads the discount over the commissions and shares the shipping fee by
// item-total weight.
func BuildPlan(items []models.OrderItem, shippingFeeCents, discountCents int64) Plan {
	bySeller := map[uuid.UUID]*SellerPlan{}
	plan := Plan{ShippingFeeCents: shippingFeeCents, DiscountCents: max(discountCents, 0)}
	for _, item := range items {
		split := SplitItem(item.UnitPriceCents, item.Quantity)
		sp, ok := bySeller[item.SellerID]
		if !ok {
			sp = &SellerPlan{SellerID: item.SellerID}
			bySeller[item.SellerID] = sp
		}
		sp.ItemTotalCents += split.TotalCents
		sp.EarningsCents += split.EarningsCents
		sp.OriginalCommissionCents += split.CommissionCents
		plan.SubtotalCents += split.TotalCents
	}

	plan.Sellers = make([]SellerPlan, 0, len(bySeller))
	for _, sp := range bySeller {
		sp.AdjustedCommissionCents = sp.OriginalCommissionCents
		plan.Sellers = append(plan.Sellers, *sp)
	}
	sort.Slice(plan.Sellers, func(i, j int) bool {
		return plan.Sellers[i].SellerID.String() < plan.Sellers[j].SellerID.String()
	})
	if len(plan.Sellers) == 0 {
		return plan
	}

	commissions := make([]SellerCommission, len(plan.Sellers))
	byItems := make([]weight, len(plan.Sellers))
	for i, sp := range plan.Sellers {
		commissions[i] = SellerCommission{SellerID: sp.SellerID.String(), CommissionCents: sp.OriginalCommissionCents}
		byItems[i] = weight{key: sp.SellerID.String(), value: sp.ItemTotalCents}
	}

	alloc := AllocateDiscount(commissions, shippingFeeCents, plan.DiscountCents)
	plan.DiscountAppliedCents = alloc.AppliedCents
	plan.UnabsorbedCents = alloc.UnabsorbedCents

	shipping := distribute(shippingFeeCents, byItems)
	unabsorbed := distribute(alloc.UnabsorbedCents, byItems)
	for i := range plan.Sellers {
		sp := &plan.Sellers[i]
		sp.DiscountShareCents = alloc.Deductions[i].DeductionCents
		sp.AdjustedCommissionCents = alloc.Deductions[i].AdjustedCommissionCents
		sp.ShippingShareCents = shipping[i]
		sp.UnabsorbedShareCents = unabsorbed[i]
	}
	return plan
}
