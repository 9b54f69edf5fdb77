package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
)

var (
	sellerA = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	sellerB = uuid.MustParse("00000000-0000-0000-0000-0000000000bb")
)

func workedExampleItems() []models.OrderItem {
	return []models.OrderItem{
		{SellerID: sellerB, Quantity: 1, UnitPriceCents: 150000},
		{SellerID: sellerA, Quantity: 2, UnitPriceCents: 25000},
	}
}

func TestBuildPlanWorkedExample(t *testing.T) {
	plan := BuildPlan(workedExampleItems(), 3000, 5000)

	require.Len(t, plan.Sellers, 2)
	a, b := plan.Sellers[0], plan.Sellers[1]
	assert.Equal(t, sellerA, a.SellerID)
	assert.Equal(t, int64(41000), a.EarningsCents)
	assert.Equal(t, int64(9000), a.OriginalCommissionCents)
	assert.Equal(t, int64(1667), a.DiscountShareCents)
	assert.Equal(t, int64(750), a.ShippingShareCents)
	assert.Equal(t, int64(8083), a.PlatformAmountCents())

	assert.Equal(t, sellerB, b.SellerID)
	assert.Equal(t, int64(132000), b.EarningsCents)
	assert.Equal(t, int64(3333), b.DiscountShareCents)
	assert.Equal(t, int64(2250), b.ShippingShareCents)
	assert.Equal(t, int64(16917), b.PlatformAmountCents())

	assert.Equal(t, int64(25000), plan.PlatformAmountCents())
	assert.Equal(t, int64(200000), plan.SubtotalCents)
	assert.Equal(t, int64(198000), plan.GrandTotalCents())
	assert.Equal(t, plan.GrandTotalCents(),
		plan.SellerEarningsCents()+plan.AdjustedCommissionCents()+plan.ShippingFeeCents)
}

func TestBuildPlanEarningsIgnoreDiscount(t *testing.T) {
	base := BuildPlan(workedExampleItems(), 3000, 0)
	for _, discount := range []int64{0, 1, 5000, 26999, 27000, 40000} {
		plan := BuildPlan(workedExampleItems(), 3000, discount)
		require.Len(t, plan.Sellers, len(base.Sellers))
		for i := range plan.Sellers {
			assert.Equal(t, base.Sellers[i].EarningsCents, plan.Sellers[i].EarningsCents)
		}
		assert.Equal(t, plan.SubtotalCents+plan.ShippingFeeCents-discount, plan.GrandTotalCents())
	}
}

func TestBuildPlanUnabsorbedComesOutOfShipping(t *testing.T) {
	plan := BuildPlan(workedExampleItems(), 3000, 30000)

	assert.Equal(t, int64(27000), plan.DiscountAppliedCents)
	assert.Equal(t, int64(3000), plan.UnabsorbedCents)
	assert.Zero(t, plan.AdjustedCommissionCents())
	assert.Zero(t, plan.PlatformAmountCents())
	for _, s := range plan.Sellers {
		assert.Equal(t, s.ShippingShareCents, s.UnabsorbedShareCents)
	}
}

func TestBuildPlanEmpty(t *testing.T) {
	plan := BuildPlan(nil, 500, 100)
	assert.Empty(t, plan.Sellers)
	assert.Zero(t, plan.PlatformAmountCents())
}
