package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// DiscountDetails records how a coupon touched one seller's commission.
type DiscountDetails struct {
	CouponCode           string `json:"couponCode,omitempty"`
	CouponID             string `json:"couponId,omitempty"`
	DiscountShareCents   int64  `json:"discountShareCents"`
	UnabsorbedShareCents int64  `json:"unabsorbedShareCents"`
}

// PlatformEarning is the platform's revenue from one seller's part of an order.
type PlatformEarning struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID              uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_platform_earnings_order_seller"`
	SellerID             uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:ux_platform_earnings_order_seller"`
	CommissionCents      int64                `gorm:"column:commission_cents;not null"`
	DiscountCents        int64                `gorm:"column:discount_cents;not null"`
	AmountCents          int64                `gorm:"column:amount_cents;not null"`
	ShippingRevenueCents int64                `gorm:"column:shipping_revenue_cents;not null"`
	DiscountDetails      *DiscountDetails     `gorm:"column:discount_details;type:jsonb;serializer:json"`
	Status               enums.EarningsStatus `gorm:"column:status;type:text;not null"`
	ReleasedAt           *time.Time           `gorm:"column:released_at"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
