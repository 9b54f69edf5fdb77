package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// Coupon is the snapshot of the coupon applied at checkout.
type Coupon struct {
	CouponID      string `json:"couponId,omitempty"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discountCents"`
}

// Order is a buyer's checkout order spanning one or more sellers.
type Order struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID          uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null"`
	Status           enums.OrderStatus    `gorm:"column:status;type:text;not null"`
	PaymentStatus    enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null"`
	DeliveryStatus   enums.DeliveryStatus `gorm:"column:delivery_status;type:text;not null"`
	SubtotalCents    int64                `gorm:"column:subtotal_cents;not null"`
	ShippingFeeCents int64                `gorm:"column:shipping_fee_cents;not null"`
	DiscountCents    int64                `gorm:"column:discount_cents;not null"`
	TotalCents       int64                `gorm:"column:total_cents;not null"`
	Coupon           *Coupon              `gorm:"column:coupon;type:jsonb;serializer:json"`
	ConfirmationCode string               `gorm:"column:confirmation_code;not null;uniqueIndex"`
	PayoutProcessed  bool                 `gorm:"column:payout_processed;not null"`
	PayoutDate       *time.Time           `gorm:"column:payout_date"`
	DeliveredAt      *time.Time           `gorm:"column:delivered_at"`
	CancelCount      int                  `gorm:"column:cancel_count;not null"`
	ActivateCount    int                  `gorm:"column:activate_count;not null"`
	CancelDate       *time.Time           `gorm:"column:cancel_date"`
	ActivatedAt      *time.Time           `gorm:"column:activated_at"`
	Items            []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponDiscountCents returns the coupon discount or zero when no coupon applies.
func (o *Order) CouponDiscountCents() int64 {
	if o == nil || o.Coupon == nil || o.Coupon.DiscountCents < 0 {
		return 0
	}
	return o.Coupon.DiscountCents
}
