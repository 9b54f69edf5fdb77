package settlement

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmDeliveryInput is the delivery confirmation submitted for an order.
type ConfirmDeliveryInput struct {
	OrderID          uuid.UUID `validate:"required"`
	ConfirmationCode string    `validate:"required,max=64"`
	ActorID          string    `validate:"max=128"`
}

// SellerPayout is what one seller received from the settlement.
type SellerPayout struct {
	SellerID             uuid.UUID `json:"seller_id"`
	EarningsCents        int64     `json:"earnings_cents"`
	CommissionCents      int64     `json:"commission_cents"`
	DiscountCents        int64     `json:"discount_cents"`
	ShippingRevenueCents int64     `json:"shipping_revenue_cents"`
	PlatformAmountCents  int64     `json:"platform_amount_cents"`
	ReleaseDate          time.Time `json:"release_date"`
}

// Result describes a delivery confirmation. AlreadyProcessed is set when the
// order's payout had been settled by an earlier call; Sellers is empty then.
type Result struct {
	OrderID              uuid.UUID      `json:"order_id"`
	AlreadyProcessed     bool           `json:"already_processed"`
	DeliveredAt          time.Time      `json:"delivered_at"`
	Sellers              []SellerPayout `json:"sellers,omitempty"`
	PlatformAmountCents  int64          `json:"platform_amount_cents"`
	DiscountAppliedCents int64          `json:"discount_applied_cents"`
	UnabsorbedCents      int64          `json:"unabsorbed_cents"`
}
