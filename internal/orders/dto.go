package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

const (
	// CancelWindow is how long after creation a buyer may cancel.
	CancelWindow = 48 * time.Hour
	// ReactivateWindow is how long after cancellation an order may be reactivated.
	ReactivateWindow = 24 * time.Hour
)

// LifecycleInput identifies the order and the actor toggling it.
type LifecycleInput struct {
	OrderID uuid.UUID `validate:"required"`
	ActorID string
}

// OrderSummary is the lifecycle state returned after a toggle.
type OrderSummary struct {
	ID            uuid.UUID         `json:"id"`
	Status        enums.OrderStatus `json:"status"`
	CancelCount   int               `json:"cancel_count"`
	ActivateCount int               `json:"activate_count"`
	CancelDate    *time.Time        `json:"cancel_date,omitempty"`
	ActivatedAt   *time.Time        `json:"activated_at,omitempty"`
}

func summaryFromModel(o *models.Order) OrderSummary {
	return OrderSummary{
		ID:            o.ID,
		Status:        o.Status,
		CancelCount:   o.CancelCount,
		ActivateCount: o.ActivateCount,
		CancelDate:    o.CancelDate,
		ActivatedAt:   o.ActivatedAt,
	}
}
