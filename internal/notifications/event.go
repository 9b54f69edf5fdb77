package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// Event is one notification addressed to a single recipient.
type Event struct {
	Type        enums.NotificationEvent `json:"type"`
	OrderID     *uuid.UUID              `json:"orderId,omitempty"`
	RecipientID uuid.UUID               `json:"recipientId"`
	AmountCents int64                   `json:"amountCents"`
	CouponCode  string                  `json:"couponCode,omitempty"`
	Title       string                  `json:"title"`
	Message     string                  `json:"message"`
}

// Envelope wraps an event on the wire.
type Envelope struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       Event     `json:"data"`
}
