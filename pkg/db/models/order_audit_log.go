package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionDeliveryConfirmed = "delivery_confirmed"
	AuditActionPayoutProcessed   = "payout_processed"
	AuditActionCanceled          = "canceled"
	AuditActionReactivated       = "reactivated"
)

// OrderAuditLog is an append-only record of an order lifecycle action.
type OrderAuditLog struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID      `gorm:"column:order_id;type:uuid;not null"`
	Action    string         `gorm:"column:action;type:text;not null"`
	Actor     string         `gorm:"column:actor;type:text"`
	Details   map[string]any `gorm:"column:details;type:jsonb;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}
