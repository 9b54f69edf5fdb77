package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// ReturnRequest is a buyer's request to return a product from an order.
type ReturnRequest struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID     uuid.UUID                 `gorm:"column:buyer_id;type:uuid;not null"`
	OrderID     uuid.UUID                 `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID                 `gorm:"column:product_id;type:uuid;not null"`
	SellerID    uuid.UUID                 `gorm:"column:seller_id;type:uuid;not null"`
	Status      enums.ReturnRequestStatus `gorm:"column:status;type:text;not null"`
	Reason      string                    `gorm:"column:reason;type:text"`
	FinishedAt  *time.Time                `gorm:"column:finished_at"`
	DeleteAfter *time.Time                `gorm:"column:delete_after"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
