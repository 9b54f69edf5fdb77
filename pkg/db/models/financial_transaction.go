package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// FinancialTransaction is the audit row for a wallet movement. After insert
// only status and completed_at change, except that a refund can shrink a
// still pending settlement credit.
type FinancialTransaction struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	SellerID          uuid.UUID               `gorm:"column:seller_id;type:uuid;not null"`
	OrderID           *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	AmountCents       int64                   `gorm:"column:amount_cents;not null"`
	Type              enums.TransactionType   `gorm:"column:type;type:text;not null"`
	BalanceAfterCents int64                   `gorm:"column:balance_after_cents;not null"`
	Source            enums.TransactionSource `gorm:"column:source;type:text;not null"`
	Status            enums.TransactionStatus `gorm:"column:status;type:text;not null"`
	Description       string                  `gorm:"column:description;type:text"`
	CompletedAt       *time.Time              `gorm:"column:completed_at"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
}
