package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// User carries the subset of identity state settlement and trust rules read.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Role          enums.UserRole `gorm:"column:role;type:text;not null"`
	Blocked       bool           `gorm:"column:blocked;not null"`
	BlockedAt     *time.Time     `gorm:"column:blocked_at"`
	BlockedReason *string        `gorm:"column:blocked_reason"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
