package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the persistence operations for orders and their audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	ClaimPayout(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Reactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	AppendAudit(ctx context.Context, entry *models.OrderAuditLog) error
	ListAudit(ctx context.Context, orderID uuid.UUID) ([]models.OrderAuditLog, error)
}
