package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("seller_id ASC, id ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate loads the order with a row lock held until the surrounding
// transaction ends.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("seller_id ASC, id ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"delivery_status": enums.DeliveryStatusDelivered,
			"payment_status":  enums.PaymentStatusPaid,
			"delivered_at":    at,
		}).Error
}

// ClaimPayout flips payout_processed from false to true. It reports false when
// another caller already claimed the order.
func (r *repository) ClaimPayout(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payout_processed = ?", id, false).
		Updates(map[string]any{
			"payout_processed": true,
			"payout_date":      at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND cancel_count = 0 AND delivery_status <> ?",
			id, enums.OrderStatusActive, enums.DeliveryStatusDelivered).
		Updates(map[string]any{
			"status":       enums.OrderStatusCanceled,
			"cancel_count": gorm.Expr("cancel_count + 1"),
			"cancel_date":  at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Reactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND activate_count = 0", id, enums.OrderStatusCanceled).
		Updates(map[string]any{
			"status":         enums.OrderStatusActive,
			"activate_count": gorm.Expr("activate_count + 1"),
			"activated_at":   at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) AppendAudit(ctx context.Context, entry *models.OrderAuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListAudit(ctx context.Context, orderID uuid.UUID) ([]models.OrderAuditLog, error) {
	var rows []models.OrderAuditLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
