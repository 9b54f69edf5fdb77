package trust

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists return requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.ReturnRequest) error
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	UpdateStatus(ctx context.Context, request *models.ReturnRequest) error
	CountByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (int64, error)
	CountBySellerSince(ctx context.Context, sellerID uuid.UUID, since time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.ReturnRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) UpdateStatus(ctx context.Context, request *models.ReturnRequest) error {
	return r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]any{
			"status":       request.Status,
			"finished_at":  request.FinishedAt,
			"delete_after": request.DeleteAfter,
			"updated_at":   request.UpdatedAt,
		}).Error
}

func (r *repository) CountByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("buyer_id = ? AND created_at >= ?", buyerID, since).
		Count(&count).Error
	return count, err
}

func (r *repository) CountBySellerSince(ctx context.Context, sellerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("seller_id = ? AND created_at >= ?", sellerID, since).
		Count(&count).Error
	return count, err
}

// DeleteExpired removes finished requests whose retention has lapsed.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND delete_after IS NOT NULL AND delete_after <= ?", enums.ReturnRequestStatusFinished, now).
		Delete(&models.ReturnRequest{})
	return res.RowsAffected, res.Error
}
