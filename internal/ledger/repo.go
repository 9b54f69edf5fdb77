package ledger

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	"github.com/angelmondragon/packfinderz-payouts/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists financial transactions and platform earnings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.FinancialTransaction) error
	CompleteSettlementCredit(ctx context.Context, sellerID, orderID uuid.UUID, at time.Time) (int64, error)
	ShrinkSettlementCredit(ctx context.Context, sellerID, orderID uuid.UUID, remainingCents int64, at time.Time) (int64, error)
	CreateEarning(ctx context.Context, earning *models.PlatformEarning) error
	ReleaseEarning(ctx context.Context, orderID, sellerID uuid.UUID, at time.Time) (int64, error)
	ListTransactionsBySeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]models.FinancialTransaction, error)
	PageTransactionsBySeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time, limit int, after *pagination.Cursor) ([]models.FinancialTransaction, error)
	ListEarningsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PlatformEarning, error)
	SummarizeEarnings(ctx context.Context, filter EarningsFilter) (EarningsSummary, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.FinancialTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

// CompleteSettlementCredit flips the pending settlement credit for the pair to
// completed. It reports the number of rows changed so repeat calls are no-ops.
func (r *repository) CompleteSettlementCredit(ctx context.Context, sellerID, orderID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("seller_id = ? AND order_id = ?", sellerID, orderID).
		Where("source = ? AND type = ? AND status = ?",
			enums.TransactionSourceOrderSettlement,
			enums.TransactionTypeCredit,
			enums.TransactionStatusPending,
		).
		Updates(map[string]any{
			"status":       enums.TransactionStatusCompleted,
			"completed_at": at,
		})
	return res.RowsAffected, res.Error
}

// ShrinkSettlementCredit follows a refund that cancelled part of the pending
// credit. The row keeps waiting with the remaining amount, or fails once
// nothing is left.
func (r *repository) ShrinkSettlementCredit(ctx context.Context, sellerID, orderID uuid.UUID, remainingCents int64, at time.Time) (int64, error) {
	updates := map[string]any{"amount_cents": remainingCents}
	if remainingCents <= 0 {
		updates = map[string]any{
			"status":       enums.TransactionStatusFailed,
			"completed_at": at,
		}
	}
	res := r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("seller_id = ? AND order_id = ?", sellerID, orderID).
		Where("source = ? AND type = ? AND status = ?",
			enums.TransactionSourceOrderSettlement,
			enums.TransactionTypeCredit,
			enums.TransactionStatusPending,
		).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateEarning(ctx context.Context, earning *models.PlatformEarning) error {
	if earning.ID == uuid.Nil {
		earning.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(earning).Error
}

func (r *repository) ReleaseEarning(ctx context.Context, orderID, sellerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PlatformEarning{}).
		Where("order_id = ? AND seller_id = ? AND status = ?", orderID, sellerID, enums.EarningsStatusPending).
		Updates(map[string]any{
			"status":      enums.EarningsStatusReleased,
			"released_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListTransactionsBySeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]models.FinancialTransaction, error) {
	var txns []models.FinancialTransaction
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// PageTransactionsBySeller returns up to limit rows of the window that sort
// after the cursor, ordered by (created_at, id).
func (r *repository) PageTransactionsBySeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time, limit int, after *pagination.Cursor) ([]models.FinancialTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Where("created_at >= ? AND created_at < ?", from, to)
	if after != nil {
		query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}

	var txns []models.FinancialTransaction
	if err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListEarningsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PlatformEarning, error) {
	var earnings []models.PlatformEarning
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("seller_id ASC").
		Find(&earnings).Error; err != nil {
		return nil, err
	}
	return earnings, nil
}

func (r *repository) SummarizeEarnings(ctx context.Context, filter EarningsFilter) (EarningsSummary, error) {
	query := r.db.WithContext(ctx).Model(&models.PlatformEarning{})
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Month != nil {
		start, end := monthBounds(*filter.Month)
		query = query.Where("created_at >= ? AND created_at < ?", start, end)
	}

	var summary EarningsSummary
	err := query.Select(`COUNT(*) AS count,
		COALESCE(SUM(commission_cents), 0) AS commission_cents,
		COALESCE(SUM(discount_cents), 0) AS discount_cents,
		COALESCE(SUM(shipping_revenue_cents), 0) AS shipping_revenue_cents,
		COALESCE(SUM(amount_cents), 0) AS amount_cents,
		COALESCE(SUM(CASE WHEN status = ? THEN amount_cents ELSE 0 END), 0) AS released_cents`,
		enums.EarningsStatusReleased,
	).Scan(&summary).Error
	return summary, err
}

func monthBounds(month time.Time) (time.Time, time.Time) {
	month = month.UTC()
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
