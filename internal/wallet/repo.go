package wallet

import (
	"context"
	"errors"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errStaleVersion = errors.New("wallet version changed")

var walletColumns = []string{
	"settled_balance_cents",
	"pending_balance_cents",
	"available_balance_cents",
	"pending_transactions",
	"transaction_history",
	"last_transaction",
	"version",
	"updated_at",
}

// Repository persists seller wallets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Wallet, error)
	FindBySellerForUpdate(ctx context.Context, sellerID uuid.UUID) (*models.Wallet, error)
	EnsureExists(ctx context.Context, sellerID uuid.UUID) error
	Save(ctx context.Context, wallet *models.Wallet, prevVersion int64) error
	ListWithPending(ctx context.Context, after uuid.UUID, limit int) ([]models.Wallet, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) FindBySellerForUpdate(ctx context.Context, sellerID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_id = ?", sellerID).
		First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// EnsureExists inserts an empty wallet for the seller unless one is already there.
func (r *repository) EnsureExists(ctx context.Context, sellerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "seller_id"}}, DoNothing: true}).
		Create(models.NewWallet(sellerID)).Error
}

// Save writes the wallet balances only if the stored version still equals
// prevVersion, bumping it by one.
func (r *repository) Save(ctx context.Context, wallet *models.Wallet, prevVersion int64) error {
	original := wallet.Version
	wallet.Version = prevVersion + 1
	res := r.db.WithContext(ctx).
		Model(wallet).
		Where("version = ?", prevVersion).
		Select(walletColumns).
		Updates(wallet)
	if res.Error != nil {
		wallet.Version = original
		return res.Error
	}
	if res.RowsAffected == 0 {
		wallet.Version = original
		return errStaleVersion
	}
	return nil
}

// ListWithPending returns up to limit wallets holding a pending balance whose
// seller id sorts after the given one. Only the seller id and the pending
// queue are loaded.
func (r *repository) ListWithPending(ctx context.Context, after uuid.UUID, limit int) ([]models.Wallet, error) {
	var wallets []models.Wallet
	query := r.db.WithContext(ctx).
		Select("seller_id", "pending_transactions").
		Where("pending_balance_cents > 0").
		Order("seller_id ASC")
	if after != uuid.Nil {
		query = query.Where("seller_id > ?", after)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}
