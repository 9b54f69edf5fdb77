package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the wallet service.
type ServiceParams struct {
	Repo       Repository
	Ledger     ledger.Repository
	TxRunner   txRunner
	HistoryCap int
	Now        func() time.Time
}

// Service applies balance changes to seller wallets. Every mutation locks the
// wallet row and saves against the loaded version.
type Service struct {
	repo       Repository
	ledger     ledger.Repository
	tx         txRunner
	historyCap int
	now        func() time.Time
	validate   *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	historyCap := params.HistoryCap
	if historyCap <= 0 {
		historyCap = models.DefaultWalletHistoryCap
	}
	return &Service{
		repo:       params.Repo,
		ledger:     params.Ledger,
		tx:         params.TxRunner,
		historyCap: historyCap,
		now:        now,
		validate:   validator.New(),
	}, nil
}

// Get returns the seller's current balances.
func (s *Service) Get(ctx context.Context, sellerID uuid.UUID) (WalletView, error) {
	if sellerID == uuid.Nil {
		return WalletView{}, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	w, err := s.repo.FindBySeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WalletView{}, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return WalletView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return viewOf(w), nil
}

// Credit holds amount as pending for the order and appends the matching
// ledger row. It runs inside the caller's transaction; the wallet is created
// on first credit.
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.Wallet, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "credit requires a transaction")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credit input")
	}

	repo := s.repo.WithTx(tx)
	if err := repo.EnsureExists(ctx, input.SellerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
	}
	w, err := s.lock(ctx, repo, input.SellerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	release := now.AddDate(0, 0, input.HoldDays)
	orderID := input.OrderID
	prev := w.Version
	if err := w.RecordTransaction(models.WalletEntry{
		Kind:        enums.WalletEntryKindPendingCredit,
		OrderID:     &orderID,
		AmountCents: input.AmountCents,
		Source:      enums.TransactionSourceOrderSettlement,
		ReleaseDate: &release,
		OccurredAt:  now,
	}); err != nil {
		return nil, err
	}
	if err := s.save(ctx, repo, w, prev); err != nil {
		return nil, err
	}

	if err := s.ledger.WithTx(tx).CreateTransaction(ctx, &models.FinancialTransaction{
		SellerID:          input.SellerID,
		OrderID:           &orderID,
		AmountCents:       input.AmountCents,
		Type:              enums.TransactionTypeCredit,
		BalanceAfterCents: w.AvailableBalanceCents + w.PendingBalanceCents,
		Source:            enums.TransactionSourceOrderSettlement,
		Status:            enums.TransactionStatusPending,
		Description:       input.Description,
		CreatedAt:         now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record credit transaction")
	}
	return w, nil
}

// Mature releases the order's pending transaction if it is still pending and
// due. It returns nil when there was nothing to release.
func (s *Service) Mature(ctx context.Context, tx *gorm.DB, sellerID, orderID uuid.UUID, now time.Time) (*Release, error) {
	releases, err := s.release(ctx, tx, sellerID, now, func(p models.PendingTransaction) bool {
		return p.OrderID == orderID
	})
	if err != nil || len(releases) == 0 {
		return nil, err
	}
	return &releases[0], nil
}

// ReleaseDue matures every pending transaction of the seller whose release
// date is at or before now.
func (s *Service) ReleaseDue(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, now time.Time) ([]Release, error) {
	return s.release(ctx, tx, sellerID, now, func(models.PendingTransaction) bool { return true })
}

func (s *Service) release(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, now time.Time, match func(models.PendingTransaction) bool) ([]Release, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "release requires a transaction")
	}
	now = now.UTC()
	repo := s.repo.WithTx(tx)
	w, err := s.lock(ctx, repo, sellerID)
	if err != nil {
		return nil, err
	}

	prev := w.Version
	var releases []Release
	for _, p := range w.DuePending(now) {
		if !match(p) {
			continue
		}
		orderID := p.OrderID
		if err := w.RecordTransaction(models.WalletEntry{
			Kind:        enums.WalletEntryKindRelease,
			OrderID:     &orderID,
			AmountCents: p.AmountCents,
			Source:      enums.TransactionSourceOrderSettlement,
			OccurredAt:  now,
		}); err != nil {
			return nil, err
		}
		releases = append(releases, Release{OrderID: orderID, AmountCents: p.AmountCents, ReleasedAt: now})
	}
	if len(releases) == 0 {
		return nil, nil
	}
	if err := s.save(ctx, repo, w, prev); err != nil {
		return nil, err
	}

	ledgerRepo := s.ledger.WithTx(tx)
	for _, r := range releases {
		if _, err := ledgerRepo.CompleteSettlementCredit(ctx, sellerID, r.OrderID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete credit transaction")
		}
	}
	return releases, nil
}

// Debit takes money out of the wallet. Refund debits first cancel what is
// still pending for the order; the rest, like withdrawals, must be covered by
// the available balance.
func (s *Service) Debit(ctx context.Context, input DebitInput) (DebitResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return DebitResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid debit input")
	}
	switch input.Source {
	case enums.TransactionSourceWithdrawal:
	case enums.TransactionSourceRefund:
		if input.OrderID == nil || *input.OrderID == uuid.Nil {
			return DebitResult{}, pkgerrors.New(pkgerrors.CodeValidation, "refund debit requires an order id")
		}
	default:
		return DebitResult{}, pkgerrors.New(pkgerrors.CodeValidation, "debit source must be withdrawal or refund")
	}

	var result DebitResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		w, err := s.lock(ctx, repo, input.SellerID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		prev := w.Version
		remaining := input.AmountCents

		var stillPending int64
		if input.Source == enums.TransactionSourceRefund {
			if idx := w.PendingFor(*input.OrderID); idx >= 0 {
				held := w.PendingTransactions[idx].AmountCents
				cancel := min(remaining, held)
				if err := w.RecordTransaction(models.WalletEntry{
					Kind:        enums.WalletEntryKindCancel,
					OrderID:     input.OrderID,
					AmountCents: cancel,
					Source:      input.Source,
					OccurredAt:  now,
				}); err != nil {
					return err
				}
				result.CancelledPendingCents = cancel
				stillPending = held - cancel
				remaining -= cancel
			}
		}

		if remaining > 0 {
			if err := w.RecordTransaction(models.WalletEntry{
				Kind:        enums.WalletEntryKindDebit,
				OrderID:     input.OrderID,
				AmountCents: remaining,
				Source:      input.Source,
				OccurredAt:  now,
			}); err != nil {
				return err
			}
			result.DebitedAvailableCents = remaining
		}

		if err := s.save(ctx, repo, w, prev); err != nil {
			return err
		}

		ledgerRepo := s.ledger.WithTx(tx)
		if result.CancelledPendingCents > 0 {
			if err := s.settleCancelled(ctx, ledgerRepo, input.SellerID, *input.OrderID, stillPending, now); err != nil {
				return err
			}
		}

		completedAt := now
		if err := ledgerRepo.CreateTransaction(ctx, &models.FinancialTransaction{
			SellerID:          input.SellerID,
			OrderID:           input.OrderID,
			AmountCents:       input.AmountCents,
			Type:              enums.TransactionTypeDebit,
			BalanceAfterCents: w.AvailableBalanceCents + w.PendingBalanceCents,
			Source:            input.Source,
			Status:            enums.TransactionStatusCompleted,
			Description:       input.Description,
			CompletedAt:       &completedAt,
			CreatedAt:         now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record debit transaction")
		}
		result.Wallet = viewOf(w)
		return nil
	})
	if err != nil {
		return DebitResult{}, err
	}
	return result, nil
}

// settleCancelled brings the order's ledger rows in line with a cancelled
// pending credit. Once the whole credit is gone it will never mature, so the
// platform earning for the pair is released here instead of by the sweep.
func (s *Service) settleCancelled(ctx context.Context, ledgerRepo ledger.Repository, sellerID, orderID uuid.UUID, stillPending int64, now time.Time) error {
	if _, err := ledgerRepo.ShrinkSettlementCredit(ctx, sellerID, orderID, stillPending, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cancelled credit transaction")
	}
	if stillPending > 0 {
		return nil
	}
	if _, err := ledgerRepo.ReleaseEarning(ctx, orderID, sellerID, now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release platform earning")
	}
	return nil
}

func (s *Service) lock(ctx context.Context, repo Repository, sellerID uuid.UUID) (*models.Wallet, error) {
	w, err := repo.FindBySellerForUpdate(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet")
	}
	w.HistoryCap = s.historyCap
	return w, nil
}

func (s *Service) save(ctx context.Context, repo Repository, w *models.Wallet, prev int64) error {
	err := repo.Save(ctx, w, prev)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleVersion), db.IsUniqueViolation(err, ""), db.IsTransient(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "wallet was modified concurrently")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet")
	}
}

func viewOf(w *models.Wallet) WalletView {
	return WalletView{
		SellerID:              w.SellerID,
		SettledBalanceCents:   w.SettledBalanceCents,
		PendingBalanceCents:   w.PendingBalanceCents,
		AvailableBalanceCents: w.AvailableBalanceCents,
		Version:               w.Version,
	}
}
