package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
)

// DefaultWalletHistoryCap bounds TransactionHistory when no cap is configured.
const DefaultWalletHistoryCap = 100

// PendingTransaction is a credit waiting for its hold period to elapse.
type PendingTransaction struct {
	OrderID     uuid.UUID                      `json:"orderId"`
	AmountCents int64                          `json:"amountCents"`
	ReleaseDate time.Time                      `json:"releaseDate"`
	Status      enums.PendingTransactionStatus `json:"status"`
	ReleasedAt  *time.Time                     `json:"releasedAt,omitempty"`
	CancelledAt *time.Time                     `json:"cancelledAt,omitempty"`
}

// IsDue reports whether the transaction is still pending and its release date has passed.
func (p PendingTransaction) IsDue(now time.Time) bool {
	return p.Status == enums.PendingTransactionStatusPending && !p.ReleaseDate.After(now)
}

// WalletEntry is one mutation applied through Wallet.RecordTransaction. The
// balance snapshot fields are filled in by the wallet.
type WalletEntry struct {
	Kind        enums.WalletEntryKind   `json:"kind"`
	OrderID     *uuid.UUID              `json:"orderId,omitempty"`
	AmountCents int64                   `json:"amountCents"`
	Source      enums.TransactionSource `json:"source,omitempty"`
	ReleaseDate *time.Time              `json:"releaseDate,omitempty"`
	OccurredAt  time.Time               `json:"occurredAt"`

	PendingAfterCents   int64 `json:"pendingAfterCents"`
	AvailableAfterCents int64 `json:"availableAfterCents"`
	SettledAfterCents   int64 `json:"settledAfterCents"`
}

// Wallet holds a seller's balances. All balance changes go through
// RecordTransaction.
//
// PendingBalanceCents is always the sum of pending queue entries.
// AvailableBalanceCents is matured money the seller may withdraw.
// SettledBalanceCents is lifetime matured earnings net of refunds.
type Wallet struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	SellerID              uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;uniqueIndex"`
	SettledBalanceCents   int64                `gorm:"column:settled_balance_cents;not null"`
	PendingBalanceCents   int64                `gorm:"column:pending_balance_cents;not null"`
	AvailableBalanceCents int64                `gorm:"column:available_balance_cents;not null"`
	PendingTransactions   []PendingTransaction `gorm:"column:pending_transactions;type:jsonb;serializer:json"`
	TransactionHistory    []WalletEntry        `gorm:"column:transaction_history;type:jsonb;serializer:json"`
	LastTransaction       *WalletEntry         `gorm:"column:last_transaction;type:jsonb;serializer:json"`
	Version               int64                `gorm:"column:version;not null"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	HistoryCap int `gorm:"-"`
}

// NewWallet returns an empty wallet for sellerID.
func NewWallet(sellerID uuid.UUID) *Wallet {
	return &Wallet{
		ID:                  uuid.New(),
		SellerID:            sellerID,
		PendingTransactions: []PendingTransaction{},
		TransactionHistory:  []WalletEntry{},
	}
}

// PendingFor returns the index of the pending-status entry for orderID, or -1.
func (w *Wallet) PendingFor(orderID uuid.UUID) int {
	for i, p := range w.PendingTransactions {
		if p.OrderID == orderID && p.Status == enums.PendingTransactionStatusPending {
			return i
		}
	}
	return -1
}

// DuePending lists the pending entries whose release date is at or before now.
func (w *Wallet) DuePending(now time.Time) []PendingTransaction {
	var due []PendingTransaction
	for _, p := range w.PendingTransactions {
		if p.IsDue(now) {
			due = append(due, p)
		}
	}
	return due
}

// RecordTransaction applies entry to the wallet balances and appends it to the
// history. The wallet is left untouched when an error is returned.
func (w *Wallet) RecordTransaction(entry WalletEntry) error {
	if !entry.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown wallet entry kind")
	}
	if entry.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet entry amount must be positive")
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	var err error
	switch entry.Kind {
	case enums.WalletEntryKindPendingCredit:
		err = w.applyPendingCredit(entry)
	case enums.WalletEntryKindRelease:
		err = w.applyRelease(&entry)
	case enums.WalletEntryKindCancel:
		err = w.applyCancel(entry)
	case enums.WalletEntryKindDebit:
		err = w.applyDebit(entry)
	}
	if err != nil {
		return err
	}

	w.PendingBalanceCents = w.sumPending()
	entry.PendingAfterCents = w.PendingBalanceCents
	entry.AvailableAfterCents = w.AvailableBalanceCents
	entry.SettledAfterCents = w.SettledBalanceCents

	w.appendHistory(entry)
	last := entry
	w.LastTransaction = &last
	return nil
}

func (w *Wallet) applyPendingCredit(entry WalletEntry) error {
	if entry.OrderID == nil || entry.ReleaseDate == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pending credit requires order and release date")
	}
	for _, p := range w.PendingTransactions {
		if p.OrderID == *entry.OrderID && p.Status != enums.PendingTransactionStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already credited to wallet")
		}
	}
	w.PendingTransactions = append(w.PendingTransactions, PendingTransaction{
		OrderID:     *entry.OrderID,
		AmountCents: entry.AmountCents,
		ReleaseDate: entry.ReleaseDate.UTC(),
		Status:      enums.PendingTransactionStatusPending,
	})
	return nil
}

func (w *Wallet) applyRelease(entry *WalletEntry) error {
	idx, err := w.pendingIndex(entry.OrderID)
	if err != nil {
		return err
	}
	p := &w.PendingTransactions[idx]
	if p.AmountCents != entry.AmountCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "release amount does not match pending transaction")
	}
	releasedAt := entry.OccurredAt
	p.Status = enums.PendingTransactionStatusReleased
	p.ReleasedAt = &releasedAt

	w.AvailableBalanceCents += entry.AmountCents
	w.SettledBalanceCents += entry.AmountCents
	return nil
}

// applyCancel removes entry.AmountCents from the order's pending transaction,
// cancelling it once nothing is left.
func (w *Wallet) applyCancel(entry WalletEntry) error {
	idx, err := w.pendingIndex(entry.OrderID)
	if err != nil {
		return err
	}
	p := &w.PendingTransactions[idx]
	if entry.AmountCents > p.AmountCents {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "cancel amount exceeds pending transaction")
	}
	p.AmountCents -= entry.AmountCents
	if p.AmountCents == 0 {
		cancelledAt := entry.OccurredAt
		p.Status = enums.PendingTransactionStatusCancelled
		p.CancelledAt = &cancelledAt
	}
	return nil
}

func (w *Wallet) applyDebit(entry WalletEntry) error {
	if entry.AmountCents > w.AvailableBalanceCents {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance cannot cover debit").
			WithDetails(map[string]any{
				"available_cents": w.AvailableBalanceCents,
				"requested_cents": entry.AmountCents,
			})
	}
	w.AvailableBalanceCents -= entry.AmountCents
	if entry.Source == enums.TransactionSourceRefund {
		w.SettledBalanceCents -= entry.AmountCents
		if w.SettledBalanceCents < 0 {
			w.SettledBalanceCents = 0
		}
	}
	return nil
}

func (w *Wallet) pendingIndex(orderID *uuid.UUID) (int, error) {
	if orderID == nil {
		return -1, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	idx := w.PendingFor(*orderID)
	if idx < 0 {
		return -1, pkgerrors.New(pkgerrors.CodeNotFound, "no pending transaction for order")
	}
	return idx, nil
}

func (w *Wallet) sumPending() int64 {
	var total int64
	for _, p := range w.PendingTransactions {
		if p.Status == enums.PendingTransactionStatusPending {
			total += p.AmountCents
		}
	}
	return total
}

func (w *Wallet) appendHistory(entry WalletEntry) {
	limit := w.HistoryCap
	if limit <= 0 {
		limit = DefaultWalletHistoryCap
	}
	w.TransactionHistory = append(w.TransactionHistory, entry)
	if over := len(w.TransactionHistory) - limit; over > 0 {
		trimmed := make([]WalletEntry, limit)
		copy(trimmed, w.TransactionHistory[over:])
		w.TransactionHistory = trimmed
	}
}
