package wallet

import (
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	"github.com/google/uuid"
)

// CreditInput describes a settlement credit held as pending.
type CreditInput struct {
	SellerID    uuid.UUID `validate:"required"`
	OrderID     uuid.UUID `validate:"required"`
	AmountCents int64     `validate:"gt=0"`
	HoldDays    int       `validate:"gte=0"`
	Description string
}

// DebitInput describes money leaving a seller's wallet.
type DebitInput struct {
	SellerID    uuid.UUID               `validate:"required"`
	AmountCents int64                   `validate:"gt=0"`
	Source      enums.TransactionSource `validate:"required"`
	OrderID     *uuid.UUID
	Description string
}

// Release is one pending transaction matured by ReleaseDue or Mature.
type Release struct {
	OrderID     uuid.UUID
	AmountCents int64
	ReleasedAt  time.Time
}

// DebitResult reports how a debit was covered.
type DebitResult struct {
	CancelledPendingCents int64
	DebitedAvailableCents int64
	Wallet                WalletView
}

// WalletView is the read model returned to callers.
type WalletView struct {
	SellerID              uuid.UUID `json:"seller_id"`
	SettledBalanceCents   int64     `json:"settled_balance_cents"`
	PendingBalanceCents   int64     `json:"pending_balance_cents"`
	AvailableBalanceCents int64     `json:"available_balance_cents"`
	Version               int64     `json:"version"`
}
