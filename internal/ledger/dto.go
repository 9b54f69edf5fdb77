package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// EarningsFilter narrows SummarizeEarnings. Nil fields are not filtered on.
type EarningsFilter struct {
	OrderID  *uuid.UUID
	SellerID *uuid.UUID
	// Month selects earnings created in the calendar month (UTC) containing it.
	Month *time.Time
}

// EarningsSummary aggregates platform earnings rows.
type EarningsSummary struct {
	Count                int64 `json:"count"`
	CommissionCents      int64 `json:"commission_cents"`
	DiscountCents        int64 `json:"discount_cents"`
	ShippingRevenueCents int64 `json:"shipping_revenue_cents"`
	AmountCents          int64 `json:"amount_cents"`
	ReleasedCents        int64 `json:"released_cents"`
}

// PendingCents is the part of AmountCents not yet released.
func (s EarningsSummary) PendingCents() int64 {
	return s.AmountCents - s.ReleasedCents
}

// TransactionDTO is the statement line returned to sellers.
type TransactionDTO struct {
	ID                uuid.UUID               `json:"id"`
	OrderID           *uuid.UUID              `json:"order_id,omitempty"`
	AmountCents       int64                   `json:"amount_cents"`
	Type              enums.TransactionType   `json:"type"`
	BalanceAfterCents int64                   `json:"balance_after_cents"`
	Source            enums.TransactionSource `json:"source"`
	Status            enums.TransactionStatus `json:"status"`
	Description       string                  `json:"description,omitempty"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

// TransactionPage is one page of a seller statement. NextCursor is empty on
// the last page.
type TransactionPage struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}

func TransactionsFromModels(txns []models.FinancialTransaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(txns))
	for _, t := range txns {
		out = append(out, TransactionDTO{
			ID:                t.ID,
			OrderID:           t.OrderID,
			AmountCents:       t.AmountCents,
			Type:              t.Type,
			BalanceAfterCents: t.BalanceAfterCents,
			Source:            t.Source,
			Status:            t.Status,
			Description:       t.Description,
			CompletedAt:       t.CompletedAt,
			CreatedAt:         t.CreatedAt,
		})
	}
	return out
}
