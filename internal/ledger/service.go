package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/pagination"
	"github.com/google/uuid"
)

const maxStatementRange = 366 * 24 * time.Hour

// Service exposes the read side of the ledger.
type Service interface {
	ListTransactionsBySeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time, page pagination.Params) (TransactionPage, error)
	SummarizeEarnings(ctx context.Context, filter EarningsFilter) (EarningsSummary, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// ListTransactionsBySeller returns one page of the seller's statement for the
// half-open window [from, to).
func (s *service) ListTransactionsBySeller(ctx context.Context, sellerID uuid.UUID, from, to time.Time, page pagination.Params) (TransactionPage, error) {
	if sellerID == uuid.Nil {
		return TransactionPage{}, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if !from.Before(to) {
		return TransactionPage{}, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	if to.Sub(from) > maxStatementRange {
		return TransactionPage{}, pkgerrors.New(pkgerrors.CodeValidation, "statement range cannot exceed one year")
	}
	after, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return TransactionPage{}, err
	}

	txns, err := s.repo.PageTransactionsBySeller(ctx, sellerID, from.UTC(), to.UTC(), pagination.LimitWithBuffer(page.Limit), after)
	if err != nil {
		return TransactionPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller transactions")
	}
	txns, next := pagination.Trim(txns, page.Limit, func(t models.FinancialTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	return TransactionPage{Transactions: TransactionsFromModels(txns), NextCursor: next}, nil
}

func (s *service) SummarizeEarnings(ctx context.Context, filter EarningsFilter) (EarningsSummary, error) {
	if filter.OrderID != nil && *filter.OrderID == uuid.Nil {
		return EarningsSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "order id cannot be empty")
	}
	if filter.SellerID != nil && *filter.SellerID == uuid.Nil {
		return EarningsSummary{}, pkgerrors.New(pkgerrors.CodeValidation, "seller id cannot be empty")
	}

	summary, err := s.repo.SummarizeEarnings(ctx, filter)
	if err != nil {
		return EarningsSummary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize earnings")
	}
	return summary, nil
}
