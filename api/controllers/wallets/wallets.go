package wallets

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/api/responses"
	"github.com/angelmondragon/packfinderz-payouts/api/validators"
	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

const defaultStatementWindow = 30 * 24 * time.Hour

// WalletService is the wallet surface used by the handlers.
type WalletService interface {
	Get(ctx context.Context, sellerID uuid.UUID) (wallet.WalletView, error)
	Debit(ctx context.Context, input wallet.DebitInput) (wallet.DebitResult, error)
}

type withdrawalRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Description string `json:"description" validate:"max=255"`
}

type refundRequest struct {
	OrderID     string `json:"order_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Description string `json:"description" validate:"max=255"`
}

type debitResponse struct {
	CancelledPendingCents int64             `json:"cancelled_pending_cents"`
	DebitedAvailableCents int64             `json:"debited_available_cents"`
	Wallet                wallet.WalletView `json:"wallet"`
}

// Get handles GET /api/v1/sellers/{sellerId}/wallet.
func Get(svc WalletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.ParseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Transactions handles GET /api/v1/sellers/{sellerId}/transactions with
// optional from, to, limit and cursor query parameters. The window defaults to
// the last 30 days.
func Transactions(svc ledger.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.ParseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		current := now().UTC()
		to, err := validators.ParseQueryTime(r, "to", current)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from", to.Add(-defaultStatementWindow))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListTransactionsBySeller(r.Context(), sellerID, from, to, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Withdraw handles POST /api/v1/sellers/{sellerId}/withdrawals. Only the
// seller may withdraw from their own wallet.
func Withdraw(svc WalletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.ParseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if middleware.ActorIDFromContext(r.Context()) != sellerID.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "only the seller may withdraw"))
			return
		}
		var req withdrawalRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		debit(w, r, svc, logg, wallet.DebitInput{
			SellerID:    sellerID,
			AmountCents: req.AmountCents,
			Source:      enums.TransactionSourceWithdrawal,
			Description: req.Description,
		})
	}
}

// Refund handles POST /api/v1/sellers/{sellerId}/refunds.
func Refund(svc WalletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.ParseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req refundRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := uuid.MustParse(req.OrderID)
		debit(w, r, svc, logg, wallet.DebitInput{
			SellerID:    sellerID,
			AmountCents: req.AmountCents,
			Source:      enums.TransactionSourceRefund,
			OrderID:     &orderID,
			Description: req.Description,
		})
	}
}

func debit(w http.ResponseWriter, r *http.Request, svc WalletService, logg *logger.Logger, input wallet.DebitInput) {
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithSellerID(ctx, input.SellerID)
	}
	result, err := svc.Debit(ctx, input)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, debitResponse{
		CancelledPendingCents: result.CancelledPendingCents,
		DebitedAvailableCents: result.DebitedAvailableCents,
		Wallet:                result.Wallet,
	})
}

// Earnings handles GET /api/v1/platform/earnings?order_id=&seller_id=&month=YYYY-MM.
func Earnings(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter ledger.EarningsFilter
		for key, dest := range map[string]**uuid.UUID{"order_id": &filter.OrderID, "seller_id": &filter.SellerID} {
			raw := r.URL.Query().Get(key)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a uuid").
					WithDetails(map[string]any{"field": key}))
				return
			}
			*dest = &id
		}
		month, err := validators.ParseQueryMonth(r, "month")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Month = month

		summary, err := svc.SummarizeEarnings(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"summary":       summary,
			"pending_cents": summary.PendingCents(),
		})
	}
}
