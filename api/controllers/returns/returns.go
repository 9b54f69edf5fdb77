package returns

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/api/responses"
	"github.com/angelmondragon/packfinderz-payouts/api/validators"
	"github.com/angelmondragon/packfinderz-payouts/internal/trust"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

// Service is the return-request surface used by the handlers.
type Service interface {
	SubmitReturnRequest(ctx context.Context, input trust.SubmitReturnInput) (trust.SubmitResult, error)
	UpdateStatus(ctx context.Context, input trust.UpdateStatusInput) (trust.ReturnRequestDTO, error)
}

type submitRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"max=1000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Submit handles POST /api/v1/orders/{orderId}/returns. The caller is the buyer.
func Submit(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyerID, err := middleware.ActorUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req submitRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitReturnRequest(r.Context(), trust.SubmitReturnInput{
			BuyerID:   buyerID,
			OrderID:   orderID,
			ProductID: uuid.MustParse(req.ProductID),
			Reason:    req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, trust.FromModel(&result.Request))
	}
}

// UpdateStatus handles PATCH /api/v1/returns/{returnId}.
func UpdateStatus(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}
		requestID, err := validators.ParseUUIDParam(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseReturnRequestStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown return request status").
				WithDetails(map[string]string{"status": "is invalid"}))
			return
		}

		dto, err := svc.UpdateStatus(r.Context(), trust.UpdateStatusInput{RequestID: requestID, Status: status})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
