package orders

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/api/responses"
	"github.com/angelmondragon/packfinderz-payouts/api/validators"
	internalorders "github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/internal/settlement"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

// DeliveryConfirmer settles an order once its delivery is confirmed.
type DeliveryConfirmer interface {
	ConfirmDelivery(ctx context.Context, input settlement.ConfirmDeliveryInput) (settlement.Result, error)
}

type confirmDeliveryRequest struct {
	ConfirmationCode string `json:"confirmation_code" validate:"required,max=64"`
}

// ConfirmDelivery handles POST /api/v1/orders/{orderId}/confirm-delivery.
// Repeat confirmations answer 200 with already_processed set.
func ConfirmDelivery(svc DeliveryConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmDeliveryRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}
		result, err := svc.ConfirmDelivery(ctx, settlement.ConfirmDeliveryInput{
			OrderID:          orderID,
			ConfirmationCode: req.ConfirmationCode,
			ActorID:          middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Cancel handles POST /api/v1/orders/{orderId}/cancel.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return toggle(logg, svc, func(ctx context.Context, in internalorders.LifecycleInput) (internalorders.OrderSummary, error) {
		return svc.Cancel(ctx, in)
	})
}

// Reactivate handles POST /api/v1/orders/{orderId}/reactivate.
func Reactivate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return toggle(logg, svc, func(ctx context.Context, in internalorders.LifecycleInput) (internalorders.OrderSummary, error) {
		return svc.Reactivate(ctx, in)
	})
}

func toggle(
	logg *logger.Logger,
	svc internalorders.Service,
	apply func(context.Context, internalorders.LifecycleInput) (internalorders.OrderSummary, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := apply(r.Context(), internalorders.LifecycleInput{
			OrderID: orderID,
			ActorID: middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
