package trust

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
)

// SubmitReturnInput is a buyer's return request for one product of an order.
type SubmitReturnInput struct {
	BuyerID   uuid.UUID `validate:"required"`
	OrderID   uuid.UUID `validate:"required"`
	ProductID uuid.UUID `validate:"required"`
	Reason    string    `validate:"max=1000"`
}

type UpdateStatusInput struct {
	RequestID uuid.UUID                 `validate:"required"`
	Status    enums.ReturnRequestStatus `validate:"required"`
}

// SubmitResult reports the stored request and any block it triggered.
type SubmitResult struct {
	Request       models.ReturnRequest
	BuyerBlocked  bool
	SellerBlocked bool
}

// ReturnRequestDTO is the read model of a return request.
type ReturnRequestDTO struct {
	ID          uuid.UUID                 `json:"id"`
	OrderID     uuid.UUID                 `json:"order_id"`
	ProductID   uuid.UUID                 `json:"product_id"`
	SellerID    uuid.UUID                 `json:"seller_id"`
	Status      enums.ReturnRequestStatus `json:"status"`
	FinishedAt  *time.Time                `json:"finished_at,omitempty"`
	DeleteAfter *time.Time                `json:"delete_after,omitempty"`
}

func FromModel(r *models.ReturnRequest) ReturnRequestDTO {
	return ReturnRequestDTO{
		ID:          r.ID,
		OrderID:     r.OrderID,
		ProductID:   r.ProductID,
		SellerID:    r.SellerID,
		Status:      r.Status,
		FinishedAt:  r.FinishedAt,
		DeleteAfter: r.DeleteAfter,
	}
}

var allowedTransitions = map[enums.ReturnRequestStatus][]enums.ReturnRequestStatus{
	enums.ReturnRequestStatusPending:        {enums.ReturnRequestStatusApproved, enums.ReturnRequestStatusRejected},
	enums.ReturnRequestStatusApproved:       {enums.ReturnRequestStatusProcessing, enums.ReturnRequestStatusReadyForPickup, enums.ReturnRequestStatusRejected},
	enums.ReturnRequestStatusProcessing:     {enums.ReturnRequestStatusReadyForPickup},
	enums.ReturnRequestStatusReadyForPickup: {enums.ReturnRequestStatusReceived},
	enums.ReturnRequestStatusReceived:       {enums.ReturnRequestStatusFinished},
}

func canTransition(from, to enums.ReturnRequestStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
