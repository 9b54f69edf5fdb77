package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// Service guards the one-shot cancel and reactivate toggles of an order.
type Service interface {
	Cancel(ctx context.Context, input LifecycleInput) (OrderSummary, error)
	Reactivate(ctx context.Context, input LifecycleInput) (OrderSummary, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	now      func() time.Time
	validate *validator.Validate
}

// NewService builds the lifecycle guard. now defaults to time.Now.
func NewService(repo Repository, tx txRunner, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, now: now, validate: validator.New()}, nil
}

// Cancel is allowed once, while the order is active, undelivered and at most
// CancelWindow old.
func (s *service) Cancel(ctx context.Context, input LifecycleInput) (OrderSummary, error) {
	return s.toggle(ctx, input, models.AuditActionCanceled, func(order *models.Order, now time.Time) error {
		switch {
		case order.Status != enums.OrderStatusActive:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "only active orders can be canceled")
		case order.DeliveryStatus == enums.DeliveryStatusDelivered:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "delivered orders cannot be canceled")
		case order.CancelCount >= 1:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "order was already canceled once")
		case now.Sub(order.CreatedAt) > CancelWindow:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "cancellation window has closed")
		}
		return nil
	}, func(repo Repository, id uuid.UUID, now time.Time) (bool, error) {
		return repo.Cancel(ctx, id, now)
	})
}

// Reactivate is allowed once, while the order is canceled and at most
// ReactivateWindow after the cancellation.
func (s *service) Reactivate(ctx context.Context, input LifecycleInput) (OrderSummary, error) {
	return s.toggle(ctx, input, models.AuditActionReactivated, func(order *models.Order, now time.Time) error {
		switch {
		case order.Status != enums.OrderStatusCanceled:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "only canceled orders can be reactivated")
		case order.ActivateCount >= 1:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "order was already reactivated once")
		case order.CancelDate == nil || now.Sub(*order.CancelDate) > ReactivateWindow:
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "reactivation window has closed")
		}
		return nil
	}, func(repo Repository, id uuid.UUID, now time.Time) (bool, error) {
		return repo.Reactivate(ctx, id, now)
	})
}

func (s *service) toggle(
	ctx context.Context,
	input LifecycleInput,
	action string,
	check func(order *models.Order, now time.Time) error,
	apply func(repo Repository, id uuid.UUID, now time.Time) (bool, error),
) (OrderSummary, error) {
	if err := s.validate.Struct(input); err != nil {
		return OrderSummary{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order input")
	}

	var summary OrderSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := s.now().UTC()
		if err := check(order, now); err != nil {
			return err
		}

		applied, err := apply(repo, order.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeRuleViolation, "order state changed concurrently")
		}

		if err := repo.AppendAudit(ctx, &models.OrderAuditLog{
			OrderID: order.ID,
			Action:  action,
			Actor:   input.ActorID,
			Details: map[string]any{
				"previous_status": string(order.Status),
			},
			CreatedAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit log")
		}

		updated, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		summary = summaryFromModel(updated)
		return nil
	})
	if err != nil {
		return OrderSummary{}, err
	}
	return summary, nil
}
