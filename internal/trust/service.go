package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/internal/users"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

const (
	buyerBlockReason  = "return request volume exceeded"
	sellerBlockReason = "too many return requests received"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the trust service.
type ServiceParams struct {
	Repo     Repository
	Orders   orders.Repository
	Users    *users.Repository
	TxRunner txRunner
	Policy   Policy
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service records return requests and blocks accounts whose volume crosses
// the policy thresholds.
type Service struct {
	repo     Repository
	orders   orders.Repository
	users    *users.Repository
	tx       txRunner
	policy   Policy
	logg     *logger.Logger
	now      func() time.Time
	validate *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("return request repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	policy := params.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	return &Service{
		repo:     params.Repo,
		orders:   params.Orders,
		users:    params.Users,
		tx:       params.TxRunner,
		policy:   policy,
		logg:     params.Logger,
		now:      now,
		validate: validator.New(),
	}, nil
}

// SubmitReturnRequest stores a pending return request and, in the same
// transaction, blocks the buyer or the seller when their volume crosses the
// policy thresholds.
func (s *Service) SubmitReturnRequest(ctx context.Context, input SubmitReturnInput) (SubmitResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return request")
	}

	var result SubmitResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		sellerID := uuid.Nil
		for _, item := range order.Items {
			if item.ProductID == input.ProductID {
				sellerID = item.SellerID
				break
			}
		}
		if sellerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not part of the order")
		}

		now := s.now().UTC()
		request := models.ReturnRequest{
			BuyerID:   input.BuyerID,
			OrderID:   input.OrderID,
			ProductID: input.ProductID,
			SellerID:  sellerID,
			Status:    enums.ReturnRequestStatusPending,
			Reason:    input.Reason,
			CreatedAt: now,
			UpdatedAt: now,
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
		}
		result.Request = request

		userRepo := s.users.WithTx(tx)
		buyerCount, err := repo.CountByBuyerSince(ctx, input.BuyerID, s.policy.BuyerWindowStart(now))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count buyer return requests")
		}
		if s.policy.ShouldBlockBuyer(buyerCount) {
			if result.BuyerBlocked, err = userRepo.Block(ctx, input.BuyerID, buyerBlockReason, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "block buyer")
			}
		}

		sellerCount, err := repo.CountBySellerSince(ctx, sellerID, s.policy.SellerWindowStart(now))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seller return requests")
		}
		if s.policy.ShouldBlockSeller(sellerCount) {
			if result.SellerBlocked, err = userRepo.Block(ctx, sellerID, sellerBlockReason, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "block seller")
			}
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if result.BuyerBlocked {
		s.logg.Warn(s.logg.WithBuyerID(ctx, input.BuyerID), "buyer blocked for return request volume")
	}
	if result.SellerBlocked {
		s.logg.Warn(s.logg.WithSellerID(ctx, result.Request.SellerID), "seller blocked for return request volume")
	}
	return result, nil
}

// UpdateStatus moves a request along its lifecycle. Finishing a request
// starts its retention period.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (ReturnRequestDTO, error) {
	if err := s.validate.Struct(input); err != nil {
		return ReturnRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status update")
	}
	if !input.Status.IsValid() {
		return ReturnRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown return request status")
	}

	var out ReturnRequestDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForUpdate(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
		}
		if !canTransition(request.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeRuleViolation,
				fmt.Sprintf("cannot move return request from %s to %s", request.Status, input.Status))
		}

		now := s.now().UTC()
		request.Status = input.Status
		request.UpdatedAt = now
		if input.Status == enums.ReturnRequestStatusFinished {
			deleteAfter := s.policy.DeleteAfter(now)
			request.FinishedAt = &now
			request.DeleteAfter = &deleteAfter
		}
		if err := repo.UpdateStatus(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return request")
		}
		out = FromModel(request)
		return nil
	})
	if err != nil {
		return ReturnRequestDTO{}, err
	}
	return out, nil
}

// PurgeExpired deletes finished requests past their retention date.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expired return requests")
	}
	return deleted, nil
}
