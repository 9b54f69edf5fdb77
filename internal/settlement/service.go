package settlement

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/notifications"
	"github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
	"github.com/angelmondragon/packfinderz-payouts/pkg/metrics"
)

const errOrderNotFound = "order not found or confirmation code invalid"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletCreditor interface {
	Credit(ctx context.Context, tx *gorm.DB, input wallet.CreditInput) (*models.Wallet, error)
}

type adminDirectory interface {
	ListIDsByRole(ctx context.Context, role enums.UserRole) ([]uuid.UUID, error)
}

// ServiceParams wires the settlement engine.
type ServiceParams struct {
	Orders   orders.Repository
	Ledger   ledger.Repository
	Wallets  walletCreditor
	Admins   adminDirectory
	TxRunner txRunner
	Notifier notifications.Notifier
	Metrics  *metrics.SettlementMetrics
	Logger   *logger.Logger
	HoldDays int
	Now      func() time.Time
}

// Service settles delivered orders into platform earnings and seller wallets.
type Service struct {
	orders   orders.Repository
	ledger   ledger.Repository
	wallets  walletCreditor
	admins   adminDirectory
	tx       txRunner
	notifier notifications.Notifier
	metrics  *metrics.SettlementMetrics
	logg     *logger.Logger
	holdDays int
	now      func() time.Time
	validate *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger repository required")
	case params.Wallets == nil:
		return nil, fmt.Errorf("wallet service required")
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.HoldDays < 0:
		return nil, fmt.Errorf("hold days must be non-negative")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notifications.Discard{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		orders:   params.Orders,
		ledger:   params.Ledger,
		wallets:  params.Wallets,
		admins:   params.Admins,
		tx:       params.TxRunner,
		notifier: notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		holdDays: params.HoldDays,
		now:      now,
		validate: validator.New(),
	}, nil
}

type settledOrder struct {
	order  *models.Order
	plan   Plan
	result Result
}

// ConfirmDelivery marks the order delivered and, the first time it is called
// for an order, settles the payout. Repeated calls only refresh the delivery
// status and report AlreadyProcessed. Notifications go out after commit.
func (s *Service) ConfirmDelivery(ctx context.Context, input ConfirmDeliveryInput) (Result, error) {
	if err := s.validate.Struct(input); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery confirmation")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	var settled settledOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		settled, err = s.settle(ctx, tx, input)
		return err
	})
	if err != nil {
		s.metrics.IncOutcome(metrics.OutcomeFailed)
		if pkgerrors.CodeOf(err) == pkgerrors.CodeDependency || pkgerrors.CodeOf(err) == pkgerrors.CodeInternal {
			s.logg.Error(ctx, "settlement failed", err)
		}
		return Result{}, err
	}

	if settled.result.AlreadyProcessed {
		s.metrics.IncOutcome(metrics.OutcomeAlreadyProcessed)
		s.logg.Info(ctx, "payout already processed; delivery status refreshed")
	} else {
		s.metrics.IncOutcome(metrics.OutcomeSettled)
		s.metrics.AddSettled(settled.plan.SellerEarningsCents(), settled.plan.AdjustedCommissionCents(), settled.plan.DiscountAppliedCents)
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"sellers":                len(settled.result.Sellers),
			"platform_amount_cents":  settled.result.PlatformAmountCents,
			"discount_applied_cents": settled.result.DiscountAppliedCents,
		}), "order settled")
	}

	s.notify(ctx, settled)
	return settled.result, nil
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, input ConfirmDeliveryInput) (settledOrder, error) {
	repo := s.orders.WithTx(tx)
	order, err := repo.FindForUpdate(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settledOrder{}, pkgerrors.New(pkgerrors.CodeNotFound, errOrderNotFound)
		}
		return settledOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if subtle.ConstantTimeCompare([]byte(order.ConfirmationCode), []byte(input.ConfirmationCode)) != 1 {
		return settledOrder{}, pkgerrors.New(pkgerrors.CodeNotFound, errOrderNotFound)
	}
	if order.Status == enums.OrderStatusCanceled {
		return settledOrder{}, pkgerrors.New(pkgerrors.CodeRuleViolation, "canceled orders cannot be delivered")
	}

	now := s.now().UTC()
	deliveredAt := now
	if order.DeliveredAt != nil {
		deliveredAt = order.DeliveredAt.UTC()
	}
	if err := repo.MarkDelivered(ctx, order.ID, deliveredAt); err != nil {
		return settledOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
	}
	if err := repo.AppendAudit(ctx, &models.OrderAuditLog{
		OrderID:   order.ID,
		Action:    models.AuditActionDeliveryConfirmed,
		Actor:     input.ActorID,
		Details:   map[string]any{"delivered_at": deliveredAt.Format(time.RFC3339)},
		CreatedAt: now,
	}); err != nil {
		return settledOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append delivery audit")
	}

	out := settledOrder{
		order:  order,
		result: Result{OrderID: order.ID, DeliveredAt: deliveredAt},
	}

	claimed, err := repo.ClaimPayout(ctx, order.ID, now)
	if err != nil {
		return settledOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim payout")
	}
	if !claimed {
		out.result.AlreadyProcessed = true
		return out, nil
	}

	plan := BuildPlan(order.Items, order.ShippingFeeCents, order.CouponDiscountCents())
	if expected := order.SubtotalCents + order.ShippingFeeCents - order.DiscountCents; expected != order.TotalCents {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"total_cents":    order.TotalCents,
			"expected_cents": expected,
		}), "order total does not match subtotal + shipping - discount")
	}

	releaseDate := now.AddDate(0, 0, s.holdDays)
	ledgerRepo := s.ledger.WithTx(tx)
	for _, sp := range plan.Sellers {
		earning := &models.PlatformEarning{
			OrderID:              order.ID,
			SellerID:             sp.SellerID,
			CommissionCents:      sp.OriginalCommissionCents,
			DiscountCents:        sp.DiscountShareCents,
			AmountCents:          sp.PlatformAmountCents(),
			ShippingRevenueCents: sp.ShippingShareCents,
			Status:               enums.EarningsStatusPending,
			CreatedAt:            now,
		}
		if sp.EarningsCents == 0 {
			// No wallet credit follows, so nothing would release it later.
			releasedAt := now
			earning.Status = enums.EarningsStatusReleased
			earning.ReleasedAt = &releasedAt
		}
		if order.Coupon != nil {
			earning.DiscountDetails = &models.DiscountDetails{
				CouponCode:           order.Coupon.Code,
				CouponID:             order.Coupon.CouponID,
				DiscountShareCents:   sp.DiscountShareCents,
				UnabsorbedShareCents: sp.UnabsorbedShareCents,
			}
		}
		if err := ledgerRepo.CreateEarning(ctx, earning); err != nil {
			return settledOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record platform earning")
		}

		if sp.EarningsCents > 0 {
			if _, err := s.wallets.Credit(ctx, tx, wallet.CreditInput{
				SellerID:    sp.SellerID,
				OrderID:     order.ID,
				AmountCents: sp.EarningsCents,
				HoldDays:    s.holdDays,
				Description: fmt.Sprintf("settlement of order %s", order.ID),
			}); err != nil {
				return settledOrder{}, err
			}
		}

		out.result.Sellers = append(out.result.Sellers, SellerPayout{
			SellerID:             sp.SellerID,
			EarningsCents:        sp.EarningsCents,
			CommissionCents:      sp.OriginalCommissionCents,
			DiscountCents:        sp.DiscountShareCents,
			ShippingRevenueCents: sp.ShippingShareCents,
			PlatformAmountCents:  sp.PlatformAmountCents(),
			ReleaseDate:          releaseDate,
		})
	}

	if err := repo.AppendAudit(ctx, &models.OrderAuditLog{
		OrderID: order.ID,
		Action:  models.AuditActionPayoutProcessed,
		Actor:   input.ActorID,
		Details: map[string]any{
			"seller_earnings_cents":  plan.SellerEarningsCents(),
			"platform_amount_cents":  plan.PlatformAmountCents(),
			"discount_applied_cents": plan.DiscountAppliedCents,
			"unabsorbed_cents":       plan.UnabsorbedCents,
		},
		CreatedAt: now,
	}); err != nil {
		return settledOrder{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payout audit")
	}

	out.plan = plan
	out.result.PlatformAmountCents = plan.PlatformAmountCents()
	out.result.DiscountAppliedCents = plan.DiscountAppliedCents
	out.result.UnabsorbedCents = plan.UnabsorbedCents
	return out, nil
}

func (s *Service) notify(ctx context.Context, settled settledOrder) {
	order := settled.order
	orderID := order.ID
	couponCode := ""
	if order.Coupon != nil {
		couponCode = order.Coupon.Code
	}

	events := []notifications.Event{{
		Type:        enums.NotificationEventOrderCompleted,
		OrderID:     &orderID,
		RecipientID: order.BuyerID,
		AmountCents: order.TotalCents,
		CouponCode:  couponCode,
		Title:       "Order delivered",
		Message:     "Your order has been delivered.",
	}}
	if settled.result.AlreadyProcessed {
		s.notifier.Notify(ctx, events...)
		return
	}

	for _, payout := range settled.result.Sellers {
		events = append(events, notifications.Event{
			Type:        enums.NotificationEventPayoutCredited,
			OrderID:     &orderID,
			RecipientID: payout.SellerID,
			AmountCents: payout.EarningsCents,
			Title:       "Payout pending",
			Message:     fmt.Sprintf("Earnings will be available on %s.", payout.ReleaseDate.Format("2006-01-02")),
		})
	}

	if s.admins != nil {
		admins, err := s.admins.ListIDsByRole(ctx, enums.UserRoleAdmin)
		if err != nil {
			s.logg.Error(ctx, "list admins for settlement summary", err)
		}
		for _, adminID := range admins {
			events = append(events, notifications.Event{
				Type:        enums.NotificationEventSettlementSummary,
				OrderID:     &orderID,
				RecipientID: adminID,
				AmountCents: settled.result.PlatformAmountCents,
				CouponCode:  couponCode,
				Title:       "Order settled",
				Message: fmt.Sprintf("Platform net %d cents across %d sellers, discount absorbed %d cents.",
					settled.result.PlatformAmountCents, len(settled.result.Sellers), settled.result.DiscountAppliedCents),
			})
		}
	}
	s.notifier.Notify(ctx, events...)
}
