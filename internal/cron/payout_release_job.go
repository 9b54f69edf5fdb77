package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/notifications"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
	"github.com/angelmondragon/packfinderz-payouts/pkg/metrics"
)

const (
	PayoutReleaseJobName = "payout-release"

	releaseScanPageSize = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingWalletReader interface {
	ListWithPending(ctx context.Context, after uuid.UUID, limit int) ([]models.Wallet, error)
}

type pendingReleaser interface {
	ReleaseDue(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, now time.Time) ([]wallet.Release, error)
}

// PayoutReleaseJobParams configure the pending payout sweep.
type PayoutReleaseJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Wallets  pendingWalletReader
	Releaser pendingReleaser
	Ledger   ledger.Repository
	Notifier notifications.Notifier
	Metrics  *metrics.SettlementMetrics
}

// NewPayoutReleaseJob builds the job that matures pending seller credits once
// their hold period has passed.
func NewPayoutReleaseJob(params PayoutReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet reader required")
	}
	if params.Releaser == nil {
		return nil, fmt.Errorf("wallet releaser required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notifications.Discard{}
	}
	return &payoutReleaseJob{
		logg:     params.Logger,
		db:       params.DB,
		wallets:  params.Wallets,
		releaser: params.Releaser,
		ledger:   params.Ledger,
		notifier: notifier,
		metrics:  params.Metrics,
		now:      time.Now,
		pageSize: releaseScanPageSize,
	}, nil
}

type payoutReleaseJob struct {
	logg     *logger.Logger
	db       txRunner
	wallets  pendingWalletReader
	releaser pendingReleaser
	ledger   ledger.Repository
	notifier notifications.Notifier
	metrics  *metrics.SettlementMetrics
	now      func() time.Time
	pageSize int
}

func (j *payoutReleaseJob) Name() string { return PayoutReleaseJobName }

// Run releases every due pending transaction. Wallets are scanned a page at
// a time and each seller is handled in its own transaction; a failing seller
// does not stop the sweep.
func (j *payoutReleaseJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	var (
		errs     error
		scanned  int
		sellers  int
		released int64
		after    uuid.UUID
	)
scan:
	for {
		page, err := j.wallets.ListWithPending(ctx, after, j.pageSize)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list wallets with pending balance: %w", err))
			break
		}
		scanned += len(page)
		for _, w := range page {
			if len(w.DuePending(now)) == 0 {
				continue
			}
			if ctx.Err() != nil {
				errs = multierr.Append(errs, ctx.Err())
				break scan
			}
			total, err := j.releaseAndNotify(ctx, w.SellerID, now)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if total > 0 {
				sellers++
				released += total
			}
		}
		if j.pageSize <= 0 || len(page) < j.pageSize {
			break
		}
		after = page[len(page)-1].SellerID
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"wallets_scanned": scanned,
		"sellers_paid":    sellers,
		"released_cents":  released,
		"failures":        len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "payout release sweep complete")
	return errs
}

func (j *payoutReleaseJob) releaseAndNotify(ctx context.Context, sellerID uuid.UUID, now time.Time) (int64, error) {
	releases, err := j.releaseSeller(ctx, sellerID, now)
	if err != nil {
		sellerCtx := j.logg.WithFields(j.logg.WithSellerID(ctx, sellerID), map[string]any{
			"retryable": pkgerrors.Retryable(err),
		})
		j.logg.Warn(sellerCtx, "payout release failed for seller")
		return 0, fmt.Errorf("seller %s: %w", sellerID, err)
	}
	var total int64
	for _, r := range releases {
		total += r.AmountCents
	}
	if total > 0 {
		j.metrics.AddReleased(total)
		j.notifySeller(ctx, sellerID, releases, total)
	}
	return total, nil
}

func (j *payoutReleaseJob) releaseSeller(ctx context.Context, sellerID uuid.UUID, now time.Time) ([]wallet.Release, error) {
	var releases []wallet.Release
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		releases, err = j.releaser.ReleaseDue(ctx, tx, sellerID, now)
		if err != nil {
			return err
		}
		earnings := j.ledger.WithTx(tx)
		for _, r := range releases {
			if _, err := earnings.ReleaseEarning(ctx, r.OrderID, sellerID, now); err != nil {
				return fmt.Errorf("release platform earning for order %s: %w", r.OrderID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return releases, nil
}

func (j *payoutReleaseJob) notifySeller(ctx context.Context, sellerID uuid.UUID, releases []wallet.Release, total int64) {
	event := notifications.Event{
		Type:        enums.NotificationEventPayoutReleased,
		RecipientID: sellerID,
		AmountCents: total,
		Title:       "Payout available",
		Message:     fmt.Sprintf("%d order payouts are now available for withdrawal.", len(releases)),
	}
	if len(releases) == 1 {
		orderID := releases[0].OrderID
		event.OrderID = &orderID
		event.Message = "Your order payout is now available for withdrawal."
	}
	j.notifier.Notify(ctx, event)
}
