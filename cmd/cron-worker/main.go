package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/packfinderz-payouts/internal/cron"
	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/notifications"
	"github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/internal/trust"
	"github.com/angelmondragon/packfinderz-payouts/internal/users"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db"
	"github.com/angelmondragon/packfinderz-payouts/pkg/instance"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
	"github.com/angelmondragon/packfinderz-payouts/pkg/metrics"
	"github.com/angelmondragon/packfinderz-payouts/pkg/migrate"
	"github.com/angelmondragon/packfinderz-payouts/pkg/pubsub"
	"github.com/angelmondragon/packfinderz-payouts/pkg/redis"
)

const lockName = "payouts-sweep"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	notifier, err := notifications.NewPublisher(notifications.PublisherParams{
		Publisher: pubsubClient.NotificationPublisher(),
		Logger:    logg,
	})
	requireResource(ctx, logg, "notification publisher", err)
	defer notifier.Wait()

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)

	walletRepo := wallet.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repo:       walletRepo,
		Ledger:     ledgerRepo,
		TxRunner:   dbClient,
		HistoryCap: cfg.Settlement.HistoryCap,
	})
	requireResource(ctx, logg, "wallet service", err)

	trustService, err := trust.NewService(trust.ServiceParams{
		Repo:     trust.NewRepository(dbClient.DB()),
		Orders:   orders.NewRepository(dbClient.DB()),
		Users:    users.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Policy:   trust.PolicyFromConfig(cfg.Trust),
		Logger:   logg,
	})
	requireResource(ctx, logg, "trust service", err)

	releaseJob, err := cron.NewPayoutReleaseJob(cron.PayoutReleaseJobParams{
		Logger:   logg,
		DB:       dbClient,
		Wallets:  walletRepo,
		Releaser: walletService,
		Ledger:   ledgerRepo,
		Notifier: notifier,
		Metrics:  settlementMetrics,
	})
	requireResource(ctx, logg, "payout release job", err)

	retentionJob, err := cron.NewReturnRequestRetentionJob(cron.ReturnRequestRetentionJobParams{
		Logger: logg,
		Purger: trustService,
	})
	requireResource(ctx, logg, "return request retention job", err)

	registry := cron.NewRegistry()
	for _, job := range []cron.Job{releaseJob, retentionJob} {
		requireResource(ctx, logg, "job registry", registry.Register(job))
	}

	lock, err := cron.NewRedisLock(redisClient, lockName, cfg.Settlement.LockTTL)
	requireResource(ctx, logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Settlement.ReleaseInterval,
	})
	requireResource(ctx, logg, "cron service", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
		"jobs":        registry.Names(),
		"lock_key":    lock.Key(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
