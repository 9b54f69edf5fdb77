package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/packfinderz-payouts/api/controllers"
	"github.com/angelmondragon/packfinderz-payouts/api/routes"
	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/notifications"
	"github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/internal/settlement"
	"github.com/angelmondragon/packfinderz-payouts/internal/trust"
	"github.com/angelmondragon/packfinderz-payouts/internal/users"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
	"github.com/angelmondragon/packfinderz-payouts/pkg/metrics"
	"github.com/angelmondragon/packfinderz-payouts/pkg/migrate"
	"github.com/angelmondragon/packfinderz-payouts/pkg/pubsub"
	"github.com/angelmondragon/packfinderz-payouts/pkg/redis"
)


func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repo:       wallet.NewRepository(dbClient.DB()),
		Ledger:     ledgerRepo,
		TxRunner:   dbClient,
		HistoryCap: cfg.Settlement.HistoryCap,
	})
	requireResource(ctx, logg, "wallet service", err)

	ledgerService, err := ledger.NewService(ledgerRepo)
	requireResource(ctx, logg, "ledger service", err)

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Orders:   ordersRepo,
		Ledger:   ledgerRepo,
		Wallets:  walletService,
		Admins:   usersRepo,
		TxRunner: dbClient,
		Notifier: notifier,
		Metrics:  settlementMetrics,
		Logger:   logg,
		HoldDays: cfg.Settlement.HoldDays,
	})
	requireResource(ctx, logg, "settlement service", err)

	ordersService, err := orders.NewService(ordersRepo, dbClient, nil)
	requireResource(ctx, logg, "orders service", err)

	trustService, err := trust.NewService(trust.ServiceParams{
		Repo:     trust.NewRepository(dbClient.DB()),
		Orders:   ordersRepo,
		Users:    usersRepo,
		TxRunner: dbClient,
		Policy:   trust.PolicyFromConfig(cfg.Trust),
		Logger:   logg,
	})
	requireResource(ctx, logg, "trust service", err)

	handler := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Pingers: map[string]controllers.Pinger{
			"db":     dbClient,
			"redis":  redisClient,
			"pubsub": pubsubClient,
		},
		Gatherer:    registry,
		Idempotency: redisClient,
		Settlement:  settlementService,
		Orders:      ordersService,
		Returns:     trustService,
		Wallets:     walletService,
		Ledger:      ledgerService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.HTTP.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
