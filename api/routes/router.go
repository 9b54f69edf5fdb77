package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-payouts/api/controllers"
	ordercontrollers "github.com/angelmondragon/packfinderz-payouts/api/controllers/orders"
	returncontrollers "github.com/angelmondragon/packfinderz-payouts/api/controllers/returns"
	walletcontrollers "github.com/angelmondragon/packfinderz-payouts/api/controllers/wallets"
	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

// Deps are the services mounted by NewRouter.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Pingers     map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
	Idempotency middleware.IdempotencyStore
	Settlement  ordercontrollers.DeliveryConfirmer
	Orders      orders.Service
	Returns     returncontrollers.Service
	Wallets     walletcontrollers.WalletService
	Ledger      ledger.Service
	Now         func() time.Time
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(deps.Idempotency, cfg.HTTP.IdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/confirm-delivery", ordercontrollers.ConfirmDelivery(deps.Settlement, logg))
			r.Post("/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.Post("/reactivate", ordercontrollers.Reactivate(deps.Orders, logg))
			r.Post("/returns", returncontrollers.Submit(deps.Returns, logg))
		})

		r.Patch("/returns/{returnId}", returncontrollers.UpdateStatus(deps.Returns, logg))

		r.Route("/sellers/{sellerId}", func(r chi.Router) {
			r.Get("/wallet", walletcontrollers.Get(deps.Wallets, logg))
			r.Get("/transactions", walletcontrollers.Transactions(deps.Ledger, deps.Now, logg))
			r.With(idempotent).Post("/withdrawals", walletcontrollers.Withdraw(deps.Wallets, logg))
			r.With(idempotent).Post("/refunds", walletcontrollers.Refund(deps.Wallets, logg))
		})

		r.Get("/platform/earnings", walletcontrollers.Earnings(deps.Ledger, logg))
	})

	return r
}
