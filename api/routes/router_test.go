package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/packfinderz-payouts/api/controllers"
	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/internal/orders"
	"github.com/angelmondragon/packfinderz-payouts/internal/settlement"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
	"github.com/angelmondragon/packfinderz-payouts/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSettlement struct{ calls int }

func (s *stubSettlement) ConfirmDelivery(_ context.Context, in settlement.ConfirmDeliveryInput) (settlement.Result, error) {
	s.calls++
	return settlement.Result{OrderID: in.OrderID}, nil
}

type stubOrders struct{}

func (stubOrders) Cancel(_ context.Context, in orders.LifecycleInput) (orders.OrderSummary, error) {
	return orders.OrderSummary{ID: in.OrderID}, nil
}

func (stubOrders) Reactivate(_ context.Context, in orders.LifecycleInput) (orders.OrderSummary, error) {
	return orders.OrderSummary{ID: in.OrderID}, nil
}

type stubWallets struct {
	mu     sync.Mutex
	debits int
}

func (s *stubWallets) Get(_ context.Context, sellerID uuid.UUID) (wallet.WalletView, error) {
	return wallet.WalletView{SellerID: sellerID}, nil
}

func (s *stubWallets) Debit(_ context.Context, in wallet.DebitInput) (wallet.DebitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debits++
	return wallet.DebitResult{DebitedAvailableCents: in.AmountCents}, nil
}

type memoryIdempotency struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

type fixture struct {
	handler    http.Handler
	settlement *stubSettlement
	wallets    *stubWallets
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(reg)
	settlementMetrics.IncOutcome("settled")

	f := fixture{settlement: &stubSettlement{}, wallets: &stubWallets{}}
	f.handler = NewRouter(Deps{
		Config: &config.Config{App: config.AppConfig{
			Env:                "test",
			CORSAllowedOrigins: []string{"http://localhost:3000"},
		}},
		Pingers:     map[string]controllers.Pinger{"db": stubPinger{}},
		Gatherer:    reg,
		Idempotency: &memoryIdempotency{values: map[string]string{}},
		Settlement:  f.settlement,
		Orders:      stubOrders{},
		Wallets:     f.wallets,
	})
	return f
}

func (f fixture) do(method, path, body, actor string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutesArePublic(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/health/live", "", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/health/ready", "", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestMetricsEndpointExposesRegistry(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/metrics", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "settlement") {
		t.Fatalf("expected settlement metrics in output")
	}
}

func TestAPIRequiresActor(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/confirm-delivery", `{"confirmation_code":"X"}`, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if f.settlement.calls != 0 {
		t.Fatalf("settlement should not be reached")
	}
}

func TestConfirmDeliveryRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/confirm-delivery", `{"confirmation_code":"X"}`, uuid.NewString(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestWithdrawalsAreIdempotent(t *testing.T) {
	f := newFixture(t)
	seller := uuid.NewString()
	path := "/api/v1/sellers/" + seller + "/withdrawals"
	headers := map[string]string{"Idempotency-Key": "w-1"}

	first := f.do(http.MethodPost, path, `{"amount_cents":100}`, seller, headers)
	second := f.do(http.MethodPost, path, `{"amount_cents":100}`, seller, headers)

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if f.wallets.debits != 1 {
		t.Fatalf("expected a single debit, got %d", f.wallets.debits)
	}

	missing := f.do(http.MethodPost, path, `{"amount_cents":100}`, seller, nil)
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d", missing.Code)
	}
}
