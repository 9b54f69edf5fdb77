package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "pf:idempotency:" + scope + ":" + id
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		_, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"data":{"call":%d}}`, *calls)
	})
}

func idempotentRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/withdrawals", strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func TestIdempotencyRequiresKey(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), time.Hour, nil)(countingHandler(&calls, http.StatusCreated))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest("", `{"amount_cents":100}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler should not run without a key")
	}
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), time.Hour, nil)(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest("k1", `{"amount_cents":100}`))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest("k1", `{"amount_cents":100}`))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed body %q got %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), time.Hour, nil)(countingHandler(&calls, http.StatusCreated))

	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k1", `{"amount_cents":100}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest("k1", `{"amount_cents":999}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), time.Hour, nil)(countingHandler(&calls, http.StatusServiceUnavailable))

	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k1", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k1", `{}`))

	if calls != 2 {
		t.Fatalf("expected failed request to be retried, ran %d times", calls)
	}
}

func TestIdempotencyRejectsRepeatWhileInFlight(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	var inner http.Handler
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			rec := httptest.NewRecorder()
			inner.ServeHTTP(rec, idempotentRequest("k1", `{"amount_cents":100}`))
			if rec.Code != http.StatusConflict {
				t.Errorf("expected concurrent repeat to get 409, got %d", rec.Code)
			}
		}
		w.WriteHeader(http.StatusCreated)
	}))
	inner = handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest("k1", `{"amount_cents":100}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyReleasesKeyOnPanic(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() { _ = recover() }()
		handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k1", `{}`))
	}()

	if len(store.values) != 0 {
		t.Fatalf("expected reservation to be released, got %v", store.values)
	}
}
