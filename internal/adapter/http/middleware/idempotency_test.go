package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gesledger/internal/domain"
)

// mapIdempotencyStore mimics the redis store: a claim holds the given
// marker until Update replaces it.
type mapIdempotencyStore struct {
	mu       sync.Mutex
	values   map[string][]byte
	released []string
	err      error
}

func newMapIdempotencyStore() *mapIdempotencyStore {
	return &mapIdempotencyStore{values: map[string][]byte{}}
}

func (s *mapIdempotencyStore) CheckAndSet(_ context.Context, key string, marker []byte, _ time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, nil, s.err
	}
	if v, ok := s.values[key]; ok {
		return true, v, nil
	}
	s.values[key] = marker
	return false, nil, nil
}

func (s *mapIdempotencyStore) Update(_ context.Context, key string, response []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), response...)
	return nil
}

func (s *mapIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.released = append(s.released, key)
	return nil
}

func postDeposit(key string, p *domain.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/deposit", strings.NewReader(`{"amount":"1000"}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if p != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), *p))
	}
	return req
}

func TestIdempotency_ReplaysFirstSuccess(t *testing.T) {
	store := newMapIdempotencyStore()
	calls := 0
	handler := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop()).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"req-1","status":"pending"}`))
	}))

	inv := &domain.Principal{UserID: "inv-1", Role: domain.RoleInvestor}
	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postDeposit("k-1", inv))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyReplayHeader))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postDeposit("k-1", inv))
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayHeader))
	assert.JSONEq(t, `{"id":"req-1","status":"pending"}`, second.Body.String())

	// another investor using the same key is a different request
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, postDeposit("k-1", &domain.Principal{UserID: "inv-2", Role: domain.RoleInvestor}))
	assert.Equal(t, 2, calls)
	assert.Contains(t, store.values, "inv-2:k-1")
}

func TestIdempotency_ConflictWhileInFlight(t *testing.T) {
	store := newMapIdempotencyStore()
	store.values["inv-1:k-busy"] = []byte(processingMarker)

	handler := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop()).Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run while the first request is in flight")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postDeposit("k-busy", &domain.Principal{UserID: "inv-1", Role: domain.RoleInvestor}))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "in progress")
}

func TestIdempotency_FailureReleasesKey(t *testing.T) {
	store := newMapIdempotencyStore()
	status := http.StatusBadRequest
	handler := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop()).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postDeposit("k-retry", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []string{"k-retry"}, store.released)
	assert.NotContains(t, store.values, "k-retry")

	status = http.StatusCreated
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, postDeposit("k-retry", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, rr.Header().Get(IdempotencyReplayHeader))
}

func TestIdempotency_StoreError(t *testing.T) {
	store := newMapIdempotencyStore()
	store.err = errors.New("redis: connection refused")

	handler := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop()).Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run when the store is down")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postDeposit("k-err", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestIdempotency_Bypass(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "read", req: func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil)
			r.Header.Set(IdempotencyKeyHeader, "k-get")
			return r
		}()},
		{name: "no key", req: postDeposit("", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMapIdempotencyStore()
			called := false
			NewIdempotencyMiddleware(store, 0, zerolog.Nop()).Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			})).ServeHTTP(httptest.NewRecorder(), tt.req)

			assert.True(t, called)
			assert.Empty(t, store.values)
		})
	}
}

func TestIdempotency_ReplaysRawLegacyValue(t *testing.T) {
	store := newMapIdempotencyStore()
	store.values["k-old"] = []byte(`[1,2,3]`)

	rr := httptest.NewRecorder()
	NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop()).Wrap(http.NotFoundHandler()).ServeHTTP(rr, postDeposit("k-old", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `[1,2,3]`, rr.Body.String())
}
