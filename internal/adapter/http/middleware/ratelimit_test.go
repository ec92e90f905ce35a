package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
)

func TestRateLimiter_LimitsPerCaller(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rl := NewRateLimiter(0.001, 1, m)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil)
		req = req.WithContext(domain.WithPrincipal(req.Context(), domain.Principal{UserID: userID, Role: domain.RoleInvestor}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("inv-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("inv-1"))
	assert.Equal(t, http.StatusOK, send("inv-2"), "callers have separate buckets")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitHits))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("ip:10.0.0.1")
	now = now.Add(2 * time.Hour)
	rl.getLimiter("ip:10.0.0.2")

	assert.Equal(t, 1, rl.Cleanup(time.Hour))
	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "ip:10.0.0.2")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
