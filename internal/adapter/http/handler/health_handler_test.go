package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler(map[string]PingFunc{
		"postgres": func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	healthy.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	healthy.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","postgres":"ok"}`, rec.Body.String())

	broken := NewHealthHandler(map[string]PingFunc{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	broken.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis unhealthy")
}
