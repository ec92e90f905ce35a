package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	handler := chimw.RequestID(Recovery(zerolog.New(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("holding vanished")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","message":"internal server error"}`, rr.Body.String())
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), "holding vanished")
	assert.Contains(t, logs.String(), `"request_id":"`)
}

func TestRecoveryReraisesAbort(t *testing.T) {
	handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
