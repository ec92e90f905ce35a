package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gesledger/internal/domain"
)

// RequestLogger writes one line per request. Mount it after authentication so
// the caller is part of the line; 4xx log at warn and 5xx at error.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := responseStatus(ww)
			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = logger.Error()
			case status >= http.StatusBadRequest:
				event = logger.Warn()
			default:
				event = logger.Info()
			}

			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				event = event.Str("request_id", reqID)
			}
			if p, ok := domain.PrincipalFromContext(r.Context()); ok {
				event = event.Str("user_id", p.UserID).Str("role", string(p.Role))
			}
			if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
				event = event.Str("idempotency_key", key)
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request completed")
		})
	}
}

// responseStatus treats a handler that never wrote a header as 200.
func responseStatus(ww chimw.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
