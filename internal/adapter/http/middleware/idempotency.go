package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	processingMarker = "processing"
)

// storedResponse is what the store keeps once the first request succeeded.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key on POST and PUT. Keys are scoped to the caller. While the
// first request runs, repeats get 409; a failed first request frees the key.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := scopedKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, []byte(processingMarker), m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("idempotency check failed")
			writeError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}
		if exists {
			m.replay(w, cached)
			return
		}

		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode >= 200 && recorder.statusCode < 300 {
			m.save(r, key, recorder)
			return
		}
		if err := m.store.Release(r.Context(), key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, cached []byte) {
	if len(cached) == 0 || string(cached) == processingMarker {
		writeError(w, http.StatusConflict, "request with this idempotency key is in progress")
		return
	}

	resp := storedResponse{Status: http.StatusOK, Body: cached}
	if err := json.Unmarshal(cached, &resp); err != nil || resp.Status == 0 {
		resp = storedResponse{Status: http.StatusOK, Body: cached}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func (m *IdempotencyMiddleware) save(r *http.Request, key string, rec *responseRecorder) {
	payload, err := json.Marshal(storedResponse{Status: rec.statusCode, Body: rec.body.Bytes()})
	if err == nil {
		err = m.store.Update(r.Context(), key, payload, m.ttl)
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("failed to store idempotent response")
	}
}

// scopedKey returns the caller-scoped key, or "" when the request is not
// subject to idempotency.
func scopedKey(r *http.Request) string {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ""
	}
	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		return ""
	}
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		return p.UserID + ":" + key
	}
	return key
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
