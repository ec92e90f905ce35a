package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iho/gesledger/internal/adapter/http/dto"
)

// writeError answers in the same shape as the handlers: the status text as
// error and a human readable message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
