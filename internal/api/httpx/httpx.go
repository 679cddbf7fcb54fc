package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ratewise/store-ratings/internal/apperr"
)

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{Error: msg, Code: code, Details: details})
}

// Error maps the shared taxonomy onto status codes. Anything outside the
// taxonomy is a 500 with the detail logged, never returned.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, apperr.ErrInvalidOperation):
		WriteError(w, http.StatusBadRequest, "invalid_operation", err.Error(), nil)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil)
	case errors.Is(err, apperr.ErrInvalidToken):
		WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token", nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case errors.Is(err, apperr.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "access denied", nil)
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, apperr.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		slog.Error("internal error", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
