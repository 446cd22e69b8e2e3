package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
)

// ErrorResponse is the error envelope returned by every failing endpoint.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-checkable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorClass maps one domain sentinel to its transport representation.
type errorClass struct {
	sentinel error
	status   int
	code     string
}

// errorClasses is the complete taxonomy mapping, checked in order.
// ErrValidation is listed first so malformed input never leaks a state code.
var errorClasses = []errorClass{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidState, http.StatusBadRequest, "invalid_state"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNoDriversAvailable, http.StatusServiceUnavailable, "no_drivers_available"},
}

// writeError classifies err against the domain taxonomy and writes the
// matching status and envelope. Anything unclassified is an infrastructure
// failure: it is logged with full detail and reported as a bare 500 so
// store error strings never reach the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			writeJSON(w, c.status, ErrorResponse{Error: ErrorDetail{
				Code:    c.code,
				Message: messageFor(err, c.sentinel),
			}})
			return
		}
	}

	slog.ErrorContext(r.Context(), "internal error", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code:    "internal",
		Message: "internal error",
	}})
}

// messageFor extracts the human-readable part from an error wrapped around a
// sentinel, e.g. "conflict: passenger already has an active trip" becomes
// "passenger already has an active trip". A bare sentinel falls back to its
// own text.
func messageFor(err error, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return sentinel.Error()
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
