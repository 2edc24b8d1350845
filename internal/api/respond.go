package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/duotrip/duotrip/internal/auth"
	"github.com/duotrip/duotrip/internal/models"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// by then the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the error's kind to an HTTP status and writes a JSON body.
// Unrecognized errors become 500 with a generic message so internals do not
// leak to clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrCapacityExceeded):
		status = http.StatusConflict
	case errors.Is(err, models.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNetwork):
		status = http.StatusBadGateway
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	default:
		slog.Error("internal error", "error", err)
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON parses the request body into v, rejecting unknown fields so
// client typos fail loudly instead of silently dropping data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}
