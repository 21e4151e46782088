package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"conti/internal/core"
	"conti/internal/services"
	"conti/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: not-found 404,
// forbidden 403, validation failures 422, unavailable rates 503 and
// everything else 500 without leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
		msg = "not found"
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
		msg = err.Error()
	case errors.Is(err, core.ErrRateUnavailable):
		status = http.StatusServiceUnavailable
		msg = err.Error()
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidInput,
		core.ErrInvalidAmount,
		core.ErrInvalidCurrency,
		core.ErrInvalidKind,
		core.ErrInvalidDate,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrNoParticipants,
		core.ErrUnknownEditor,
		core.ErrShareTooLarge,
		core.ErrShareMismatch,
		core.ErrMissingPayer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeBody decodes a JSON request body with a size limit.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}
