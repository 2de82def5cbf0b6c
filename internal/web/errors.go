package web

// errors.go centralizes the mapping from pipeline/store errors to HTTP
// responses. Row-level ingestion failures never pass through here: they
// are data inside the report, and the transport-level outcome is 200.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oscehub/oscehub/internal/feedback"
	"github.com/oscehub/oscehub/internal/ingest"
	"github.com/oscehub/oscehub/internal/logging"
	"github.com/oscehub/oscehub/internal/store"
)

// ErrorResponse is the JSON body for every error status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError logs the technical error and writes the mapped status with
// a sanitized message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
		"error", err.Error(),
	)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the log.
		msg = "internal server error"
	}
	writeError(w, status, code, msg)
}

// classify maps an error to an HTTP status and a machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, store.ErrDuplicateKey):
		return http.StatusConflict, "DUPLICATE_KEY"
	case errors.Is(err, ingest.ErrInvalidFormat):
		return http.StatusUnsupportedMediaType, "INVALID_INPUT_FORMAT"
	case errors.Is(err, ingest.ErrTooManyUploads):
		return http.StatusTooManyRequests, "TOO_MANY_UPLOADS"
	case errors.Is(err, feedback.ErrInvalidRating):
		return http.StatusBadRequest, "INVALID_RATING"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// writeBadRequest is the shortcut for malformed client input.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

// writeJSON encodes v with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
