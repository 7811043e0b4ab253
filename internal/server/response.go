package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Tiliavir/rapportini/internal/csvcodec"
	"github.com/Tiliavir/rapportini/internal/logging"
	"github.com/Tiliavir/rapportini/internal/storage"
)

// response is the envelope every API endpoint returns.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps store and codec errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrNoExport):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, csvcodec.ErrMalformedInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeErr logs server-side failures and writes a failure envelope.
func writeErr(w http.ResponseWriter, r *http.Request, err error, message string) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error(message, "error", err)
	}
	writeJSON(w, code, response{Success: false, Message: message})
}

// warningFor returns the warning text for a projection failure, or "".
func warningFor(err error) string {
	if errors.Is(err, storage.ErrProjection) {
		return "saved, but the CSV export could not be updated"
	}
	return ""
}
