package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	identityservice "stamply/internal/identity/service"
	"stamply/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes sentinel translation to HTTP responses. Internal
// errors keep their detail out of the body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, identityservice.ErrCredentialPending):
		status = http.StatusForbidden
		message = "credential has not been issued yet"
	case errors.Is(err, sentinel.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = "unauthorized"
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, sentinel.ErrConflict):
		status = http.StatusConflict
		message = "conflict"
	case errors.Is(err, sentinel.ErrInvalidConfig):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, sentinel.ErrUnavailable):
		status = http.StatusBadGateway
		message = "upstream unavailable"
	}

	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be valid JSON"})
		return false
	}
	return true
}
