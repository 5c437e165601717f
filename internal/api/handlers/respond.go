package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername),
		errors.Is(err, services.ErrUnknownRole),
		errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrAlreadyMainPhoto),
		errors.Is(err, services.ErrCannotDeleteMain):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAccountNotFound), errors.Is(err, services.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the mapped status. Client errors carry the
// error text; server errors are logged and answered generically.
func writeServiceError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		http.Error(w, userMessage(err), status)
	case http.StatusServiceUnavailable:
		log.Error().Err(err).Msg(msg)
		http.Error(w, "Service temporarily unavailable", status)
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg(msg)
		http.Error(w, msg, status)
	default:
		http.Error(w, http.StatusText(status), status)
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrDuplicateUsername):
		return "Username already exists"
	case errors.Is(err, services.ErrAccountNotFound):
		return "User not found"
	case errors.Is(err, services.ErrPhotoNotFound):
		return "Photo not found"
	default:
		return err.Error()
	}
}
