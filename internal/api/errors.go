package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"minepanel/internal/auth"
	"minepanel/internal/models"
	"minepanel/internal/skyport"
	"minepanel/internal/store"

	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Message: message})
}

// respondError turns a service error into its HTTP status and body. It is the
// only place that decides status codes for failures.
func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *models.ValidationError
		upstream   *skyport.UpstreamError
		transport  *skyport.TransportError
	)
	logCtx := a.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path})

	switch {
	case errors.As(err, &validation):
		respondMessage(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		respondMessage(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, auth.ErrForbidden):
		respondMessage(w, http.StatusForbidden, "Not authorized")
	case errors.Is(err, auth.ErrUsernameTaken):
		respondMessage(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, store.ErrDuplicate):
		respondMessage(w, http.StatusConflict, "Record already exists")
	case errors.Is(err, store.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, skyport.ErrNotConfigured):
		respondMessage(w, http.StatusBadRequest, "Skyport API key not configured")
	case errors.As(err, &upstream):
		logCtx.WithField("upstream_status", upstream.StatusCode).Warn("Skyport API returned an error")
		respondJSON(w, upstream.StatusCode, errorBody{Message: upstream.Error(), Details: upstream.Details()})
	case errors.As(err, &transport):
		logCtx.WithError(transport.Err).Error("Skyport API unreachable")
		respondMessage(w, http.StatusInternalServerError, "Error fetching "+transport.Resource+" from Skyport API")
	case errors.Is(err, skyport.ErrMalformedResponse):
		logCtx.WithError(err).Error("Skyport API returned an unreadable body")
		respondMessage(w, http.StatusBadGateway, "Unexpected response from Skyport API")
	default:
		logCtx.WithError(err).Error("Unhandled internal server error")
		respondMessage(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
