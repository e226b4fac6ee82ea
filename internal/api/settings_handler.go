package api

import (
	"errors"
	"net/http"

	"minepanel/internal/auth"
	"minepanel/internal/models"

	"github.com/sirupsen/logrus"
)

type settingsView struct {
	models.Settings
	SkyportAPIKeySet bool `json:"skyportApiKeySet"`
}

func viewSettings(s *models.Settings, admin bool) settingsView {
	v := settingsView{Settings: *s, SkyportAPIKeySet: s.SkyportAPIKey != ""}
	if !admin {
		v.SkyportAPIKey = ""
	}
	return v
}

// GetSettings is public. Only admins see the API key.
func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	_, err := a.gate.RequireAdmin(r)
	admin := err == nil
	if err != nil && !errors.Is(err, auth.ErrUnauthenticated) && !errors.Is(err, auth.ErrForbidden) {
		a.log.WithError(err).Warn("Could not resolve caller for settings, serving redacted view")
	}

	settings, err := a.store.GetSettings(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewSettings(settings, admin))
}

func (a *API) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		a.respondError(w, r, err)
		return
	}

	settings, err := a.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	a.log.WithFields(logrus.Fields{
		"user_id":         userFromContext(r.Context()).ID,
		"api_key_changed": patch.SkyportAPIKey != nil,
	}).Info("Settings updated")
	respondJSON(w, http.StatusOK, viewSettings(settings, true))
}
