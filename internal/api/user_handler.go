package api

import (
	"errors"
	"net/http"

	"minepanel/internal/models"
	"minepanel/internal/store"

	"github.com/sirupsen/logrus"
)

func (a *API) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// UpdateUser changes the admin flag of another account.
func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req struct {
		IsAdmin *bool `json:"isAdmin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	if req.IsAdmin == nil {
		a.respondError(w, r, &models.ValidationError{Field: "isAdmin", Message: "is required"})
		return
	}

	caller := userFromContext(r.Context())
	if caller.ID == id && !*req.IsAdmin {
		a.respondError(w, r, &models.ValidationError{Field: "isAdmin", Message: "you cannot remove your own admin rights"})
		return
	}

	user, err := a.store.UpdateUser(r.Context(), id, models.UserPatch{IsAdmin: req.IsAdmin})
	if errors.Is(err, store.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.log.WithFields(logrus.Fields{"user_id": caller.ID, "target_user_id": id, "is_admin": user.IsAdmin}).Info("User admin flag changed")
	respondJSON(w, http.StatusOK, user)
}
