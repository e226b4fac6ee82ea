package api

import (
	"errors"
	"net/http"
	"strconv"

	"minepanel/internal/models"
	"minepanel/internal/store"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, &models.ValidationError{Field: "id", Message: "invalid id " + strconv.Quote(raw)}
	}
	return uint(id), nil
}

func (a *API) ListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := a.store.ListServers(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if servers == nil {
		servers = []models.Server{}
	}
	respondJSON(w, http.StatusOK, servers)
}

func (a *API) GetServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	server, err := a.store.GetServer(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "Server not found")
		return
	}
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, server)
}

func (a *API) CreateServer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateServerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		a.respondError(w, r, err)
		return
	}

	server := req.NewServer()
	if err := a.store.CreateServer(r.Context(), server); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondMessage(w, http.StatusConflict, "Server identifier already exists")
			return
		}
		a.respondError(w, r, err)
		return
	}

	a.log.WithFields(logrus.Fields{
		"user_id":    userFromContext(r.Context()).ID,
		"server_id":  server.ID,
		"identifier": server.Identifier,
	}).Info("Server created")
	respondJSON(w, http.StatusCreated, server)
}

func (a *API) UpdateServer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var patch models.ServerPatch
	if err := decodeJSON(r, &patch); err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		a.respondError(w, r, err)
		return
	}

	server, err := a.store.UpdateServer(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "Server not found")
		return
	}
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	a.log.WithFields(logrus.Fields{"user_id": userFromContext(r.Context()).ID, "server_id": id}).Info("Server updated")
	respondJSON(w, http.StatusOK, server)
}
