package api

import "net/http"

func (a *API) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := a.panel.ListNodes(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nodes)
}

func (a *API) ListEggs(w http.ResponseWriter, r *http.Request) {
	eggs, err := a.panel.ListEggs(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, eggs)
}
