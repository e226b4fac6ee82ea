// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"minepanel/internal/auth"
	"minepanel/internal/models"
	"minepanel/internal/session"
	"minepanel/internal/store"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// PanelProxy is the read side of the Skyport panel.
type PanelProxy interface {
	ListNodes(ctx context.Context) ([]models.Node, error)
	ListEggs(ctx context.Context) ([]models.Egg, error)
}

// Deps carries everything the handlers need. Discord may be nil when OAuth is
// not configured.
type Deps struct {
	Store    store.Store
	Sessions session.Store
	Auth     *auth.Service
	Gate     *auth.Gate
	Discord  *auth.DiscordOAuth
	Panel    PanelProxy
	Log      logrus.FieldLogger

	SessionTTL    time.Duration
	SecureCookies bool
	// FrontendURL prefixes the post-login redirects. Empty keeps them relative.
	FrontendURL string
}

type API struct {
	store    store.Store
	sessions session.Store
	auth     *auth.Service
	gate     *auth.Gate
	discord  *auth.DiscordOAuth
	panel    PanelProxy
	log      logrus.FieldLogger

	sessionTTL    time.Duration
	secureCookies bool
	frontendURL   string
}

func New(d Deps) *API {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = session.DefaultTTL
	}
	return &API{
		store:         d.Store,
		sessions:      d.Sessions,
		auth:          d.Auth,
		gate:          d.Gate,
		discord:       d.Discord,
		panel:         d.Panel,
		log:           d.Log,
		sessionTTL:    d.SessionTTL,
		secureCookies: d.SecureCookies,
		frontendURL:   strings.TrimRight(d.FrontendURL, "/"),
	}
}

// Router builds the route table. Callers wrap it with CORS.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests(a.log))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", a.Health).Methods("GET")

	apiRouter := r.PathPrefix("/api").Subrouter()

	apiRouter.HandleFunc("/settings", a.GetSettings).Methods("GET")
	apiRouter.HandleFunc("/settings", a.requireAccess(a.UpdateSettings, adminOnly)).Methods("POST")

	apiRouter.HandleFunc("/servers", a.ListServers).Methods("GET")
	apiRouter.HandleFunc("/servers", a.requireAccess(a.CreateServer, authenticated)).Methods("POST")
	apiRouter.HandleFunc("/servers/{id}", a.GetServer).Methods("GET")
	apiRouter.HandleFunc("/servers/{id}", a.requireAccess(a.UpdateServer, adminOnly)).Methods("PATCH")

	apiRouter.HandleFunc("/skyport/nodes", a.requireAccess(a.ListNodes, adminOnly)).Methods("GET")
	apiRouter.HandleFunc("/skyport/eggs", a.requireAccess(a.ListEggs, adminOnly)).Methods("GET")

	apiRouter.HandleFunc("/register", a.Register).Methods("POST")
	apiRouter.HandleFunc("/login", a.Login).Methods("POST")
	apiRouter.HandleFunc("/logout", a.Logout).Methods("POST")
	apiRouter.HandleFunc("/user", a.requireAccess(a.GetCurrentUser, authenticated)).Methods("GET")

	apiRouter.HandleFunc("/users", a.requireAccess(a.ListUsers, adminOnly)).Methods("GET")
	apiRouter.HandleFunc("/users/{id}", a.requireAccess(a.UpdateUser, adminOnly)).Methods("PATCH")

	apiRouter.HandleFunc("/auth/discord", a.DiscordLogin).Methods("GET")
	apiRouter.HandleFunc("/auth/discord/callback", a.DiscordCallback).Methods("GET")

	return r
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
