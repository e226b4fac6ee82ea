package api

import (
	"net/http"
	"time"

	"minepanel/internal/auth"
	"minepanel/internal/models"
	"minepanel/internal/session"

	"github.com/sirupsen/logrus"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// startSession creates a session for user and sets the cookie. The token is
// also returned in the X-Session-Token header for non-browser clients.
func (a *API) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	token, err := a.sessions.Create(r.Context(), session.Identity{UserID: user.ID, CreatedAt: time.Now()})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(a.sessionTTL),
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("X-Session-Token", token)
	return nil
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	user, err := a.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.startSession(w, r, user); err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	user, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := a.startSession(w, r, user); err != nil {
		a.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		if err := a.sessions.Destroy(r.Context(), token); err != nil {
			a.log.WithError(err).Warn("Failed to destroy session on logout")
		}
	}
	a.clearSessionCookie(w)
	respondMessage(w, http.StatusOK, "Logged out")
}

func (a *API) DiscordLogin(w http.ResponseWriter, r *http.Request) {
	if a.discord == nil {
		respondMessage(w, http.StatusServiceUnavailable, "Discord login is not configured")
		return
	}
	consentURL, err := a.discord.Begin(w)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, consentURL, http.StatusTemporaryRedirect)
}

func (a *API) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	if a.discord == nil {
		respondMessage(w, http.StatusServiceUnavailable, "Discord login is not configured")
		return
	}
	fail := func(err error, msg string) {
		a.log.WithError(err).Warn(msg)
		http.Redirect(w, r, a.frontendURL+"/auth?error=discord-auth-failed", http.StatusFound)
	}

	profile, err := a.discord.Complete(r.Context(), w, r)
	if err != nil {
		fail(err, "Discord callback rejected")
		return
	}
	user, err := a.auth.LoginDiscord(r.Context(), *profile)
	if err != nil {
		fail(err, "Discord login failed")
		return
	}
	if err := a.startSession(w, r, user); err != nil {
		fail(err, "Failed to create session after Discord login")
		return
	}
	a.log.WithFields(logrus.Fields{"user_id": user.ID, "discord_id": profile.ID}).Info("Discord login completed")
	http.Redirect(w, r, a.frontendURL+"/dashboard", http.StatusFound)
}
