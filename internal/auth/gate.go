package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"minepanel/internal/models"
	"minepanel/internal/session"
	"minepanel/internal/store"
)

const SessionCookieName = "minepanel_session"

// Gate answers "who is calling, and may they do this" for a request. It never
// touches the session it resolves.
type Gate struct {
	sessions session.Store
	users    store.UserStore
}

func NewGate(sessions session.Store, users store.UserStore) *Gate {
	return &Gate{sessions: sessions, users: users}
}

// TokenFromRequest reads the session token from the cookie or a Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (g *Gate) RequireAuthenticated(r *http.Request) (*models.User, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	identity, err := g.sessions.Resolve(r.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	user, err := g.users.GetUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}

func (g *Gate) RequireAdmin(r *http.Request) (*models.User, error) {
	user, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return user, ErrForbidden
	}
	return user, nil
}
