package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDiscord(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"discord-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer discord-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(DiscordProfile{ID: "80351110224678912", Username: "nelly", Avatar: "8342729096ea3675442027381ff50dfe", Email: "nelly@example.com"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOAuth(srv *httptest.Server) *DiscordOAuth {
	d := NewDiscordOAuth("client", "secret", "http://localhost/api/auth/discord/callback", "state-secret", false)
	d.config.Endpoint.TokenURL = srv.URL + "/token"
	d.userInfoURL = srv.URL + "/me"
	return d
}

// begin starts a flow and returns the state and its cookie.
func begin(t *testing.T, d *DiscordOAuth) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	consent, err := d.Begin(rec)
	require.NoError(t, err)

	u, err := url.Parse(consent)
	require.NoError(t, err)
	assert.Equal(t, "discord.com", u.Host)
	assert.Equal(t, "client", u.Query().Get("client_id"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, stateCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	return u.Query().Get("state"), cookies[0]
}

func callback(query url.Values, cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/auth/discord/callback?"+query.Encode(), nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestDiscordOAuth_CompleteFlow(t *testing.T) {
	d := newTestOAuth(fakeDiscord(t))
	state, cookie := begin(t, d)
	require.Equal(t, state, cookie.Value)

	rec := httptest.NewRecorder()
	profile, err := d.Complete(context.Background(), rec, callback(url.Values{"state": {state}, "code": {"good-code"}}, cookie))
	require.NoError(t, err)
	assert.Equal(t, "80351110224678912", profile.ID)
	assert.Equal(t, "nelly", profile.Username)
	assert.Equal(t, "nelly@example.com", profile.Email)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestDiscordOAuth_RejectsBadState(t *testing.T) {
	d := newTestOAuth(fakeDiscord(t))
	state, cookie := begin(t, d)
	ctx := context.Background()

	_, err := d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {state}, "code": {"good-code"}}, nil))
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {"other"}, "code": {"good-code"}}, cookie))
	assert.ErrorIs(t, err, ErrInvalidState)

	// a state signed by someone else is rejected even when cookie and query agree
	forged, err := NewDiscordOAuth("client", "secret", "", "another-secret", false).newState(time.Now())
	require.NoError(t, err)
	forgedCookie := &http.Cookie{Name: stateCookieName, Value: forged}
	_, err = d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {forged}, "code": {"good-code"}}, forgedCookie))
	assert.ErrorIs(t, err, ErrInvalidState)

	expired, err := d.newState(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {expired}, "code": {"good-code"}}, &http.Cookie{Name: stateCookieName, Value: expired}))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDiscordOAuth_ExchangeFailures(t *testing.T) {
	d := newTestOAuth(fakeDiscord(t))
	ctx := context.Background()

	state, cookie := begin(t, d)
	_, err := d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {state}, "code": {"bad-code"}}, cookie))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidState)

	state, cookie = begin(t, d)
	_, err = d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {state}, "error": {"access_denied"}}, cookie))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")

	state, cookie = begin(t, d)
	_, err = d.Complete(ctx, httptest.NewRecorder(), callback(url.Values{"state": {state}}, cookie))
	require.Error(t, err)
}
