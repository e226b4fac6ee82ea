package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	stateCookieName = "minepanel_oauth_state"
	stateTTL        = 10 * time.Minute

	discordUserInfoURL = "https://discord.com/api/users/@me"
)

// DiscordEndpoint is Discord's OAuth2 authorization server.
var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var ErrInvalidState = errors.New("invalid oauth state")

// DiscordOAuth runs the authorization-code flow against Discord. The state
// parameter is a short-lived HS256 token mirrored in an HttpOnly cookie.
type DiscordOAuth struct {
	config       *oauth2.Config
	stateSecret  []byte
	userInfoURL  string
	secureCookie bool
}

func NewDiscordOAuth(clientID, clientSecret, callbackURL, stateSecret string, secureCookie bool) *DiscordOAuth {
	secret := []byte(stateSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
	}
	return &DiscordOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     DiscordEndpoint,
		},
		stateSecret:  secret,
		userInfoURL:  discordUserInfoURL,
		secureCookie: secureCookie,
	}
}

// Begin sets the state cookie and returns the Discord consent URL.
func (d *DiscordOAuth) Begin(w http.ResponseWriter) (string, error) {
	state, err := d.newState(time.Now())
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth/discord",
		Expires:  time.Now().Add(stateTTL),
		HttpOnly: true,
		Secure:   d.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return d.config.AuthCodeURL(state), nil
}

// Complete validates the callback request, exchanges the code and fetches the profile.
func (d *DiscordOAuth) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request) (*DiscordProfile, error) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return nil, fmt.Errorf("%w: missing state cookie", ErrInvalidState)
	}
	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/api/auth/discord", MaxAge: -1})

	state := r.FormValue("state")
	if state == "" || state != cookie.Value {
		return nil, fmt.Errorf("%w: state mismatch", ErrInvalidState)
	}
	if err := d.verifyState(state); err != nil {
		return nil, err
	}
	if e := r.FormValue("error"); e != "" {
		return nil, fmt.Errorf("discord returned error: %s", e)
	}

	code := r.FormValue("code")
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	token, err := d.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return d.fetchProfile(ctx, token)
}

func (d *DiscordOAuth) newState(now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	})
	signed, err := token.SignedString(d.stateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

func (d *DiscordOAuth) verifyState(state string) error {
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return d.stateSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}

func (d *DiscordOAuth) fetchProfile(ctx context.Context, token *oauth2.Token) (*DiscordProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed getting user info: discord returned %d: %s", resp.StatusCode, body)
	}

	var profile DiscordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	if profile.ID == "" {
		return nil, errors.New("discord user info has no id")
	}
	return &profile, nil
}
