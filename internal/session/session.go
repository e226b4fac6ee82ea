// Package session maps opaque tokens to authenticated users.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a session lives after it is created.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned by backends for malformed tokens.
var ErrInvalidToken = errors.New("session: invalid token")

// Identity is what a session token resolves to.
type Identity struct {
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the narrow port the rest of the service depends on.
type Store interface {
	Create(ctx context.Context, identity Identity) (string, error)
	// Resolve returns nil, nil for unknown or expired tokens.
	Resolve(ctx context.Context, token string) (*Identity, error)
	Destroy(ctx context.Context, token string) error
}

// NewToken returns 32 random bytes in URL-safe base64.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
