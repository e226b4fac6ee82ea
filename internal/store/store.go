// Package store holds the dashboard's records: users, the settings singleton
// and servers. Handlers only see the Store interface; the backing technology
// is chosen at startup.
package store

import (
	"context"
	"errors"

	"minepanel/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a unique key (username, discord id, identifier) is already taken.
	ErrDuplicate = errors.New("store: duplicate entry")
)

type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// GetUserByUsername matches case-insensitively.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	// CreateUser assigns the next id and writes it back into u.
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error)
}

type ServerStore interface {
	GetServer(ctx context.Context, id uint) (*models.Server, error)
	GetServerByIdentifier(ctx context.Context, identifier string) (*models.Server, error)
	// CreateServer assigns the next id, stamps LastSeen and writes both back into s.
	CreateServer(ctx context.Context, s *models.Server) error
	UpdateServer(ctx context.Context, id uint, patch models.ServerPatch) (*models.Server, error)
	ListServers(ctx context.Context) ([]models.Server, error)
}

type Store interface {
	UserStore
	SettingsStore
	ServerStore
	Close() error
}
