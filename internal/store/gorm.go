package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"minepanel/internal/crypto"
	"minepanel/internal/db"
	"minepanel/internal/models"

	"gorm.io/gorm"
)

// settingsRow is the persisted form of models.Settings. SkyportAPIKeySealed
// records whether SkyportAPIKey holds ciphertext; the value itself is never
// inspected to decide.
type settingsRow struct {
	ID                  uint   `gorm:"primaryKey"`
	DashboardName       string `gorm:"not null"`
	SkyportAPIKey       string
	SkyportAPIKeySealed bool `gorm:"not null;default:false"`
	SkyportAPIURL       string
}

func (settingsRow) TableName() string { return "settings" }

// GormStore persists records through gorm (sqlite, postgres or mysql).
type GormStore struct {
	db     *gorm.DB
	cipher *crypto.Cipher
}

// NewGormStore migrates the schema and makes sure the settings row exists.
// With a nil cipher the API key is stored in plain text.
func NewGormStore(conn *gorm.DB, cipher *crypto.Cipher, defaults models.Settings) (*GormStore, error) {
	if conn == nil {
		return nil, errors.New("store: nil database connection")
	}
	if err := db.Migrate(conn, &models.User{}, &settingsRow{}, &models.Server{}); err != nil {
		return nil, err
	}

	s := &GormStore{db: conn, cipher: cipher}

	row, err := s.toRow(defaults)
	if err != nil {
		return nil, err
	}
	row.ID = models.SettingsID
	if err := conn.Where(settingsRow{ID: models.SettingsID}).FirstOrCreate(&row).Error; err != nil {
		return nil, fmt.Errorf("store: seed settings: %w", err)
	}
	return s, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicateEntryError(err):
		return ErrDuplicate
	}
	return err
}

func isDuplicateEntryError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, fmt.Errorf("gorm: find user %d: %w", id, mapError(err))
	}
	return &u, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username_key = ?", models.UsernameKey(username)).First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find user by username %q: %w", username, mapError(err))
	}
	return &u, nil
}

func (s *GormStore) GetUserByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&u).Error; err != nil {
		return nil, fmt.Errorf("gorm: find user by discord id: %w", mapError(err))
	}
	return &u, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = 0
	u.UsernameKey = models.UsernameKey(u.Username)
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("gorm: create user %q: %w", u.Username, mapError(err))
	}
	return nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		patch.Apply(&u)
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: update user %d: %w", id, mapError(err))
	}
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("gorm: list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) toRow(settings models.Settings) (settingsRow, error) {
	row := settingsRow{
		ID:            settings.ID,
		DashboardName: settings.DashboardName,
		SkyportAPIKey: settings.SkyportAPIKey,
		SkyportAPIURL: settings.SkyportAPIURL,
	}
	if s.cipher != nil && row.SkyportAPIKey != "" {
		sealed, err := s.cipher.Encrypt(row.SkyportAPIKey)
		if err != nil {
			return row, fmt.Errorf("store: encrypt api key: %w", err)
		}
		row.SkyportAPIKey = sealed
		row.SkyportAPIKeySealed = true
	}
	return row, nil
}

func (s *GormStore) openKey(row settingsRow) (string, error) {
	if !row.SkyportAPIKeySealed {
		return row.SkyportAPIKey, nil
	}
	if s.cipher == nil {
		return "", errors.New("store: api key is encrypted but no ENCRYPTION_KEY is configured")
	}
	plain, err := s.cipher.Decrypt(row.SkyportAPIKey)
	if err != nil {
		return "", fmt.Errorf("store: decrypt api key: %w", err)
	}
	return plain, nil
}

func (s *GormStore) fromRow(row settingsRow) (*models.Settings, error) {
	key, err := s.openKey(row)
	if err != nil {
		return nil, err
	}
	return &models.Settings{
		ID:            row.ID,
		DashboardName: row.DashboardName,
		SkyportAPIKey: key,
		SkyportAPIURL: row.SkyportAPIURL,
	}, nil
}

func (s *GormStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	var row settingsRow
	if err := s.db.WithContext(ctx).First(&row, models.SettingsID).Error; err != nil {
		return nil, fmt.Errorf("gorm: load settings: %w", mapError(err))
	}
	return s.fromRow(row)
}

// UpdateSettings merges patch into the stored record. When the patch replaces
// the API key the old one is not decrypted, so a key sealed under a lost
// ENCRYPTION_KEY can still be overwritten.
func (s *GormStore) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	var updated *models.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row settingsRow
		if err := tx.First(&row, models.SettingsID).Error; err != nil {
			return err
		}
		current := &models.Settings{
			ID:            row.ID,
			DashboardName: row.DashboardName,
			SkyportAPIURL: row.SkyportAPIURL,
		}
		if patch.SkyportAPIKey == nil {
			key, err := s.openKey(row)
			if err != nil {
				return err
			}
			current.SkyportAPIKey = key
		}
		patch.Apply(current)

		next, err := s.toRow(*current)
		if err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: update settings: %w", mapError(err))
	}
	return updated, nil
}

func (s *GormStore) GetServer(ctx context.Context, id uint) (*models.Server, error) {
	var srv models.Server
	if err := s.db.WithContext(ctx).First(&srv, id).Error; err != nil {
		return nil, fmt.Errorf("gorm: find server %d: %w", id, mapError(err))
	}
	return &srv, nil
}

func (s *GormStore) GetServerByIdentifier(ctx context.Context, identifier string) (*models.Server, error) {
	var srv models.Server
	if err := s.db.WithContext(ctx).Where("identifier = ?", identifier).First(&srv).Error; err != nil {
		return nil, fmt.Errorf("gorm: find server %q: %w", identifier, mapError(err))
	}
	return &srv, nil
}

func (s *GormStore) CreateServer(ctx context.Context, srv *models.Server) error {
	now := time.Now()
	srv.ID = 0
	srv.LastSeen = &now
	if err := s.db.WithContext(ctx).Create(srv).Error; err != nil {
		return fmt.Errorf("gorm: create server %q: %w", srv.Identifier, mapError(err))
	}
	return nil
}

func (s *GormStore) UpdateServer(ctx context.Context, id uint, patch models.ServerPatch) (*models.Server, error) {
	var srv models.Server
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&srv, id).Error; err != nil {
			return err
		}
		patch.Apply(&srv)
		return tx.Save(&srv).Error
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: update server %d: %w", id, mapError(err))
	}
	return &srv, nil
}

func (s *GormStore) ListServers(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	if err := s.db.WithContext(ctx).Order("id").Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("gorm: list servers: %w", err)
	}
	return servers, nil
}
