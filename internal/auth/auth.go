package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"minepanel/internal/models"
	"minepanel/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrAuthBackend        = errors.New("authentication backend error")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("not authorized")
)

// Service verifies credentials and maps external identities onto local users.
type Service struct {
	users    store.UserStore
	adminIDs map[string]struct{}
	log      logrus.FieldLogger
}

// NewService builds the auth service. adminDiscordIDs is the allow-list that
// decides isAdmin for users created through Discord.
func NewService(users store.UserStore, adminDiscordIDs []string, log logrus.FieldLogger) *Service {
	if users == nil {
		panic("UserStore cannot be nil for auth.Service")
	}
	ids := make(map[string]struct{}, len(adminDiscordIDs))
	for _, id := range adminDiscordIDs {
		ids[id] = struct{}{}
	}
	return &Service{users: users, adminIDs: ids, log: log}
}

func (s *Service) isAdminDiscordID(id string) bool {
	_, ok := s.adminIDs[id]
	return ok
}

// Login checks a local username and password. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	logCtx := s.log.WithField("username", username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			comparePassword(dummyHash(), password)
			logCtx.Warn("Login attempt failed: user not found")
			return nil, ErrInvalidCredentials
		}
		logCtx.WithError(err).Error("Login attempt failed: error finding user")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}

	if !user.HasPassword() {
		comparePassword(dummyHash(), password)
		logCtx.Warn("Login attempt failed: account has no local password")
		return nil, ErrInvalidCredentials
	}
	if !comparePassword(user.PasswordHash, password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, ErrInvalidCredentials
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in")
	return user, nil
}

// Register creates a local account.
func (s *Service) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	logCtx := s.log.WithField("username", username)

	req := models.RegisterRequest{Username: username, Password: password, Email: email}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}

	user := &models.User{Username: username, PasswordHash: hash, Email: email}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			logCtx.Warn("Registration failed: username already exists")
			return nil, ErrUsernameTaken
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}

	logCtx.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// DiscordProfile is the identity returned by Discord after the OAuth exchange.
type DiscordProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Email    string `json:"email"`
}

// LoginDiscord finds or creates the local user for a Discord profile. The admin
// allow-list is consulted only when the user is created.
func (s *Service) LoginDiscord(ctx context.Context, profile DiscordProfile) (*models.User, error) {
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: discord profile has no id", ErrAuthBackend)
	}
	logCtx := s.log.WithFields(logrus.Fields{"discord_id": profile.ID, "discord_username": profile.Username})

	user, err := s.users.GetUserByDiscordID(ctx, profile.ID)
	switch {
	case err == nil:
		return s.refreshDiscordUser(ctx, user, profile, logCtx)
	case !errors.Is(err, store.ErrNotFound):
		logCtx.WithError(err).Error("Discord login failed: error finding user")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}

	username, err := s.freeUsername(ctx, profile)
	if errors.Is(err, ErrUsernameTaken) {
		logCtx.Warn("Discord login failed: no free username")
		return nil, err
	}
	if err != nil {
		logCtx.WithError(err).Error("Discord login failed: error picking username")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}

	discordID := profile.ID
	user = &models.User{
		Username:        username,
		Email:           profile.Email,
		DiscordID:       &discordID,
		DiscordUsername: profile.Username,
		DiscordAvatar:   profile.Avatar,
		IsAdmin:         s.isAdminDiscordID(profile.ID),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// a concurrent first login for the same account won the insert
			if existing, lookupErr := s.users.GetUserByDiscordID(ctx, profile.ID); lookupErr == nil {
				return s.refreshDiscordUser(ctx, existing, profile, logCtx)
			}
		}
		logCtx.WithError(err).Error("Discord login failed: error creating user")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}

	logCtx.WithFields(logrus.Fields{"user_id": user.ID, "is_admin": user.IsAdmin}).Info("User created from Discord login")
	return user, nil
}

func (s *Service) refreshDiscordUser(ctx context.Context, user *models.User, profile DiscordProfile, logCtx logrus.FieldLogger) (*models.User, error) {
	updated, err := s.users.UpdateUser(ctx, user.ID, models.UserPatch{
		DiscordUsername: &profile.Username,
		DiscordAvatar:   &profile.Avatar,
		Email:           &profile.Email,
	})
	if err != nil {
		logCtx.WithError(err).Error("Discord login failed: error refreshing profile")
		return nil, fmt.Errorf("%w: %v", ErrAuthBackend, err)
	}
	logCtx.WithField("user_id", updated.ID).Info("User logged in with Discord")
	return updated, nil
}

const maxUsernameSuffix = 100

// freeUsername returns the Discord username, or the first free variant among
// "name-2".."name-100", "name-<discord id>" and a few random "name-xxxxxxxx"
// suffixes. ErrUsernameTaken is returned when every candidate is in use.
func (s *Service) freeUsername(ctx context.Context, profile DiscordProfile) (string, error) {
	base := strings.TrimSpace(profile.Username)
	if base == "" {
		base = "discord-" + profile.ID
	}
	candidates := make([]string, 0, maxUsernameSuffix+4)
	candidates = append(candidates, base)
	for n := 2; n <= maxUsernameSuffix; n++ {
		candidates = append(candidates, fmt.Sprintf("%s-%d", base, n))
	}
	candidates = append(candidates, base+"-"+profile.ID)
	for i := 0; i < 3; i++ {
		candidates = append(candidates, base+"-"+uuid.NewString()[:8])
	}

	for _, candidate := range candidates {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrUsernameTaken
}

// EnsureAdmin creates the bootstrap admin account if no user has that name yet.
// The password is hashed here, at creation time.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*models.User, bool, error) {
	existing, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{Username: username, PasswordHash: hash, IsAdmin: true}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("Bootstrap admin created")
	return user, true, nil
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// comparePassword runs bcrypt's constant-time comparison.
func comparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when there is no real hash, so that a missing
// user costs the same time as a wrong password.
func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = HashPassword("minepanel-placeholder-password")
	})
	return dummy
}
