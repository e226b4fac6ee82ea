package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port         string
	AppEnv       string
	LogLevel     string
	FrontendURLs []string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordCallbackURL  string
	AdminDiscordIDs     []string

	SessionBackend       string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	SessionSecret        string
	SecureCookies        bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	StoreBackend  string
	DatabaseURL   string
	EncryptionKey string

	DashboardName     string
	SkyportAPIURL     string
	AdminUsername     string
	AdminPassword     string
	SeedSampleServers bool
}

// DiscordEnabled reports whether OAuth credentials were supplied.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                os.Getenv("PORT"),
		AppEnv:              os.Getenv("APP_ENV"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		FrontendURLs:        splitList(os.Getenv("FRONTEND_URL")),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordCallbackURL:  os.Getenv("DISCORD_CALLBACK_URL"),
		AdminDiscordIDs:     splitList(os.Getenv("ADMIN_DISCORD_IDS")),
		SessionBackend:      strings.ToLower(os.Getenv("SESSION_BACKEND")),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisKeyPrefix:      os.Getenv("REDIS_KEY_PREFIX"),
		StoreBackend:        strings.ToLower(os.Getenv("STORE_BACKEND")),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		EncryptionKey:       os.Getenv("ENCRYPTION_KEY"),
		DashboardName:       os.Getenv("DASHBOARD_NAME"),
		SkyportAPIURL:       os.Getenv("SKYPORT_API_URL"),
		AdminUsername:       os.Getenv("ADMIN_USERNAME"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	if len(cfg.FrontendURLs) == 0 {
		cfg.FrontendURLs = []string{"http://localhost:5173"}
	}
	if cfg.DiscordCallbackURL == "" {
		cfg.DiscordCallbackURL = "http://localhost:5000/api/auth/discord/callback"
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "127.0.0.1:6379"
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = durationEnv("SESSION_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SeedSampleServers, err = boolEnv("SEED_SAMPLE_SERVERS", false); err != nil {
		return nil, err
	}
	if cfg.SecureCookies, err = boolEnv("SECURE_COOKIES", cfg.Production()); err != nil {
		return nil, err
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
	}

	switch cfg.SessionBackend {
	case "":
		cfg.SessionBackend = SessionMemory
	case SessionMemory, SessionRedis:
	default:
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}

	switch cfg.StoreBackend {
	case "":
		cfg.StoreBackend = StoreMemory
	case StoreMemory:
	case StoreSQLite, StorePostgres, StoreMySQL:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set for STORE_BACKEND=%s", cfg.StoreBackend)
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.Production() && cfg.SessionSecret == "" {
		return nil, fmt.Errorf("environment variable SESSION_SECRET must be set in production")
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive duration like 24h", name, v)
	}
	return d, nil
}

func boolEnv(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return b, nil
}
