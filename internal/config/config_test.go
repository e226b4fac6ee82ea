package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "FRONTEND_URL", "DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET",
	"DISCORD_CALLBACK_URL", "ADMIN_DISCORD_IDS", "SESSION_BACKEND", "SESSION_TTL", "SESSION_SWEEP_INTERVAL",
	"SESSION_SECRET", "SECURE_COOKIES", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
	"STORE_BACKEND", "DATABASE_URL", "ENCRYPTION_KEY", "DASHBOARD_NAME", "SKYPORT_API_URL",
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "SEED_SAMPLE_SERVERS",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range managedEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.FrontendURLs)
	assert.Equal(t, SessionMemory, cfg.SessionBackend)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.SessionSweepInterval)
	assert.Equal(t, "http://localhost:5000/api/auth/discord/callback", cfg.DiscordCallbackURL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.False(t, cfg.DiscordEnabled())
	assert.False(t, cfg.SecureCookies)
	assert.Empty(t, cfg.AdminDiscordIDs)
}

func TestLoadParsesLists(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_DISCORD_IDS", "111, 222,,333 ")
	t.Setenv("FRONTEND_URL", "https://a.example.com,https://b.example.com")
	t.Setenv("DISCORD_CLIENT_ID", "id")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.AdminDiscordIDs)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.FrontendURLs)
	assert.True(t, cfg.DiscordEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":          {"SESSION_TTL": "tomorrow"},
		"negative ttl":     {"SESSION_TTL": "-1h"},
		"bad backend":      {"SESSION_BACKEND": "memcached"},
		"bad store":        {"STORE_BACKEND": "oracle"},
		"sql without dsn":  {"STORE_BACKEND": "postgres"},
		"bad bool":         {"SEED_SAMPLE_SERVERS": "maybe"},
		"bad log level":    {"LOG_LEVEL": "loud"},
		"prod w/o secret":  {"APP_ENV": "production"},
		"bad redis db num": {"REDIS_DB": "zero"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadProductionDefaultsToSecureCookies(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("DATABASE_URL", "/tmp/minepanel.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
}
