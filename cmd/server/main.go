package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minepanel/internal/api"
	"minepanel/internal/auth"
	"minepanel/internal/config"
	"minepanel/internal/crypto"
	"minepanel/internal/db"
	"minepanel/internal/models"
	"minepanel/internal/session"
	"minepanel/internal/skyport"
	"minepanel/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := newLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
	log.Info("Server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Production() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	return log
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer records.Close()

	sessions, memSessions, closeSessions, err := openSessions(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()

	authService := auth.NewService(records, cfg.AdminDiscordIDs, log)
	if err := seed(ctx, cfg, authService, records, log); err != nil {
		return err
	}

	var discord *auth.DiscordOAuth
	if cfg.DiscordEnabled() {
		discord = auth.NewDiscordOAuth(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordCallbackURL, cfg.SessionSecret, cfg.SecureCookies)
		log.WithField("callback_url", cfg.DiscordCallbackURL).Info("Discord login enabled")
	} else {
		log.Warn("DISCORD_CLIENT_ID or DISCORD_CLIENT_SECRET not set, Discord login disabled")
	}

	handlers := api.New(api.Deps{
		Store:         records,
		Sessions:      sessions,
		Auth:          authService,
		Gate:          auth.NewGate(sessions, records),
		Discord:       discord,
		Panel:         skyport.NewProxy(records, nil),
		Log:           log,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		FrontendURL:   cfg.FrontendURLs[0],
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.FrontendURLs,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Session-Token"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(handlers.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.AppEnv}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if memSessions != nil {
		g.Go(func() error {
			memSessions.RunSweeper(gctx, cfg.SessionSweepInterval, log)
			return nil
		})
	}
	return g.Wait()
}

func openStore(cfg *config.Config, log *logrus.Logger) (store.Store, error) {
	defaults := models.DefaultSettings(cfg.DashboardName, cfg.SkyportAPIURL)
	if cfg.StoreBackend == config.StoreMemory {
		log.Warn("Using in-memory record store, data is lost on restart")
		return store.NewMemoryStore(defaults), nil
	}

	conn, err := db.Open(cfg.StoreBackend, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	var cipher *crypto.Cipher
	if cfg.EncryptionKey != "" {
		if cipher, err = crypto.NewCipher(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
	} else {
		log.Warn("ENCRYPTION_KEY not set, Skyport API key is stored unencrypted")
	}
	return store.NewGormStore(conn, cipher, defaults)
}

// openSessions returns the session store and, for the memory backend, the
// concrete store so the caller can run its sweeper.
func openSessions(ctx context.Context, cfg *config.Config, log *logrus.Logger) (session.Store, *session.MemoryStore, func(), error) {
	if cfg.SessionBackend == config.SessionRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("Redis session store connected")
		return session.NewRedisStore(client, cfg.RedisKeyPrefix, cfg.SessionTTL), nil, func() { client.Close() }, nil
	}

	mem := session.NewMemoryStore(cfg.SessionTTL)
	return mem, mem, func() {}, nil
}

func seed(ctx context.Context, cfg *config.Config, authService *auth.Service, records store.Store, log *logrus.Logger) error {
	if cfg.AdminPassword != "" {
		user, created, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if !created {
			log.WithField("user_id", user.ID).Debug("Bootstrap admin already exists")
		}
	}
	if cfg.SeedSampleServers {
		n, err := store.SeedSampleServers(ctx, records)
		if err != nil {
			return fmt.Errorf("seed servers: %w", err)
		}
		log.WithField("created", n).Info("Sample servers seeded")
	}
	return nil
}
