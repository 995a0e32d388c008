package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/turnstile/internal/auth/http"
	"github.com/aussiebroadwan/turnstile/internal/auth/service"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/turnstile/pkg/cryptox"
	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
	"github.com/aussiebroadwan/turnstile/pkg/slogx"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Credentials
	hasher    *cryptox.Hasher
	authority *jwtx.Authority
	sessions  *service.SessionService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "turnstile",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Close releases the credential store without touching the HTTP server.
// Use it when the handler was served by something other than Run.
func (app *Application) Close() error { return app.db.Close() }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"store", app.cfg.Store,
		"algorithm", app.authority.Algorithm(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing credential store", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured credential store and applies its schema.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := openStore(ctx, app.cfg)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("credential store ready", "store", app.cfg.Store)
	return nil
}

func openStore(ctx context.Context, cfg Config) (store.Credentials, error) {
	switch cfg.Store {
	case StoreMemory:
		return memory.NewStore(), nil

	case StoreSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		return db, nil

	case StorePostgres:
		db, err := postgres.NewStore(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		return db, nil

	case StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		db := redis.New(client, cfg.RedisPrefix)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// initServices builds the hasher, the token authority and the session façade.
func (app *Application) initServices() error {
	hasher, err := cryptox.NewHasher(cryptox.Policy{
		Scheme: cryptox.Scheme(app.cfg.HashScheme),
		Cost:   app.cfg.HashCost,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	app.hasher = hasher

	alg, err := jwtx.ParseAlgorithm(app.cfg.Algorithm)
	if err != nil {
		return err
	}

	secret, err := LoadSigningSecret(app.cfg, alg, app.logger)
	if err != nil {
		return err
	}

	authority, err := jwtx.NewAuthority(jwtx.Policy{
		Lifetime:  app.cfg.TokenLifetime,
		Leeway:    app.cfg.TokenLeeway,
		Algorithm: alg,
		Secret:    secret,
		Issuer:    app.cfg.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token authority: %w", err)
	}
	app.authority = authority

	app.sessions = &service.SessionService{
		Credentials: &service.CredentialStore{Records: app.db, Hasher: app.hasher},
		Tokens:      app.authority,
	}

	app.logger.Info("token authority ready",
		"algorithm", alg,
		"lifetime", app.cfg.TokenLifetime,
		"leeway", app.cfg.TokenLeeway,
		"hash_scheme", app.cfg.HashScheme,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.sessions, app.db, BuildVersion, app.logger)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
