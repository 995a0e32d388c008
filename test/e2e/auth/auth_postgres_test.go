package auth_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/turnstile/internal/auth/app"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

// TestPostgresStore runs the shared store suite against a real server.
func TestPostgresStore(t *testing.T) {
	dsn := setupPostgres(t)

	storetest.Run(t, func(t *testing.T) store.Credentials {
		s, err := postgres.NewStore(dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.ApplyMigrations(context.Background()))
		_, err = s.DB().ExecContext(context.Background(), `TRUNCATE credentials`)
		require.NoError(t, err)
		return s
	})
}

// TestPostgresService drives the HTTP flow with postgres as the backend and
// checks that credentials survive a service restart.
func TestPostgresService(t *testing.T) {
	cfg := baseConfig()
	cfg.Store = app.StorePostgres
	cfg.PostgresDSN = setupPostgres(t)

	client := startService(t, cfg)
	token := runScenario(t, client, "a@x.io")

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)

	restarted := startService(t, cfg)

	status, err := restarted.ValidateToken(t.Context(), token)
	require.NoError(t, err)
	require.True(t, status.Valid, "same secret should accept tokens across restarts")

	_, err = restarted.Login(t.Context(), "a@x.io", "pw1")
	require.NoError(t, err)
}
