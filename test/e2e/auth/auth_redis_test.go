package auth_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/turnstile/internal/auth/app"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/storetest"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// TestRedisStore runs the shared store suite against a real server. Each
// subtest gets its own prefix so records never collide.
func TestRedisStore(t *testing.T) {
	addr := setupRedis(t)

	storetest.Run(t, func(t *testing.T) store.Credentials {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		s := redis.New(client, "e2e-"+uuid.NewString())
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Ping(context.Background()))
		return s
	})
}

// TestRedisService drives the HTTP flow with redis as the backend.
func TestRedisService(t *testing.T) {
	cfg := baseConfig()
	cfg.Store = app.StoreRedis
	cfg.RedisAddr = setupRedis(t)

	client := startService(t, cfg)
	runScenario(t, client, "a@x.io")

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)

	live, err := client.GetLiveness(t.Context())
	assertHealthy(t, live, err)
}
