package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/turnstile/pkg/cryptox"
	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
)

// Store backends selectable through AUTH_STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Store         string // Optional: credential backend (memory, sqlite, postgres, redis) (default: sqlite)
	DatabaseFile  string // Optional: path to SQLite database file (default: ./auth.db)
	PostgresDSN   string // Required for postgres
	RedisAddr     string // Optional: redis address (default: localhost:6379)
	RedisPassword string // Optional
	RedisDB       int    // Optional: redis logical database (default: 0)
	RedisPrefix   string // Optional: key prefix (default: turnstile)

	HashScheme string // Optional: bcrypt or argon2id (default: bcrypt)
	HashCost   int    // Optional: work factor (default: 13 for bcrypt, 2 for argon2id)

	Algorithm     string        // Optional: HS256, HS384, HS512, RS256, ES256, EdDSA (default: HS256)
	Secret        string        // Optional: HMAC secret or PEM private key
	SecretFile    string        // Optional: file holding Secret
	TokenLifetime time.Duration // Optional (default: 30m)
	TokenLeeway   time.Duration // Optional (default: 60s)
	Issuer        string        // Optional: sets and checks the iss claim

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 3000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	scheme := strings.ToLower(getEnvOrDefault("AUTH_HASH_SCHEME", string(cryptox.SchemeBcrypt)))

	return Config{
		Store:         strings.ToLower(getEnvOrDefault("AUTH_STORE", StoreSQLite)),
		DatabaseFile:  getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PostgresDSN:   os.Getenv("AUTH_POSTGRES_DSN"),
		RedisAddr:     getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("AUTH_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("AUTH_REDIS_DB", 0),
		RedisPrefix:   getEnvOrDefault("AUTH_REDIS_PREFIX", "turnstile"),

		HashScheme: scheme,
		HashCost:   getEnvIntOrDefault("AUTH_HASH_COST", cryptox.DefaultPolicy(cryptox.Scheme(scheme)).Cost),

		Algorithm:     getEnvOrDefault("AUTH_TOKEN_ALGORITHM", string(jwtx.HS256)),
		Secret:        os.Getenv("AUTH_TOKEN_SECRET"),
		SecretFile:    os.Getenv("AUTH_TOKEN_SECRET_FILE"),
		TokenLifetime: getEnvDurationOrDefault("AUTH_TOKEN_LIFETIME", jwtx.DefaultLifetime),
		TokenLeeway:   getEnvDurationOrDefault("AUTH_TOKEN_LEEWAY", jwtx.DefaultLeeway),
		Issuer:        os.Getenv("AUTH_ISSUER"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports settings that cannot start a service.
func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("AUTH_POSTGRES_DSN is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	if c.Store == StoreSQLite && c.DatabaseFile == "" {
		errs = append(errs, errors.New("AUTH_DATABASE_FILE must not be empty"))
	}

	switch cryptox.Scheme(c.HashScheme) {
	case cryptox.SchemeBcrypt, cryptox.SchemeArgon2id:
	default:
		errs = append(errs, fmt.Errorf("unknown hash scheme %q", c.HashScheme))
	}

	if _, err := jwtx.ParseAlgorithm(c.Algorithm); err != nil {
		errs = append(errs, err)
	}

	if c.Secret != "" && c.SecretFile != "" {
		errs = append(errs, errors.New("set only one of AUTH_TOKEN_SECRET and AUTH_TOKEN_SECRET_FILE"))
	}
	if c.Secret == "" && c.SecretFile == "" && c.Env != "dev" {
		errs = append(errs, errors.New("a token secret is required outside dev"))
	}

	if c.TokenLifetime <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_LIFETIME must be positive"))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_LEEWAY must not be negative"))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
