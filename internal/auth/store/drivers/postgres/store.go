// Package postgres stores credentials in PostgreSQL through the pgx
// database/sql driver. The schema is managed with goose.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/postgres/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	insertCredential = `INSERT INTO credentials (id, identity, password_hash, salt, scheme, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (identity) DO NOTHING`

	selectCredential = `SELECT id, identity, password_hash, salt, scheme, created_at
FROM credentials
WHERE identity = $1`
)

type Store struct {
	db *sql.DB
}

var _ store.Credentials = (*Store)(nil)

// NewStore opens a pool against dsn. Call ApplyMigrations before use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return New(db), nil
}

// New wraps an existing handle. The Store takes ownership and closes it.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ApplyMigrations runs the embedded goose migrations.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

// DB exposes the underlying handle for maintenance tasks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Insert(ctx context.Context, c domain.Credential) error {
	res, err := s.db.ExecContext(ctx, insertCredential,
		c.ID, c.Identity, c.PasswordHash, c.Salt, c.Scheme, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("postgres: insert credential: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: insert credential: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Credential, error) {
	var c domain.Credential
	err := s.db.QueryRowContext(ctx, selectCredential, identity).Scan(
		&c.ID, &c.Identity, &c.PasswordHash, &c.Salt, &c.Scheme, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, store.ErrNotFound
		}
		return domain.Credential{}, fmt.Errorf("postgres: get credential: %w", err)
	}

	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}
