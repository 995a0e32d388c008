package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	_ "modernc.org/sqlite"
)

const (
	insertCredential = `
INSERT INTO credentials (id, identity, password_hash, salt, scheme, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (identity) DO NOTHING`

	selectCredential = `
SELECT id, identity, password_hash, salt, scheme, created_at
FROM credentials
WHERE identity = ?`
)

type Store struct {
	db  *sql.DB
	dsn string
}

var _ store.Credentials = (*Store)(nil)

// NewStore opens the sqlite database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time; also keeps ":memory:" to a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Insert(ctx context.Context, c domain.Credential) error {
	res, err := s.db.ExecContext(ctx, insertCredential,
		c.ID,
		c.Identity,
		c.PasswordHash,
		c.Salt,
		c.Scheme,
		c.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert credential: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: insert credential: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Credential, error) {
	var (
		c         domain.Credential
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, selectCredential, identity).Scan(
		&c.ID,
		&c.Identity,
		&c.PasswordHash,
		&c.Salt,
		&c.Scheme,
		&createdAt,
	)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}

	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	return c, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("sqlite: %w", err)
}
