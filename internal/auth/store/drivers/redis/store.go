// Package redis stores each credential as one JSON value under
// "<prefix>:credential:<identity>". Writes use SETNX so the first writer for
// an identity wins.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "turnstile"

type record struct {
	ID           string    `json:"id"`
	Identity     string    `json:"identity"`
	PasswordHash string    `json:"password_hash"`
	Salt         []byte    `json:"salt"`
	Scheme       string    `json:"scheme"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store struct {
	client *goredis.Client
	prefix string
}

var _ store.Credentials = (*Store)(nil)

// New wraps client. The Store takes ownership and closes it.
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(identity string) string {
	return s.prefix + ":credential:" + identity
}

func (s *Store) Insert(ctx context.Context, c domain.Credential) error {
	encoded, err := json.Marshal(record{
		ID:           c.ID,
		Identity:     c.Identity,
		PasswordHash: c.PasswordHash,
		Salt:         c.Salt,
		Scheme:       c.Scheme,
		CreatedAt:    c.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("redis: encode credential: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(c.Identity), encoded, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: insert credential: %w", err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Credential, error) {
	raw, err := s.client.Get(ctx, s.key(identity)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Credential{}, store.ErrNotFound
		}
		return domain.Credential{}, fmt.Errorf("redis: get credential: %w", err)
	}

	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Credential{}, fmt.Errorf("redis: decode credential: %w", err)
	}

	return domain.Credential{
		ID:           r.ID,
		Identity:     r.Identity,
		PasswordHash: r.PasswordHash,
		Salt:         r.Salt,
		Scheme:       r.Scheme,
		CreatedAt:    r.CreatedAt.UTC(),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }
