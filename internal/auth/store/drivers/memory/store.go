// Package memory is a process-local credential store. Everything is lost on
// exit; it backs tests and the AUTH_STORE=memory development mode.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
)

// Store keeps credentials in a map keyed by identity.
type Store struct {
	mu      sync.Mutex
	records map[string]domain.Credential
}

var _ store.Credentials = (*Store)(nil)

func NewStore() *Store {
	return &Store{records: make(map[string]domain.Credential)}
}

func (s *Store) Insert(ctx context.Context, c domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Salt = slices.Clone(c.Salt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[c.Identity]; ok {
		return store.ErrAlreadyExists
	}
	s.records[c.Identity] = c
	return nil
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credential{}, err
	}

	s.mu.Lock()
	c, ok := s.records[identity]
	s.mu.Unlock()

	if !ok {
		return domain.Credential{}, store.ErrNotFound
	}
	c.Salt = slices.Clone(c.Salt)
	return c, nil
}

// Len reports how many credentials are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }
