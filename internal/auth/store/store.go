package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Credentials is the keyed credential store. Concrete drivers (memory,
// sqlite, postgres, redis) implement it and must all behave the same way,
// which the storetest suite checks.
type Credentials interface {
	// Insert stores c unless its identity is already taken, in which case it
	// returns ErrAlreadyExists and leaves the existing record untouched. The
	// check and the write are a single atomic step.
	Insert(ctx context.Context, c domain.Credential) error

	// Get returns the credential for identity or ErrNotFound.
	Get(ctx context.Context, identity string) (domain.Credential, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
