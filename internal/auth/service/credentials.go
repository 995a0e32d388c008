package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/pkg/cryptox"
	"github.com/aussiebroadwan/turnstile/pkg/idx"
)

// CredentialStore adds and verifies password credentials on top of a
// store.Credentials driver.
type CredentialStore struct {
	Records store.Credentials
	Hasher  *cryptox.Hasher

	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time
}

// Add stores a credential for identity if it has none yet. It reports false,
// without touching the existing record, when the identity is taken.
func (s *CredentialStore) Add(ctx context.Context, identity, password string) (bool, error) {
	// Skip the expensive hash for identities we already know are taken. The
	// insert below still decides races.
	switch _, err := s.Records.Get(ctx, identity); {
	case err == nil:
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	encoded, salt, err := s.Hasher.Hash(password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return false, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return false, fmt.Errorf("%w: %w", ErrHashingFailure, err)
	}

	c := domain.Credential{
		ID:           idx.New().String(),
		Identity:     identity,
		PasswordHash: encoded,
		Salt:         salt,
		Scheme:       string(s.Hasher.Policy().Scheme),
		CreatedAt:    s.now().UTC(),
	}

	switch err := s.Records.Insert(ctx, c); {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
}

// Verify reports whether password matches the credential stored for
// identity. Unknown identities and wrong passwords both yield false.
func (s *CredentialStore) Verify(ctx context.Context, identity, password string) (bool, error) {
	c, err := s.Records.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Hasher.VerifyDummy(password)
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	ok, err := s.Hasher.Verify(password, c.PasswordHash, c.Salt)
	if err != nil {
		return false, fmt.Errorf("%w: credential %s: %w", ErrHashingFailure, c.ID, err)
	}
	return ok, nil
}

func (s *CredentialStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
