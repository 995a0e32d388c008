package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/service"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/turnstile/pkg/cryptox"
	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newCredentialStore(t *testing.T, records store.Credentials) *service.CredentialStore {
	t.Helper()

	h, err := cryptox.NewHasher(cryptox.Policy{Scheme: cryptox.SchemeBcrypt, Cost: bcrypt.MinCost})
	require.NoError(t, err)

	if records == nil {
		records = memory.NewStore()
	}
	return &service.CredentialStore{Records: records, Hasher: h}
}

func newSessionService(t *testing.T, opts ...jwtx.Option) *service.SessionService {
	t.Helper()

	a, err := jwtx.NewAuthority(jwtx.Policy{
		Lifetime:  30 * time.Minute,
		Leeway:    60 * time.Second,
		Algorithm: jwtx.HS256,
		Secret:    []byte("secret"),
	}, opts...)
	require.NoError(t, err)

	return &service.SessionService{
		Credentials: newCredentialStore(t, nil),
		Tokens:      a,
	}
}

// brokenStore fails every call with err.
type brokenStore struct{ err error }

func (b brokenStore) Insert(context.Context, domain.Credential) error { return b.err }
func (b brokenStore) Get(context.Context, string) (domain.Credential, error) {
	return domain.Credential{}, b.err
}
func (b brokenStore) Ping(context.Context) error { return b.err }
func (b brokenStore) Close() error               { return nil }

// fixedStore returns one canned record for every lookup.
type fixedStore struct {
	memory.Store
	record domain.Credential
}

func (f *fixedStore) Get(context.Context, string) (domain.Credential, error) {
	return f.record, nil
}
