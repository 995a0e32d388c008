// Package storetest is the behavioural suite every store.Credentials driver
// must pass.
package storetest

import (
	"crypto/rand"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/turnstile/internal/auth/domain"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Credentials

// NewCredential builds a plausible record for identity. The hash is not a
// real hash; drivers treat it as opaque text.
func NewCredential(identity string) domain.Credential {
	salt := make([]byte, 16)
	_, _ = rand.Read(salt)

	return domain.Credential{
		ID:           idx.New().String(),
		Identity:     identity,
		PasswordHash: "$2a$04$" + idx.New().String(),
		Salt:         salt,
		Scheme:       "bcrypt",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Run exercises the driver contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(t.Context(), "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("insert then get", func(t *testing.T) {
		s := newStore(t)
		want := NewCredential("alice@example.com")
		require.NoError(t, s.Insert(t.Context(), want))

		got, err := s.Get(t.Context(), want.Identity)
		require.NoError(t, err)
		requireSame(t, want, got)
	})

	t.Run("salt bytes preserved", func(t *testing.T) {
		s := newStore(t)
		want := NewCredential("bytes@example.com")
		want.Salt = []byte{0x00, 0xff, 0x00, 0x7f, 0x80, 0x01, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0}
		require.NoError(t, s.Insert(t.Context(), want))

		got, err := s.Get(t.Context(), want.Identity)
		require.NoError(t, err)
		require.Equal(t, want.Salt, got.Salt)

		// Mutating what we got back must not reach the store.
		got.Salt[0] = 0x42
		again, err := s.Get(t.Context(), want.Identity)
		require.NoError(t, err)
		require.Equal(t, want.Salt, again.Salt)
	})

	t.Run("duplicate keeps first", func(t *testing.T) {
		s := newStore(t)
		first := NewCredential("dup@example.com")
		second := NewCredential("dup@example.com")
		require.NoError(t, s.Insert(t.Context(), first))

		err := s.Insert(t.Context(), second)
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		got, err := s.Get(t.Context(), first.Identity)
		require.NoError(t, err)
		requireSame(t, first, got)
	})

	t.Run("identities are exact keys", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(t.Context(), NewCredential("case@example.com")))
		require.NoError(t, s.Insert(t.Context(), NewCredential("Case@example.com")))

		_, err := s.Get(t.Context(), "CASE@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent inserts have one winner", func(t *testing.T) {
		s := newStore(t)

		const writers = 16
		var (
			wins  atomic.Int32
			dups  atomic.Int32
			wg    sync.WaitGroup
			start = make(chan struct{})
		)
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				err := s.Insert(t.Context(), NewCredential("race@example.com"))
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, store.ErrAlreadyExists):
					dups.Add(1)
				default:
					t.Errorf("unexpected insert error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, wins.Load())
		require.EqualValues(t, writers-1, dups.Load())
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(t.Context()))
	})
}

func requireSame(t *testing.T, want, got domain.Credential) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Identity, got.Identity)
	require.Equal(t, want.PasswordHash, got.PasswordHash)
	require.Equal(t, want.Salt, got.Salt)
	require.Equal(t, want.Scheme, got.Scheme)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s got %s", want.CreatedAt, got.CreatedAt)
}
