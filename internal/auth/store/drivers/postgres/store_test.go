package postgres_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/turnstile/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

var (
	insertQuery = `(?s)^INSERT\s+INTO\s+credentials\s*\(id,\s*identity,\s*password_hash,\s*salt,\s*scheme,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*ON\s+CONFLICT\s*\(identity\)\s*DO\s+NOTHING$`
	selectQuery = `(?s)^SELECT\s+id,\s*identity,\s*password_hash,\s*salt,\s*scheme,\s*created_at\s+FROM\s+credentials\s+WHERE\s+identity\s*=\s*\$1$`
)

func newMockStore(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	s := postgres.New(db)
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, s.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return s, mock
}

func TestInsert(t *testing.T) {
	s, mock := newMockStore(t)
	c := storetest.NewCredential("alice@example.com")

	mock.ExpectExec(insertQuery).
		WithArgs(c.ID, c.Identity, c.PasswordHash, c.Salt, c.Scheme, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Insert(t.Context(), c))
}

func TestInsert_Conflict(t *testing.T) {
	s, mock := newMockStore(t)
	c := storetest.NewCredential("alice@example.com")

	mock.ExpectExec(insertQuery).
		WithArgs(c.ID, c.Identity, c.PasswordHash, c.Salt, c.Scheme, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, s.Insert(t.Context(), c), store.ErrAlreadyExists)
}

func TestInsert_DBError(t *testing.T) {
	s, mock := newMockStore(t)
	c := storetest.NewCredential("alice@example.com")

	mock.ExpectExec(insertQuery).WillReturnError(errors.New("db down"))

	err := s.Insert(t.Context(), c)
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrAlreadyExists)
	require.Regexp(t, regexp.MustCompile(`insert credential: .*db down`), err.Error())
}

func TestGet(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "identity", "password_hash", "salt", "scheme", "created_at"}).
		AddRow("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "alice@example.com", "$2a$13$hash", []byte("0123456789abcdef"), "bcrypt", created)
	mock.ExpectQuery(selectQuery).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := s.Get(t.Context(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Identity)
	require.Equal(t, []byte("0123456789abcdef"), got.Salt)
	require.Equal(t, "bcrypt", got.Scheme)
	require.True(t, created.Equal(got.CreatedAt))
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(selectQuery).WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	_, err := s.Get(t.Context(), "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGet_DBError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(selectQuery).WithArgs("alice@example.com").WillReturnError(errors.New("conn reset"))

	_, err := s.Get(t.Context(), "alice@example.com")
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrNotFound)
}
