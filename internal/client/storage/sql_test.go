package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/appstate/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) (*SQLStore, *sql.DB) {
	t.Helper()
	s, db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return s, db
}

func TestSQLite_SetAndGet(t *testing.T) {
	s, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "language", []byte("fr")))

	v, err := s.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, []byte("fr"), v)
}

func TestSQLite_GetMissingReturnsNilNil(t *testing.T) {
	s, _ := setupSQLite(t)

	v, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLite_SetOverwrites(t *testing.T) {
	s, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "userMode", []byte("user")))
	require.NoError(t, s.Set(ctx, "userMode", []byte("provider")))

	v, err := s.Get(ctx, "userMode")
	require.NoError(t, err)
	assert.Equal(t, []byte("provider"), v)
}

func TestSQLite_SetManyListClear(t *testing.T) {
	s, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SetMany(ctx, map[string][]byte{
		"currency":           []byte("XOF"),
		"favoriteProperties": []byte(`["p1"]`),
	}))

	m, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, []byte(`["p1"]`), m["favoriteProperties"])

	require.NoError(t, s.Clear(ctx))
	m, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestSQLite_ErrorsAreWrapped(t *testing.T) {
	s, db := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := s.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get state[k]")

	require.ErrorContains(t, s.Set(ctx, "k", []byte("v")), "failed to set state[k]")
	require.ErrorContains(t, s.Clear(ctx), "failed to clear state")

	_, err = s.List(ctx)
	require.ErrorContains(t, err, "failed to list state")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	_, db := setupSQLite(t)
	require.NoError(t, RunMigrations(context.Background(), db, dbx.DialectSQLite))
}

func newPostgresMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db, dbx.DialectPostgres), mock
}

func TestPostgres_GetUsesNumberedPlaceholders(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(`SELECT value FROM app_state WHERE key = \$1`).
		WithArgs("currency").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("XAF")))

	v, err := s.Get(context.Background(), "currency")
	require.NoError(t, err)
	assert.Equal(t, []byte("XAF"), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNoRows(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(`SELECT value FROM app_state`).
		WithArgs("user").
		WillReturnError(sql.ErrNoRows)

	v, err := s.Get(context.Background(), "user")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPostgres_SetUpserts(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectExec(`(?s)INSERT INTO app_state \(key, value\) VALUES \(\$1, \$2\).*ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("language", []byte("en")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "language", []byte("en")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetManyRunsInTransaction(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO app_state`).
		WithArgs("subscription", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SetMany(context.Background(), map[string][]byte{"subscription": []byte(`{}`)}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetManyRollsBackOnError(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO app_state`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := s.SetMany(context.Background(), map[string][]byte{"user": []byte(`{}`)})
	require.ErrorContains(t, err, "failed to set state[user]")
	require.NoError(t, mock.ExpectationsWereMet())
}
