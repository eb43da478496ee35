package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
)

func TestAcquireReleasePostgresAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	c, err := conn.Wrap(db, dialect.Postgres)
	require.NoError(t, err)

	mock.ExpectExec("SELECT pg_advisory_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT pg_advisory_unlock").WillReturnResult(sqlmock.NewResult(0, 0))

	l, err := Acquire(context.Background(), c, "", 5*time.Second)
	require.NoError(t, err)
	require.True(t, l.IsLocked())
	require.NoError(t, l.Release(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireMySQLGetLockFailureReturnsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	c, err := conn.Wrap(db, dialect.MySQL)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	_, err = Acquire(context.Background(), c, "mylock", 1*time.Second)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestAcquireReleaseSQLiteAdvisoryLockWithRealDriver exercises the
// SQLite BEGIN IMMEDIATE lock path against modernc.org/sqlite's pure-Go
// driver (no cgo), rather than a sqlmock double, the way spec.md §8
// scenario tests call for a real embedded backend where one is cheap to
// run.
func TestAcquireReleaseSQLiteAdvisoryLockWithRealDriver(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	c, err := conn.Wrap(db, dialect.SQLite)
	require.NoError(t, err)

	l, err := Acquire(context.Background(), c, "migration_lock", time.Second)
	require.NoError(t, err)
	require.True(t, l.IsLocked())
	require.NoError(t, l.Release(context.Background()))
}
