// Package migration is the ordered schema-migration runner: a Migration
// registry, a schema_migrations ledger table, and a cross-process
// advisory lock so only one process applies migrations at a time.
// Ported from migrations.go's migration-registry shape (Onyx), with the
// lock grounded on original_source/src/Lightweight/SqlMigrationLock.hpp.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
)

// DefaultLockName matches the original's default lock name.
const DefaultLockName = "lightweight_migration"

// Lock is a cross-process advisory lock held for the duration of a
// migration run, one strategy per backend per SqlMigrationLock.hpp's
// doc comment: sp_getapplock (SQL Server), pg_advisory_lock (Postgres),
// BEGIN IMMEDIATE (SQLite). MySQL, present in this module's backend set
// but not named in the original's table, gets the analogous
// GET_LOCK/RELEASE_LOCK pair for completeness.
type Lock struct {
	c          *conn.Connection
	name       string
	sqliteConn *sql.Conn // held open only for the SQLite BEGIN IMMEDIATE strategy
	locked     bool
	lockKey    int64 // Postgres advisory lock key, derived from name
}

// Acquire takes out the migration lock, blocking (subject to timeout)
// until it is available.
func Acquire(ctx context.Context, c *conn.Connection, name string, timeout time.Duration) (*Lock, error) {
	if name == "" {
		name = DefaultLockName
	}
	l := &Lock{c: c, name: name, lockKey: advisoryKey(name)}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	switch c.Backend() {
	case dialect.SQLServer:
		err = l.acquireSQLServer(ctx, timeout)
	case dialect.Postgres:
		err = l.acquirePostgres(ctx)
	case dialect.MySQL:
		err = l.acquireMySQL(ctx, timeout)
	case dialect.SQLite:
		err = l.acquireSQLite(ctx)
	default:
		return nil, fmt.Errorf("migration: no lock strategy for backend %q", c.Backend())
	}
	if err != nil {
		return nil, fmt.Errorf("migration: acquiring lock %q: %w", name, err)
	}
	l.locked = true
	return l, nil
}

// IsLocked reports whether this Lock currently holds the lock.
func (l *Lock) IsLocked() bool { return l.locked }

// Release releases the lock. Safe to call more than once.
func (l *Lock) Release(ctx context.Context) error {
	if !l.locked {
		return nil
	}
	var err error
	switch l.c.Backend() {
	case dialect.SQLServer:
		err = l.releaseSQLServer(ctx)
	case dialect.Postgres:
		err = l.releasePostgres(ctx)
	case dialect.MySQL:
		err = l.releaseMySQL(ctx)
	case dialect.SQLite:
		err = l.releaseSQLite(ctx)
	}
	l.locked = false
	return err
}

func (l *Lock) acquireSQLServer(ctx context.Context, timeout time.Duration) error {
	_, err := l.c.ExecContext(ctx,
		"DECLARE @res int; EXEC @res = sp_getapplock @Resource = ?, @LockMode = 'Exclusive', @LockOwner = 'Session', @LockTimeout = ?; IF @res < 0 RAISERROR('could not acquire migration lock', 16, 1)",
		l.name, int(timeout.Milliseconds()))
	return err
}

func (l *Lock) releaseSQLServer(ctx context.Context) error {
	_, err := l.c.ExecContext(ctx, "EXEC sp_releaseapplock @Resource = ?, @LockOwner = 'Session'", l.name)
	return err
}

func (l *Lock) acquirePostgres(ctx context.Context) error {
	_, err := l.c.ExecContext(ctx, "SELECT pg_advisory_lock($1)", l.lockKey)
	return err
}

func (l *Lock) releasePostgres(ctx context.Context) error {
	_, err := l.c.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockKey)
	return err
}

func (l *Lock) acquireMySQL(ctx context.Context, timeout time.Duration) error {
	var result int
	row := l.c.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.name, int(timeout.Seconds()))
	if err := row.Scan(&result); err != nil {
		return err
	}
	if result != 1 {
		return fmt.Errorf("GET_LOCK(%q) timed out or failed", l.name)
	}
	return nil
}

func (l *Lock) releaseMySQL(ctx context.Context) error {
	_, err := l.c.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", l.name)
	return err
}

// acquireSQLite opens a BEGIN IMMEDIATE transaction: SQLite has no
// advisory-lock primitive, so the original takes the reserved-lock
// write transaction itself as the mutual-exclusion device (relying on
// PRAGMA busy_timeout to bound the wait, configured at connection-open
// time rather than per-lock here).
//
// BEGIN IMMEDIATE is issued directly on a single checked-out *sql.Conn
// rather than through database/sql's own BeginTx: BeginTx already opens
// an implicit transaction on that connection (a plain "BEGIN"), and
// SQLite rejects a second BEGIN while one is already open ("cannot
// start a transaction within a transaction"). Holding the raw Conn
// keeps this one connection pinned to this goroutine for the lock's
// duration, the same single-owner guarantee BeginTx would have given.
func (l *Lock) acquireSQLite(ctx context.Context) error {
	raw, err := l.c.Conn(ctx)
	if err != nil {
		return err
	}
	if _, err := raw.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		raw.Close()
		return err
	}
	l.sqliteConn = raw
	return nil
}

// releaseSQLite commits the reserved-lock transaction and returns the
// pinned connection to the pool. A failed commit falls back to
// rollback so the lock is never left held.
func (l *Lock) releaseSQLite(ctx context.Context) error {
	if l.sqliteConn == nil {
		return nil
	}
	_, commitErr := l.sqliteConn.ExecContext(ctx, "COMMIT")
	if commitErr != nil {
		l.sqliteConn.ExecContext(ctx, "ROLLBACK")
	}
	closeErr := l.sqliteConn.Close()
	l.sqliteConn = nil
	if commitErr != nil {
		return commitErr
	}
	return closeErr
}

// advisoryKey derives a stable int64 key for Postgres's integer-keyed
// pg_advisory_lock from the lock's name, via FNV-1a.
func advisoryKey(name string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= 1099511628211
	}
	return int64(h)
}
