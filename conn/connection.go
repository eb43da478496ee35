// Package conn owns the driver handle: it establishes a session via a
// connection string or a DSN tuple, detects the backend from the driver
// name, and exposes the dialect-specific formatter and last-insert-id
// query for everything built on top (query, mapper, migration, backup,
// restore). Grounded on database.go/database_config.go (Onyx
// framework's DB wrapper + pooling config presets).
package conn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lastrada/lightweight-go/dialect"
)

// DSN describes a connection by its component parts rather than a raw
// string - spec.md §3's "DSN tuple {data-source, user, password,
// timeout}".
type DSN struct {
	DataSource string
	User       string
	Password   string
	Timeout    time.Duration
}

// DefaultTimeout matches spec.md §5's default connection timeout.
const DefaultTimeout = 5 * time.Second

// ConnectionString formats the DSN into the driver-native connection
// string for the given backend.
func (d DSN) ConnectionString(backend dialect.Name) string {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch backend {
	case dialect.MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/?timeout=%s", d.User, d.Password, d.DataSource, timeout)
	case dialect.Postgres:
		return fmt.Sprintf("host=%s user=%s password=%s connect_timeout=%d sslmode=disable",
			d.DataSource, d.User, d.Password, int(timeout.Seconds()))
	case dialect.SQLServer:
		return fmt.Sprintf("server=%s;user id=%s;password=%s;connection timeout=%d",
			d.DataSource, d.User, d.Password, int(timeout.Seconds()))
	case dialect.SQLite:
		return d.DataSource
	default:
		return d.DataSource
	}
}

// Redacted returns the connection string with the password elided, for
// logging - spec.md §3: "password elision considered at the logging
// layer".
func (d DSN) Redacted(backend dialect.Name) string {
	masked := d
	if masked.Password != "" {
		masked.Password = "***"
	}
	return masked.ConnectionString(backend)
}

// PoolConfig configures database/sql's own pool sizing, distinct from
// this module's pool.Pool which layers single-owner lease semantics on
// top (spec.md §4.9, §5). Defaults are grounded on Onyx's per-backend
// DatabaseConfig presets.
type PoolConfig struct {
	InitialSize     int
	MaxSize         int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns the spec's default pool tuning (§6):
// initialSize 4, maxSize 16.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		InitialSize:     4,
		MaxSize:         16,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 15 * time.Minute,
	}
}

// Connection owns a driver handle and its resolved backend.
type Connection struct {
	*sql.DB
	driverName string
	backend    dialect.Name
	formatter  dialect.Formatter
}

// Wrap adapts an already-open *sql.DB into a Connection for the given
// backend, bypassing driver detection and Ping. Used to front a pool
// managed elsewhere (or, in tests, a go-sqlmock database/sql/driver
// double) with the same Formatter-aware surface as Open.
func Wrap(db *sql.DB, backend dialect.Name) (*Connection, error) {
	formatter, err := dialect.Get(backend)
	if err != nil {
		return nil, err
	}
	return &Connection{DB: db, backend: backend, formatter: formatter}, nil
}

// Open establishes a session from a raw driver name and connection
// string.
func Open(driverName, connectionString string, pool PoolConfig) (*Connection, error) {
	backend, err := dialect.DetectFromDriver(driverName)
	if err != nil {
		return nil, err
	}
	formatter, err := dialect.Get(backend)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, connectionString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pool.MaxSize)
	db.SetMaxIdleConns(pool.InitialSize)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &Connection{DB: db, driverName: driverName, backend: backend, formatter: formatter}, nil
}

// OpenDSN establishes a session from a DSN tuple.
func OpenDSN(driverName string, d DSN, pool PoolConfig) (*Connection, error) {
	backend, err := dialect.DetectFromDriver(driverName)
	if err != nil {
		return nil, err
	}
	return Open(driverName, d.ConnectionString(backend), pool)
}

// Backend returns the detected backend name.
func (c *Connection) Backend() dialect.Name { return c.backend }

// Formatter returns the dialect-specific query formatter for this
// connection's backend.
func (c *Connection) Formatter() dialect.Formatter { return c.formatter }

// LastInsertIDQuery resolves the per-driver "last insert id" query for
// the given table/column, per spec.md §2.
func (c *Connection) LastInsertIDQuery(table, column string) string {
	return c.formatter.LastInsertIDQuery(table, column)
}

// WithTimeout runs fn with a context bound by d, the escape hatch noted
// in spec.md §5 ("closing the connection is the escape hatch" - this is
// the statement-scoped analogue used by callers that don't want to tear
// down the whole connection).
func (c *Connection) WithTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
