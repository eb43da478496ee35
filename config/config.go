// Package config loads this module's runtime settings from a TOML
// file (with environment-variable overrides), the typed, single-
// struct replacement for config.go (Onyx framework)'s dynamic
// multi-provider ConfigProvider/Config system: that system's
// env-overrides-file merge order and validator style are kept, its
// nested-map/dynamic-key storage is dropped in favor of one concrete
// struct, since every setting this module needs (connection, pool,
// backup, restore, migration) is known at compile time rather than
// discovered from arbitrary user keys.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lastrada/lightweight-go/backup"
	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
	"github.com/lastrada/lightweight-go/migration"
	"github.com/lastrada/lightweight-go/pool"
	"github.com/lastrada/lightweight-go/restore"
)

// Config is the complete set of settings a process needs to open a
// connection, size its pools, and run backup/restore/migration - the
// spec.md §6 "Configuration inputs" list, given a home.
type Config struct {
	Backend dialect.Name
	DSN     conn.DSN

	ConnPool conn.PoolConfig
	LeasePool pool.Config

	BackupWorkers        int
	BackupChunkBytes     int
	RestoreCapacity      restore.CapacityConfig
	RestoreBatchSize     int
	MigrationTable       string
	MigrationLockName    string
	MigrationLockTimeout time.Duration
}

// fileConfig mirrors the TOML document shape. Its fields are plain
// values, so applyFile treats a zero value (0 or "") as absent from the
// file: an explicit zero in the file leaves Default()'s value in place.
type fileConfig struct {
	Backend string `toml:"backend"`

	DataSource string `toml:"data_source"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	TimeoutSec int    `toml:"timeout_seconds"`

	ConnPoolInitialSize int `toml:"conn_pool_initial_size"`
	ConnPoolMaxSize     int `toml:"conn_pool_max_size"`

	LeasePoolMinSize  int    `toml:"lease_pool_min_size"`
	LeasePoolMaxSize  int    `toml:"lease_pool_max_size"`
	LeasePoolStrategy string `toml:"lease_pool_strategy"`

	BackupWorkers    int `toml:"backup_workers"`
	BackupChunkBytes int `toml:"backup_chunk_bytes"`

	RestoreBatchSize        int `toml:"restore_batch_size"`
	RestoreMemoryBudgetBytes int `toml:"restore_memory_budget_bytes"`
	RestoreParameterLimit   int `toml:"restore_parameter_limit"`

	MigrationTable       string `toml:"migration_table"`
	MigrationLockName    string `toml:"migration_lock_name"`
	MigrationLockTimeout int    `toml:"migration_lock_timeout_seconds"`
}

// Default returns this module's out-of-the-box settings, one default
// per package (conn.DefaultPoolConfig, pool.DefaultConfig,
// backup.DefaultConfig, restore.DefaultCapacityConfig,
// migration.DefaultLockName), so Load only has to fill in overrides.
func Default() *Config {
	backupCfg := backup.DefaultConfig()
	return &Config{
		Backend:              dialect.Postgres,
		ConnPool:             conn.DefaultPoolConfig(),
		LeasePool:            pool.DefaultConfig(),
		BackupWorkers:        backupCfg.Workers,
		BackupChunkBytes:     backupCfg.ChunkByteBudget,
		RestoreCapacity:      restore.DefaultCapacityConfig(),
		RestoreBatchSize:     0,
		MigrationTable:       "schema_migrations",
		MigrationLockName:    migration.DefaultLockName,
		MigrationLockTimeout: 30 * time.Second,
	}
}

// Load reads path as TOML into Default()'s settings, then applies
// environment-variable overrides (LIGHTWEIGHT_BACKEND,
// LIGHTWEIGHT_DATA_SOURCE, LIGHTWEIGHT_USER, LIGHTWEIGHT_PASSWORD,
// LIGHTWEIGHT_CONN_POOL_MAX_SIZE -
// env always wins over file, mirroring config.go's provider order
// "later providers override earlier ones" with env registered last),
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	applyFile(cfg, fc)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.Backend != "" {
		cfg.Backend = dialect.Name(fc.Backend)
	}
	if fc.DataSource != "" {
		cfg.DSN.DataSource = fc.DataSource
	}
	if fc.User != "" {
		cfg.DSN.User = fc.User
	}
	if fc.Password != "" {
		cfg.DSN.Password = fc.Password
	}
	if fc.TimeoutSec > 0 {
		cfg.DSN.Timeout = time.Duration(fc.TimeoutSec) * time.Second
	}

	if fc.ConnPoolInitialSize > 0 {
		cfg.ConnPool.InitialSize = fc.ConnPoolInitialSize
	}
	if fc.ConnPoolMaxSize > 0 {
		cfg.ConnPool.MaxSize = fc.ConnPoolMaxSize
	}

	if fc.LeasePoolMinSize > 0 {
		cfg.LeasePool.MinSize = fc.LeasePoolMinSize
	}
	if fc.LeasePoolMaxSize > 0 {
		cfg.LeasePool.MaxSize = fc.LeasePoolMaxSize
	}
	if s, ok := parseStrategy(fc.LeasePoolStrategy); ok {
		cfg.LeasePool.Strategy = s
	}

	if fc.BackupWorkers > 0 {
		cfg.BackupWorkers = fc.BackupWorkers
	}
	if fc.BackupChunkBytes > 0 {
		cfg.BackupChunkBytes = fc.BackupChunkBytes
	}

	if fc.RestoreBatchSize > 0 {
		cfg.RestoreBatchSize = fc.RestoreBatchSize
	}
	if fc.RestoreMemoryBudgetBytes > 0 {
		cfg.RestoreCapacity.MemoryBudgetBytes = fc.RestoreMemoryBudgetBytes
	}
	if fc.RestoreParameterLimit > 0 {
		cfg.RestoreCapacity.ParameterLimit = fc.RestoreParameterLimit
	}

	if fc.MigrationTable != "" {
		cfg.MigrationTable = fc.MigrationTable
	}
	if fc.MigrationLockName != "" {
		cfg.MigrationLockName = fc.MigrationLockName
	}
	if fc.MigrationLockTimeout > 0 {
		cfg.MigrationLockTimeout = time.Duration(fc.MigrationLockTimeout) * time.Second
	}
}

func parseStrategy(s string) (pool.Strategy, bool) {
	switch s {
	case "bounded_wait":
		return pool.BoundedWait, true
	case "bounded_overflow":
		return pool.BoundedOverflow, true
	case "unbounded_grow":
		return pool.UnboundedGrow, true
	default:
		return 0, false
	}
}

// envOverride reads key from the environment, applying set only when
// present - the typed-struct substitute for config.go's EnvProvider,
// which did the same lookup generically over every "APP_*"-prefixed
// variable.
func envOverride(key string, set func(string)) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		set(v)
	}
}

func applyEnvOverrides(cfg *Config) {
	envOverride("LIGHTWEIGHT_BACKEND", func(v string) { cfg.Backend = dialect.Name(v) })
	envOverride("LIGHTWEIGHT_DATA_SOURCE", func(v string) { cfg.DSN.DataSource = v })
	envOverride("LIGHTWEIGHT_USER", func(v string) { cfg.DSN.User = v })
	envOverride("LIGHTWEIGHT_PASSWORD", func(v string) { cfg.DSN.Password = v })
	envOverride("LIGHTWEIGHT_CONN_POOL_MAX_SIZE", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ConnPool.MaxSize = n
		}
	})
}

// Validate rejects settings that would make every other package's
// constructors misbehave, mirroring config.go's RequiredValidator/
// OneOfValidator style applied to this struct's concrete fields
// instead of a dynamic key lookup.
func (c *Config) Validate() error {
	switch c.Backend {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite, dialect.SQLServer:
	default:
		return fmt.Errorf("config: unsupported backend %q", c.Backend)
	}
	if c.DSN.DataSource == "" {
		return fmt.Errorf("config: data_source is required")
	}
	if c.ConnPool.MaxSize < c.ConnPool.InitialSize {
		return fmt.Errorf("config: conn_pool_max_size (%d) must be >= conn_pool_initial_size (%d)",
			c.ConnPool.MaxSize, c.ConnPool.InitialSize)
	}
	if c.LeasePool.MaxSize <= 0 {
		return fmt.Errorf("config: lease_pool_max_size must be > 0")
	}
	if c.MigrationLockTimeout <= 0 {
		return fmt.Errorf("config: migration_lock_timeout_seconds must be > 0")
	}
	return nil
}

// Open establishes a conn.Connection for this config's backend and
// DSN, sized by ConnPool.
func (c *Config) Open(driverName string) (*conn.Connection, error) {
	return conn.OpenDSN(driverName, c.DSN, c.ConnPool)
}
