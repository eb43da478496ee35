package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/dialect"
	"github.com/lastrada/lightweight-go/pool"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lightweight.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesFileOverridesOnDefaults(t *testing.T) {
	path := writeTempConfig(t, `
backend = "mysql"
data_source = "localhost:3306"
user = "app"
lease_pool_max_size = 8
lease_pool_strategy = "bounded_overflow"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, cfg.Backend)
	assert.Equal(t, "localhost:3306", cfg.DSN.DataSource)
	assert.Equal(t, 8, cfg.LeasePool.MaxSize)
	assert.Equal(t, pool.BoundedOverflow, cfg.LeasePool.Strategy)
	// Unset fields keep Default()'s values.
	assert.Equal(t, "schema_migrations", cfg.MigrationTable)
}

func TestLoadRejectsMissingDataSource(t *testing.T) {
	path := writeTempConfig(t, `backend = "postgres"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeTempConfig(t, `
backend = "oracle"
data_source = "x"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	path := writeTempConfig(t, `
backend = "postgres"
data_source = "file-host"
`)
	t.Setenv("LIGHTWEIGHT_DATA_SOURCE", "env-host")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.DSN.DataSource)
}

func TestValidateRejectsInvertedPoolSizes(t *testing.T) {
	cfg := Default()
	cfg.DSN.DataSource = "x"
	cfg.ConnPool.InitialSize = 10
	cfg.ConnPool.MaxSize = 2
	assert.Error(t, cfg.Validate())
}
