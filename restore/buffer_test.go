package restore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/backup"
	"github.com/lastrada/lightweight-go/dialect"
)

func TestBindValueNullAlwaysReturnsNil(t *testing.T) {
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.Varchar}, dialect.Postgres, backup.Value{Null: true})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBindValueDateTimeParsesISOOnNativeBackend(t *testing.T) {
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.Timestamp}, dialect.Postgres, backup.Value{Str: "2026-07-29T13:04:05.250"})
	require.NoError(t, err)
	got, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, 250_000_000, got.Nanosecond())
}

func TestBindValueDateTimeStaysStringOnSQLite(t *testing.T) {
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.Timestamp}, dialect.SQLite, backup.Value{Str: "2026-07-29T13:04:05.250"})
	require.NoError(t, err)
	assert.Equal(t, "2026-07-29T13:04:05.250", v)
}

func TestBindValueTimeAlwaysBindsAsString(t *testing.T) {
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.Time}, dialect.SQLServer, backup.Value{Str: "13:04:05.250"})
	require.NoError(t, err)
	assert.Equal(t, "13:04:05.250", v)
}

func TestBindValueDecimalBindsAsString(t *testing.T) {
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.Decimal}, dialect.Postgres, backup.Value{Str: "1234.5600"})
	require.NoError(t, err)
	assert.Equal(t, "1234.5600", v)
}

func TestBindValueTruncatesOversizeText(t *testing.T) {
	big := make([]byte, maxCellBytes+100)
	for i := range big {
		big[i] = 'a'
	}
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.Text}, dialect.Postgres, backup.Value{Str: string(big)})
	require.NoError(t, err)
	assert.Len(t, v.(string), maxCellBytes)
}

func TestBindValueTruncatesOversizeBinary(t *testing.T) {
	big := make([]byte, maxCellBytes+100)
	v, err := bindValue(backup.ColumnSpec{Kind: dialect.VarBinary}, dialect.Postgres, backup.Value{Bytes: big})
	require.NoError(t, err)
	assert.Len(t, v.([]byte), maxCellBytes)
}
