package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/dialect"
)

func TestDecodeColumnNullIsAlwaysNull(t *testing.T) {
	v, err := decodeColumn(dialect.Varchar, nil)
	require.NoError(t, err)
	assert.True(t, v.Null)
}

func TestDecodeColumnIntegerFromInt64(t *testing.T) {
	v, err := decodeColumn(dialect.Bigint, int64(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int)
}

func TestDecodeColumnBoolFromDriverInt(t *testing.T) {
	v, err := decodeColumn(dialect.Bool, int64(1))
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestDecodeColumnTimestampFormatsISO(t *testing.T) {
	ts := time.Date(2026, 7, 29, 13, 4, 5, 250_000_000, time.UTC)
	v, err := decodeColumn(dialect.DateTime, ts)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-29T13:04:05.250", v.Str)
}

func TestDecodeColumnDateFormatsISODate(t *testing.T) {
	d := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	v, err := decodeColumn(dialect.Date, d)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-29", v.Str)
}

func TestDecodeColumnDecimalKeptAsString(t *testing.T) {
	v, err := decodeColumn(dialect.Decimal, "1234.5600")
	require.NoError(t, err)
	assert.Equal(t, "1234.5600", v.Str)
}

func TestDecodeColumnBinaryRejectsNonBytes(t *testing.T) {
	_, err := decodeColumn(dialect.Binary, "not-bytes")
	assert.Error(t, err)
}

func TestDecodeColumnVarbinaryPassesThroughBytes(t *testing.T) {
	v, err := decodeColumn(dialect.VarBinary, []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, v.Bytes)
}

func TestAsStringHexEncodesNonPrintableBytes(t *testing.T) {
	s := asString([]byte{0x00, 0xff})
	assert.Equal(t, "00ff", s)
}
