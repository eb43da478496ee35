package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/dialect"
)

func TestRegistryResolvesDefaultTypes(t *testing.T) {
	r := NewRegistry(dialect.Postgres)

	b, err := r.For("hello")
	require.NoError(t, err)
	assert.Equal(t, dialect.Text, b.ColumnType().Kind)

	b, err = r.For(GUID{})
	require.NoError(t, err)
	assert.Equal(t, dialect.Guid, b.ColumnType().Kind)

	b, err = r.For(Numeric{})
	require.NoError(t, err)
	assert.Equal(t, dialect.Decimal, b.ColumnType().Kind)
}

func TestRegistryUnregisteredTypeErrors(t *testing.T) {
	r := NewRegistry(dialect.MySQL)
	_, err := r.For(42)
	assert.Error(t, err)
}

func TestRegistrySizedStringBinder(t *testing.T) {
	r := NewRegistry(dialect.SQLite)
	b := r.Sized(32, false, false)
	ct := b.ColumnType()
	assert.Equal(t, dialect.Varchar, ct.Kind)
	assert.Equal(t, 32, ct.Size)
}

func TestRegistryDecimalBinder(t *testing.T) {
	r := NewRegistry(dialect.SQLServer)
	b := r.Decimal(18, 4)
	ct := b.ColumnType()
	assert.Equal(t, dialect.Decimal, ct.Kind)
	assert.Equal(t, uint8(18), ct.Precision)
	assert.Equal(t, uint8(4), ct.Scale)
}
