package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericFromStringPreservesTrailingZeros(t *testing.T) {
	n, err := NewNumericFromString(10, 4, "12.5000")
	require.NoError(t, err)
	assert.Equal(t, "12.5000", n.String())
}

func TestNumericFromStringNegative(t *testing.T) {
	n, err := NewNumericFromString(10, 2, "-3.14")
	require.NoError(t, err)
	assert.Equal(t, "-3.14", n.String())
	assert.False(t, n.Sign)
}

func TestNumericZeroHasNoSign(t *testing.T) {
	n, err := NewNumericFromString(10, 2, "0.00")
	require.NoError(t, err)
	assert.Equal(t, "0.00", n.String())
}

func TestNumericFromFloatRounds(t *testing.T) {
	n := NewNumericFromFloat(10, 2, 19.995)
	assert.Equal(t, uint8(2), n.Scale)
	assert.True(t, n.Sign)
}

func TestUsesNativeNumericPerBackend(t *testing.T) {
	assert.True(t, UsesNativeNumeric("mysql"))
	assert.True(t, UsesNativeNumeric("postgres"))
	assert.False(t, UsesNativeNumeric("sqlite"))
	assert.False(t, UsesNativeNumeric("sqlserver"))
}

func TestNumericInvalidLiteral(t *testing.T) {
	_, err := NewNumericFromString(10, 2, "not-a-number")
	assert.Error(t, err)
}
