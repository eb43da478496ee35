package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantNullRoundTrip(t *testing.T) {
	var v Variant
	assert.True(t, v.Null())

	require := v.Scan(nil)
	assert.NoError(t, require)
	assert.True(t, v.Null())
}

func TestVariantInfersKind(t *testing.T) {
	cases := []struct {
		in   any
		kind Kind
	}{
		{int64(7), KindInt64},
		{"hi", KindString},
		{3.14, KindFloat64},
		{true, KindBool},
		{[]byte("abc"), KindBinary},
	}
	for _, c := range cases {
		v := NewVariant(c.in)
		assert.Equal(t, c.kind, v.Kind)
		assert.Equal(t, c.in, v.Interface())
	}
}

func TestVariantScanAssignsFromDriver(t *testing.T) {
	var v Variant
	err := v.Scan(int64(42))
	assert.NoError(t, err)
	assert.Equal(t, KindInt64, v.Kind)
	assert.Equal(t, int64(42), v.Interface())
}

func TestVariantPanicsOnUnsupportedType(t *testing.T) {
	assert.Panics(t, func() {
		NewVariant(struct{ X int }{X: 1})
	})
}
