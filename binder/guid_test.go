package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGUIDRoundTrip(t *testing.T) {
	cases := []string{
		"01234567-89ab-4def-91ab-456789abcdef",
		"00000000-0000-4000-0080-000000000000",
		"ffffffff-ffff-5fff-ffbf-ffffffffffff",
	}
	for _, s := range cases {
		g, err := ParseGUID(s)
		require.NoError(t, err)
		assert.Equal(t, s, g.String())
	}
}

func TestGUIDParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"not-a-guid",
		"01234567-89ab-4def-8123", // too short
		"01234567x89ab-4def-8123-456789abcdef",
		"01234567-89ab-0def-91ab-456789abcdef", // invalid version digit
		"01234567-89ab-4def-9123-456789abcdef", // invalid variant digit
	}
	for _, s := range cases {
		_, err := ParseGUID(s)
		assert.Error(t, err, s)
	}
}

func TestGUIDIsZero(t *testing.T) {
	var g GUID
	assert.True(t, g.IsZero())
	g, _ = ParseGUID("01234567-89ab-4def-91ab-456789abcdef")
	assert.False(t, g.IsZero())
}
