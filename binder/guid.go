package binder

import (
	"encoding/hex"
	"fmt"
)

// GUID is a 16-byte globally unique identifier whose textual form mixes
// byte orders the way SqlGuid.hpp (original_source) does: the first
// three hyphen-separated groups read left-to-right into bytes in
// sequence, the fourth group is stored byte-swapped, and the fifth
// group reads left-to-right again. This is not the same as either a
// pure-big-endian or pure-little-endian Microsoft GUID; it is preserved
// exactly so round-tripping through a column declared SQL_GUID matches
// the teacher's on-disk layout.
type GUID [16]byte

// guidTextOffsets: each entry is the starting character offset (into
// the 36-char canonical text) of the two hex digits landing in data[i].
var guidTextOffsets = [16]int{0, 2, 4, 6, 9, 11, 14, 16, 21, 19, 24, 26, 28, 30, 32, 34}

// ParseGUID parses the canonical xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
// form, validating length, hyphen positions, version digit (1-5), and
// variant digit (8, 9, A, or B) per spec.md §4.1.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	if len(s) != 36 {
		return g, fmt.Errorf("binder: GUID must be 36 characters, got %d", len(s))
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return g, fmt.Errorf("binder: GUID has a hyphen in the wrong position: %q", s)
	}
	version := s[14]
	if version < '1' || version > '5' {
		return g, fmt.Errorf("binder: GUID version digit must be 1-5, got %q", version)
	}
	variant := s[21]
	switch variant {
	case '8', '9', 'a', 'A', 'b', 'B':
	default:
		return g, fmt.Errorf("binder: GUID variant digit must be 8/9/A/B, got %q", variant)
	}

	for i, off := range guidTextOffsets {
		b, err := hex.DecodeString(s[off : off+2])
		if err != nil {
			return GUID{}, fmt.Errorf("binder: GUID contains invalid hex at offset %d: %w", off, err)
		}
		g[i] = b[0]
	}
	return g, nil
}

// String renders the canonical form, inverting ParseGUID's byte
// placement exactly.
func (g GUID) String() string {
	buf := make([]byte, 36)
	for i := 0; i < 36; i++ {
		buf[i] = '-'
	}
	for i, off := range guidTextOffsets {
		hex.Encode(buf[off:off+2], g[i:i+1])
	}
	return string(buf)
}

// IsZero reports whether g is the all-zero GUID.
func (g GUID) IsZero() bool {
	return g == GUID{}
}
