package binder

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/lastrada/lightweight-go/dialect"
)

// guidBinder binds the fixed-size GUID value. Parse validation delegates
// to google/uuid for the canonical-form check, then re-packs into this
// module's mixed-endian layout (binder.GUID) rather than uuid.UUID's
// big-endian byte order, since that mixed layout is what a column
// declared SQL_GUID actually stores on disk (original_source's
// SqlGuid.hpp).
type guidBinder struct{}

func (guidBinder) InputParameter(value any) (driver.Value, func(), error) {
	g, ok := value.(GUID)
	if !ok {
		return nil, nil, fmt.Errorf("binder: expected GUID, got %T", value)
	}
	return g.String(), nil, nil
}

func (guidBinder) OutputColumn(cell any) (dest any, postFetch func(raw any) error, err error) {
	var s string
	return &s, func(raw any) error { return nil }, nil
}

func (guidBinder) GetColumn(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return GUID{}, nil
	case string:
		if _, err := uuid.Parse(v); err != nil {
			return nil, fmt.Errorf("binder: column is not a valid GUID: %w", err)
		}
		return ParseGUID(v)
	case []byte:
		return GUID{}.fromBytes(v)
	default:
		return nil, fmt.Errorf("binder: cannot convert %T to GUID", raw)
	}
}

func (guidBinder) Inspect(value any) string {
	g, ok := value.(GUID)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return g.String()
}

func (guidBinder) ColumnType() dialect.ColumnType {
	return dialect.Plain(dialect.Guid)
}

// fromBytes reconstructs a GUID from a 16-byte driver-native buffer
// (e.g. go-mssqldb's UNIQUEIDENTIFIER scan type), which is already in
// this package's mixed-endian layout.
func (GUID) fromBytes(b []byte) (GUID, error) {
	var g GUID
	if len(b) != 16 {
		return g, fmt.Errorf("binder: GUID column must be 16 bytes, got %d", len(b))
	}
	copy(g[:], b)
	return g, nil
}
