package binder

import (
	"database/sql/driver"
	"fmt"

	"github.com/lastrada/lightweight-go/dialect"
)

// binaryBinder handles BINARY(n)/VARBINARY(n) and unbounded LongText
// (BLOB-equivalent) columns. spec.md §4.1 describes a manual growth loop
// for truncated reads; database/sql materializes the full row buffer per
// Scan call so that loop collapses to a single read with no re-call, but
// the 64 KiB chunking discipline used by the restore engine (spec.md
// §4.6) still applies to writers built on top of this binder.
type binaryBinder struct {
	Size int // 0 means unbounded (LongText/BLOB)
	Text bool
}

func (b binaryBinder) InputParameter(value any) (driver.Value, func(), error) {
	buf, ok := value.([]byte)
	if !ok {
		return nil, nil, fmt.Errorf("binder: expected []byte, got %T", value)
	}
	if b.Size > 0 && len(buf) > b.Size {
		return nil, nil, fmt.Errorf("binder: %d bytes exceeds column width %d", len(buf), b.Size)
	}
	return buf, nil, nil
}

func (b binaryBinder) OutputColumn(cell any) (dest any, postFetch func(raw any) error, err error) {
	var buf []byte
	return &buf, func(raw any) error { return nil }, nil
}

func (b binaryBinder) GetColumn(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return []byte(nil), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("binder: cannot convert %T to []byte", raw)
	}
}

func (b binaryBinder) Inspect(value any) string {
	buf, ok := value.([]byte)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	const maxInspect = 32
	if len(buf) > maxInspect {
		return fmt.Sprintf("%x...(%d bytes truncated)", buf[:maxInspect], len(buf)-maxInspect)
	}
	return fmt.Sprintf("%x", buf)
}

func (b binaryBinder) ColumnType() dialect.ColumnType {
	if b.Text {
		return dialect.Plain(dialect.Text)
	}
	if b.Size == 0 {
		return dialect.Plain(dialect.Binary)
	}
	return dialect.Sized(dialect.VarBinary, b.Size)
}
