package backup

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lastrada/lightweight-go/dialect"
)

// ColumnSpec describes one column of a table being backed up: its name
// and its declared type category, which decodeColumn (below) switches
// on to pick a serialization rule per spec.md §4.5's column-category
// table.
type ColumnSpec struct {
	Name string
	Kind dialect.ColumnKind
}

// TableSpec describes a table for backup/restore purposes: its name,
// its columns in the order they are SELECTed, and the column(s) backup
// orders by (its primary key, falling back to the first column per
// spec.md §4.5 step 2).
type TableSpec struct {
	Name       string
	Columns    []ColumnSpec
	OrderByCol string // defaults to Columns[0].Name if empty
}

func (t TableSpec) orderBy() string {
	if t.OrderByCol != "" {
		return t.OrderByCol
	}
	if len(t.Columns) > 0 {
		return t.Columns[0].Name
	}
	return ""
}

// Value is a per-cell tagged value, the row representation backup
// serializes into a chunk and restore reads back - the Go analogue of
// spec.md §4.5's "per-row tagged value" (null | bool | i64 | f64 |
// string | bytes).
type Value struct {
	Null  bool
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
}

// isoTimestamp renders t as spec.md §4.5's wire timestamp format:
// "YYYY-MM-DDTHH:MM:SS.mmm", local time as read from the driver (UTC
// with a Z suffix is reserved for the backup's own container metadata,
// not per-row values).
func isoTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000")
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// decodeColumn converts a value scanned out of database/sql (which
// already resolves driver-native types to Go's bool/int64/float64/
// string/[]byte/time.Time via the default Scanner conversions) into the
// tagged Value this package serializes, per column category.
func decodeColumn(kind dialect.ColumnKind, raw any) (Value, error) {
	if raw == nil {
		return Value{Null: true}, nil
	}

	switch kind {
	case dialect.Binary, dialect.VarBinary:
		b, ok := raw.([]byte)
		if !ok {
			return Value{}, fmt.Errorf("backup: expected []byte for binary column, got %T", raw)
		}
		return Value{Bytes: b}, nil

	case dialect.Bool:
		switch v := raw.(type) {
		case bool:
			return Value{Bool: v}, nil
		case int64:
			return Value{Bool: v != 0}, nil
		}
		return Value{}, fmt.Errorf("backup: expected bool-like for bool column, got %T", raw)

	case dialect.Bigint, dialect.Integer, dialect.Smallint, dialect.Tinyint:
		i, err := asInt64(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: i}, nil

	case dialect.Real:
		f, err := asFloat64(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Float: f}, nil

	case dialect.Decimal:
		// Decimal is serialized as string to preserve precision; the
		// driver/query layer is responsible for reading it textually on
		// backends that would otherwise lose precision (SQL Server:
		// CONVERT(VARCHAR(precision+3), col), wired by the caller's
		// SELECT list rather than here).
		return Value{Str: asString(raw)}, nil

	case dialect.Date:
		if t, ok := raw.(time.Time); ok {
			return Value{Str: isoDate(t)}, nil
		}
		return Value{Str: asString(raw)}, nil

	case dialect.DateTime, dialect.Timestamp:
		if t, ok := raw.(time.Time); ok {
			return Value{Str: isoTimestamp(t)}, nil
		}
		return Value{Str: asString(raw)}, nil

	case dialect.Time:
		// Time on PostgreSQL/SQL Server is read textually upstream (to
		// preserve fractional seconds); whatever arrives here is passed
		// through as a string.
		return Value{Str: asString(raw)}, nil

	case dialect.Guid:
		return Value{Str: asString(raw)}, nil

	case dialect.Varchar, dialect.NVarchar, dialect.Char, dialect.NChar, dialect.Text:
		return Value{Str: asString(raw)}, nil

	default:
		return Value{Str: asString(raw)}, nil
	}
}

func asInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		var i int64
		if _, err := fmt.Sscanf(string(v), "%d", &i); err != nil {
			return 0, err
		}
		return i, nil
	}
	return 0, fmt.Errorf("backup: cannot convert %T to int64", raw)
}

func asFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		var f float64
		if _, err := fmt.Sscanf(string(v), "%g", &f); err != nil {
			return 0, err
		}
		return f, nil
	}
	return 0, fmt.Errorf("backup: cannot convert %T to float64", raw)
}

func asString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		if isPrintableASCII(v) {
			return string(v)
		}
		return hex.EncodeToString(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
