package binder

import (
	"database/sql/driver"
	"fmt"

	"github.com/lastrada/lightweight-go/dialect"
)

// numericBinder binds the Numeric dual-representation value. Per
// spec.md §4.1's per-backend table, only MySQL and PostgreSQL accept a
// native NUMERIC bind through their database/sql drivers; SQLite and SQL
// Server (via mattn/go-sqlite3 and go-mssqldb) round-trip NUMERIC as
// either a float64 or a string. InputParameter binds the exact decimal
// string (Numeric.String) on every backend: it does not consult Backend
// or UsesNativeNumeric, and never binds the decimal.Decimal shadow.
type numericBinder struct {
	Precision, Scale uint8
	Backend          dialect.Name
}

func (b numericBinder) InputParameter(value any) (driver.Value, func(), error) {
	n, ok := value.(Numeric)
	if !ok {
		return nil, nil, fmt.Errorf("binder: expected Numeric, got %T", value)
	}
	return n.String(), nil, nil
}

func (b numericBinder) OutputColumn(cell any) (dest any, postFetch func(raw any) error, err error) {
	var s string
	return &s, func(raw any) error { return nil }, nil
}

func (b numericBinder) GetColumn(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return Numeric{Precision: b.Precision, Scale: b.Scale}, nil
	case string:
		return NewNumericFromString(b.Precision, b.Scale, v)
	case []byte:
		return NewNumericFromString(b.Precision, b.Scale, string(v))
	case float64:
		return NewNumericFromFloat(b.Precision, b.Scale, v), nil
	default:
		return nil, fmt.Errorf("binder: cannot convert %T to Numeric", raw)
	}
}

func (b numericBinder) Inspect(value any) string {
	n, ok := value.(Numeric)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return n.String()
}

func (b numericBinder) ColumnType() dialect.ColumnType {
	return dialect.DecimalType(b.Precision, b.Scale)
}
