// Package binder is the Go substitute for the closed set of value-type
// traits dispatched through a protocol in the original ODBC layer
// (original_source/src/Lightweight/DataBinder/*.hpp): one Binder
// implementation per Kind, registered in a reflect.Type-keyed Registry
// in place of compile-time template specialization (spec.md §9).
package binder

import (
	"database/sql/driver"

	"github.com/lastrada/lightweight-go/dialect"
)

// Kind is the closed set of bindable value categories from spec.md §3.
type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindDate
	KindTime
	KindTimestamp
	KindGUID
	KindDecimal
	KindFixedString
	KindString
	KindBinary
	KindText
	KindVariant
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindTimestamp:
		return "Timestamp"
	case KindGUID:
		return "GUID"
	case KindDecimal:
		return "Decimal"
	case KindFixedString:
		return "FixedString"
	case KindString:
		return "String"
	case KindBinary:
		return "Binary"
	case KindText:
		return "Text"
	case KindVariant:
		return "Variant"
	default:
		return "Unknown"
	}
}

// Binder is the per-type bind/fetch protocol from spec.md §4.1,
// implemented once per Kind rather than once per backend: a binder whose
// behavior varies by backend (dateTimeBinder's string form on SQLite)
// does so inside its methods, keyed off the dialect.Name passed at
// construction.
type Binder interface {
	// InputParameter converts a Go value into a driver.Value suitable
	// for a bind parameter, plus an optional cleanup func (used by
	// binders that stage an intermediate buffer) and any conversion
	// error.
	InputParameter(value any) (driver.Value, func(), error)

	// OutputColumn returns a fresh scan destination (cell) for this
	// kind plus a postFetch callback that converts the scanned
	// destination back into the caller's Go representation.
	OutputColumn(cell any) (dest any, postFetch func(raw any) error, err error)

	// GetColumn converts a raw driver-scanned value into this binder's
	// typed Go representation.
	GetColumn(raw any) (any, error)

	// Inspect renders a value for diagnostic logging, honoring any
	// truncation the binder wants to apply to large text/binary values.
	Inspect(value any) string

	// ColumnType reports the DDL type this binder maps to, used by the
	// schema synthesizer.
	ColumnType() dialect.ColumnType
}
