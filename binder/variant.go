package binder

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Variant is a tagged union over the closed bindable value set, the Go
// substitute for the spec's dynamically-typed column cell (§3). It
// implements driver.Valuer and sql.Scanner so it can be bound and
// fetched directly through database/sql without a per-column Binder.
type Variant struct {
	Kind  Kind
	value any
}

// NewVariant wraps a concrete value, inferring its Kind from the Go
// type. Panics on a type outside the closed set, since that indicates a
// programmer error (spec.md §7: "programmer errors" are not recoverable
// at runtime).
func NewVariant(v any) Variant {
	switch t := v.(type) {
	case nil:
		return Variant{Kind: KindVariant, value: nil}
	case bool:
		return Variant{Kind: KindBool, value: t}
	case int8:
		return Variant{Kind: KindInt8, value: t}
	case int16:
		return Variant{Kind: KindInt16, value: t}
	case int32:
		return Variant{Kind: KindInt32, value: t}
	case int, int64:
		return Variant{Kind: KindInt64, value: t}
	case uint8:
		return Variant{Kind: KindUint8, value: t}
	case uint16:
		return Variant{Kind: KindUint16, value: t}
	case uint32:
		return Variant{Kind: KindUint32, value: t}
	case uint, uint64:
		return Variant{Kind: KindUint64, value: t}
	case float32:
		return Variant{Kind: KindFloat32, value: t}
	case float64:
		return Variant{Kind: KindFloat64, value: t}
	case time.Time:
		return Variant{Kind: KindTimestamp, value: t}
	case GUID:
		return Variant{Kind: KindGUID, value: t}
	case Numeric:
		return Variant{Kind: KindDecimal, value: t}
	case string:
		return Variant{Kind: KindString, value: t}
	case []byte:
		return Variant{Kind: KindBinary, value: t}
	default:
		panic(fmt.Sprintf("binder: %T is not a bindable Variant type", v))
	}
}

// Null reports whether the variant holds no value, the Go analogue of
// the spec's null indicator bound alongside the data buffer.
func (v Variant) Null() bool { return v.value == nil }

// Interface returns the wrapped value, or nil if Null.
func (v Variant) Interface() any { return v.value }

// Value implements driver.Valuer.
func (v Variant) Value() (driver.Value, error) {
	switch t := v.value.(type) {
	case nil, bool, []byte, float64, int64, string, time.Time:
		return t, nil
	case GUID:
		return t.String(), nil
	case Numeric:
		return t.String(), nil
	default:
		return driver.DefaultParameterConverter.ConvertValue(t)
	}
}

// Scan implements sql.Scanner.
func (v *Variant) Scan(src any) error {
	if src == nil {
		*v = Variant{Kind: KindVariant, value: nil}
		return nil
	}
	*v = NewVariant(src)
	return nil
}
