package binder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric is a fixed-point value with a declared (precision, scale),
// carrying two parallel representations the way SqlNumeric.hpp
// (original_source) does: a structured sign+coefficient for drivers
// that bind SQL_NUMERIC natively, and a decimal.Decimal shadow for the
// backends whose ODBC numeric binding is defective (SQLite, SQL Server
// per spec.md §4.1's per-backend table). Both are always populated;
// numericBinder binds the String() form on every backend.
type Numeric struct {
	Precision   uint8
	Scale       uint8
	Sign        bool // true = positive, matching the source's sqlValue.sign convention
	Coefficient *big.Int
	Shadow      decimal.Decimal
}

// NewNumericFromString builds a Numeric by parsing a decimal string
// exactly, avoiding the float round-trip entirely (used by the backup
// engine, which always reads Decimal columns as strings - spec.md §4.5).
func NewNumericFromString(precision, scale uint8, s string) (Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Numeric{}, fmt.Errorf("binder: invalid decimal literal %q: %w", s, err)
	}
	return numericFromDecimal(precision, scale, d), nil
}

// NewNumericFromFloat scales a native float by 10^scale and rounds to
// an integer coefficient, mirroring SqlNumeric::assign.
func NewNumericFromFloat(precision, scale uint8, value float64) Numeric {
	d := decimal.NewFromFloat(value)
	return numericFromDecimal(precision, scale, d)
}

func numericFromDecimal(precision, scale uint8, d decimal.Decimal) Numeric {
	sign := !d.IsNegative()
	abs := d.Abs()
	scaled := abs.Shift(int32(scale)).Round(0)
	coeff := new(big.Int)
	coeff.SetString(scaled.String(), 10)
	return Numeric{
		Precision:   precision,
		Scale:       scale,
		Sign:        sign || d.IsZero(),
		Coefficient: coeff,
		Shadow:      d,
	}
}

// String renders the value with exactly Scale digits after the decimal
// point, preserving trailing zeros the way a DECIMAL(p,s) column does.
// A coefficient of exactly zero never carries a sign, per spec.md §8
// ("Decimal 0.0 must not emit any sign beyond the sign flag").
func (n Numeric) String() string {
	if n.Coefficient == nil {
		return n.Shadow.StringFixed(int32(n.Scale))
	}
	digits := n.Coefficient.String()
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	for len(digits) <= int(n.Scale) {
		digits = "0" + digits
	}
	whole := digits[:len(digits)-int(n.Scale)]
	frac := digits[len(digits)-int(n.Scale):]

	out := whole
	if n.Scale > 0 {
		out = whole + "." + frac
	}
	if !n.Sign && n.Coefficient.Sign() != 0 {
		out = "-" + out
	}
	return out
}

// Decimal returns the shadow decimal.Decimal value, or one parsed from
// String() when the shadow is zero but a coefficient is set.
func (n Numeric) Decimal() decimal.Decimal {
	if !n.Shadow.Equal(decimal.Zero) || n.Coefficient == nil {
		return n.Shadow
	}
	d, _ := decimal.NewFromString(n.String())
	return d
}

// UsesNativeNumeric reports whether the given backend accepts a
// structured SQL_NUMERIC bind, per the per-backend table in spec.md
// §4.1: PostgreSQL and MySQL do, SQLite and SQL Server do not.
func UsesNativeNumeric(backend string) bool {
	switch backend {
	case "postgres", "mysql":
		return true
	default:
		return false
	}
}
