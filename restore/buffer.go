package restore

import (
	"fmt"
	"time"

	"github.com/lastrada/lightweight-go/backup"
	"github.com/lastrada/lightweight-go/dialect"
)

// columnBuffer accumulates one destination column's worth of bound
// values across the rows of a pending batch.
type columnBuffer struct {
	spec   backup.ColumnSpec
	values []any
}

func newColumnBuffer(spec backup.ColumnSpec) *columnBuffer {
	return &columnBuffer{spec: spec}
}

func (b *columnBuffer) add(v any) {
	b.values = append(b.values, v)
}

func (b *columnBuffer) reset() {
	b.values = b.values[:0]
}

// bindValue converts one backup.Value cell into a database/sql bind
// argument for spec's column, applying spec.md §4.6's binding
// specialization: DateTime/Date parsed from their ISO-8601 wire form
// into time.Time (except on SQLite, which binds every temporal value
// as a string); Time always bound as a string (PostgreSQL/SQL
// Server/SQLite all read it back that way; no database/sql driver in
// this pack exposes SQL Server's native SS_TIME2 struct, so the string
// form is used uniformly instead of a driver-specific binary layout);
// Decimal bound as its exact string form; long text/binary values
// truncated to maxCellBytes.
func bindValue(spec backup.ColumnSpec, backend dialect.Name, v backup.Value) (any, error) {
	if v.Null {
		return nil, nil
	}

	switch spec.Kind {
	case dialect.Bool:
		return v.Bool, nil

	case dialect.Bigint, dialect.Integer, dialect.Smallint, dialect.Tinyint:
		return v.Int, nil

	case dialect.Real:
		return v.Float, nil

	case dialect.Decimal:
		// Bound as string (precision+3 bytes: sign, decimal point, one
		// spare digit of headroom) to preserve exact precision across
		// every backend's driver, mirroring binder.Numeric.String.
		return v.Str, nil

	case dialect.Date:
		if !usesNativeDateTime(backend) {
			return v.Str, nil
		}
		t, err := time.Parse("2006-01-02", v.Str)
		if err != nil {
			return nil, fmt.Errorf("restore: parsing %q as date: %w", v.Str, err)
		}
		return t, nil

	case dialect.DateTime, dialect.Timestamp:
		if !usesNativeDateTime(backend) {
			return v.Str, nil
		}
		t, err := time.Parse("2006-01-02T15:04:05.000", v.Str)
		if err != nil {
			return nil, fmt.Errorf("restore: parsing %q as timestamp: %w", v.Str, err)
		}
		return t, nil

	case dialect.Time:
		return v.Str, nil

	case dialect.Guid:
		return v.Str, nil

	case dialect.Binary, dialect.VarBinary:
		return truncateBytes(v.Bytes), nil

	default:
		return truncateString(v.Str), nil
	}
}

func truncateString(s string) string {
	if len(s) <= maxCellBytes {
		return s
	}
	return s[:maxCellBytes]
}

func truncateBytes(b []byte) []byte {
	if len(b) <= maxCellBytes {
		return b
	}
	return b[:maxCellBytes]
}
