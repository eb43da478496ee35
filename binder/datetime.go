package binder

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lastrada/lightweight-go/dialect"
)

// dateTimeBinder covers Date, Time, and Timestamp kinds. The three
// differ only in the layout used to round-trip through a driver that
// binds DATE/TIME/DATETIME columns as strings (SQLite) versus the ones
// that accept a native time.Time (mysql, postgres, mssql drivers all
// implement driver.Valuer for time.Time directly).
type dateTimeBinder struct {
	Kind    Kind // KindDate, KindTime, or KindTimestamp
	Backend dialect.Name
}

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05.999999999"
)

func (b dateTimeBinder) layout() string {
	switch b.Kind {
	case KindDate:
		return dateLayout
	case KindTime:
		return timeLayout
	default:
		return timestampLayout
	}
}

func (b dateTimeBinder) InputParameter(value any) (driver.Value, func(), error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, nil, fmt.Errorf("binder: expected time.Time, got %T", value)
	}
	// SQLite's driver has no native DATE/TIME binding; every value
	// round-trips as a formatted string (spec.md §4.1's per-backend
	// DateTime bind strategy table).
	if b.Backend == dialect.SQLite {
		return t.UTC().Format(b.layout()), nil, nil
	}
	return t, nil, nil
}

func (b dateTimeBinder) OutputColumn(cell any) (dest any, postFetch func(raw any) error, err error) {
	var v any
	return &v, func(raw any) error { return nil }, nil
}

func (b dateTimeBinder) GetColumn(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(b.layout(), v)
		if err != nil {
			return nil, fmt.Errorf("binder: cannot parse %q as %s: %w", v, b.Kind, err)
		}
		return t, nil
	case []byte:
		return b.GetColumn(string(v))
	default:
		return nil, fmt.Errorf("binder: cannot convert %T to time.Time", raw)
	}
}

func (b dateTimeBinder) Inspect(value any) string {
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return t.Format(b.layout())
}

func (b dateTimeBinder) ColumnType() dialect.ColumnType {
	switch b.Kind {
	case KindDate:
		return dialect.Plain(dialect.Date)
	case KindTime:
		return dialect.Plain(dialect.Time)
	default:
		return dialect.Plain(dialect.Timestamp)
	}
}
