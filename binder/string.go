package binder

import (
	"database/sql/driver"
	"fmt"
	"unicode/utf8"

	"github.com/lastrada/lightweight-go/dialect"
)

// stringBinder handles both FixedString (CHAR(n)/NCHAR(n)) and String
// (VARCHAR(n)/NVARCHAR(n)) kinds. The per-backend UTF encoding rule from
// spec.md §4.1's table collapses in Go: database/sql drivers already
// transcode UTF-8 Go strings to the wire encoding each backend expects
// (UCS-2/UTF-16 for SQL Server's NVARCHAR via go-mssqldb, UTF-8 for the
// rest), so this binder only needs to enforce the declared width and the
// fixed-vs-variable padding/truncation rule.
type stringBinder struct {
	Backend  dialect.Name
	Size     int // 0 means unbounded (Text)
	Fixed    bool
	National bool // NCHAR/NVARCHAR vs CHAR/VARCHAR
}

func (b stringBinder) InputParameter(value any) (driver.Value, func(), error) {
	s, ok := value.(string)
	if !ok {
		return nil, nil, fmt.Errorf("binder: expected string, got %T", value)
	}
	if b.Size > 0 && utf8.RuneCountInString(s) > b.Size {
		return nil, nil, fmt.Errorf("binder: string of %d runes exceeds column width %d", utf8.RuneCountInString(s), b.Size)
	}
	if b.Fixed && b.Size > 0 {
		s = padRunes(s, b.Size)
	}
	return s, nil, nil
}

func (b stringBinder) OutputColumn(cell any) (dest any, postFetch func(raw any) error, err error) {
	var s string
	return &s, func(raw any) error { return nil }, nil
}

func (b stringBinder) GetColumn(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return nil, fmt.Errorf("binder: cannot convert %T to string", raw)
	}
}

func (b stringBinder) Inspect(value any) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	const maxInspect = 120
	if len(s) > maxInspect {
		return s[:maxInspect] + "...(truncated)"
	}
	return s
}

func (b stringBinder) ColumnType() dialect.ColumnType {
	kind := dialect.Varchar
	switch {
	case b.Fixed && b.National:
		kind = dialect.NChar
	case b.Fixed:
		kind = dialect.Char
	case b.National:
		kind = dialect.NVarchar
	case b.Size == 0:
		kind = dialect.Text
	}
	if b.Size == 0 {
		return dialect.Plain(kind)
	}
	return dialect.Sized(kind, b.Size)
}

func padRunes(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	for i := 0; i < width-n; i++ {
		s += " "
	}
	return s
}
