package mapper

import (
	"reflect"
	"time"

	"github.com/lastrada/lightweight-go/binder"
	"github.com/lastrada/lightweight-go/dialect"
)

var (
	typeTime    = reflect.TypeOf(time.Time{})
	typeGUID    = reflect.TypeOf(binder.GUID{})
	typeNumeric = reflect.TypeOf(binder.Numeric{})
	typeBytes   = reflect.TypeOf([]byte(nil))
)

// inferColumnType maps a struct field's Go type to a DDL ColumnType for
// schema synthesis, the Go analogue of spec.md §4.4's "CREATE TABLE
// synthesis from field metadata". Strings default to a bounded VARCHAR
// the way most of the teacher's migration columns are declared with an
// explicit length; callers needing TEXT/BLOB override via a `type`
// struct tag are out of scope here and instead construct the column
// list directly with query.ColumnDef for those cases.
func inferColumnType(t reflect.Type) dialect.ColumnType {
	switch t {
	case typeTime:
		return dialect.Plain(dialect.Timestamp)
	case typeGUID:
		return dialect.Plain(dialect.Guid)
	case typeNumeric:
		return dialect.DecimalType(38, 10)
	case typeBytes:
		return dialect.Plain(dialect.Binary)
	}

	switch t.Kind() {
	case reflect.Bool:
		return dialect.Plain(dialect.Bool)
	case reflect.Int8, reflect.Uint8:
		return dialect.Plain(dialect.Tinyint)
	case reflect.Int16, reflect.Uint16:
		return dialect.Plain(dialect.Smallint)
	case reflect.Int32, reflect.Uint32:
		return dialect.Plain(dialect.Integer)
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return dialect.Plain(dialect.Bigint)
	case reflect.Float32, reflect.Float64:
		return dialect.Plain(dialect.Real)
	case reflect.String:
		return dialect.Sized(dialect.Varchar, 255)
	default:
		return dialect.Plain(dialect.Text)
	}
}
