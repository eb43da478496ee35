package mapper

import (
	"database/sql"
	"fmt"
	"reflect"
)

// scanRow scans one row of cols into dest (a pointer to a struct of
// schema's type), mapping each column name to the Field whose Column
// matches. Unmapped columns are discarded into a throwaway destination,
// matching scanIntoStruct's "column doesn't match any field" fallback
// in internal/database/scanner.go.
func scanRow(rows *sql.Rows, cols []string, dest reflect.Value, schema *Schema) error {
	byColumn := make(map[string]Field, len(schema.Fields))
	for _, f := range schema.Columns() {
		byColumn[f.Column] = f
	}

	args := make([]any, len(cols))
	for i, col := range cols {
		if f, ok := byColumn[col]; ok {
			args[i] = dest.Field(f.Index).Addr().Interface()
		} else {
			var discard any
			args[i] = &discard
		}
	}
	return rows.Scan(args...)
}

// newOfType allocates a new addressable struct value of t (t must be a
// struct type, not a pointer).
func newOfType(t reflect.Type) reflect.Value {
	return reflect.New(t).Elem()
}

// primaryKeyValue reads the current primary-key field value off a
// struct value.
func primaryKeyValue(v reflect.Value, schema *Schema) (any, error) {
	if schema.PrimaryKey == nil {
		return nil, fmt.Errorf("mapper: %s has no primary key field", schema.Type)
	}
	return v.Field(schema.PrimaryKey.Index).Interface(), nil
}

func setPrimaryKeyValue(v reflect.Value, schema *Schema, value any) error {
	if schema.PrimaryKey == nil {
		return fmt.Errorf("mapper: %s has no primary key field", schema.Type)
	}
	field := v.Field(schema.PrimaryKey.Index)
	rv := reflect.ValueOf(value)
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("mapper: cannot assign identity value of type %s to field of type %s", rv.Type(), field.Type())
}
