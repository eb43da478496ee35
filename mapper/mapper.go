package mapper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/lastrada/lightweight-go/binder"
	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
	"github.com/lastrada/lightweight-go/query"
	"github.com/lastrada/lightweight-go/relation"
)

// ErrPrimaryKeyModified is returned by Update when the record's primary
// key field differs from the value it had when last loaded or created.
// This resolves spec.md §9's "Update modifies primary key" Open
// Question as reject: callers that genuinely need to change a primary
// key call UpdateWithKey with an explicit prior-key snapshot, or do a
// Delete followed by a Create.
var ErrPrimaryKeyModified = errors.New("mapper: primary key was modified; use UpdateWithKey or Delete+Create")

// ErrEagerLoadDepthExceeded is relation.ErrDepthExceeded surfaced under
// this package's own error value for callers that don't want to import
// relation directly.
var ErrEagerLoadDepthExceeded = relation.ErrDepthExceeded

// ErrNotFound is returned by QuerySingle when no row matches.
var ErrNotFound = sql.ErrNoRows

// DefaultEagerLoadDepth is the maxDepth passed to relation.Load; change
// it per Mapper via WithMaxDepth. Relations are loaded one level deep
// (depth 1), so only a maxDepth below 1 makes Load return
// ErrEagerLoadDepthExceeded.
const DefaultEagerLoadDepth = 3

// Mapper is a type-safe data mapper over one struct type T, the Go
// analogue of spec.md §4.4's "Data Mapper": CRUD, schema synthesis, and
// relation auto-loading driven by T's `db:"..."` struct tags. Ported
// from model_events.go (lifecycle hooks -> modified-flag clearing),
// eager_loading.go/query_relationships.go (relation loader wiring), and
// query_optimization.go (reused-bound-cell row iteration pattern).
type Mapper[T any] struct {
	conn     *conn.Connection
	table    string
	schema   *Schema
	maxDepth int

	// loadedKeys remembers each record's primary-key value as of its
	// last successful Create/Query/Update, keyed by pointer identity,
	// so Update can detect an in-place primary-key change without
	// requiring the caller to track a dirty-field bitmap themselves.
	loadedKeys sync.Map
}

// New builds a Mapper for T against c. T must be a struct type with at
// least one `db:"...,pk=..."` field.
func New[T any](c *conn.Connection) *Mapper[T] {
	var zero T
	t := reflect.TypeOf(zero)
	return &Mapper[T]{
		conn:     c,
		table:    TableName(t),
		schema:   SchemaFor(t),
		maxDepth: DefaultEagerLoadDepth,
	}
}

// WithMaxDepth returns a Mapper sharing this one's connection/schema but
// with maxDepth set to n (spec.md §9's escape hatch for HasMany-of-HasMany
// fan-out).
func (m *Mapper[T]) WithMaxDepth(n int) *Mapper[T] {
	return &Mapper[T]{conn: m.conn, table: m.table, schema: m.schema, maxDepth: n}
}

// Table returns the resolved table name.
func (m *Mapper[T]) Table() string { return m.table }

// CreateTable synthesizes and executes a CREATE TABLE statement from
// T's schema (spec.md §4.4's "CREATE TABLE synthesis").
func (m *Mapper[T]) CreateTable(ctx context.Context) error {
	tb := query.CreateTable(m.conn.Formatter(), m.table)
	for _, f := range m.schema.Columns() {
		fieldType := m.schema.Type.Field(f.Index).Type
		tb.Column(query.ColumnDef{
			Name:          f.Column,
			Type:          inferColumnType(fieldType),
			Nullable:      fieldType.Kind() == reflect.Ptr,
			Primary:       f.PK != PKNone,
			AutoIncrement: f.PK == PKIdentity,
		})
	}
	for _, stmt := range tb.Build() {
		if _, err := m.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mapper: create table %s: %w", m.table, err)
		}
	}
	return nil
}

func (m *Mapper[T]) rememberKey(record *T, v reflect.Value) {
	if m.schema.PrimaryKey == nil {
		return
	}
	m.loadedKeys.Store(record, v.Field(m.schema.PrimaryKey.Index).Interface())
}

// Create inserts record. A pk=identity field is populated from the
// database's last-insert-id (or Postgres RETURNING) after the insert.
// A pk= (auto-assign) field left at its zero value is assigned before
// the insert: a fresh GUID if the field's type is binder.GUID,
// otherwise MAX(pk)+1 read from the table.
func (m *Mapper[T]) Create(ctx context.Context, record *T) error {
	v := reflect.ValueOf(record).Elem()

	if pk := m.schema.PrimaryKey; pk != nil && pk.PK == PKAutoAssign {
		if err := m.assignAutoKey(ctx, v, pk); err != nil {
			return fmt.Errorf("mapper: create %s: %w", m.table, err)
		}
	}

	values := make(map[string]any)
	for _, f := range m.schema.Columns() {
		if f.PK == PKIdentity {
			continue
		}
		values[f.Column] = v.Field(f.Index).Interface()
	}

	ib := query.Insert(m.conn.Formatter(), m.table, values)
	generatesIdentity := m.schema.PrimaryKey != nil && m.schema.PrimaryKey.PK == PKIdentity
	if generatesIdentity && m.conn.Backend() == dialect.Postgres {
		ib = ib.Returning(m.schema.PrimaryKey.Column)
	}
	sqlStr, args := ib.Build()

	switch {
	case generatesIdentity && m.conn.Backend() == dialect.Postgres:
		var id any
		if err := m.conn.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
			return fmt.Errorf("mapper: create %s: %w", m.table, err)
		}
		if err := setPrimaryKeyValue(v, m.schema, id); err != nil {
			return err
		}
	case generatesIdentity:
		res, err := m.conn.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("mapper: create %s: %w", m.table, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("mapper: create %s: reading last insert id: %w", m.table, err)
		}
		if err := setPrimaryKeyValue(v, m.schema, id); err != nil {
			return err
		}
	default:
		if _, err := m.conn.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("mapper: create %s: %w", m.table, err)
		}
	}

	m.rememberKey(record, v)
	return nil
}

// assignAutoKey fills in an unset pk= field before insert: a fresh GUID
// for a binder.GUID key, or MAX(pk)+1 read from the table for anything
// else. A field the caller already set (non-zero) is left alone.
func (m *Mapper[T]) assignAutoKey(ctx context.Context, v reflect.Value, pk *Field) error {
	field := v.Field(pk.Index)
	if !field.IsZero() {
		return nil
	}

	if field.Type() == typeGUID {
		id, err := binder.ParseGUID(uuid.New().String())
		if err != nil {
			return fmt.Errorf("generating primary key: %w", err)
		}
		field.Set(reflect.ValueOf(id))
		return nil
	}

	next, err := m.nextSequentialKey(ctx, pk.Column)
	if err != nil {
		return fmt.Errorf("reading max(%s): %w", pk.Column, err)
	}
	field.Set(reflect.ValueOf(next).Convert(field.Type()))
	return nil
}

// nextSequentialKey returns one past the table's current maximum
// primary-key value (0 if the table is empty), scanning across every
// row regardless of the soft-delete filter since a deleted row's key
// still occupies that value.
func (m *Mapper[T]) nextSequentialKey(ctx context.Context, column string) (int64, error) {
	sb := query.Select(m.conn.Formatter(), m.table, "MAX("+column+")").WithTrashed()
	sqlStr, args := sb.Build()
	var max sql.NullInt64
	if err := m.conn.QueryRowContext(ctx, sqlStr, args...).Scan(&max); err != nil {
		return 0, err
	}
	return max.Int64 + 1, nil
}

// Update writes record's non-key columns back, keyed by its current
// primary-key value. It returns ErrPrimaryKeyModified if that value
// differs from the one remembered at load/create time.
func (m *Mapper[T]) Update(ctx context.Context, record *T) error {
	v := reflect.ValueOf(record).Elem()
	currentKey, err := primaryKeyValue(v, m.schema)
	if err != nil {
		return err
	}
	if prevKey, ok := m.loadedKeys.Load(record); ok {
		if !reflect.DeepEqual(prevKey, currentKey) {
			return ErrPrimaryKeyModified
		}
	}
	return m.updateWhereKey(ctx, record, v, currentKey)
}

// UpdateWithKey updates record using an explicit prior-key snapshot for
// the WHERE clause, the escape hatch for callers that legitimately need
// to change a primary key value.
func (m *Mapper[T]) UpdateWithKey(ctx context.Context, record *T, oldKey any) error {
	v := reflect.ValueOf(record).Elem()
	return m.updateWhereKey(ctx, record, v, oldKey)
}

func (m *Mapper[T]) updateWhereKey(ctx context.Context, record *T, v reflect.Value, whereKey any) error {
	if m.schema.PrimaryKey == nil {
		return fmt.Errorf("mapper: %s has no primary key", m.schema.Type)
	}
	values := make(map[string]any)
	for _, f := range m.schema.Columns() {
		if f.PK != PKNone {
			continue
		}
		values[f.Column] = v.Field(f.Index).Interface()
	}

	ub := query.Update(m.conn.Formatter(), m.table, values).
		Where(query.Where(m.schema.PrimaryKey.Column, "=", whereKey))
	sqlStr, args := ub.Build()
	if _, err := m.conn.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("mapper: update %s: %w", m.table, err)
	}
	m.rememberKey(record, v)
	return nil
}

// Delete removes record by its current primary-key value.
func (m *Mapper[T]) Delete(ctx context.Context, record *T) error {
	v := reflect.ValueOf(record).Elem()
	key, err := primaryKeyValue(v, m.schema)
	if err != nil {
		return err
	}
	db := query.Delete(m.conn.Formatter(), m.table).
		Where(query.Where(m.schema.PrimaryKey.Column, "=", key))
	sqlStr, args := db.Build()
	if _, err := m.conn.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("mapper: delete %s: %w", m.table, err)
	}
	m.loadedKeys.Delete(record)
	return nil
}

// BuildFunc customizes a query.SelectBuilder for QuerySingle/Query.
type BuildFunc func(*query.SelectBuilder) *query.SelectBuilder

// QuerySingle runs build and returns the first matching row, or
// ErrNotFound if none matches.
func (m *Mapper[T]) QuerySingle(ctx context.Context, build BuildFunc) (*T, error) {
	records, err := m.query(ctx, build, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Query runs build and returns every matching row.
func (m *Mapper[T]) Query(ctx context.Context, build BuildFunc) ([]*T, error) {
	return m.query(ctx, build, 0)
}

// All returns every row of the table (minus soft-deleted rows).
func (m *Mapper[T]) All(ctx context.Context) ([]*T, error) {
	return m.Query(ctx, func(sb *query.SelectBuilder) *query.SelectBuilder { return sb })
}

func (m *Mapper[T]) query(ctx context.Context, build BuildFunc, limit int) ([]*T, error) {
	sb := query.Select(m.conn.Formatter(), m.table)
	if limit > 0 {
		sb = sb.Limit(limit)
	}
	if build != nil {
		sb = build(sb)
	}
	sqlStr, args := sb.Build()

	rows, err := m.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("mapper: query %s: %w", m.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []*T
	var values []reflect.Value
	for rows.Next() {
		dest := newOfType(m.schema.Type)
		if err := scanRow(rows, cols, dest, m.schema); err != nil {
			return nil, fmt.Errorf("mapper: scanning %s row: %w", m.table, err)
		}
		record := dest.Addr().Interface().(*T)
		m.rememberKey(record, dest)
		records = append(records, record)
		values = append(values, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if relations := sb.Relations(); len(relations) > 0 {
		if err := m.loadRelations(ctx, values, relations, 1); err != nil {
			return nil, err
		}
	}
	return records, nil
}
