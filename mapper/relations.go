package mapper

import (
	"context"
	"fmt"
	"reflect"

	"github.com/lastrada/lightweight-go/query"
	"github.com/lastrada/lightweight-go/relation"
)

// typeRegistry resolves a `belongs_to=`/`has_many=`/`through=` tag's
// named Go type back to a reflect.Type, the one piece of information a
// struct tag cannot carry on its own (it's a string, not a type
// literal). Callers register every type participating in a relation
// graph once via RegisterType, typically in an init() alongside the
// struct definitions - the Go substitute for eager_loading.go's
// reflection over a live object graph, which Go's static typing makes
// unnecessary everywhere except this one string->Type edge.
var typeRegistry = struct {
	byName map[string]reflect.Type
}{byName: make(map[string]reflect.Type)}

// RegisterType makes t resolvable by name for belongs_to/has_many/
// has_one/through tag values. Safe to call redundantly; not safe for
// concurrent use with relation loading (call from init()).
func RegisterType(name string, t reflect.Type) {
	typeRegistry.byName[name] = t
}

func resolveType(name string) (reflect.Type, error) {
	t, ok := typeRegistry.byName[name]
	if !ok {
		return nil, fmt.Errorf("mapper: no type registered under name %q; call mapper.RegisterType first", name)
	}
	return t, nil
}

// descriptorFor builds a relation.Descriptor from a parsed Field,
// resolving its RelatedName/ThroughName tag values against typeRegistry.
func descriptorFor(parentType reflect.Type, f Field) (relation.Descriptor, error) {
	relatedType, err := resolveType(f.RelatedName)
	if err != nil {
		return relation.Descriptor{}, err
	}
	relatedSchema := SchemaFor(relatedType)

	d := relation.Descriptor{FieldName: f.GoName, RelatedType: relatedType}

	switch f.Relation {
	case RelationBelongsTo:
		d.Kind = relation.BelongsTo
		fkField, ok := parentType.FieldByName(f.GoName + "ID")
		if localFK := f.ForeignKey; localFK != "" {
			idx, ierr := fieldIndexByColumn(parentType, localFK)
			if ierr != nil {
				return d, ierr
			}
			d.ParentKeyFieldIndex = idx
		} else if ok {
			d.ParentKeyFieldIndex = fkField.Index[0]
		} else {
			return d, fmt.Errorf("mapper: belongs_to %s: no foreign key field found (expected %sID or fk=...)", f.GoName, f.GoName)
		}
		if relatedSchema.PrimaryKey == nil {
			return d, fmt.Errorf("mapper: belongs_to %s: related type %s has no primary key", f.GoName, relatedType)
		}
		d.RelatedKeyColumn = relatedSchema.PrimaryKey.Column

	case RelationHasMany, RelationHasOne:
		d.Kind = relation.HasMany
		if f.Relation == RelationHasOne {
			d.Kind = relation.HasOne
		}
		if parentSchema := SchemaFor(parentType); parentSchema.PrimaryKey != nil {
			d.ParentKeyFieldIndex = parentSchema.PrimaryKey.Index
		} else {
			return d, fmt.Errorf("mapper: has_many/has_one %s: parent type %s has no primary key", f.GoName, parentType)
		}
		fk := f.ForeignKey
		if fk == "" {
			fk = snakeCase(parentType.Name()) + "_id"
		}
		d.RelatedKeyColumn = fk

	case RelationHasManyThrough, RelationHasOneThrough:
		d.Kind = relation.HasManyThrough
		if f.Relation == RelationHasOneThrough {
			d.Kind = relation.HasOneThrough
		}
		throughType, terr := resolveType(f.ThroughName)
		if terr != nil {
			return d, terr
		}
		if parentSchema := SchemaFor(parentType); parentSchema.PrimaryKey != nil {
			d.ParentKeyFieldIndex = parentSchema.PrimaryKey.Index
		} else {
			return d, fmt.Errorf("mapper: through %s: parent type %s has no primary key", f.GoName, parentType)
		}
		parentFK := f.LocalKey
		if parentFK == "" {
			parentFK = snakeCase(parentType.Name()) + "_id"
		}
		relatedFK := f.ForeignKey
		if relatedFK == "" {
			relatedFK = snakeCase(relatedType.Name()) + "_id"
		}
		if relatedSchema.PrimaryKey == nil {
			return d, fmt.Errorf("mapper: through %s: related type %s has no primary key", f.GoName, relatedType)
		}
		d.RelatedKeyColumn = relatedSchema.PrimaryKey.Column
		d.Through = &relation.ThroughHop{
			Type:              throughType,
			ParentForeignKey:  parentFK,
			RelatedForeignKey: relatedFK,
		}

	default:
		return d, fmt.Errorf("mapper: field %s is not a relation", f.GoName)
	}

	return d, nil
}

func fieldIndexByColumn(t reflect.Type, column string) (int, error) {
	s := SchemaFor(t)
	for _, f := range s.Fields {
		if f.Column == column {
			return f.Index, nil
		}
	}
	return 0, fmt.Errorf("mapper: %s has no field mapped to column %q", t, column)
}

// loadRelations resolves each name in names against m's schema and
// loads it onto every value in parents, passing depth and m.maxDepth to
// relation.Load (spec.md §9's eager-load fan-out Open Question, resolved
// as a depth limit in relation.Load). The loaded related values' own
// relations are not loaded.
func (m *Mapper[T]) loadRelations(ctx context.Context, parents []reflect.Value, names []string, depth int) error {
	for _, name := range names {
		var field *Field
		for i := range m.schema.Fields {
			if m.schema.Fields[i].GoName == name && m.schema.Fields[i].Relation != RelationNone {
				field = &m.schema.Fields[i]
				break
			}
		}
		if field == nil {
			return fmt.Errorf("mapper: %s has no relation field %q", m.schema.Type, name)
		}

		d, err := descriptorFor(m.schema.Type, *field)
		if err != nil {
			return err
		}

		fetch := m.fetcher(ctx)
		if err := relation.Load(parents, d, fetch, depth, m.maxDepth); err != nil {
			return err
		}
	}
	return nil
}

// fetcher adapts this mapper's connection into a relation.Fetcher,
// rendering a single "WHERE column IN (...)" query per relation hop and
// grouping the scanned rows by that column's value - the execution side
// relation.Load's pure-metadata Descriptor delegates out to.
func (m *Mapper[T]) fetcher(ctx context.Context) relation.Fetcher {
	return func(relatedType reflect.Type, column string, keys []any) (map[any][]reflect.Value, error) {
		if len(keys) == 0 {
			return map[any][]reflect.Value{}, nil
		}
		schema := SchemaFor(relatedType)
		table := TableName(relatedType)

		sb := query.Select(m.conn.Formatter(), table).Where(query.WhereIn(column, keys))
		sqlStr, args := sb.Build()

		rows, err := m.conn.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return nil, fmt.Errorf("mapper: loading related %s: %w", table, err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		colIndex, err := fieldIndexByColumn(relatedType, column)
		if err != nil {
			return nil, err
		}

		grouped := make(map[any][]reflect.Value)
		for rows.Next() {
			dest := newOfType(relatedType)
			if err := scanRow(rows, cols, dest, schema); err != nil {
				return nil, fmt.Errorf("mapper: scanning related %s row: %w", table, err)
			}
			key := dest.Field(colIndex).Interface()
			grouped[key] = append(grouped[key], dest)
		}
		return grouped, rows.Err()
	}
}
