package relation

import "reflect"

// Fetcher loads every row of relatedType whose column value is one of
// keys, grouped by that column value. The mapper package supplies the
// concrete implementation (it owns the SQL rendering and row scanning);
// this package stays free of any database/sql or query-builder
// dependency, matching how syssam-velox's schema/edge package is pure
// metadata with execution left to its dialect/sql layer.
type Fetcher func(relatedType reflect.Type, column string, keys []any) (map[any][]reflect.Value, error)

// Load resolves d against parents (addressable struct values) using
// fetch, assigning the loaded related value(s) onto each parent's
// d.FieldName field.
func Load(parents []reflect.Value, d Descriptor, fetch Fetcher, depth, maxDepth int) error {
	if len(parents) == 0 {
		return nil
	}
	if depth > maxDepth {
		return ErrDepthExceeded
	}

	switch d.Kind {
	case BelongsTo:
		return loadBelongsTo(parents, d, fetch)
	case HasMany, HasOne:
		return loadHasMany(parents, d, fetch, d.Kind == HasOne)
	case HasManyThrough, HasOneThrough:
		return loadThrough(parents, d, fetch, d.Kind == HasOneThrough)
	default:
		return nil
	}
}

func collectKeys(parents []reflect.Value, fieldIndex int) []any {
	seen := make(map[any]bool)
	var keys []any
	for _, p := range parents {
		k := p.Field(fieldIndex).Interface()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func assignOne(field reflect.Value, row reflect.Value) {
	if field.Kind() == reflect.Ptr {
		field.Set(row.Addr())
		return
	}
	field.Set(row)
}

func assignMany(field reflect.Value, rows []reflect.Value) {
	slice := reflect.MakeSlice(field.Type(), len(rows), len(rows))
	for i, r := range rows {
		slice.Index(i).Set(r)
	}
	field.Set(slice)
}

func loadBelongsTo(parents []reflect.Value, d Descriptor, fetch Fetcher) error {
	keys := collectKeys(parents, d.ParentKeyFieldIndex)
	grouped, err := fetch(d.RelatedType, d.RelatedKeyColumn, keys)
	if err != nil {
		return err
	}
	for _, p := range parents {
		key := p.Field(d.ParentKeyFieldIndex).Interface()
		if rows, ok := grouped[key]; ok && len(rows) > 0 {
			assignOne(p.FieldByName(d.FieldName), rows[0])
		}
	}
	return nil
}

func loadHasMany(parents []reflect.Value, d Descriptor, fetch Fetcher, single bool) error {
	keys := collectKeys(parents, d.ParentKeyFieldIndex)
	grouped, err := fetch(d.RelatedType, d.RelatedKeyColumn, keys)
	if err != nil {
		return err
	}
	for _, p := range parents {
		key := p.Field(d.ParentKeyFieldIndex).Interface()
		rows := grouped[key]
		field := p.FieldByName(d.FieldName)
		if single {
			if len(rows) > 0 {
				assignOne(field, rows[0])
			}
			continue
		}
		assignMany(field, rows)
	}
	return nil
}

// loadThrough performs the two-hop join: parent key -> through rows ->
// related rows, grouping the final result back onto each parent the
// same way loadHasMany does.
func loadThrough(parents []reflect.Value, d Descriptor, fetch Fetcher, single bool) error {
	hop := d.Through
	parentKeys := collectKeys(parents, d.ParentKeyFieldIndex)

	throughRows, err := fetch(hop.Type, hop.ParentForeignKey, parentKeys)
	if err != nil {
		return err
	}

	throughSchema := SchemaReader(hop.Type)
	relatedFKIndex, err := throughSchema.columnIndex(hop.RelatedForeignKey)
	if err != nil {
		return err
	}
	parentFKIndex, err := throughSchema.columnIndex(hop.ParentForeignKey)
	if err != nil {
		return err
	}

	relatedKeysByParent := make(map[any][]any)
	var allRelatedKeys []any
	for parentKey, rows := range throughRows {
		for _, row := range rows {
			rk := row.Field(relatedFKIndex).Interface()
			relatedKeysByParent[parentKey] = append(relatedKeysByParent[parentKey], rk)
			allRelatedKeys = append(allRelatedKeys, rk)
			_ = parentFKIndex
		}
	}

	relatedGrouped, err := fetch(d.RelatedType, d.RelatedKeyColumn, allRelatedKeys)
	if err != nil {
		return err
	}

	for _, p := range parents {
		key := p.Field(d.ParentKeyFieldIndex).Interface()
		var rows []reflect.Value
		for _, rk := range relatedKeysByParent[key] {
			rows = append(rows, relatedGrouped[rk]...)
		}
		field := p.FieldByName(d.FieldName)
		if single {
			if len(rows) > 0 {
				assignOne(field, rows[0])
			}
			continue
		}
		assignMany(field, rows)
	}
	return nil
}
