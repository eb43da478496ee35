package relation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// columnIndexer is the minimal "db" struct-tag column name to field index
// resolver this package needs for the through-table hop in loadThrough.
// It deliberately does not depend on mapper.Schema (mapper depends on
// relation, not the other way around); mapper.SchemaFor does the full
// parse for everything else.
type columnIndexer struct {
	byColumn map[string]int
}

var schemaReaderCache sync.Map // reflect.Type -> *columnIndexer

// SchemaReader returns the column-name-to-field-index resolver for t,
// caching the parse per type.
func SchemaReader(t reflect.Type) *columnIndexer {
	if cached, ok := schemaReaderCache.Load(t); ok {
		return cached.(*columnIndexer)
	}
	idx := &columnIndexer{byColumn: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("db")
		if !ok {
			continue
		}
		column := strings.Split(tag, ",")[0]
		if column == "" || column == "-" {
			continue
		}
		idx.byColumn[column] = i
	}
	actual, _ := schemaReaderCache.LoadOrStore(t, idx)
	return actual.(*columnIndexer)
}

func (s *columnIndexer) columnIndex(column string) (int, error) {
	i, ok := s.byColumn[column]
	if !ok {
		return 0, fmt.Errorf("relation: no field mapped to column %q", column)
	}
	return i, nil
}
