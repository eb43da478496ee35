// Package mapper is the data mapper: struct-tag-driven CRUD, schema
// synthesis, and relation auto-loading over a conn.Connection. Ported
// from model_events.go (lifecycle hook shape -> modified-flag clearing),
// eager_loading.go and query_relationships.go (relation loader wiring),
// and query_optimization.go (reused-bound-cell pattern for All/Query row
// iteration).
package mapper

import (
	"reflect"
	"strings"
	"sync"
)

// PKMode describes how a primary key's value is produced.
type PKMode int

const (
	// PKNone means the field is not a primary key.
	PKNone PKMode = iota
	// PKAutoAssign means Create assigns the value itself when the field
	// is still its zero value: a fresh GUID for a binder.GUID field, or
	// MAX(pk)+1 read from the table otherwise. A caller that sets the
	// field before calling Create keeps its own value.
	PKAutoAssign
	// PKIdentity means the database generates the value on insert
	// (AUTO_INCREMENT/SERIAL/IDENTITY); Create reads it back via
	// conn.Connection.LastInsertIDQuery or a RETURNING clause.
	PKIdentity
)

// RelationKind mirrors relation.Kind, plus RelationNone for a plain
// column field; descriptorFor (relations.go) maps it onto relation.Kind.
type RelationKind int

const (
	RelationNone RelationKind = iota
	RelationBelongsTo
	RelationHasMany
	RelationHasOne
	RelationHasOneThrough
	RelationHasManyThrough
)

// Field describes one struct field's mapping to a column or relation,
// parsed from its `db:"..."` tag.
type Field struct {
	Index      int
	GoName     string
	Column     string
	PK         PKMode
	Skip       bool
	Relation   RelationKind
	RelatedName string // the Go type name named in belongs_to=/has_many=/...
	ForeignKey string
	LocalKey   string
	ThroughName string
}

// Schema is a struct type's parsed field mapping, cached once per
// reflect.Type (the package-level substitute for compile-time
// reflection, spec.md §9).
type Schema struct {
	Type       reflect.Type
	Fields     []Field
	PrimaryKey *Field
}

var schemaCache sync.Map // reflect.Type -> *Schema

// SchemaFor parses (or returns the cached parse of) t's `db` struct
// tags. t must be a struct type, not a pointer.
func SchemaFor(t reflect.Type) *Schema {
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*Schema)
	}

	s := &Schema{Type: t}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("db")
		if !ok {
			continue
		}
		f := parseFieldTag(i, sf.Name, tag)
		if f.Skip {
			continue
		}
		s.Fields = append(s.Fields, f)
		if f.PK != PKNone {
			last := s.Fields[len(s.Fields)-1]
			s.PrimaryKey = &last
		}
	}

	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*Schema)
}

func parseFieldTag(index int, goName, tag string) Field {
	parts := strings.Split(tag, ",")
	f := Field{Index: index, GoName: goName, Column: parts[0]}
	if f.Column == "-" {
		f.Skip = true
		f.Column = ""
	}

	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(opt, "=")
		switch key {
		case "pk":
			switch value {
			case "identity":
				f.PK = PKIdentity
			default:
				f.PK = PKAutoAssign
			}
		case "belongs_to":
			f.Relation = RelationBelongsTo
			f.RelatedName = value
		case "has_many":
			f.Relation = RelationHasMany
			f.RelatedName = value
		case "has_one":
			f.Relation = RelationHasOne
			f.RelatedName = value
		case "through":
			f.ThroughName = value
		case "fk":
			f.ForeignKey = value
		case "localkey":
			f.LocalKey = value
		}
	}

	if f.Relation == RelationHasMany && f.ThroughName != "" {
		f.Relation = RelationHasManyThrough
	}
	if f.Relation == RelationHasOne && f.ThroughName != "" {
		f.Relation = RelationHasOneThrough
	}
	return f
}

// Columns returns the non-relation, non-skipped fields in declaration
// order - the set that maps 1:1 onto table columns.
func (s *Schema) Columns() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Relation == RelationNone {
			out = append(out, f)
		}
	}
	return out
}

// Relations returns the fields that describe a relation rather than a
// column.
func (s *Schema) Relations() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Relation != RelationNone {
			out = append(out, f)
		}
	}
	return out
}

// TableName derives a table name from a Go type name by converting it
// to snake_case and appending "s" - a simple English pluralization,
// adequate for the regular nouns model names are in practice (mirrors
// the teacher's convention of deriving table names from struct names).
func TableName(t reflect.Type) string {
	return snakeCase(t.Name()) + "s"
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
