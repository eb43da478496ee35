// Package relation describes the relation graph between mapped
// structs - the field/edge shape is modeled on syssam-velox's
// schema/edge package, generalized from a codegen-time edge definition
// to a runtime Descriptor read off a `db:"..."` struct tag (see
// mapper.Field). Ported, in spirit, from relationships.go's
// RelationshipType enum (Onyx).
package relation

import (
	"errors"
	"reflect"
)

// Kind is the closed set of relation shapes from spec.md's data model:
// BelongsTo, HasMany, HasOneThrough, HasManyThrough (plus HasOne, a
// degenerate HasMany the mapper treats identically except for the
// field's Go type).
type Kind int

const (
	BelongsTo Kind = iota
	HasMany
	HasOne
	HasOneThrough
	HasManyThrough
)

// ErrDepthExceeded is returned when Load is called with depth greater
// than maxDepth. Load itself loads one level and does not recurse into
// the related rows' own relations.
// spec.md §9's Open Question on HasMany-of-HasMany fan-out is resolved
// as: depth-limit rather than unbounded recursion, defaulting to 3
// (mapper.DefaultEagerLoadDepth), raised via mapper.WithMaxDepth.
var ErrDepthExceeded = errors.New("relation: eager-load depth exceeded")

// Descriptor is one relation edge, resolved from a struct field's tag.
type Descriptor struct {
	FieldName string
	Kind      Kind

	// RelatedType is the struct type on the far side of the edge (the
	// slice/pointer field's element type).
	RelatedType reflect.Type

	// ParentKeyFieldIndex is the index, on the PARENT struct, of the
	// field whose value joins to the related rows: the foreign-key
	// field for BelongsTo, the local (usually primary) key field for
	// HasMany/HasOne/*Through.
	ParentKeyFieldIndex int

	// RelatedKeyColumn is the column name, on the RELATED table, that
	// the join matches against: the referenced primary-key column for
	// BelongsTo, the foreign-key column for HasMany/HasOne.
	RelatedKeyColumn string

	// Through, when Kind is *Through, describes the join table hop.
	Through *ThroughHop
}

// ThroughHop describes the intermediate table a *Through relation joins
// across before reaching RelatedType.
type ThroughHop struct {
	Type              reflect.Type
	ParentForeignKey  string // column on the through table referencing the parent
	RelatedForeignKey string // column on the through table referencing RelatedType
}
