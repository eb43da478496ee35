package query

import (
	"fmt"

	"github.com/lastrada/lightweight-go/dialect"
)

// DeleteBuilder renders a DELETE FROM ... WHERE statement. Soft-delete
// semantics (spec.md's soft-delete flag) are the mapper's concern, not
// this builder's: callers that want a soft delete issue an UpdateBuilder
// against deleted_at instead of calling Delete.
type DeleteBuilder struct {
	formatter dialect.Formatter
	table     string
	wheres    []Predicate
}

// Delete starts a new DELETE builder for table.
func Delete(f dialect.Formatter, table string) *DeleteBuilder {
	return &DeleteBuilder{formatter: f, table: table}
}

func (d *DeleteBuilder) Where(preds ...Predicate) *DeleteBuilder {
	d.wheres = append(d.wheres, preds...)
	return d
}

// Build renders the DELETE statement and its argument list.
func (d *DeleteBuilder) Build() (string, []any) {
	query := fmt.Sprintf("DELETE FROM %s", d.table)
	if len(d.wheres) == 0 {
		return query, nil
	}
	frag, args := renderPredicates(d.formatter, d.wheres, 1, "")
	return query + " WHERE " + frag, args
}
