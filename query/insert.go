package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lastrada/lightweight-go/dialect"
)

// InsertBuilder renders a single-row INSERT statement. Column order is
// sorted for determinism (the teacher's map-iteration-order insert in
// internal/database/query_builder.go's insertMap produces nondeterministic
// column order across runs, which this builder fixes).
type InsertBuilder struct {
	formatter dialect.Formatter
	table     string
	values    map[string]any
	returning string
}

// Insert starts a new INSERT builder for table.
func Insert(f dialect.Formatter, table string, values map[string]any) *InsertBuilder {
	return &InsertBuilder{formatter: f, table: table, values: values}
}

// Returning requests the given column back via RETURNING, for dialects
// that support it (Postgres); ignored (and LastInsertIDQuery used
// instead) on the others.
func (i *InsertBuilder) Returning(column string) *InsertBuilder {
	i.returning = column
	return i
}

// Build renders the INSERT statement and its argument list, in
// column-name sorted order.
func (i *InsertBuilder) Build() (string, []any) {
	columns := make([]string, 0, len(i.values))
	for c := range i.values {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for idx, c := range columns {
		placeholders[idx] = i.formatter.Placeholder(idx + 1)
		args[idx] = i.values[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		i.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if i.returning != "" && i.formatter.Name() == dialect.Postgres {
		query += " RETURNING " + i.returning
	}
	return query, args
}
