package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lastrada/lightweight-go/dialect"
)

// UpdateBuilder renders an UPDATE ... SET ... WHERE statement.
type UpdateBuilder struct {
	formatter dialect.Formatter
	table     string
	values    map[string]any
	wheres    []Predicate
}

// Update starts a new UPDATE builder for table.
func Update(f dialect.Formatter, table string, values map[string]any) *UpdateBuilder {
	return &UpdateBuilder{formatter: f, table: table, values: values}
}

func (u *UpdateBuilder) Where(preds ...Predicate) *UpdateBuilder {
	u.wheres = append(u.wheres, preds...)
	return u
}

// Build renders the UPDATE statement and its argument list: SET values
// first (sorted by column name), then WHERE values, matching the
// placeholder numbering a caller must supply in that order.
func (u *UpdateBuilder) Build() (string, []any) {
	columns := make([]string, 0, len(u.values))
	for c := range u.values {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	setParts := make([]string, len(columns))
	args := make([]any, len(columns))
	idx := 1
	for i, c := range columns {
		setParts[i] = fmt.Sprintf("%s = %s", c, u.formatter.Placeholder(idx))
		args[i] = u.values[c]
		idx++
	}

	query := fmt.Sprintf("UPDATE %s SET %s", u.table, strings.Join(setParts, ", "))

	if len(u.wheres) > 0 {
		frag, wargs := renderPredicates(u.formatter, u.wheres, idx, "")
		query += " WHERE " + frag
		args = append(args, wargs...)
	}
	return query, args
}
