package query

import (
	"fmt"
	"strings"

	"github.com/lastrada/lightweight-go/dialect"
)

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// SelectBuilder accumulates a SELECT statement's clauses and renders it
// through a dialect.Formatter, generalizing
// internal/database/query_builder.go's buildSelectQuery from a single
// "?" placeholder style to per-backend placeholders/pagination.
type SelectBuilder struct {
	formatter      dialect.Formatter
	table          string
	columns        []string
	joins          []Join
	wheres         []Predicate
	groupBy        []string
	having         []Predicate
	orders         []Order
	limit          int
	offset         int
	relations      []string
	includeDeleted bool
}

// Select starts a new SELECT builder against table, using f to render
// dialect-specific SQL.
func Select(f dialect.Formatter, table string, columns ...string) *SelectBuilder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	return &SelectBuilder{formatter: f, table: table, columns: columns}
}

func (s *SelectBuilder) Join(table, first, op, second string) *SelectBuilder {
	s.joins = append(s.joins, Join{Kind: "JOIN", Table: table, First: first, Op: op, Second: second})
	return s
}

func (s *SelectBuilder) LeftJoin(table, first, op, second string) *SelectBuilder {
	s.joins = append(s.joins, Join{Kind: "LEFT JOIN", Table: table, First: first, Op: op, Second: second})
	return s
}

func (s *SelectBuilder) RightJoin(table, first, op, second string) *SelectBuilder {
	s.joins = append(s.joins, Join{Kind: "RIGHT JOIN", Table: table, First: first, Op: op, Second: second})
	return s
}

func (s *SelectBuilder) Where(preds ...Predicate) *SelectBuilder {
	s.wheres = append(s.wheres, preds...)
	return s
}

func (s *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	s.groupBy = append(s.groupBy, columns...)
	return s
}

func (s *SelectBuilder) Having(preds ...Predicate) *SelectBuilder {
	s.having = append(s.having, preds...)
	return s
}

func (s *SelectBuilder) OrderBy(column string, desc bool) *SelectBuilder {
	s.orders = append(s.orders, Order{Column: column, Desc: desc})
	return s
}

func (s *SelectBuilder) Limit(n int) *SelectBuilder {
	s.limit = n
	return s
}

func (s *SelectBuilder) Offset(n int) *SelectBuilder {
	s.offset = n
	return s
}

// With marks relations to eager-load; the mapper package consumes this
// list, the builder itself only carries it through (spec.md §4.4's
// relation auto-loading, resolved via the explicit .With API per
// SPEC_FULL.md §4.4's Open Question decision).
func (s *SelectBuilder) With(relations ...string) *SelectBuilder {
	s.relations = append(s.relations, relations...)
	return s
}

func (s *SelectBuilder) Relations() []string { return s.relations }

// WithTrashed disables the soft-delete filter this builder otherwise
// applies by default (deleted_at IS NULL).
func (s *SelectBuilder) WithTrashed() *SelectBuilder {
	s.includeDeleted = true
	return s
}

// ToSql renders the SELECT the same way Build does, satisfying SQLer
// so one SelectBuilder can appear as a sub-select on the right-hand
// side of another builder's Where/WhereIn.
func (s *SelectBuilder) ToSql() (string, []any) {
	return s.Build()
}

// Build renders the SELECT statement and its flattened argument list.
func (s *SelectBuilder) Build() (string, []any) {
	var b strings.Builder
	selectKeyword := "SELECT"
	if s.limit > 0 && s.offset == 0 {
		if prefix := s.formatter.SelectFirstPrefix(s.limit); prefix != "" {
			selectKeyword = "SELECT " + prefix
		}
	}
	fmt.Fprintf(&b, "%s %s FROM %s", selectKeyword, strings.Join(s.columns, ", "), s.table)

	for _, j := range s.joins {
		b.WriteString(" ")
		b.WriteString(j.render())
	}

	wheres := s.wheres
	if !s.includeDeleted {
		wheres = append(append([]Predicate{}, wheres...), WhereNull("deleted_at"))
	}

	var args []any
	idx := 1
	if len(wheres) > 0 {
		frag, wargs := renderPredicates(s.formatter, wheres, idx, s.table)
		if frag != "" {
			b.WriteString(" WHERE ")
			rendered := 0
			for _, p := range wheres {
				if !p.empty {
					rendered++
				}
			}
			if rendered > 1 {
				frag = "(" + frag + ")"
			}
			b.WriteString(frag)
			args = append(args, wargs...)
			idx += len(wargs)
		}
	}

	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(s.groupBy, ", "))
	}

	if len(s.having) > 0 {
		frag, hargs := renderPredicates(s.formatter, s.having, idx, s.table)
		if frag != "" {
			b.WriteString(" HAVING ")
			b.WriteString(frag)
			args = append(args, hargs...)
			idx += len(hargs)
		}
	}

	if len(s.orders) > 0 {
		parts := make([]string, len(s.orders))
		for i, o := range s.orders {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = o.Column + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if s.limit > 0 && s.offset > 0 {
		b.WriteString(" ")
		b.WriteString(s.formatter.SelectRange(s.offset, s.limit))
	} else if s.limit > 0 {
		suffix := s.formatter.SelectFirst(s.limit)
		if suffix != "" {
			b.WriteString(" ")
			b.WriteString(suffix)
		}
	}

	return b.String(), args
}
