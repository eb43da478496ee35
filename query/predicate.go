// Package query is the fluent, dialect-aware query builder: Select/
// Insert/Update/Delete statement builders plus a schema Migrate builder,
// all rendering through a dialect.Formatter instead of the teacher's
// single hard-coded "?" placeholder style. Ported from
// internal/database/query_builder.go's fluent builder (Onyx) and
// internal/database/migrations/{table_builder,column_builder,
// foreign_key_builder,index_builder,schema_builder,sql_generators}.go,
// generalized from 3 dialects to 4.
package query

import (
	"fmt"
	"strings"

	"github.com/lastrada/lightweight-go/dialect"
)

// Boolean connects one predicate to the next.
type Boolean string

const (
	And Boolean = "AND"
	Or  Boolean = "OR"
)

// SQLer is implemented by anything that can render itself as a
// standalone SQL fragment plus its bind arguments - any of this
// package's own builders qualify, which is what lets a Select be used
// as a sub-select on the right-hand side of Where/WhereIn.
type SQLer interface {
	ToSql() (string, []any)
}

// Predicate is one WHERE/HAVING term. It is either a leaf comparison,
// a Raw passthrough fragment, or a parenthesized Group of further
// Predicates built by Group/OrGroup. Not negates whichever of those it
// renders.
type Predicate struct {
	Boolean   Boolean
	Column    string
	Operator  string
	Value     any
	ColumnRHS string // set by WhereColumn: compares Column to another column, not a bound value
	Sub       SQLer  // set when Value is a sub-select builder
	Not       bool
	Raw       string // when set, Column/Operator/Value are ignored
	RawArgs   []any
	Group     []Predicate // set by Group/OrGroup: a parenthesized nested clause
	empty     bool        // Group() called with nothing worth rendering - must contribute nothing
}

// Where builds a simple "column operator ?" predicate joined with AND.
// If value implements SQLer (another builder), it renders as a
// sub-select instead of a bound parameter.
func Where(column, operator string, value any) Predicate {
	if sub, ok := value.(SQLer); ok {
		return Predicate{Boolean: And, Column: column, Operator: operator, Sub: sub}
	}
	return Predicate{Boolean: And, Column: column, Operator: operator, Value: value}
}

// OrWhere is Where joined with OR.
func OrWhere(column, operator string, value any) Predicate {
	p := Where(column, operator, value)
	p.Boolean = Or
	return p
}

// WhereColumn compares two columns against each other, e.g.
// WhereColumn("orders.updated_at", ">", "orders.created_at").
func WhereColumn(left, operator, right string) Predicate {
	return Predicate{Boolean: And, Column: left, Operator: operator, ColumnRHS: right}
}

// WhereTrue builds a "column = TRUE" predicate using the dialect's own
// boolean literal syntax.
func WhereTrue(column string) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "= TRUE"}
}

// WhereFalse builds a "column = FALSE" predicate using the dialect's
// own boolean literal syntax.
func WhereFalse(column string) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "= FALSE"}
}

// WhereIn builds a "column IN (?, ?, ...)" predicate over a literal
// value list, or "column IN (sub-select)" when values holds a single
// SQLer (e.g. another Select). An empty value list renders a
// deterministic always-false predicate rather than invalid "IN ()"
// SQL.
func WhereIn(column string, values []any) Predicate {
	if len(values) == 1 {
		if sub, ok := values[0].(SQLer); ok {
			return Predicate{Boolean: And, Column: column, Operator: "IN", Sub: sub}
		}
	}
	return Predicate{Boolean: And, Column: column, Operator: "IN", Value: values}
}

// WhereInSubSelect builds a "column IN (sub-select)" predicate from
// any builder exposing ToSql(), per the sub-select interoperability
// rule.
func WhereInSubSelect(column string, sub SQLer) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "IN", Sub: sub}
}

// WhereNotIn builds a "column NOT IN (?, ?, ...)" predicate. An empty
// value list renders a deterministic always-true predicate, since
// nothing is excluded by membership in an empty set.
func WhereNotIn(column string, values []any) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "NOT IN", Value: values}
}

// WhereNull builds a "column IS NULL" predicate.
func WhereNull(column string) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "IS", Value: nil}
}

// WhereNotNull builds a "column IS NOT NULL" predicate.
func WhereNotNull(column string) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "IS NOT", Value: nil}
}

// WhereBetween builds a "column BETWEEN ? AND ?" predicate.
func WhereBetween(column string, lo, hi any) Predicate {
	return Predicate{Boolean: And, Column: column, Operator: "BETWEEN", Value: []any{lo, hi}}
}

// Raw embeds a pre-rendered SQL fragment (escape hatch for expressions
// the builder vocabulary doesn't cover).
func Raw(sql string, args ...any) Predicate {
	return Predicate{Boolean: And, Raw: sql, RawArgs: args}
}

// Not negates p when rendered (NOT (...)).
func Not(p Predicate) Predicate {
	p.Not = true
	return p
}

// Group wraps preds in a parenthesized, AND-joined clause that itself
// joins to its parent clause with AND. An empty Group (or one whose
// members are themselves all empty) collapses entirely: it
// contributes neither "()" nor a stray junctor to its parent.
func Group(preds ...Predicate) Predicate {
	return group(And, preds)
}

// OrGroup is Group joined to its parent clause with OR instead of AND.
func OrGroup(preds ...Predicate) Predicate {
	return group(Or, preds)
}

func group(b Boolean, preds []Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p.empty {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return Predicate{empty: true}
	}
	return Predicate{Boolean: b, Group: kept}
}

// renderPredicates joins predicates with their booleans and renders
// each operand as the dialect's N-th placeholder, starting the count at
// startIndex (1-based) so callers can splice a WHERE clause after other
// already-numbered placeholders (e.g. an UPDATE SET list). table, when
// non-empty, qualifies bare (undotted) column references as
// "table"."column" via the formatter - callers that render a single,
// unambiguous table's WHERE/HAVING (SelectBuilder) pass it; callers
// with no natural single-table scope (Update/Delete) pass "".
func renderPredicates(f dialect.Formatter, preds []Predicate, startIndex int, table string) (string, []any) {
	var b strings.Builder
	var args []any
	idx := startIndex
	wrote := false

	for _, p := range preds {
		frag, fragArgs, next := renderOnePredicate(f, p, idx, table)
		if frag == "" {
			continue
		}
		if p.Not {
			if len(p.Group) > 0 {
				frag = "NOT " + frag // a Group already renders its own parentheses
			} else {
				frag = "NOT (" + frag + ")"
			}
		}
		if wrote {
			b.WriteString(" ")
			b.WriteString(string(p.Boolean))
			b.WriteString(" ")
		}
		b.WriteString(frag)
		args = append(args, fragArgs...)
		idx = next
		wrote = true
	}
	return b.String(), args
}

func qualify(f dialect.Formatter, table, column string) string {
	if table == "" || column == "" || strings.Contains(column, ".") {
		return column
	}
	return f.QualifiedColumn(table, column)
}

func renderOnePredicate(f dialect.Formatter, p Predicate, idx int, table string) (string, []any, int) {
	if p.empty {
		return "", nil, idx
	}

	if len(p.Group) > 0 {
		frag, args := renderPredicates(f, p.Group, idx, table)
		if frag == "" {
			return "", nil, idx
		}
		return "(" + frag + ")", args, idx + len(args)
	}

	if p.Raw != "" {
		frag := p.Raw
		for range p.RawArgs {
			frag = strings.Replace(frag, "?", f.Placeholder(idx), 1)
			idx++
		}
		return frag, p.RawArgs, idx
	}

	col := qualify(f, table, p.Column)

	if p.ColumnRHS != "" {
		return fmt.Sprintf("%s %s %s", col, p.Operator, qualify(f, table, p.ColumnRHS)), nil, idx
	}

	if p.Sub != nil {
		subSQL, subArgs := p.Sub.ToSql()
		for range subArgs {
			subSQL = strings.Replace(subSQL, "?", f.Placeholder(idx), 1)
			idx++
		}
		return fmt.Sprintf("%s %s (%s)", col, p.Operator, subSQL), subArgs, idx
	}

	switch p.Operator {
	case "= TRUE":
		return fmt.Sprintf("%s = %s", col, f.BoolLiteral(true)), nil, idx
	case "= FALSE":
		return fmt.Sprintf("%s = %s", col, f.BoolLiteral(false)), nil, idx
	case "IN", "NOT IN":
		values, _ := p.Value.([]any)
		if len(values) == 0 {
			if p.Operator == "NOT IN" {
				return "1 = 1", nil, idx
			}
			return "1 = 0", nil, idx
		}
		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = f.Placeholder(idx)
			idx++
		}
		return fmt.Sprintf("%s %s (%s)", col, p.Operator, strings.Join(placeholders, ", ")), values, idx
	case "BETWEEN", "NOT BETWEEN":
		values, _ := p.Value.([]any)
		lo, hi := f.Placeholder(idx), f.Placeholder(idx+1)
		return fmt.Sprintf("%s %s %s AND %s", col, p.Operator, lo, hi), values, idx + 2
	case "IS", "IS NOT":
		if p.Value == nil {
			return fmt.Sprintf("%s %s NULL", col, p.Operator), nil, idx
		}
		return fmt.Sprintf("%s %s %s", col, p.Operator, f.Placeholder(idx)), []any{p.Value}, idx + 1
	default:
		return fmt.Sprintf("%s %s %s", col, p.Operator, f.Placeholder(idx)), []any{p.Value}, idx + 1
	}
}

// Join describes one JOIN clause.
type Join struct {
	Kind   string // "JOIN", "LEFT JOIN", "RIGHT JOIN"
	Table  string
	First  string
	Op     string
	Second string
}

func (j Join) render() string {
	return fmt.Sprintf("%s %s ON %s %s %s", j.Kind, j.Table, j.First, j.Op, j.Second)
}
