package query

import (
	"fmt"
	"strings"

	"github.com/lastrada/lightweight-go/dialect"
)

// ColumnDef is one column in a CreateTable/AlterTable plan. Ported from
// internal/database/migrations/column_builder.go's fluent setters,
// flattened into a struct since the dialect-rendering step (not the
// builder) now owns type-name resolution.
type ColumnDef struct {
	Name          string
	Type          dialect.ColumnType
	Nullable      bool
	Default       any
	HasDefault    bool
	Primary       bool
	Unique        bool
	AutoIncrement bool
}

// ForeignKeyDef is one FOREIGN KEY constraint in a table plan. Ported
// from internal/database/migrations/foreign_key_builder.go.
type ForeignKeyDef struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         string
	OnUpdate         string
}

// IndexDef is one secondary index in a table plan.
type IndexDef struct {
	Name    string
	Columns []string
	Unique  bool
}

// TableBuilder accumulates a CREATE TABLE plan and renders it through a
// dialect.Formatter. Ported from internal/database/migrations/
// {table_builder,schema_builder,sql_generators}.go, generalized from 3
// dialects to 4.
type TableBuilder struct {
	formatter   dialect.Formatter
	name        string
	columns     []ColumnDef
	foreignKeys []ForeignKeyDef
	indexes     []IndexDef
}

// CreateTable starts a new table plan.
func CreateTable(f dialect.Formatter, name string) *TableBuilder {
	return &TableBuilder{formatter: f, name: name}
}

func (t *TableBuilder) Column(c ColumnDef) *TableBuilder {
	t.columns = append(t.columns, c)
	return t
}

func (t *TableBuilder) ForeignKey(fk ForeignKeyDef) *TableBuilder {
	t.foreignKeys = append(t.foreignKeys, fk)
	return t
}

func (t *TableBuilder) Index(idx IndexDef) *TableBuilder {
	t.indexes = append(t.indexes, idx)
	return t
}

// Build renders the CREATE TABLE statement followed by one separate
// CREATE [UNIQUE] INDEX statement per declared index, on every backend
// (no index is rendered inline in the CREATE TABLE).
func (t *TableBuilder) Build() []string {
	var lines []string
	var pk []string

	for _, c := range t.columns {
		if c.AutoIncrement {
			lines = append(lines, t.formatter.AutoIncrementPrimaryKey(c.Name, c.Type))
			continue
		}
		lines = append(lines, t.renderColumn(c))
		if c.Primary {
			pk = append(pk, t.formatter.Quote(c.Name))
		}
		if c.Unique {
			lines[len(lines)-1] += " UNIQUE"
		}
	}

	if len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	for _, fk := range t.foreignKeys {
		lines = append(lines, t.renderForeignKey(fk))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", t.formatter.Quote(t.name), strings.Join(lines, ",\n  "))

	statements := []string{stmt}
	for _, idx := range t.indexes {
		statements = append(statements, t.renderIndex(idx))
	}
	return statements
}

func (t *TableBuilder) renderColumn(c ColumnDef) string {
	parts := []string{t.formatter.Quote(c.Name), t.formatter.ColumnTypeSQL(c.Type)}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.HasDefault {
		parts = append(parts, "DEFAULT "+t.renderLiteral(c.Default))
	}
	return strings.Join(parts, " ")
}

func (t *TableBuilder) renderLiteral(v any) string {
	switch val := v.(type) {
	case bool:
		return t.formatter.BoolLiteral(val)
	case string:
		return t.formatter.StringLiteral(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (t *TableBuilder) renderForeignKey(fk ForeignKeyDef) string {
	s := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		t.formatter.Quote(fk.Column), t.formatter.Quote(fk.ReferencedTable), t.formatter.Quote(fk.ReferencedColumn))
	if fk.OnDelete != "" {
		s += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		s += " ON UPDATE " + fk.OnUpdate
	}
	return s
}

func (t *TableBuilder) renderIndex(idx IndexDef) string {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	quoted := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		quoted[i] = t.formatter.Quote(c)
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, t.formatter.Quote(idx.Name), t.formatter.Quote(t.name), strings.Join(quoted, ", "))
}

// AlterTableBuilder accumulates ADD COLUMN/DROP COLUMN/ADD FOREIGN KEY
// steps for an existing table.
type AlterTableBuilder struct {
	formatter dialect.Formatter
	table     string
	adds      []ColumnDef
	drops     []string
	addFKs    []ForeignKeyDef
}

// AlterTable starts a new ALTER TABLE plan.
func AlterTable(f dialect.Formatter, table string) *AlterTableBuilder {
	return &AlterTableBuilder{formatter: f, table: table}
}

func (a *AlterTableBuilder) AddColumn(c ColumnDef) *AlterTableBuilder {
	a.adds = append(a.adds, c)
	return a
}

func (a *AlterTableBuilder) DropColumn(name string) *AlterTableBuilder {
	a.drops = append(a.drops, name)
	return a
}

func (a *AlterTableBuilder) AddForeignKey(fk ForeignKeyDef) *AlterTableBuilder {
	a.addFKs = append(a.addFKs, fk)
	return a
}

// Build renders one ALTER TABLE statement per accumulated step, the
// portable form every supported backend accepts (a single
// multi-action ALTER TABLE is not uniformly supported across all four).
func (a *AlterTableBuilder) Build() []string {
	var statements []string
	tb := &TableBuilder{formatter: a.formatter, name: a.table}
	for _, c := range a.adds {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
			a.formatter.Quote(a.table), tb.renderColumn(c)))
	}
	for _, name := range a.drops {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
			a.formatter.Quote(a.table), a.formatter.Quote(name)))
	}
	for _, fk := range a.addFKs {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ADD %s",
			a.formatter.Quote(a.table), tb.renderForeignKey(fk)))
	}
	return statements
}

// DropTable renders the backend-appropriate DROP TABLE statement(s),
// delegating cascade semantics to the Formatter per spec.md §4.3.
func DropTable(f dialect.Formatter, table string, ifExists bool) []string {
	return []string{f.DropTable(table, ifExists, true)}
}
