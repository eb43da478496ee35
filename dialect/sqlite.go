package dialect

import (
	"fmt"
	"strings"
)

type sqliteFormatter struct{}

func (sqliteFormatter) Name() Name { return SQLite }

func (sqliteFormatter) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (f sqliteFormatter) QualifiedColumn(table, column string) string {
	return f.Quote(table) + "." + f.Quote(column)
}

func (sqliteFormatter) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqliteFormatter) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (sqliteFormatter) Placeholder(int) string { return "?" }

func (sqliteFormatter) SelectFirst(n int) string     { return fmt.Sprintf("LIMIT %d", n) }
func (sqliteFormatter) SelectFirstPrefix(int) string { return "" }
func (sqliteFormatter) SelectRange(offset, limit int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (sqliteFormatter) ColumnTypeSQL(ct ColumnType) string {
	switch ct.Kind {
	case Bigint:
		return "INTEGER"
	case Binary, VarBinary:
		return "BLOB"
	case Bool:
		return "BOOLEAN"
	case Char, NChar:
		return sizedOrMax(ct.Size, "CHARACTER(%d)", "TEXT")
	case Date:
		return "DATE"
	case DateTime, Timestamp:
		return "DATETIME"
	case Decimal:
		return "NUMERIC"
	case Guid:
		return "BLOB"
	case Integer, Smallint, Tinyint:
		return "INTEGER"
	case NVarchar, Varchar:
		return sizedOrMax(ct.Size, "VARCHAR(%d)", "TEXT")
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	case Time:
		return "TIME"
	default:
		return "TEXT"
	}
}

func (f sqliteFormatter) AutoIncrementPrimaryKey(column string, _ ColumnType) string {
	return fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", f.Quote(column))
}

func (sqliteFormatter) LastInsertIDQuery(string, string) string {
	return "SELECT last_insert_rowid()"
}

// DropTable: SQLite has no cascade; the flag is a documented no-op
// (spec.md §4.3).
func (f sqliteFormatter) DropTable(table string, ifExists, _ bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + f.Quote(table)
	}
	return "DROP TABLE " + f.Quote(table)
}

func (sqliteFormatter) SupportsNativeCascade() bool { return false }
