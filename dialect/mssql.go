package dialect

import (
	"fmt"
	"strings"
)

type mssqlFormatter struct{}

func (mssqlFormatter) Name() Name { return SQLServer }

func (mssqlFormatter) Quote(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

func (f mssqlFormatter) QualifiedColumn(table, column string) string {
	return f.Quote(table) + "." + f.Quote(column)
}

func (mssqlFormatter) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (mssqlFormatter) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (mssqlFormatter) Placeholder(position int) string {
	return fmt.Sprintf("@p%d", position)
}

// SelectFirst on SQL Server is a SELECT-clause prefix (TOP n), not a
// trailing clause - spec.md §4.3's "SELECT ALL / FIRST(n)".
func (mssqlFormatter) SelectFirst(int) string           { return "" }
func (mssqlFormatter) SelectFirstPrefix(n int) string   { return fmt.Sprintf("TOP %d", n) }

func (mssqlFormatter) SelectRange(offset, limit int) string {
	return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)
}

func (mssqlFormatter) ColumnTypeSQL(ct ColumnType) string {
	switch ct.Kind {
	case Bigint:
		return "BIGINT"
	case Binary:
		return sizedOrMax(ct.Size, "BINARY(%d)", "VARBINARY(MAX)")
	case Bool:
		return "BIT"
	case Char:
		return sizedOrMax(ct.Size, "CHAR(%d)", "VARCHAR(MAX)")
	case Date:
		return "DATE"
	case DateTime:
		return "DATETIME2"
	case Decimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", ct.Precision, ct.Scale)
	case Guid:
		return "UNIQUEIDENTIFIER"
	case Integer:
		return "INT"
	case NChar:
		return sizedOrMax(ct.Size, "NCHAR(%d)", "NVARCHAR(MAX)")
	case NVarchar:
		return sizedOrMax(ct.Size, "NVARCHAR(%d)", "NVARCHAR(MAX)")
	case Real:
		return "FLOAT"
	case Smallint:
		return "SMALLINT"
	case Text:
		return "NVARCHAR(MAX)"
	case Time:
		return "TIME"
	case Timestamp:
		return "DATETIME2"
	case Tinyint:
		return "TINYINT"
	case VarBinary:
		return sizedOrMax(ct.Size, "VARBINARY(%d)", "VARBINARY(MAX)")
	case Varchar:
		return sizedOrMax(ct.Size, "VARCHAR(%d)", "VARCHAR(MAX)")
	default:
		return "NVARCHAR(MAX)"
	}
}

func (f mssqlFormatter) AutoIncrementPrimaryKey(column string, ct ColumnType) string {
	return fmt.Sprintf("%s %s IDENTITY(1,1) PRIMARY KEY", f.Quote(column), f.ColumnTypeSQL(ct))
}

func (mssqlFormatter) LastInsertIDQuery(string, string) string {
	return "SELECT SCOPE_IDENTITY()"
}

// DropTable on SQL Server has no CASCADE keyword; cascade must be
// expanded by the caller into explicit FK drops first (spec.md §4.3) -
// this renders only the bare DROP TABLE, and SupportsNativeCascade
// reports false so the migration builder knows to do that expansion.
func (f mssqlFormatter) DropTable(table string, ifExists, _ bool) string {
	if ifExists {
		return fmt.Sprintf("IF OBJECT_ID('%s', 'U') IS NOT NULL DROP TABLE %s", table, f.Quote(table))
	}
	return "DROP TABLE " + f.Quote(table)
}

func (mssqlFormatter) SupportsNativeCascade() bool { return false }
