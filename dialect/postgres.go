package dialect

import (
	"fmt"
	"strings"
)

type postgresFormatter struct{}

func (postgresFormatter) Name() Name { return Postgres }

func (postgresFormatter) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (f postgresFormatter) QualifiedColumn(table, column string) string {
	return f.Quote(table) + "." + f.Quote(column)
}

func (postgresFormatter) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresFormatter) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (postgresFormatter) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (postgresFormatter) SelectFirst(n int) string     { return fmt.Sprintf("LIMIT %d", n) }
func (postgresFormatter) SelectFirstPrefix(int) string { return "" }
func (postgresFormatter) SelectRange(offset, limit int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (postgresFormatter) ColumnTypeSQL(ct ColumnType) string {
	switch ct.Kind {
	case Bigint:
		return "BIGINT"
	case Binary, VarBinary:
		return "BYTEA"
	case Bool:
		return "BOOLEAN"
	case Char:
		return sizedOrMax(ct.Size, "CHAR(%d)", "CHAR(255)")
	case Date:
		return "DATE"
	case DateTime, Timestamp:
		return "TIMESTAMP"
	case Decimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", ct.Precision, ct.Scale)
	case Guid:
		return "UUID"
	case Integer:
		return "INTEGER"
	case NChar:
		return sizedOrMax(ct.Size, "CHAR(%d)", "CHAR(255)")
	case NVarchar:
		return sizedOrMax(ct.Size, "VARCHAR(%d)", "TEXT")
	case Real:
		return "DOUBLE PRECISION"
	case Smallint:
		return "SMALLINT"
	case Text:
		return "TEXT"
	case Time:
		return "TIME"
	case Tinyint:
		return "SMALLINT"
	case Varchar:
		return sizedOrMax(ct.Size, "VARCHAR(%d)", "TEXT")
	default:
		return "TEXT"
	}
}

func (f postgresFormatter) AutoIncrementPrimaryKey(column string, ct ColumnType) string {
	serial := "SERIAL"
	if ct.Kind == Bigint {
		serial = "BIGSERIAL"
	}
	return fmt.Sprintf("%s %s PRIMARY KEY", f.Quote(column), serial)
}

// LastInsertIDQuery is empty: Postgres returns the identity via
// RETURNING on the INSERT itself, handled by the statement layer.
func (postgresFormatter) LastInsertIDQuery(string, string) string { return "" }

func (f postgresFormatter) DropTable(table string, ifExists, cascade bool) string {
	stmt := "DROP TABLE "
	if ifExists {
		stmt += "IF EXISTS "
	}
	stmt += f.Quote(table)
	if cascade {
		stmt += " CASCADE"
	}
	return stmt
}

func (postgresFormatter) SupportsNativeCascade() bool { return true }
