package dialect

import (
	"fmt"
	"strings"
)

type mysqlFormatter struct{}

func (mysqlFormatter) Name() Name { return MySQL }

func (mysqlFormatter) Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (f mysqlFormatter) QualifiedColumn(table, column string) string {
	return f.Quote(table) + "." + f.Quote(column)
}

func (mysqlFormatter) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (mysqlFormatter) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (mysqlFormatter) Placeholder(int) string { return "?" }

func (mysqlFormatter) SelectFirst(n int) string       { return fmt.Sprintf("LIMIT %d", n) }
func (mysqlFormatter) SelectFirstPrefix(int) string   { return "" }
func (mysqlFormatter) SelectRange(offset, limit int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (mysqlFormatter) ColumnTypeSQL(ct ColumnType) string {
	switch ct.Kind {
	case Bigint:
		return "BIGINT"
	case Binary:
		return sizedOrMax(ct.Size, "BINARY(%d)", "LONGBLOB")
	case Bool:
		return "TINYINT(1)"
	case Char:
		return sizedOrMax(ct.Size, "CHAR(%d)", "CHAR(255)")
	case Date:
		return "DATE"
	case DateTime:
		return "DATETIME"
	case Decimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", ct.Precision, ct.Scale)
	case Guid:
		return "BINARY(16)"
	case Integer:
		return "INT"
	case NChar:
		return sizedOrMax(ct.Size, "CHAR(%d) CHARACTER SET utf8mb4", "CHAR(255) CHARACTER SET utf8mb4")
	case NVarchar:
		return sizedOrMax(ct.Size, "VARCHAR(%d) CHARACTER SET utf8mb4", "TEXT CHARACTER SET utf8mb4")
	case Real:
		return "DOUBLE"
	case Smallint:
		return "SMALLINT"
	case Text:
		return "LONGTEXT"
	case Time:
		return "TIME"
	case Timestamp:
		return "TIMESTAMP"
	case Tinyint:
		return "TINYINT"
	case VarBinary:
		return sizedOrMax(ct.Size, "VARBINARY(%d)", "LONGBLOB")
	case Varchar:
		return sizedOrMax(ct.Size, "VARCHAR(%d)", "TEXT")
	default:
		return "TEXT"
	}
}

func (f mysqlFormatter) AutoIncrementPrimaryKey(column string, ct ColumnType) string {
	return fmt.Sprintf("%s %s AUTO_INCREMENT PRIMARY KEY", f.Quote(column), f.ColumnTypeSQL(ct))
}

func (mysqlFormatter) LastInsertIDQuery(string, string) string {
	return "SELECT LAST_INSERT_ID()"
}

func (f mysqlFormatter) DropTable(table string, ifExists, _ bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + f.Quote(table)
	}
	return "DROP TABLE " + f.Quote(table)
}

func (mysqlFormatter) SupportsNativeCascade() bool { return false }

func sizedOrMax(size int, withSize, max string) string {
	if size <= 0 {
		return max
	}
	return fmt.Sprintf(withSize, size)
}
