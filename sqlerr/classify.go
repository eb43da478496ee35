package sqlerr

import "strings"

// Dialect names used for classification dispatch; mirrors dialect.Name
// but kept string-based so sqlerr does not import dialect.
const (
	MySQL      = "mysql"
	Postgres   = "postgres"
	SQLite     = "sqlite"
	SQLServer  = "sqlserver"
)

// Diagnostic is the raw triple extracted from a driver error, before
// classification.
type Diagnostic struct {
	SQLState string
	Native   int
	Message  string
}

// Classify maps a raw diagnostic to a taxonomy Kind for the given
// backend, per the table in spec.md §7.
func Classify(backend string, d Diagnostic) Kind {
	switch backend {
	case MySQL:
		return classifyMySQL(d)
	case Postgres:
		return classifyPostgres(d)
	case SQLite:
		return classifySQLite(d)
	case SQLServer:
		return classifyMSSQL(d)
	default:
		return KindUnknown
	}
}

// IsTransient reports whether the spec's backup engine should retry
// after this error (SQLSTATE class 08/40, HYT00/HYT01, or a
// backend-specific lock-busy signature).
func IsTransient(k Kind) bool {
	return k == KindConnection || k == KindTransactionConflict
}

func classifyMySQL(d Diagnostic) Kind {
	switch d.Native {
	case 1205, 1213:
		return KindTransactionConflict
	case 1062:
		return KindUniqueViolation
	case 1451, 1452:
		return KindForeignKeyViolation
	case 1050:
		return KindTableExists
	case 1146:
		return KindTableMissing
	}
	if strings.HasPrefix(d.SQLState, "08") {
		return KindConnection
	}
	return KindUnknown
}

func classifyPostgres(d Diagnostic) Kind {
	switch d.SQLState {
	case "23505":
		return KindUniqueViolation
	case "23503":
		return KindForeignKeyViolation
	case "42P07":
		return KindTableExists
	case "42P01":
		return KindTableMissing
	case "40001", "40P01":
		return KindTransactionConflict
	}
	if strings.HasPrefix(d.SQLState, "08") {
		return KindConnection
	}
	return KindUnknown
}

func classifySQLite(d Diagnostic) Kind {
	msg := strings.ToLower(d.Message)
	switch {
	case strings.Contains(msg, "database is locked"):
		return KindTransactionConflict
	case strings.Contains(msg, "unique constraint failed"):
		return KindUniqueViolation
	case strings.Contains(msg, "foreign key constraint failed"):
		return KindForeignKeyViolation
	case strings.Contains(msg, "already exists"):
		return KindTableExists
	case strings.Contains(msg, "no such table"):
		return KindTableMissing
	}
	return KindUnknown
}

func classifyMSSQL(d Diagnostic) Kind {
	switch d.Native {
	case 1205, 1222:
		return KindTransactionConflict
	case 2627, 2601:
		return KindUniqueViolation
	case 547:
		return KindForeignKeyViolation
	}
	switch d.SQLState {
	case "HYT00", "HYT01":
		return KindConnection
	case "42S01":
		return KindTableExists
	case "42S02":
		return KindTableMissing
	}
	if strings.HasPrefix(d.SQLState, "08") {
		return KindConnection
	}
	return KindUnknown
}
