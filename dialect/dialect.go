// Package dialect supplies the per-backend formatting and registration
// rules the rest of the module delegates to: pagination, quoting,
// boolean literals, identity/last-insert-id queries, DROP CASCADE
// expansion, and the column-type-definition rendering the schema
// synthesizer consumes. One file per backend, grounded on
// internal/database/migrations/sql_generators.go's per-dialect split
// (teacher) and generalized to a fourth backend (SQL Server) the way
// sqldef-sqldef splits cmd/<backend>def packages.
package dialect

import "fmt"

// Name identifies a supported backend.
type Name string

const (
	MySQL     Name = "mysql"
	Postgres  Name = "postgres"
	SQLite    Name = "sqlite"
	SQLServer Name = "sqlserver"
)

// ColumnKind is the tagged sum over SQL column type declarations from
// spec.md §3. Size of 0 means dialect-specific MAX.
type ColumnKind int

const (
	Bigint ColumnKind = iota
	Binary
	Bool
	Char
	Date
	DateTime
	Decimal
	Guid
	Integer
	NChar
	NVarchar
	Real
	Smallint
	Text
	Time
	Timestamp
	Tinyint
	VarBinary
	Varchar
)

// ColumnType is a declared column type definition: a kind plus the
// size/precision/scale parameters that apply to it.
type ColumnType struct {
	Kind      ColumnKind
	Size      int
	Precision uint8
	Scale     uint8
}

func Sized(kind ColumnKind, size int) ColumnType   { return ColumnType{Kind: kind, Size: size} }
func Plain(kind ColumnKind) ColumnType             { return ColumnType{Kind: kind} }
func DecimalType(precision, scale uint8) ColumnType {
	return ColumnType{Kind: Decimal, Precision: precision, Scale: scale}
}

// Formatter is the dialect-sensitive rendering surface the query
// builder and migration builder delegate to.
type Formatter interface {
	Name() Name

	// Quote renders a quoted identifier, e.g. "col" or [col].
	Quote(identifier string) string

	// QualifiedColumn renders "table"."column".
	QualifiedColumn(table, column string) string

	// BoolLiteral renders a boolean literal in this dialect's syntax.
	BoolLiteral(v bool) string

	// StringLiteral single-quotes a string value, doubling embedded
	// single quotes.
	StringLiteral(s string) string

	// Placeholder renders the N-th (1-based) bind placeholder.
	Placeholder(position int) string

	// SelectFirst renders the dialect's "first N rows" clause suffix
	// (or prefix, for backends that require TOP before the column
	// list - the caller composes accordingly via SelectFirstPrefix).
	SelectFirst(n int) string
	SelectFirstPrefix(n int) string

	// SelectRange renders OFFSET/LIMIT (or OFFSET ... FETCH NEXT) for
	// pagination.
	SelectRange(offset, limit int) string

	// ColumnTypeSQL renders a ColumnType as the dialect's DDL type name.
	ColumnTypeSQL(ct ColumnType) string

	// AutoIncrementPrimaryKey renders a PK column declaration with a
	// server-side identity/auto-increment clause for the given base
	// type (Bigint or Integer, typically).
	AutoIncrementPrimaryKey(column string, ct ColumnType) string

	// LastInsertIDQuery returns the SQL used to retrieve the identity
	// value just inserted, given the table/column if the dialect needs
	// them (MySQL/SQLite ignore them; Postgres uses RETURNING inline
	// instead and returns an empty string here; SQL Server uses
	// SCOPE_IDENTITY()).
	LastInsertIDQuery(table, column string) string

	// DropTable renders one or more DROP TABLE statements honoring
	// cascade semantics: SQL Server expands cascade into explicit FK
	// drops (returned by the caller, not here - this returns the bare
	// DROP), PostgreSQL appends CASCADE, SQLite treats it as a no-op.
	DropTable(table string, ifExists, cascade bool) string

	// SupportsNativeCascade reports whether DropTable's cascade flag
	// is honored by appending CASCADE to the statement itself (true
	// for Postgres) versus requiring the caller to pre-drop foreign
	// keys (SQL Server) or ignore it (SQLite, MySQL with FK checks off).
	SupportsNativeCascade() bool
}

// Get returns the Formatter for a backend name.
func Get(name Name) (Formatter, error) {
	switch name {
	case MySQL:
		return mysqlFormatter{}, nil
	case Postgres:
		return postgresFormatter{}, nil
	case SQLite:
		return sqliteFormatter{}, nil
	case SQLServer:
		return mssqlFormatter{}, nil
	default:
		return nil, fmt.Errorf("dialect: unknown backend %q", name)
	}
}

// DetectFromDriver maps a database/sql driver name to a backend Name,
// the Go equivalent of spec.md's "detects backend type from driver
// string".
func DetectFromDriver(driverName string) (Name, error) {
	switch driverName {
	case "mysql":
		return MySQL, nil
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("dialect: unrecognized driver %q", driverName)
	}
}
