package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/dialect"
)

func formatter(t *testing.T, name dialect.Name) dialect.Formatter {
	t.Helper()
	f, err := dialect.Get(name)
	require.NoError(t, err)
	return f
}

func TestSelectBuilderAppliesSoftDeleteFilterByDefault(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Select(f, "users").
		Where(Where("name", "=", "ada")).
		Build()
	assert.Equal(t, `SELECT * FROM users WHERE ("users"."name" = $1 AND "users"."deleted_at" IS NULL)`, sql)
	assert.Equal(t, []any{"ada"}, args)
}

func TestSelectBuilderWithTrashedOmitsFilter(t *testing.T) {
	f := formatter(t, dialect.MySQL)
	sql, _ := Select(f, "users").WithTrashed().Build()
	assert.Equal(t, "SELECT * FROM users", sql)
}

func TestSelectBuilderPaginationPerDialect(t *testing.T) {
	pg := formatter(t, dialect.Postgres)
	sql, _ := Select(pg, "users").WithTrashed().Limit(10).Offset(20).Build()
	assert.Contains(t, sql, "LIMIT 10 OFFSET 20")

	ms := formatter(t, dialect.SQLServer)
	sql, _ = Select(ms, "users").WithTrashed().Limit(5).Build()
	assert.Contains(t, sql, "SELECT TOP 5")
}

func TestSelectBuilderWhereInAndBetween(t *testing.T) {
	f := formatter(t, dialect.MySQL)
	sql, args := Select(f, "orders").
		WithTrashed().
		Where(WhereIn("status", []any{"new", "paid"})).
		Where(WhereBetween("total", 10, 100)).
		Build()
	assert.Equal(t, "SELECT * FROM orders WHERE (`orders`.`status` IN (?, ?) AND `orders`.`total` BETWEEN ? AND ?)", sql)
	assert.Equal(t, []any{"new", "paid", 10, 100}, args)
}

// TestSelectBuilderWhereGroupAndQualifiedColumns mirrors the builder's
// canonical scenario: age > 18 AND role IN (admin, staff), with bare
// columns auto-qualified by the select's own table and the combined
// WHERE wrapped in one set of parentheses.
func TestSelectBuilderWhereGroupAndQualifiedColumns(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Select(f, "users", "id").
		WithTrashed().
		Where(Where("age", ">", 18)).
		Where(WhereIn("role", []any{"admin", "staff"})).
		Limit(5).
		Build()
	assert.Equal(t, `SELECT id FROM users WHERE ("users"."age" > $1 AND "users"."role" IN ($2, $3)) LIMIT 5`, sql)
	assert.Equal(t, []any{18, "admin", "staff"}, args)
}

func TestWhereInEmptySetRendersAlwaysFalse(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Select(f, "users").
		WithTrashed().
		Where(WhereIn("role", nil)).
		Build()
	assert.Equal(t, "SELECT * FROM users WHERE 1 = 0", sql)
	assert.Nil(t, args)
}

func TestWhereNotInEmptySetRendersAlwaysTrue(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, _ := Select(f, "users").
		WithTrashed().
		Where(WhereNotIn("role", nil)).
		Build()
	assert.Equal(t, "SELECT * FROM users WHERE 1 = 1", sql)
}

func TestGroupCollapsesWhenEmpty(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, _ := Select(f, "users").
		WithTrashed().
		Where(Where("age", ">", 18)).
		Where(Group()).
		Build()
	assert.Equal(t, `SELECT * FROM users WHERE "users"."age" > $1`, sql)
}

func TestNestedGroupParenthesizesAndQualifies(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Select(f, "users").
		WithTrashed().
		Where(Where("active", "=", true)).
		Where(OrGroup(Where("role", "=", "admin"), OrWhere("role", "=", "staff"))).
		Build()
	assert.Equal(t, `SELECT * FROM users WHERE ("users"."active" = $1 OR ("users"."role" = $2 OR "users"."role" = $3))`, sql)
	assert.Equal(t, []any{true, "admin", "staff"}, args)
}

func TestWhereColumnComparesTwoColumnsWithoutBinding(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Select(f, "orders").
		WithTrashed().
		Where(WhereColumn("updated_at", ">", "created_at")).
		Build()
	assert.Equal(t, `SELECT * FROM orders WHERE "orders"."updated_at" > "orders"."created_at"`, sql)
	assert.Nil(t, args)
}

func TestWhereTrueAndWhereFalseUseDialectBoolLiteral(t *testing.T) {
	pg := formatter(t, dialect.Postgres)
	sql, _ := Select(pg, "users").WithTrashed().Where(WhereTrue("active")).Build()
	assert.Equal(t, `SELECT * FROM users WHERE "users"."active" = TRUE`, sql)

	lite := formatter(t, dialect.SQLite)
	sql, _ = Select(lite, "users").WithTrashed().Where(WhereFalse("active")).Build()
	assert.Equal(t, `SELECT * FROM users WHERE "users"."active" = 0`, sql)
}

func TestWhereSubSelectRendersNestedBuilder(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sub := Select(f, "admins", "user_id").WithTrashed()
	sql, args := Select(f, "users").
		WithTrashed().
		Where(WhereInSubSelect("id", sub)).
		Build()
	assert.Equal(t, `SELECT * FROM users WHERE "users"."id" IN (SELECT user_id FROM admins)`, sql)
	assert.Nil(t, args)
}

func TestNotNegatesGroup(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Select(f, "users").
		WithTrashed().
		Where(Not(Group(Where("role", "=", "banned")))).
		Build()
	assert.Equal(t, `SELECT * FROM users WHERE NOT ("users"."role" = $1)`, sql)
	assert.Equal(t, []any{"banned"}, args)
}

func TestInsertBuilderDeterministicColumnOrder(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Insert(f, "users", map[string]any{"name": "ada", "age": 36}).Build()
	assert.Equal(t, "INSERT INTO users (age, name) VALUES ($1, $2)", sql)
	assert.Equal(t, []any{36, "ada"}, args)
}

func TestInsertBuilderReturningOnlyOnPostgres(t *testing.T) {
	pg := formatter(t, dialect.Postgres)
	sql, _ := Insert(pg, "users", map[string]any{"name": "ada"}).Returning("id").Build()
	assert.Contains(t, sql, "RETURNING id")

	my := formatter(t, dialect.MySQL)
	sql, _ = Insert(my, "users", map[string]any{"name": "ada"}).Returning("id").Build()
	assert.NotContains(t, sql, "RETURNING")
}

func TestUpdateBuilderOrdersSetThenWhere(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	sql, args := Update(f, "users", map[string]any{"name": "grace"}).
		Where(Where("id", "=", 7)).
		Build()
	assert.Equal(t, "UPDATE users SET name = $1 WHERE id = $2", sql)
	assert.Equal(t, []any{"grace", 7}, args)
}

func TestDeleteBuilder(t *testing.T) {
	f := formatter(t, dialect.SQLite)
	sql, args := Delete(f, "users").Where(Where("id", "=", 1)).Build()
	assert.Equal(t, "DELETE FROM users WHERE id = ?", sql)
	assert.Equal(t, []any{1}, args)
}

func TestCreateTableRendersPrimaryKeyAndForeignKey(t *testing.T) {
	f := formatter(t, dialect.Postgres)
	statements := CreateTable(f, "orders").
		Column(ColumnDef{Name: "id", Type: dialect.Plain(dialect.Bigint), AutoIncrement: true, Primary: true}).
		Column(ColumnDef{Name: "user_id", Type: dialect.Plain(dialect.Bigint)}).
		ForeignKey(ForeignKeyDef{Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id", OnDelete: "CASCADE"}).
		Build()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "FOREIGN KEY")
	assert.Contains(t, statements[0], "REFERENCES")
}

func TestDropTableHonorsCascadePerDialect(t *testing.T) {
	pg := formatter(t, dialect.Postgres)
	stmts := DropTable(pg, "orders", true)
	assert.Contains(t, stmts[0], "CASCADE")

	lite := formatter(t, dialect.SQLite)
	stmts = DropTable(lite, "orders", true)
	assert.NotContains(t, stmts[0], "CASCADE")
}
