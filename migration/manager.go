package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
	"github.com/lastrada/lightweight-go/sqlerr"
)

func varchar64() dialect.ColumnType  { return dialect.Sized(dialect.Varchar, 64) }
func varchar255() dialect.ColumnType { return dialect.Sized(dialect.Varchar, 255) }
func integer() dialect.ColumnType    { return dialect.Plain(dialect.Integer) }
func timestamp() dialect.ColumnType  { return dialect.Plain(dialect.Timestamp) }

// Migration is one ordered schema change. Timestamp must be unique
// across a Manager's registry and sorts the apply/revert order, the Go
// analogue of migrations.go's BaseMigration.GetTimestamp ordering key.
type Migration interface {
	Name() string
	Timestamp() string
	Up(ctx context.Context, c *conn.Connection) ([]string, error)
	Down(ctx context.Context, c *conn.Connection) ([]string, error)
}

// Record is one row of the schema_migrations ledger table.
type Record struct {
	Timestamp string
	Name      string
	Checksum  string
	Batch     int
	AppliedAt time.Time
}

// Manager owns the migration registry and the schema_migrations ledger.
// Ported from migrations.go's registry + apply/revert loop (Onyx),
// checksum/ordering additionally grounded on Pieczasz-smf's
// migration-diff checksum approach and sqldef-sqldef's ordered-apply
// loop.
type Manager struct {
	c          *conn.Connection
	table      string
	migrations []Migration
}

// NewManager returns a Manager backed by c, using the default
// "schema_migrations" ledger table name.
func NewManager(c *conn.Connection) *Manager {
	return &Manager{c: c, table: "schema_migrations"}
}

// Register adds m to the registry. Register panics if m's timestamp
// collides with an already-registered migration's, per spec.md §4.7's
// timestamp-uniqueness invariant - a programmer error caught at
// registration time rather than at apply time.
func (mgr *Manager) Register(m Migration) {
	for _, existing := range mgr.migrations {
		if existing.Timestamp() == m.Timestamp() {
			panic(fmt.Sprintf("migration: duplicate timestamp %q (registering %q, already have %q)",
				m.Timestamp(), m.Name(), existing.Name()))
		}
	}
	mgr.migrations = append(mgr.migrations, m)
	sort.Slice(mgr.migrations, func(i, j int) bool {
		return mgr.migrations[i].Timestamp() < mgr.migrations[j].Timestamp()
	})
}

// EnsureLedger creates the schema_migrations table if it doesn't
// already exist. Per spec.md §7, creating the migration history table
// must swallow a table-exists failure and rethrow anything else -
// CREATE TABLE IF NOT EXISTS isn't expressible identically across all
// four backends' DDL, so this classifies the error instead.
func (mgr *Manager) EnsureLedger(ctx context.Context) error {
	f := mgr.c.Formatter()
	stmt := fmt.Sprintf(`CREATE TABLE %s (
  %s %s NOT NULL,
  %s %s NOT NULL,
  %s %s NOT NULL,
  %s %s NOT NULL,
  %s %s NOT NULL,
  PRIMARY KEY (%s)
)`,
		f.Quote(mgr.table),
		f.Quote("timestamp"), f.ColumnTypeSQL(varchar64()),
		f.Quote("name"), f.ColumnTypeSQL(varchar255()),
		f.Quote("checksum"), f.ColumnTypeSQL(varchar64()),
		f.Quote("batch"), f.ColumnTypeSQL(integer()),
		f.Quote("applied_at"), f.ColumnTypeSQL(timestamp()),
		f.Quote("timestamp"),
	)
	if _, err := mgr.c.ExecContext(ctx, stmt); err != nil {
		if isTableExists(string(mgr.c.Backend()), err) {
			return nil
		}
		return fmt.Errorf("migration: ensuring ledger table: %w", err)
	}
	return nil
}

// isTableExists classifies err as a table-already-exists failure for
// backend, the same sqlerr.Classify path backup/engine.go uses for
// transient-error detection. Drivers that don't surface a *sqlerr.Error
// (most database/sql drivers return their own native error type) fall
// back to a message substring check, mirroring sqlerr's own
// classifySQLite approach.
func isTableExists(backend string, err error) bool {
	if e, ok := err.(*sqlerr.Error); ok {
		return sqlerr.Classify(backend, sqlerr.Diagnostic{SQLState: e.SQLState, Native: e.Native, Message: e.Message}) == sqlerr.KindTableExists
	}
	msg := strings.ToLower(err.Error())
	for _, substr := range []string{"already exists", "duplicate table"} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// checksum is the SHA-256 hex digest of plan's statements newline-
// joined, per spec.md §4.7.
func checksum(plan []string) string {
	sum := sha256.Sum256([]byte(strings.Join(plan, "\n")))
	return hex.EncodeToString(sum[:])
}

func (mgr *Manager) applied(ctx context.Context) (map[string]Record, error) {
	rows, err := mgr.c.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s FROM %s",
		mgr.c.Formatter().Quote("timestamp"), mgr.c.Formatter().Quote("name"),
		mgr.c.Formatter().Quote("checksum"), mgr.c.Formatter().Quote("batch"),
		mgr.c.Formatter().Quote("applied_at"), mgr.c.Formatter().Quote(mgr.table)))
	if err != nil {
		return nil, fmt.Errorf("migration: reading ledger: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Timestamp, &r.Name, &r.Checksum, &r.Batch, &r.AppliedAt); err != nil {
			return nil, err
		}
		out[r.Timestamp] = r
	}
	return out, rows.Err()
}

func (mgr *Manager) nextBatch(applied map[string]Record) int {
	max := 0
	for _, r := range applied {
		if r.Batch > max {
			max = r.Batch
		}
	}
	return max + 1
}

// PreviewApply returns the pending migrations (registered but not yet
// in the ledger) without executing anything.
func (mgr *Manager) PreviewApply(ctx context.Context) ([]Migration, error) {
	applied, err := mgr.applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, m := range mgr.migrations {
		if _, ok := applied[m.Timestamp()]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// PreviewRevert returns the migrations that the most recent batch would
// revert, in reverse-apply order, without executing anything.
func (mgr *Manager) PreviewRevert(ctx context.Context) ([]Migration, error) {
	applied, err := mgr.applied(ctx)
	if err != nil {
		return nil, err
	}
	if len(applied) == 0 {
		return nil, nil
	}
	lastBatch := 0
	for _, r := range applied {
		if r.Batch > lastBatch {
			lastBatch = r.Batch
		}
	}
	var reverting []Migration
	for i := len(mgr.migrations) - 1; i >= 0; i-- {
		m := mgr.migrations[i]
		if r, ok := applied[m.Timestamp()]; ok && r.Batch == lastBatch {
			reverting = append(reverting, m)
		}
	}
	return reverting, nil
}

// StepError reports an Up/Down plan statement that failed, with enough
// context (migration name/timestamp, 0-based step index, offending
// statement) to locate the failure, per spec.md §4.7.
type StepError struct {
	Name      string
	Timestamp string
	Step      int
	Statement string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration %q (%s) step %d failed: %s: %v", e.Name, e.Timestamp, e.Step, e.Statement, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ApplyPendingMigrations runs every registered migration not yet in the
// ledger, in timestamp order, each inside its own transaction (plan
// statements then the ledger insert, committed together), recording each
// in one new batch.
func (mgr *Manager) ApplyPendingMigrations(ctx context.Context) error {
	applied, err := mgr.applied(ctx)
	if err != nil {
		return err
	}
	batch := mgr.nextBatch(applied)

	for _, m := range mgr.migrations {
		if _, ok := applied[m.Timestamp()]; ok {
			continue
		}
		plan, err := m.Up(ctx, mgr.c)
		if err != nil {
			return fmt.Errorf("migration: building up-plan for %q: %w", m.Name(), err)
		}

		tx, err := mgr.c.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration: opening transaction for %q: %w", m.Name(), err)
		}
		if err := mgr.applyPlanInTx(ctx, tx, m, plan, batch); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration: committing %q: %w", m.Name(), err)
		}
	}
	return nil
}

func (mgr *Manager) applyPlanInTx(ctx context.Context, tx *sql.Tx, m Migration, plan []string, batch int) error {
	for i, stmt := range plan {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &StepError{Name: m.Name(), Timestamp: m.Timestamp(), Step: i, Statement: stmt, Err: err}
		}
	}

	f := mgr.c.Formatter()
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (%s, %s, %s, %s, %s)",
		f.Quote(mgr.table),
		f.Quote("timestamp"), f.Quote("name"), f.Quote("checksum"), f.Quote("batch"), f.Quote("applied_at"),
		f.Placeholder(1), f.Placeholder(2), f.Placeholder(3), f.Placeholder(4), f.Placeholder(5))
	if _, err := tx.ExecContext(ctx, insert, m.Timestamp(), m.Name(), checksum(plan), batch, time.Now()); err != nil {
		return fmt.Errorf("migration: recording %q in ledger: %w", m.Name(), err)
	}
	return nil
}

// RevertSingleMigration reverts the single most recently applied
// migration (by timestamp) and removes its ledger row, running the
// down-plan and the ledger delete inside one transaction the same way
// ApplyPendingMigrations commits an up-plan and its ledger insert
// together - a failure partway through the down-plan must not leave
// the ledger claiming a migration that no longer fully applies.
func (mgr *Manager) RevertSingleMigration(ctx context.Context) error {
	applied, err := mgr.applied(ctx)
	if err != nil {
		return err
	}
	var last Migration
	for i := len(mgr.migrations) - 1; i >= 0; i-- {
		if _, ok := applied[mgr.migrations[i].Timestamp()]; ok {
			last = mgr.migrations[i]
			break
		}
	}
	if last == nil {
		return fmt.Errorf("migration: nothing to revert")
	}

	plan, err := last.Down(ctx, mgr.c)
	if err != nil {
		return fmt.Errorf("migration: building down-plan for %q: %w", last.Name(), err)
	}

	tx, err := mgr.c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration: opening transaction for %q: %w", last.Name(), err)
	}
	if err := mgr.revertPlanInTx(ctx, tx, last, plan); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration: committing revert of %q: %w", last.Name(), err)
	}
	return nil
}

func (mgr *Manager) revertPlanInTx(ctx context.Context, tx *sql.Tx, m Migration, plan []string) error {
	for i, stmt := range plan {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &StepError{Name: m.Name(), Timestamp: m.Timestamp(), Step: i, Statement: stmt, Err: err}
		}
	}

	f := mgr.c.Formatter()
	del := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", f.Quote(mgr.table), f.Quote("timestamp"), f.Placeholder(1))
	if _, err := tx.ExecContext(ctx, del, m.Timestamp()); err != nil {
		return fmt.Errorf("migration: removing ledger row for %q: %w", m.Name(), err)
	}
	return nil
}

// VerifyChecksums recomputes each applied migration's up-plan checksum
// and compares it against the ledger, reporting every mismatch - catches
// a migration file edited in place after it was already applied.
func (mgr *Manager) VerifyChecksums(ctx context.Context) ([]string, error) {
	applied, err := mgr.applied(ctx)
	if err != nil {
		return nil, err
	}
	var mismatches []string
	for _, m := range mgr.migrations {
		record, ok := applied[m.Timestamp()]
		if !ok {
			continue
		}
		plan, err := m.Up(ctx, mgr.c)
		if err != nil {
			return nil, fmt.Errorf("migration: rebuilding up-plan for %q: %w", m.Name(), err)
		}
		if got := checksum(plan); got != record.Checksum {
			mismatches = append(mismatches, fmt.Sprintf("%s: ledger checksum %s, current checksum %s", m.Name(), record.Checksum, got))
		}
	}
	return mismatches, nil
}
