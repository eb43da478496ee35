package restore

import (
	"context"
	"fmt"
	"strings"

	"github.com/lastrada/lightweight-go/backup"
	"github.com/lastrada/lightweight-go/conn"
)

// BatchManager buffers rows for one destination table, one columnBuffer
// per column, and flushes them as a single multi-row parameterized
// INSERT whenever it reaches capacity - the database/sql equivalent of
// a parameter-array INSERT, since database/sql has no native columnar
// bind API (spec.md §4.6).
type BatchManager struct {
	c        *conn.Connection
	spec     backup.TableSpec
	capacity int
	buffers  []*columnBuffer
	rows     int
}

// NewBatchManager builds a BatchManager for spec against c, deriving
// its row capacity from cfg, callerCapacity (0 for "no preference"),
// and an estimate of spec's per-row byte size.
func NewBatchManager(c *conn.Connection, spec backup.TableSpec, cfg CapacityConfig, callerCapacity int) *BatchManager {
	estimated := estimateRowBytes(spec)
	capacity := DeriveCapacity(cfg, callerCapacity, len(spec.Columns), estimated)

	buffers := make([]*columnBuffer, len(spec.Columns))
	for i, col := range spec.Columns {
		buffers[i] = newColumnBuffer(col)
	}
	return &BatchManager{c: c, spec: spec, capacity: capacity, buffers: buffers}
}

// estimateRowBytes guesses a row's buffered size as 32 bytes per column,
// whatever the column's kind, rather than a live measurement - good
// enough for the capacity derivation's conservative min().
func estimateRowBytes(spec backup.TableSpec) int {
	n := 0
	for range spec.Columns {
		n += 32
	}
	if n == 0 {
		n = 32
	}
	return n
}

// Capacity returns the derived row capacity a batch flushes at.
func (m *BatchManager) Capacity() int { return m.capacity }

// Pending returns the number of rows currently buffered, unflushed.
func (m *BatchManager) Pending() int { return m.rows }

// Add binds row's cells into the column buffers, flushing immediately
// if that fills the batch to capacity.
func (m *BatchManager) Add(ctx context.Context, row []backup.Value) error {
	if len(row) != len(m.buffers) {
		return fmt.Errorf("restore: row has %d cells, table %s has %d columns", len(row), m.spec.Name, len(m.buffers))
	}

	backend := m.c.Backend()
	for i, cell := range row {
		v, err := bindValue(m.buffers[i].spec, backend, cell)
		if err != nil {
			return err
		}
		m.buffers[i].add(v)
	}
	m.rows++

	if m.rows >= m.capacity {
		return m.Flush(ctx)
	}
	return nil
}

// Flush issues one multi-row INSERT for every buffered row and clears
// the buffers. A no-op when nothing is pending.
func (m *BatchManager) Flush(ctx context.Context) error {
	if m.rows == 0 {
		return nil
	}

	f := m.c.Formatter()
	columns := make([]string, len(m.buffers))
	for i, b := range m.buffers {
		columns[i] = f.Quote(b.spec.Name)
	}

	rowPlaceholders := make([]string, m.rows)
	args := make([]any, 0, m.rows*len(m.buffers))
	pos := 1
	for r := 0; r < m.rows; r++ {
		cellPlaceholders := make([]string, len(m.buffers))
		for c, b := range m.buffers {
			cellPlaceholders[c] = f.Placeholder(pos)
			args = append(args, b.values[r])
			pos++
		}
		rowPlaceholders[r] = "(" + strings.Join(cellPlaceholders, ", ") + ")"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		f.Quote(m.spec.Name), strings.Join(columns, ", "), strings.Join(rowPlaceholders, ", "))

	if _, err := m.c.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("restore: batch insert into %s: %w", m.spec.Name, err)
	}

	for _, b := range m.buffers {
		b.reset()
	}
	m.rows = 0
	return nil
}
