package backup

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lastrada/lightweight-go/dialect"
)

// selectAndEmit runs the ordered SELECT for spec starting at offset,
// decoding each row into w, flushing w whenever it reaches its byte
// budget. It returns the number of rows emitted before any error (so
// the caller can resume from offset+emitted on a transient failure).
func (e *Engine) selectAndEmit(ctx context.Context, c *sql.Conn, spec TableSpec, offset int, w *chunkWriter) (int, error) {
	formatter, err := dialect.Get(dialect.Name(e.backend))
	if err != nil {
		return 0, err
	}

	query := buildOrderedSelect(formatter, spec, offset)
	rows, err := c.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	emitted := 0
	dest := make([]any, len(spec.Columns))
	ptrs := make([]any, len(spec.Columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return emitted, err
		}
		row := make([]Value, len(spec.Columns))
		for i, col := range spec.Columns {
			v, err := decodeColumn(col.Kind, dest[i])
			if err != nil {
				return emitted, err
			}
			row[i] = v
		}
		w.add(row)
		emitted++

		if w.full() {
			if err := e.container.flush(w); err != nil {
				return emitted, err
			}
		}
	}
	return emitted, rows.Err()
}

// buildOrderedSelect renders the per-backend ordered, offset SELECT
// spec.md §4.5 step 2 and the "MS SQL ordered-offset select" note
// require: an explicit ORDER BY (mandatory for OFFSET), decimal columns
// read as CONVERT(VARCHAR(n), col) on SQL Server to preserve precision
// textually.
func buildOrderedSelect(f dialect.Formatter, spec TableSpec, offset int) string {
	columns := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		columns[i] = selectExpr(f, spec.Name, col)
	}
	orderBy := spec.orderBy()

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(columns, ", "), f.Quote(spec.Name), f.Quote(orderBy))

	if offset > 0 {
		query += " " + f.SelectRange(offset, largeRemainingBatch)
	}
	return query
}

// largeRemainingBatch bounds a single resumed SELECT's row count; the
// caller re-issues with an advanced OFFSET rather than fetching
// unbounded rows in one query, the same "chunked, resumable" posture
// spec.md §4.5 describes for the backup loop as a whole.
const largeRemainingBatch = 100000

func selectExpr(f dialect.Formatter, table string, col ColumnSpec) string {
	quoted := f.Quote(col.Name)
	if col.Kind == dialect.Decimal && f.Name() == dialect.SQLServer {
		size := 38 + 3
		return fmt.Sprintf("CONVERT(VARCHAR(%d), %s) AS %s", size, quoted, quoted)
	}
	return quoted
}
