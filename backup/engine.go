// Package backup extracts tables into a chunked, checksummed ZIP
// container with transient-error-aware resume - spec.md §4.5, §5's
// "thread-safe work queue of tables and a worker-per-connection pool;
// each worker holds one dedicated connection for its lifetime". The
// worker pool shape is ported from internal/queue/manager.go +
// internal/queue/worker.go (a bounded worker count pulling off a
// shared channel-backed queue), repurposed from "job queue" to "table
// extraction queue", with each worker's dedicated connection checked
// out from a pool.Pool lease instead of the teacher's internal
// channel-dispatch worker.
package backup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lastrada/lightweight-go/pool"
	"github.com/lastrada/lightweight-go/sqlerr"
)

// Config tunes an Engine run.
type Config struct {
	Workers        int
	ChunkByteBudget int
	Backoff        BackoffPolicy
}

// DefaultConfig matches spec.md §6's suggested defaults: 4 workers, the
// package's default chunk budget, and the default backoff policy.
func DefaultConfig() Config {
	return Config{Workers: 4, ChunkByteBudget: DefaultChunkByteBudget, Backoff: DefaultBackoffPolicy()}
}

// Engine runs a backup of a set of tables into a Container.
type Engine struct {
	pool      *pool.Pool
	backend   string
	container *Container
	cfg       Config
}

// NewEngine returns an Engine that checks out one dedicated connection
// per worker from p, classifying driver errors for backend.
func NewEngine(p *pool.Pool, backend string, container *Container, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Engine{pool: p, backend: backend, container: container, cfg: cfg}
}

// TableResult reports one table's backup outcome.
type TableResult struct {
	Table string
	Rows  int
	Err   error
}

// Run backs up every table in specs, distributing them across
// cfg.Workers goroutines with no defined ordering across tables - per
// spec.md §5's "Backup workers have no defined ordering across
// tables". Within one table, chunk ids are assigned sequentially by
// that table's single worker.
func (e *Engine) Run(ctx context.Context, specs []TableSpec) []TableResult {
	jobs := make(chan TableSpec)
	results := make(chan TableResult, len(specs))

	var wg sync.WaitGroup
	workers := e.cfg.Workers
	if workers > len(specs) {
		workers = len(specs)
	}
	if workers == 0 {
		return nil
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range jobs {
				rows, err := e.backupTable(ctx, spec)
				results <- TableResult{Table: spec.Name, Rows: rows, Err: err}
			}
		}()
	}

	go func() {
		for _, spec := range specs {
			jobs <- spec
		}
		close(jobs)
	}()

	wg.Wait()
	close(results)

	out := make([]TableResult, 0, len(specs))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// backupTable extracts one table, resuming from the last successfully
// emitted row count after a transient error, per spec.md §4.5 steps 1-5.
func (e *Engine) backupTable(ctx context.Context, spec TableSpec) (int, error) {
	lease, err := e.pool.Checkout(ctx)
	if err != nil {
		return 0, fmt.Errorf("backup: checking out connection for %s: %w", spec.Name, err)
	}
	defer lease.Release()

	w := newChunkWriter(spec.Name, e.cfg.ChunkByteBudget)
	offset := 0
	attempt := 0

	for {
		start := offset
		emitted, err := e.selectAndEmit(ctx, lease.Conn(), spec, offset, w)
		offset += emitted

		if err == nil {
			// A resumed SELECT is capped at largeRemainingBatch rows; a
			// full window means more rows may follow at the new offset.
			if start > 0 && emitted == largeRemainingBatch {
				continue
			}
			if flushErr := e.container.flush(w); flushErr != nil {
				return offset, flushErr
			}
			return offset, nil
		}

		if !isTransient(e.backend, err) || attempt >= e.cfg.Backoff.MaxRetries {
			return offset, fmt.Errorf("backup: extracting %s at offset %d: %w", spec.Name, offset, err)
		}

		if flushErr := e.container.flush(w); flushErr != nil {
			return offset, flushErr
		}

		delay := e.cfg.Backoff.Delay(attempt)
		attempt++
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return offset, ctx.Err()
		}
		// Reconnection after a dropped connection is handled by
		// checking a fresh lease back in, since *sql.Conn.Close is
		// idempotent and the pool hands out a new underlying
		// connection on the next Checkout.
		lease.Release()
		lease, err = e.pool.Checkout(ctx)
		if err != nil {
			return offset, fmt.Errorf("backup: reconnecting for %s: %w", spec.Name, err)
		}
	}
}

// isTransient reports whether err (surfaced from database/sql, carrying
// whatever SQLSTATE/native-code detail the driver attaches) should be
// retried per spec.md §4.5 step 5. Drivers that don't expose structured
// diagnostics fall back to matching the known transient message
// substrings directly, mirroring sqlerr's classifySQLite approach.
func isTransient(backend string, err error) bool {
	if e, ok := err.(*sqlerr.Error); ok {
		return sqlerr.IsTransient(sqlerr.Classify(backend, sqlerr.Diagnostic{SQLState: e.SQLState, Native: e.Native, Message: e.Message}))
	}
	msg := strings.ToLower(err.Error())
	for _, substr := range []string{"database is locked", "connection reset", "broken pipe", "deadlock"} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
