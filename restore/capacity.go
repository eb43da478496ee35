// Package restore replays a backup.Container's chunked columnar rows
// back into a destination table via parameter-array INSERTs, the
// restore side of SqlBackup/BatchManager.cpp (original_source)
// reimagined over database/sql's Exec rather than an ODBC columnar
// bind.
package restore

import "github.com/lastrada/lightweight-go/dialect"

// CapacityConfig bounds how many rows BatchManager buffers before it
// must flush, per spec.md §4.6's capacity derivation.
type CapacityConfig struct {
	// MemoryBudgetBytes caps one batch's estimated buffered size.
	MemoryBudgetBytes int
	// ParameterLimit caps the total bind parameters in one INSERT
	// (rows * columnCount), below whatever hard limit the target
	// driver/backend enforces on a single statement.
	ParameterLimit int
}

// DefaultCapacityConfig matches spec.md §4.6: 32 MiB memory budget,
// 25,000 bind parameters per statement.
func DefaultCapacityConfig() CapacityConfig {
	return CapacityConfig{MemoryBudgetBytes: 32 << 20, ParameterLimit: 25_000}
}

// DeriveCapacity computes the batch row capacity deterministically:
// min(callerProvided, memoryBudget/estimatedBytesPerRow,
// parameterLimit/columnCount), clamped to at least 1. callerProvided
// of 0 or less means "no caller preference" and is excluded from the
// min.
func DeriveCapacity(cfg CapacityConfig, callerProvided, columnCount, estimatedBytesPerRow int) int {
	if columnCount <= 0 {
		columnCount = 1
	}
	if estimatedBytesPerRow <= 0 {
		estimatedBytesPerRow = 1
	}

	capacity := cfg.ParameterLimit / columnCount
	if byMemory := cfg.MemoryBudgetBytes / estimatedBytesPerRow; byMemory < capacity {
		capacity = byMemory
	}
	if callerProvided > 0 && callerProvided < capacity {
		capacity = callerProvided
	}
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// maxCellBytes truncates a single text/binary cell per spec.md §4.6's
// 64 KiB per-row cap ("Long text/binary columns cap at 64 KiB per
// row").
const maxCellBytes = 64 << 10

// usesNativeDateTime reports whether backend accepts a time.Time bind
// directly for Date/DateTime/Timestamp columns, versus requiring the
// ISO-8601 string form (SQLite has no native DATE/TIME driver type,
// matching binder.dateTimeBinder's per-backend split).
func usesNativeDateTime(backend dialect.Name) bool {
	return backend != dialect.SQLite
}
