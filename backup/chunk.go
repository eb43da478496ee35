package backup

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultChunkByteBudget bounds a chunk writer's buffered size before it
// flushes, per spec.md §4.5 step 4 and §6's "Backup chunk size (bytes)"
// configuration input.
const DefaultChunkByteBudget = 4 << 20 // 4 MiB

var sanitizeTableName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// chunkWriter accumulates rows for one table until ByteBudget is
// exceeded, at which point the caller calls flush to serialize, hash,
// and append the chunk to the shared ZIP container.
type chunkWriter struct {
	table       string
	byteBudget  int
	rows        [][]Value
	approxBytes int
	nextChunkID int
}

func newChunkWriter(table string, byteBudget int) *chunkWriter {
	if byteBudget <= 0 {
		byteBudget = DefaultChunkByteBudget
	}
	return &chunkWriter{table: table, byteBudget: byteBudget}
}

func (w *chunkWriter) add(row []Value) {
	w.rows = append(w.rows, row)
	w.approxBytes += estimateRowBytes(row)
}

func (w *chunkWriter) full() bool {
	return w.approxBytes >= w.byteBudget
}

func estimateRowBytes(row []Value) int {
	n := 0
	for _, v := range row {
		n += len(v.Str) + len(v.Bytes) + 16
	}
	return n
}

// Container wraps a *zip.Writer and the per-entry checksum sidecar map,
// each guarded by its own mutex - spec.md §5's "ZIP handle and a
// separate mutex protecting the checksum side map", serving
// multiple backup workers writing concurrently.
type Container struct {
	zipMu      sync.Mutex
	zw         *zip.Writer
	checksumMu sync.Mutex
	checksums  map[string]string // entry path -> SHA-256 hex
}

// NewContainer wraps w (typically an *os.File) as a ZIP backup
// container.
func NewContainer(w io.Writer) *Container {
	return &Container{zw: zip.NewWriter(w), checksums: make(map[string]string)}
}

// flush serializes w's buffered rows as one MessagePack chunk, hashes
// it, writes it into the container under
// data/<sanitized-table>/NNNN.msgpack, records the checksum, and resets
// w for the next chunk.
func (c *Container) flush(w *chunkWriter) error {
	if len(w.rows) == 0 {
		return nil
	}
	payload, err := msgpack.Marshal(w.rows)
	if err != nil {
		return fmt.Errorf("backup: encoding chunk for %s: %w", w.table, err)
	}

	sum := sha256.Sum256(payload)
	entryPath := fmt.Sprintf("data/%s/%04d.msgpack", sanitizeTableName.ReplaceAllString(w.table, "_"), w.nextChunkID)

	c.zipMu.Lock()
	entry, err := c.zw.Create(entryPath)
	if err == nil {
		_, err = entry.Write(payload)
	}
	c.zipMu.Unlock()
	if err != nil {
		return fmt.Errorf("backup: writing chunk entry %s: %w", entryPath, err)
	}

	c.checksumMu.Lock()
	c.checksums[entryPath] = hex.EncodeToString(sum[:])
	c.checksumMu.Unlock()

	w.rows = nil
	w.approxBytes = 0
	w.nextChunkID++
	return nil
}

// Checksums returns a copy of the entry-path -> SHA-256 sidecar map.
func (c *Container) Checksums() map[string]string {
	c.checksumMu.Lock()
	defer c.checksumMu.Unlock()
	out := make(map[string]string, len(c.checksums))
	for k, v := range c.checksums {
		out[k] = v
	}
	return out
}

// Close finalizes the checksum sidecar as its own ZIP entry and closes
// the underlying zip.Writer.
func (c *Container) Close() error {
	sidecar, err := msgpack.Marshal(c.Checksums())
	if err != nil {
		return err
	}
	c.zipMu.Lock()
	entry, err := c.zw.Create("checksums.msgpack")
	if err == nil {
		_, err = entry.Write(sidecar)
	}
	if err == nil {
		err = c.zw.Close()
	}
	c.zipMu.Unlock()
	return err
}
