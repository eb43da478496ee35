package restore

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lastrada/lightweight-go/backup"
)

// writeRawChunk appends one chunk entry directly to a *zip.Writer,
// matching backup.Container's data/<table>/NNNN.msgpack layout, without
// depending on backup's unexported chunkWriter/flush internals.
func writeRawChunk(zw *zip.Writer, table string, chunkID int, rows [][]backup.Value) error {
	payload, err := msgpack.Marshal(rows)
	if err != nil {
		return err
	}
	w, err := zw.Create(fmt.Sprintf("data/%s/%04d.msgpack", table, chunkID))
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func TestOpenContainerIndexesChunksInOrder(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, writeRawChunk(zw, "widgets", 0, [][]backup.Value{{{Int: 1}, {Str: "gizmo"}}}))
	require.NoError(t, writeRawChunk(zw, "widgets", 1, [][]backup.Value{{{Int: 2}, {Str: "gadget"}}}))
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	r, err := OpenContainer(zr)
	require.NoError(t, err)
	assert.Equal(t, []string{"widgets"}, r.Tables())
	assert.Equal(t, 2, r.ChunkCount("widgets"))
}

func TestRestoreTableReplaysAllChunksAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, writeRawChunk(zw, "widgets", 0, [][]backup.Value{{{Int: 1}, {Str: "gizmo"}}}))
	require.NoError(t, writeRawChunk(zw, "widgets", 1, [][]backup.Value{{{Int: 2}, {Str: "gadget"}}}))
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	r, err := OpenContainer(zr)
	require.NoError(t, err)

	c, mock := newMockConn(t)
	mgr := NewBatchManager(c, widgetsRestoreSpec(), DefaultCapacityConfig(), 0)

	mock.ExpectExec("INSERT INTO \"widgets\"").
		WithArgs(int64(1), "gizmo", int64(2), "gadget").
		WillReturnResult(sqlmock.NewResult(0, 2))

	next, err := r.RestoreTable(context.Background(), "widgets", mgr, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreTableResumesFromGivenChunk(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, writeRawChunk(zw, "widgets", 0, [][]backup.Value{{{Int: 1}, {Str: "gizmo"}}}))
	require.NoError(t, writeRawChunk(zw, "widgets", 1, [][]backup.Value{{{Int: 2}, {Str: "gadget"}}}))
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	r, err := OpenContainer(zr)
	require.NoError(t, err)

	c, mock := newMockConn(t)
	mgr := NewBatchManager(c, widgetsRestoreSpec(), DefaultCapacityConfig(), 0)

	// Resuming from chunk 1 (chunk 0 already committed in a prior run)
	// replays only the second chunk's row, never chunk 0's.
	mock.ExpectExec("INSERT INTO \"widgets\"").
		WithArgs(int64(2), "gadget").
		WillReturnResult(sqlmock.NewResult(0, 1))

	next, err := r.RestoreTable(context.Background(), "widgets", mgr, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}
