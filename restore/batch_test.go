package restore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/backup"
	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
)

func widgetsRestoreSpec() backup.TableSpec {
	return backup.TableSpec{
		Name: "widgets",
		Columns: []backup.ColumnSpec{
			{Name: "id", Kind: dialect.Bigint},
			{Name: "name", Kind: dialect.Varchar},
		},
	}
}

func newMockConn(t *testing.T) (*conn.Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(false))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c, err := conn.Wrap(db, dialect.Postgres)
	require.NoError(t, err)
	return c, mock
}

func TestBatchManagerFlushesAtCapacity(t *testing.T) {
	c, mock := newMockConn(t)
	mgr := NewBatchManager(c, widgetsRestoreSpec(), CapacityConfig{MemoryBudgetBytes: 32 << 20, ParameterLimit: 4}, 0)
	assert.Equal(t, 2, mgr.Capacity())

	mock.ExpectExec("INSERT INTO \"widgets\"").
		WithArgs(int64(1), "gizmo", int64(2), "gadget").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, mgr.Add(context.Background(), []backup.Value{{Int: 1}, {Str: "gizmo"}}))
	assert.Equal(t, 1, mgr.Pending())
	require.NoError(t, mgr.Add(context.Background(), []backup.Value{{Int: 2}, {Str: "gadget"}}))
	assert.Equal(t, 0, mgr.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchManagerFlushIsNoOpWhenEmpty(t *testing.T) {
	c, _ := newMockConn(t)
	mgr := NewBatchManager(c, widgetsRestoreSpec(), DefaultCapacityConfig(), 0)
	require.NoError(t, mgr.Flush(context.Background()))
}

func TestBatchManagerAddRejectsWrongColumnCount(t *testing.T) {
	c, _ := newMockConn(t)
	mgr := NewBatchManager(c, widgetsRestoreSpec(), DefaultCapacityConfig(), 0)
	err := mgr.Add(context.Background(), []backup.Value{{Int: 1}})
	assert.Error(t, err)
}

func TestBatchManagerExplicitFlushSendsPartialBatch(t *testing.T) {
	c, mock := newMockConn(t)
	mgr := NewBatchManager(c, widgetsRestoreSpec(), DefaultCapacityConfig(), 0)

	mock.ExpectExec("INSERT INTO \"widgets\"").
		WithArgs(int64(1), "gizmo").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, mgr.Add(context.Background(), []backup.Value{{Int: 1}, {Str: "gizmo"}}))
	require.NoError(t, mgr.Flush(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
