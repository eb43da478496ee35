package migration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
)

type createWidgets struct{}

func (createWidgets) Name() string      { return "create_widgets" }
func (createWidgets) Timestamp() string { return "20260101000000" }
func (createWidgets) Up(context.Context, *conn.Connection) ([]string, error) {
	return []string{"CREATE TABLE widgets (id INTEGER)"}, nil
}
func (createWidgets) Down(context.Context, *conn.Connection) ([]string, error) {
	return []string{"DROP TABLE widgets"}, nil
}

func newMockManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c, err := conn.Wrap(db, dialect.MySQL)
	require.NoError(t, err)
	return NewManager(c), mock
}

func TestRegisterPanicsOnDuplicateTimestamp(t *testing.T) {
	mgr, _ := newMockManager(t)
	mgr.Register(createWidgets{})
	assert.Panics(t, func() { mgr.Register(createWidgets{}) })
}

func TestApplyPendingMigrationsRecordsLedgerRow(t *testing.T) {
	mgr, mock := newMockManager(t)
	mgr.Register(createWidgets{})

	mock.ExpectQuery("SELECT .* FROM `schema_migrations`").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "name", "checksum", "batch", "applied_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE widgets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `schema_migrations`").
		WithArgs("20260101000000", "create_widgets", sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, mgr.ApplyPendingMigrations(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreviewApplyListsUnappliedMigrations(t *testing.T) {
	mgr, mock := newMockManager(t)
	mgr.Register(createWidgets{})

	mock.ExpectQuery("SELECT .* FROM `schema_migrations`").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "name", "checksum", "batch", "applied_at"}))

	pending, err := mgr.PreviewApply(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "create_widgets", pending[0].Name())
}

func TestEnsureLedgerSwallowsTableExists(t *testing.T) {
	mgr, mock := newMockManager(t)
	mock.ExpectExec("CREATE TABLE `schema_migrations`").
		WillReturnError(fmt.Errorf("Error 1050: Table 'schema_migrations' already exists"))

	require.NoError(t, mgr.EnsureLedger(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureLedgerRethrowsOtherErrors(t *testing.T) {
	mgr, mock := newMockManager(t)
	mock.ExpectExec("CREATE TABLE `schema_migrations`").
		WillReturnError(fmt.Errorf("connection refused"))

	err := mgr.EnsureLedger(context.Background())
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertSingleMigrationIsTransactional(t *testing.T) {
	mgr, mock := newMockManager(t)
	mgr.Register(createWidgets{})

	mock.ExpectQuery("SELECT .* FROM `schema_migrations`").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "name", "checksum", "batch", "applied_at"}).
			AddRow("20260101000000", "create_widgets", "x", 1, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE widgets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `schema_migrations`").
		WithArgs("20260101000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, mgr.RevertSingleMigration(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertSingleMigrationRollsBackOnDownPlanFailure(t *testing.T) {
	mgr, mock := newMockManager(t)
	mgr.Register(createWidgets{})

	mock.ExpectQuery("SELECT .* FROM `schema_migrations`").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "name", "checksum", "batch", "applied_at"}).
			AddRow("20260101000000", "create_widgets", "x", 1, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE widgets").WillReturnError(fmt.Errorf("boom"))
	mock.ExpectRollback()

	err := mgr.RevertSingleMigration(context.Background())
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyChecksumsDetectsMismatch(t *testing.T) {
	mgr, mock := newMockManager(t)
	mgr.Register(createWidgets{})

	mock.ExpectQuery("SELECT .* FROM `schema_migrations`").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "name", "checksum", "batch", "applied_at"}).
			AddRow("20260101000000", "create_widgets", "stale-checksum", 1, time.Now()))

	mismatches, err := mgr.VerifyChecksums(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
}
