package mapper

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/binder"
	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
)

type widget struct {
	ID   int64  `db:"id,pk=identity"`
	Name string `db:"name"`
}

type ticket struct {
	Number int64  `db:"number,pk="`
	Title  string `db:"title"`
}

type session struct {
	Token binder.GUID `db:"token,pk="`
	User  string      `db:"user_name"`
}

func newMockConnection(t *testing.T) (*conn.Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c, err := conn.Wrap(db, dialect.MySQL)
	require.NoError(t, err)
	return c, mock
}

func TestTableNamePluralizesSnakeCase(t *testing.T) {
	assert.Equal(t, "widgets", TableName(reflect.TypeOf(widget{})))
}

func TestCreatePopulatesIdentityAndRemembersKey(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[widget](c)

	mock.ExpectExec("INSERT INTO widgets").
		WithArgs("bolt").
		WillReturnResult(sqlmock.NewResult(7, 1))

	w := &widget{Name: "bolt"}
	require.NoError(t, m.Create(context.Background(), w))
	assert.EqualValues(t, 7, w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsMaxPlusOneForAutoAssignIntegerKey(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[ticket](c)

	mock.ExpectQuery("SELECT MAX\\(number\\) FROM tickets").
		WillReturnRows(sqlmock.NewRows([]string{"MAX(number)"}).AddRow(41))
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(int64(42), "renew license").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tk := &ticket{Title: "renew license"}
	require.NoError(t, m.Create(context.Background(), tk))
	assert.EqualValues(t, 42, tk.Number)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsMaxPlusOneFromEmptyTable(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[ticket](c)

	mock.ExpectQuery("SELECT MAX\\(number\\) FROM tickets").
		WillReturnRows(sqlmock.NewRows([]string{"MAX(number)"}).AddRow(nil))
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(int64(1), "first").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tk := &ticket{Title: "first"}
	require.NoError(t, m.Create(context.Background(), tk))
	assert.EqualValues(t, 1, tk.Number)
}

func TestCreateLeavesCallerSuppliedAutoAssignKeyAlone(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[ticket](c)

	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(int64(99), "pre-assigned").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tk := &ticket{Number: 99, Title: "pre-assigned"}
	require.NoError(t, m.Create(context.Background(), tk))
	assert.EqualValues(t, 99, tk.Number)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsFreshGUIDForGUIDKey(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[session](c)

	mock.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &session{User: "ada"}
	require.NoError(t, m.Create(context.Background(), s))
	assert.False(t, s.Token.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRejectsPrimaryKeyModification(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[widget](c)

	mock.ExpectExec("INSERT INTO widgets").
		WithArgs("bolt").
		WillReturnResult(sqlmock.NewResult(7, 1))

	w := &widget{Name: "bolt"}
	require.NoError(t, m.Create(context.Background(), w))

	w.ID = 99
	err := m.Update(context.Background(), w)
	assert.ErrorIs(t, err, ErrPrimaryKeyModified)
}

func TestUpdateWithMatchingKeySucceeds(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[widget](c)

	mock.ExpectExec("INSERT INTO widgets").
		WithArgs("bolt").
		WillReturnResult(sqlmock.NewResult(7, 1))
	w := &widget{Name: "bolt"}
	require.NoError(t, m.Create(context.Background(), w))

	mock.ExpectExec("UPDATE widgets SET name").
		WithArgs("nut", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	w.Name = "nut"
	require.NoError(t, m.Update(context.Background(), w))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithKeyBypassesRejection(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[widget](c)

	mock.ExpectExec("UPDATE widgets SET name").
		WithArgs("nut", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &widget{ID: 42, Name: "nut"}
	require.NoError(t, m.UpdateWithKey(context.Background(), w, int64(7)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerySingleReturnsErrNotFound(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[widget](c)

	mock.ExpectQuery("SELECT \\* FROM widgets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := m.QuerySingle(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAllScansEveryRow(t *testing.T) {
	c, mock := newMockConnection(t)
	m := New[widget](c)

	mock.ExpectQuery("SELECT \\* FROM widgets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "bolt").
			AddRow(2, "nut"))

	records, err := m.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "bolt", records[0].Name)
	assert.Equal(t, "nut", records[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
