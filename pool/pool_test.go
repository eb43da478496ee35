package pool

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrada/lightweight-go/conn"
	"github.com/lastrada/lightweight-go/dialect"
)

func newTestConn(t *testing.T) *conn.Connection {
	t.Helper()
	db, _, err := sqlmock.New(sqlmock.MonitorPingsOption(false))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c, err := conn.Wrap(db, dialect.Postgres)
	require.NoError(t, err)
	return c
}

func TestCheckoutReleaseRoundTrip(t *testing.T) {
	p := New(newTestConn(t), Config{MinSize: 1, MaxSize: 2, Strategy: BoundedWait})
	lease, err := p.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.InUse())
	require.NoError(t, lease.Release())
	assert.Equal(t, 0, p.InUse())
}

func TestBoundedOverflowReturnsErrExhausted(t *testing.T) {
	p := New(newTestConn(t), Config{MaxSize: 1, Strategy: BoundedOverflow})
	lease, err := p.Checkout(context.Background())
	require.NoError(t, err)

	_, err = p.Checkout(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
	require.NoError(t, lease.Release())
}

func TestBoundedWaitBlocksUntilRelease(t *testing.T) {
	p := New(newTestConn(t), Config{MaxSize: 1, Strategy: BoundedWait})
	lease, err := p.Checkout(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		l2, err := p.Checkout(context.Background())
		require.NoError(t, err)
		require.NoError(t, l2.Release())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, lease.Release())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second checkout never completed after release")
	}
}

func TestUnboundedGrowExceedsMaxSizeWithoutBlocking(t *testing.T) {
	p := New(newTestConn(t), Config{MaxSize: 1, Strategy: UnboundedGrow})
	l1, err := p.Checkout(context.Background())
	require.NoError(t, err)
	l2, err := p.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, p.InUse())
	require.NoError(t, l1.Release())
	require.NoError(t, l2.Release())
}
