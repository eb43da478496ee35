// Package pool layers single-owner, checked-out lease semantics on top
// of database/sql's own shared connection pool - spec.md's "driver
// handle is not reentrant" requirement that database/sql's default pool
// doesn't enforce by itself (a *sql.DB call may silently multiplex
// across connections). Generalizes internal/queue/manager.go's
// worker-count bounding logic (min/max sizing, wait-vs-overflow choice)
// from queue workers to checked-out *sql.Conn leases.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/lastrada/lightweight-go/conn"
)

// Strategy governs what Checkout does once every lease is in use.
type Strategy int

const (
	// BoundedWait blocks Checkout until a lease is returned or ctx is
	// done, never exceeding Config.MaxSize concurrent leases.
	BoundedWait Strategy = iota
	// BoundedOverflow returns ErrExhausted immediately once MaxSize
	// leases are checked out, rather than blocking.
	BoundedOverflow
	// UnboundedGrow opens a new underlying connection beyond MaxSize
	// rather than blocking or failing, trading bounded resource use for
	// availability.
	UnboundedGrow
)

// ErrExhausted is returned by Checkout under BoundedOverflow once
// Config.MaxSize leases are already checked out.
var ErrExhausted = errors.New("pool: exhausted")

// Config tunes a Pool's sizing and blocking behavior.
type Config struct {
	MinSize  int
	MaxSize  int
	Strategy Strategy
}

// DefaultConfig matches conn.DefaultPoolConfig's sizing (initialSize 4,
// maxSize 16), with BoundedWait as the default strategy.
func DefaultConfig() Config {
	return Config{MinSize: 4, MaxSize: 16, Strategy: BoundedWait}
}

// Pool hands out single-owner *sql.Conn leases drawn from one
// conn.Connection's underlying *sql.DB.
type Pool struct {
	c      *conn.Connection
	cfg    Config
	mu     sync.Mutex
	active int
	waiter chan struct{} // buffered 1; signals a lease was returned
}

// New returns a Pool over c sized per cfg.
func New(c *conn.Connection, cfg Config) *Pool {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	return &Pool{c: c, cfg: cfg, waiter: make(chan struct{}, 1)}
}

// Lease is a single checked-out, single-owner connection. Release
// returns it to the pool; a Lease must not be used after Release.
type Lease struct {
	pool *Pool
	conn *sql.Conn
	grew bool // true if this lease was opened beyond MaxSize (UnboundedGrow)
}

// Conn returns the underlying *sql.Conn for this lease's duration.
func (l *Lease) Conn() *sql.Conn { return l.conn }

// Release returns the lease's connection to the underlying driver pool
// and frees this Pool's accounting slot.
func (l *Lease) Release() error {
	err := l.conn.Close()
	if !l.grew {
		l.pool.release()
	}
	return err
}

// Checkout obtains a single-owner Lease, blocking/failing/growing per
// the Pool's configured Strategy once MaxSize leases are outstanding.
func (p *Pool) Checkout(ctx context.Context) (*Lease, error) {
	for {
		p.mu.Lock()
		if p.active < p.cfg.MaxSize {
			p.active++
			p.mu.Unlock()
			return p.open(ctx, false)
		}

		switch p.cfg.Strategy {
		case UnboundedGrow:
			p.mu.Unlock()
			return p.open(ctx, true)
		case BoundedOverflow:
			p.mu.Unlock()
			return nil, ErrExhausted
		default: // BoundedWait
			p.mu.Unlock()
			select {
			case <-p.waiter:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

func (p *Pool) open(ctx context.Context, grew bool) (*Lease, error) {
	sc, err := p.c.Conn(ctx)
	if err != nil {
		if !grew {
			p.release()
		}
		return nil, err
	}
	return &Lease{pool: p, conn: sc, grew: grew}, nil
}

func (p *Pool) release() {
	p.mu.Lock()
	if p.active > 0 {
		p.active--
	}
	p.mu.Unlock()
	select {
	case p.waiter <- struct{}{}:
	default:
	}
}

// InUse reports the number of leases currently checked out that count
// against MaxSize (leases opened via UnboundedGrow past MaxSize are not
// included).
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
