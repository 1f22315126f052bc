package drivertest

import (
	"context"
	"sync"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/handle"
)

func connClosedExc() *jerrors.ForeignException {
	return &jerrors.ForeignException{
		Class:    "java.sql.SQLNonTransientConnectionException",
		Message:  "connection is closed",
		SQLState: "08003",
	}
}

// Conn is an in-memory foreign connection.
type Conn struct {
	drv    *Driver
	url    string
	props  map[string]string
	handle handle.Handle

	mu         sync.Mutex
	closed     bool
	autocommit bool
	stmts      []*Stmt
	commits    int
	rollbacks  int
	pings      int

	// PingExc makes Ping fail while the connection is otherwise open.
	PingExc *jerrors.ForeignException
}

// URL returns the URL the connection was opened with.
func (c *Conn) URL() string { return c.url }

// Props returns the properties the connection was opened with.
func (c *Conn) Props() map[string]string { return c.props }

// Commits reports how many times Commit succeeded.
func (c *Conn) Commits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

// Rollbacks reports how many times Rollback succeeded.
func (c *Conn) Rollbacks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollbacks
}

// Pings reports how many ping round-trips reached the fake.
func (c *Conn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

// Closed reports whether the foreign connection was released.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Prepare compiles a statement against the registered scripts.
func (c *Conn) Prepare(ctx context.Context, sql string) (driver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, connClosedExc()
	}

	c.drv.mu.Lock()
	script, ok := c.drv.scripts[sql]
	c.drv.mu.Unlock()
	if !ok {
		return nil, &jerrors.ForeignException{
			Class:    "java.sql.SQLSyntaxErrorException",
			Message:  "unknown statement: " + sql,
			SQLState: "42000",
		}
	}

	s := &Stmt{conn: c, script: script}
	c.stmts = append(c.stmts, s)
	return s, nil
}

// SetAutoCommit toggles the autocommit flag.
func (c *Conn) SetAutoCommit(ctx context.Context, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return connClosedExc()
	}
	c.autocommit = on
	return nil
}

// AutoCommit reports the autocommit flag.
func (c *Conn) AutoCommit(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, connClosedExc()
	}
	return c.autocommit, nil
}

// Commit commits the open transaction.
func (c *Conn) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return connClosedExc()
	}
	c.commits++
	return nil
}

// Rollback rolls back the open transaction.
func (c *Conn) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return connClosedExc()
	}
	c.rollbacks++
	return nil
}

// Ping issues a liveness round-trip.
func (c *Conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pings++
	if c.closed {
		return connClosedExc()
	}
	if c.PingExc != nil {
		return c.PingExc
	}
	return nil
}

// Meta returns the structural-metadata reader for this connection.
func (c *Conn) Meta() driver.MetaReader {
	return &metaReader{drv: c.drv}
}

// Close releases the connection and its statements. Idempotent.
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stmts := c.stmts
	c.stmts = nil
	c.mu.Unlock()

	for _, s := range stmts {
		_ = s.Close(ctx)
	}
	if c.drv.host != nil {
		c.drv.host.conns.Remove(c.handle)
	}
	return nil
}
