package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/conv"
	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/runtime"
)

// Connection wraps one foreign connection. It assumes exclusive use by one
// caller at a time; the bridge serializes its own bookkeeping but never
// multiplexes foreign calls.
type Connection struct {
	id   string
	conn driver.Conn
	conv *conv.Converter
	log  *zap.Logger

	mu      sync.Mutex
	closed  bool
	cursors map[*Cursor]struct{}
}

type openConfig struct {
	log  *zap.Logger
	conv *conv.Converter
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

// WithLogger sets the connection logger.
func WithLogger(log *zap.Logger) OpenOption {
	return func(c *openConfig) { c.log = log }
}

// WithConverter overrides the type converter, for non-default LOB chunk
// sizes.
func WithConverter(cv *conv.Converter) OpenOption {
	return func(c *openConfig) { c.conv = cv }
}

// Open resolves the driver through a Ready runtime and opens a foreign
// connection. The runtime gate runs first: an unstarted or shut-down
// runtime fails before any foreign call. A failed open leaves no foreign
// object behind; the driver releases anything partially constructed.
//
// The conventional properties "user" and "password" pass through to the
// foreign driver untouched, as do driver-specific timeouts; the bridge
// enforces no timeouts of its own.
func Open(ctx context.Context, mgr *runtime.Manager, driverID, url string, props map[string]string, opts ...OpenOption) (*Connection, error) {
	cfg := openConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.conv == nil {
		cfg.conv = conv.New(conv.WithLogger(cfg.log))
	}

	host, err := mgr.Host()
	if err != nil {
		return nil, err
	}
	drv, err := host.FindDriver(ctx, driverID)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	raw, err := drv.Connect(ctx, url, props)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}

	c := &Connection{
		id:      uuid.NewString(),
		conn:    raw,
		conv:    cfg.conv,
		cursors: make(map[*Cursor]struct{}),
	}
	c.log = cfg.log.With(zap.String("conn_id", c.id), zap.String("driver", driverID))
	c.log.Info("connection opened", zap.String("url", url))
	return c, nil
}

// ID returns the correlation identifier used in logs.
func (c *Connection) ID() string { return c.id }

// Cursor creates a statement cursor owned by this connection. No foreign
// call happens until the cursor executes.
func (c *Connection) Cursor() *Cursor {
	cur := &Cursor{
		conn:     c,
		log:      c.log,
		rowCount: -1,
	}
	c.mu.Lock()
	if !c.closed {
		c.cursors[cur] = struct{}{}
	} else {
		cur.closed = true
	}
	c.mu.Unlock()
	return cur
}

// SetAutoCommit toggles foreign autocommit.
func (c *Connection) SetAutoCommit(ctx context.Context, on bool) error {
	if c.isClosed() {
		return jerrors.TransactionState("setAutoCommit")
	}
	if err := c.conn.SetAutoCommit(ctx, on); err != nil {
		return jerrors.TranslateErr(err)
	}
	return nil
}

// AutoCommit reports the foreign autocommit flag.
func (c *Connection) AutoCommit(ctx context.Context) (bool, error) {
	if c.isClosed() {
		return false, jerrors.TransactionState("autoCommit")
	}
	on, err := c.conn.AutoCommit(ctx)
	if err != nil {
		return false, jerrors.TranslateErr(err)
	}
	return on, nil
}

// Commit commits the open transaction.
func (c *Connection) Commit(ctx context.Context) error {
	if c.isClosed() {
		return jerrors.TransactionState("commit")
	}
	if err := c.conn.Commit(ctx); err != nil {
		return jerrors.TranslateErr(err)
	}
	return nil
}

// Rollback rolls back the open transaction.
func (c *Connection) Rollback(ctx context.Context) error {
	if c.isClosed() {
		return jerrors.TransactionState("rollback")
	}
	if err := c.conn.Rollback(ctx); err != nil {
		return jerrors.TranslateErr(err)
	}
	return nil
}

// Ping reports connection liveness as a pure predicate. Transient foreign
// failures and a closed connection both answer false; Ping never raises.
func (c *Connection) Ping(ctx context.Context) bool {
	if c.isClosed() {
		return false
	}
	if err := c.conn.Ping(ctx); err != nil {
		c.log.Debug("ping failed", zap.Error(err))
		return false
	}
	return true
}

// Meta returns the foreign structural-metadata reader, for the metadata
// introspector.
func (c *Connection) Meta() (driver.MetaReader, error) {
	if c.isClosed() {
		return nil, jerrors.ConnectionClosed()
	}
	return c.conn.Meta(), nil
}

// Converter returns the connection's type converter.
func (c *Connection) Converter() *conv.Converter { return c.conv }

// Close releases every owned cursor, then the foreign connection.
// Idempotent; a second close is a no-op.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cursors := make([]*Cursor, 0, len(c.cursors))
	for cur := range c.cursors {
		cursors = append(cursors, cur)
	}
	c.cursors = nil
	c.mu.Unlock()

	for _, cur := range cursors {
		_ = cur.Close(ctx)
	}

	err := c.conn.Close(ctx)
	c.log.Info("connection closed", zap.Int("cursors_released", len(cursors)))
	if err != nil {
		return jerrors.TranslateErr(err)
	}
	return nil
}

func (c *Connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connection) forget(cur *Cursor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursors != nil {
		delete(c.cursors, cur)
	}
}
