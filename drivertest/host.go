package drivertest

import (
	"context"
	"sync"
	"time"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/handle"
	"github.com/vexdb/jdbc-bridge/runtime"
)

// Launcher implements runtime.Launcher over an in-memory host.
type Launcher struct {
	Host *Host
	Err  error // scripted launch failure
}

// Launch returns the scripted host or failure.
func (l *Launcher) Launch(ctx context.Context, opts runtime.Options) (driver.Host, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	if l.Host == nil {
		l.Host = NewHost()
	}
	return l.Host, nil
}

// Host is an in-memory driver.Host. Connections live in a generational
// handle table so Close can drain everything still open, exactly like the
// production engine host.
type Host struct {
	mu      sync.Mutex
	drivers map[string]*Driver
	conns   *handle.Table[*Conn]
	closed  bool
}

// NewHost creates a host serving the given drivers.
func NewHost(drivers ...*Driver) *Host {
	h := &Host{
		drivers: make(map[string]*Driver),
		conns:   handle.NewTable[*Conn](),
	}
	for _, d := range drivers {
		d.host = h
		h.drivers[d.info.ID] = d
	}
	return h
}

// FindDriver resolves a driver identifier.
func (h *Host) FindDriver(ctx context.Context, id string) (driver.Driver, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.drivers[id]
	if !ok {
		return nil, jerrors.DriverNotFound(id)
	}
	return d, nil
}

// Drivers lists the registered drivers.
func (h *Host) Drivers() []driver.Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]driver.Info, 0, len(h.drivers))
	for _, d := range h.drivers {
		out = append(out, d.info)
	}
	return out
}

// Close drains every connection still open.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, c := range h.conns.Close() {
		_ = c.Close(ctx)
	}
	return nil
}

// OpenConnections reports how many connections the host still tracks.
// Tests use it to verify that no foreign reference leaks an exit path.
func (h *Host) OpenConnections() int {
	return h.conns.Len()
}

// Driver is a scriptable in-memory foreign driver.
type Driver struct {
	info driver.Info
	host *Host

	mu       sync.Mutex
	scripts  map[string]*Script
	tables   []*Table
	lastConn *Conn

	// ConnectExc makes every Connect fail with this foreign exception.
	ConnectExc *jerrors.ForeignException

	// ConnectHang simulates an unreachable host: Connect blocks until the
	// loginTimeout property (seconds) elapses, then fails with a foreign
	// timeout exception.
	ConnectHang bool
}

// NewDriver creates a fake driver with the given identifier.
func NewDriver(id string) *Driver {
	return &Driver{
		info:    driver.Info{ID: id, Class: "test." + id + ".Driver", Version: "1.0"},
		scripts: make(map[string]*Script),
	}
}

// Info returns the driver descriptor.
func (d *Driver) Info() driver.Info { return d.info }

// Script registers the behavior for one SQL string and returns it for
// further refinement. Unregistered SQL fails prepare with a foreign
// syntax exception.
func (d *Driver) Script(sql string) *Script {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := &Script{sql: sql, batchFailAt: -1}
	d.scripts[sql] = s
	return s
}

// AddTable registers structural metadata served by the meta reader.
func (d *Driver) AddTable(t *Table) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tables = append(d.tables, t)
	return d
}

// Connect opens an in-memory connection.
func (d *Driver) Connect(ctx context.Context, url string, props map[string]string) (driver.Conn, error) {
	if d.ConnectHang {
		timeout := 30 * time.Second
		if s, ok := props["loginTimeout"]; ok {
			if dur, err := time.ParseDuration(s + "s"); err == nil {
				timeout = dur
			}
		}
		select {
		case <-ctx.Done():
		case <-time.After(timeout):
		}
		return nil, &jerrors.ForeignException{
			Class:    "java.sql.SQLTimeoutException",
			Message:  "connect timed out after " + timeout.String(),
			SQLState: "08001",
		}
	}
	if d.ConnectExc != nil {
		return nil, d.ConnectExc
	}

	c := &Conn{drv: d, url: url, props: props, autocommit: true}
	if d.host != nil {
		c.handle = d.host.conns.Insert(c)
	}
	d.mu.Lock()
	d.lastConn = c
	d.mu.Unlock()
	return c, nil
}

// LastConn returns the most recently opened connection, for assertions on
// foreign-side state.
func (d *Driver) LastConn() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastConn
}
