package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/handle"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Host implements driver.Host over loaded driver modules. Open foreign
// connections live in a generational handle table so Close can drain
// everything still outstanding.
type Host struct {
	eng     *Engine
	log     *zap.Logger
	drivers map[string]*Driver
	conns   *handle.Table[*conn]
	closed  atomic.Bool
}

// FindDriver resolves a driver identifier.
func (h *Host) FindDriver(ctx context.Context, id string) (driver.Driver, error) {
	if h.closed.Load() {
		return nil, jerrors.RuntimeNotReady("ShutDown")
	}
	d, ok := h.drivers[id]
	if !ok {
		return nil, jerrors.DriverNotFound(id)
	}
	return d, nil
}

// Drivers lists every loaded driver module.
func (h *Host) Drivers() []driver.Info {
	out := make([]driver.Info, 0, len(h.drivers))
	for _, d := range h.drivers {
		out = append(out, d.info)
	}
	return out
}

// Close drains outstanding connections, then tears down the runtime and
// every module in it.
func (h *Host) Close(ctx context.Context) error {
	if h.closed.Swap(true) {
		return nil
	}

	drained := h.conns.Close()
	for _, c := range drained {
		_ = c.Close(ctx)
	}
	h.log.Info("driver host closed", zap.Int("connections_drained", len(drained)))
	return h.eng.Close(ctx)
}

// Driver is one loaded driver module.
type Driver struct {
	host *Host
	mod  *module
	info driver.Info
}

// Info returns the driver descriptor reported by the module.
func (d *Driver) Info() driver.Info { return d.info }

type connectReq struct {
	URL   string            `json:"url"`
	Props map[string]string `json:"props,omitempty"`
}

type connectResp struct {
	Conn uint64 `json:"conn"`
}

// Connect opens a foreign connection inside the driver module. On failure
// the guest leaves nothing allocated; the error is the foreign exception.
func (d *Driver) Connect(ctx context.Context, url string, props map[string]string) (driver.Conn, error) {
	var resp connectResp
	if err := d.mod.dispatch(ctx, opConnect, 0, connectReq{URL: url, Props: props}, &resp); err != nil {
		return nil, err
	}

	c := &conn{mod: d.mod, host: d.host, id: resp.Conn}
	// Foreign drivers open in autocommit; tracked host-side, the guest is
	// only told about changes.
	c.autocommit.Store(true)
	c.h = d.host.conns.Insert(c)
	return c, nil
}

// conn is one guest-side connection object.
type conn struct {
	mod  *module
	host *Host
	id   uint64
	h    handle.Handle

	autocommit atomic.Bool
	closed     atomic.Bool
}

type autoCommitReq struct {
	On bool `json:"on"`
}

func (c *conn) SetAutoCommit(ctx context.Context, on bool) error {
	if err := c.mod.dispatch(ctx, opSetAutoCommit, c.id, autoCommitReq{On: on}, nil); err != nil {
		return err
	}
	c.autocommit.Store(on)
	return nil
}

func (c *conn) AutoCommit(ctx context.Context) (bool, error) {
	return c.autocommit.Load(), nil
}

func (c *conn) Commit(ctx context.Context) error {
	return c.mod.dispatch(ctx, opCommit, c.id, nil, nil)
}

func (c *conn) Rollback(ctx context.Context) error {
	return c.mod.dispatch(ctx, opRollback, c.id, nil, nil)
}

func (c *conn) Ping(ctx context.Context) error {
	return c.mod.dispatch(ctx, opPing, c.id, nil, nil)
}

type prepareReq struct {
	SQL string `json:"sql"`
}

type prepareResp struct {
	Stmt uint64 `json:"stmt"`
}

func (c *conn) Prepare(ctx context.Context, sql string) (driver.Stmt, error) {
	var resp prepareResp
	if err := c.mod.dispatch(ctx, opPrepare, c.id, prepareReq{SQL: sql}, &resp); err != nil {
		return nil, err
	}
	return &stmt{mod: c.mod, id: resp.Stmt}, nil
}

func (c *conn) Meta() driver.MetaReader {
	return &metaReader{c: c}
}

func (c *conn) Close(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.mod.dispatch(ctx, opConnClose, c.id, nil, nil)
	c.host.conns.Remove(c.h)
	return err
}

// stmt is one guest-side prepared statement.
type stmt struct {
	mod *module
	id  uint64
}

type paramTypesResp struct {
	Types []int32 `json:"types"`
}

func (s *stmt) ParamTypes(ctx context.Context) ([]sqltype.Code, error) {
	var resp paramTypesResp
	if err := s.mod.dispatch(ctx, opParamTypes, s.id, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]sqltype.Code, len(resp.Types))
	for i, t := range resp.Types {
		out[i] = sqltype.Code(t)
	}
	return out, nil
}

type executeReq struct {
	Params []wireDatum `json:"params,omitempty"`
}

type resultResp struct {
	Rows        uint64           `json:"rows,omitempty"`
	Columns     []wireDescriptor `json:"columns,omitempty"`
	UpdateCount int64            `json:"update_count"`
}

// encodeParams maps every datum to its wire form, uploading LOB payloads
// at any nesting depth ahead of the call.
func (s *stmt) encodeParams(ctx context.Context, params []driver.Datum) ([]wireDatum, error) {
	out := make([]wireDatum, len(params))
	for i, p := range params {
		w, err := encodeDatum(ctx, p, s.mod.uploadLob)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func (s *stmt) Execute(ctx context.Context, params []driver.Datum) (driver.Result, error) {
	wire, err := s.encodeParams(ctx, params)
	if err != nil {
		return driver.Result{}, err
	}

	var resp resultResp
	if err := s.mod.dispatch(ctx, opExecute, s.id, executeReq{Params: wire}, &resp); err != nil {
		return driver.Result{}, err
	}
	if resp.Rows == 0 {
		return driver.Result{UpdateCount: resp.UpdateCount}, nil
	}
	return driver.Result{
		Rows:        newRows(s.mod, resp.Rows, resp.Columns),
		UpdateCount: -1,
	}, nil
}

func (s *stmt) AddBatch(ctx context.Context, params []driver.Datum) error {
	wire, err := s.encodeParams(ctx, params)
	if err != nil {
		return err
	}
	return s.mod.dispatch(ctx, opAddBatch, s.id, executeReq{Params: wire}, nil)
}

type batchResp struct {
	Counts []int64 `json:"counts"`
}

func (s *stmt) ExecuteBatch(ctx context.Context) ([]int64, error) {
	var resp batchResp
	if err := s.mod.dispatch(ctx, opExecuteBatch, s.id, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

func (s *stmt) Close(ctx context.Context) error {
	return s.mod.dispatch(ctx, opStmtClose, s.id, nil, nil)
}

// fetchBatch bounds rows moved per boundary crossing.
const fetchBatch = 64

type fetchReq struct {
	Max int `json:"max"`
}

type fetchResp struct {
	Rows [][]wireDatum `json:"rows"`
	Done bool          `json:"done"`
}

// rows is one guest-side result set, fetched ahead in small batches.
type rows struct {
	mod  *module
	id   uint64
	cols []sqltype.Descriptor

	mu     sync.Mutex
	buf    [][]driver.Datum
	cur    []driver.Datum
	done   bool
	closed bool
}

func newRows(m *module, id uint64, cols []wireDescriptor) *rows {
	return &rows{mod: m, id: id, cols: descriptors(cols)}
}

func (r *rows) Columns() []sqltype.Descriptor {
	return r.cols
}

func (r *rows) Next(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, jerrors.Internal(nil, "result set used after close")
	}
	if len(r.buf) == 0 {
		if r.done {
			r.cur = nil
			return false, nil
		}
		var resp fetchResp
		if err := r.mod.dispatch(ctx, opFetch, r.id, fetchReq{Max: fetchBatch}, &resp); err != nil {
			return false, err
		}
		r.done = resp.Done
		for _, wr := range resp.Rows {
			row := make([]driver.Datum, len(wr))
			for i, w := range wr {
				row[i] = decodeWire(ctx, w, r.mod)
			}
			r.buf = append(r.buf, row)
		}
		if len(r.buf) == 0 {
			r.cur = nil
			return false, nil
		}
	}
	r.cur = r.buf[0]
	r.buf = r.buf[1:]
	return true, nil
}

func (r *rows) Get(ctx context.Context, col int) (driver.Datum, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cur == nil {
		return driver.Datum{}, jerrors.Internal(nil, "no current row")
	}
	if col < 0 || col >= len(r.cur) {
		return driver.Datum{}, jerrors.Internal(nil, "column index out of range")
	}
	return r.cur[col], nil
}

func (r *rows) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.buf = nil
	r.cur = nil
	return r.mod.dispatch(ctx, opRowsClose, r.id, nil, nil)
}

type metaReq struct {
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table,omitempty"`
}

// metaReader serves the meta_* ops; each returns a result-set handle in
// the same shape as execute.
type metaReader struct {
	c *conn
}

func (m *metaReader) query(ctx context.Context, op, schema, table string) (driver.Rows, error) {
	var resp resultResp
	if err := m.c.mod.dispatch(ctx, op, m.c.id, metaReq{Schema: schema, Table: table}, &resp); err != nil {
		return nil, err
	}
	return newRows(m.c.mod, resp.Rows, resp.Columns), nil
}

func (m *metaReader) Schemas(ctx context.Context) (driver.Rows, error) {
	return m.query(ctx, opMetaSchemas, "", "")
}

func (m *metaReader) Tables(ctx context.Context, schema string) (driver.Rows, error) {
	return m.query(ctx, opMetaTables, schema, "")
}

func (m *metaReader) Columns(ctx context.Context, schema, table string) (driver.Rows, error) {
	return m.query(ctx, opMetaColumns, schema, table)
}

func (m *metaReader) PrimaryKeys(ctx context.Context, schema, table string) (driver.Rows, error) {
	return m.query(ctx, opMetaPKeys, schema, table)
}

func (m *metaReader) ImportedKeys(ctx context.Context, schema, table string) (driver.Rows, error) {
	return m.query(ctx, opMetaFKeys, schema, table)
}

func (m *metaReader) IndexInfo(ctx context.Context, schema, table string) (driver.Rows, error) {
	return m.query(ctx, opMetaIndexes, schema, table)
}
