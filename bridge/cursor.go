package bridge

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Cursor prepares and executes statements on its owning connection and
// iterates results forward-only. Results are single-pass: once a row is
// consumed it cannot be revisited, and re-executing discards the previous
// result first.
type Cursor struct {
	conn *Connection
	log  *zap.Logger

	mu        sync.Mutex
	closed    bool
	stmt      driver.Stmt
	rows      driver.Rows
	desc      []sqltype.Descriptor
	rowCount  int64
	exhausted bool
}

// Execute prepares and runs sql with the given parameters. Parameters are
// encoded against the statement's reported type hints; when the foreign
// driver reports none, each value encodes under its natural SQL type.
// Any previously open result on this cursor is released first.
func (cur *Cursor) Execute(ctx context.Context, sql string, params ...sqltype.Value) error {
	cur.mu.Lock()
	defer cur.mu.Unlock()

	if cur.closed {
		return jerrors.CursorClosed()
	}
	if cur.conn.isClosed() {
		return jerrors.ConnectionClosed()
	}
	cur.releaseLocked(ctx)

	st, err := cur.conn.conn.Prepare(ctx, sql)
	if err != nil {
		return jerrors.TranslateErr(err)
	}
	ok := false
	defer func() {
		if !ok {
			_ = st.Close(ctx)
		}
	}()

	encoded, err := cur.encodeParams(ctx, st, params)
	if err != nil {
		return err
	}

	res, err := st.Execute(ctx, encoded)
	if err != nil {
		return jerrors.TranslateErr(err)
	}

	cur.stmt = st
	if res.Rows != nil {
		cur.rows = res.Rows
		cur.desc = res.Rows.Columns()
		cur.rowCount = -1
	} else {
		cur.rowCount = res.UpdateCount
	}
	cur.log.Debug("statement executed",
		zap.Int("params", len(params)),
		zap.Bool("has_result", res.Rows != nil))
	ok = true
	return nil
}

// ExecuteMany runs sql once per parameter set as a foreign batch. It is
// fail-fast: the first set that fails to encode or stage aborts the call
// before anything past it reaches the foreign driver, and a row-level
// failure during submission stops there. The error is a *errors.BatchError
// carrying the failing index and the update counts of the sets that
// completed.
func (cur *Cursor) ExecuteMany(ctx context.Context, sql string, paramSets [][]sqltype.Value) error {
	cur.mu.Lock()
	defer cur.mu.Unlock()

	if cur.closed {
		return jerrors.CursorClosed()
	}
	if cur.conn.isClosed() {
		return jerrors.ConnectionClosed()
	}
	cur.releaseLocked(ctx)

	st, err := cur.conn.conn.Prepare(ctx, sql)
	if err != nil {
		return jerrors.TranslateErr(err)
	}
	ok := false
	defer func() {
		if !ok {
			_ = st.Close(ctx)
		}
	}()

	for i, params := range paramSets {
		encoded, err := cur.encodeParams(ctx, st, params)
		if err == nil {
			err = st.AddBatch(ctx, encoded)
			if err != nil {
				err = jerrors.TranslateErr(err)
			}
		}
		if err != nil {
			return &jerrors.BatchError{FailedIndex: i, Cause: err}
		}
	}

	counts, err := st.ExecuteBatch(ctx)
	if err != nil {
		var fault *driver.BatchFault
		if errors.As(err, &fault) {
			return &jerrors.BatchError{
				FailedIndex: fault.Index,
				Partial:     fault.Counts,
				Cause:       jerrors.TranslateErr(fault.Cause),
			}
		}
		return jerrors.TranslateErr(err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	cur.stmt = st
	cur.rowCount = total
	cur.log.Debug("batch executed", zap.Int("sets", len(paramSets)), zap.Int64("rows", total))
	ok = true
	return nil
}

// FetchOne returns the next row of the open result. The second return is
// false once the result is exhausted.
func (cur *Cursor) FetchOne(ctx context.Context) ([]sqltype.Value, bool, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()

	row, err := cur.fetchLocked(ctx)
	if err != nil {
		return nil, false, err
	}
	return row, row != nil, nil
}

// FetchMany returns up to n rows. Fewer rows, possibly none, mean the
// result is exhausted. n below one fetches a single row.
func (cur *Cursor) FetchMany(ctx context.Context, n int) ([][]sqltype.Value, error) {
	if n < 1 {
		n = 1
	}

	cur.mu.Lock()
	defer cur.mu.Unlock()

	out := make([][]sqltype.Value, 0, n)
	for len(out) < n {
		row, err := cur.fetchLocked(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

// FetchAll drains the open result.
func (cur *Cursor) FetchAll(ctx context.Context) ([][]sqltype.Value, error) {
	cur.mu.Lock()
	defer cur.mu.Unlock()

	var out [][]sqltype.Value
	for {
		row, err := cur.fetchLocked(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

// Description returns the column descriptors of the open result, nil when
// the last execute produced no result set.
func (cur *Cursor) Description() []sqltype.Descriptor {
	cur.mu.Lock()
	defer cur.mu.Unlock()

	if cur.desc == nil {
		return nil
	}
	out := make([]sqltype.Descriptor, len(cur.desc))
	copy(out, cur.desc)
	return out
}

// RowCount returns the affected-row count of the last update, the summed
// counts of the last batch, or -1 for queries and before any execute.
func (cur *Cursor) RowCount() int64 {
	cur.mu.Lock()
	defer cur.mu.Unlock()
	return cur.rowCount
}

// Close releases the open result and statement. Idempotent; after Close
// every fetch and execute fails without touching the released foreign
// objects.
func (cur *Cursor) Close(ctx context.Context) error {
	cur.mu.Lock()
	if cur.closed {
		cur.mu.Unlock()
		return nil
	}
	cur.closed = true
	cur.releaseLocked(ctx)
	cur.mu.Unlock()

	cur.conn.forget(cur)
	return nil
}

// fetchLocked returns the next decoded row, or nil at exhaustion.
func (cur *Cursor) fetchLocked(ctx context.Context) ([]sqltype.Value, error) {
	if cur.closed {
		return nil, jerrors.CursorClosed()
	}
	if cur.rows == nil {
		return nil, jerrors.NoResult()
	}
	if cur.exhausted {
		return nil, nil
	}

	more, err := cur.rows.Next(ctx)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	if !more {
		cur.exhausted = true
		return nil, nil
	}

	cv := cur.conn.conv
	row := make([]sqltype.Value, len(cur.desc))
	for i, d := range cur.desc {
		datum, err := cur.rows.Get(ctx, i)
		if err != nil {
			return nil, jerrors.TranslateErr(err)
		}
		row[i], err = cv.Decode(datum, d)
		if err != nil {
			return nil, err
		}
	}
	return row, nil
}

// encodeParams encodes one parameter set against the statement's type
// hints.
func (cur *Cursor) encodeParams(ctx context.Context, st driver.Stmt, params []sqltype.Value) ([]driver.Datum, error) {
	if len(params) == 0 {
		return nil, nil
	}

	hints, err := st.ParamTypes(ctx)
	if err != nil {
		// Drivers without parameter metadata are common; fall back to
		// natural encoding.
		cur.log.Debug("no parameter type hints", zap.Error(err))
		hints = nil
	}

	cv := cur.conn.conv
	out := make([]driver.Datum, len(params))
	for i, p := range params {
		if i < len(hints) {
			out[i], err = cv.Encode(p, hints[i])
		} else {
			out[i], err = cv.EncodeNatural(p)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// releaseLocked closes the open result and statement, tolerating foreign
// close failures. Caller holds cur.mu.
func (cur *Cursor) releaseLocked(ctx context.Context) {
	if cur.rows != nil {
		if err := cur.rows.Close(ctx); err != nil {
			cur.log.Debug("result close failed", zap.Error(err))
		}
		cur.rows = nil
	}
	if cur.stmt != nil {
		if err := cur.stmt.Close(ctx); err != nil {
			cur.log.Debug("statement close failed", zap.Error(err))
		}
		cur.stmt = nil
	}
	cur.desc = nil
	cur.exhausted = false
	cur.rowCount = -1
}
