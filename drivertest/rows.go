package drivertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Rows is a forward-only in-memory result set.
type Rows struct {
	mu     sync.Mutex
	cols   []sqltype.Descriptor
	rows   [][]driver.Datum
	idx    int
	closed bool
}

// NewRows builds a result set over static data. Each call to the owning
// script's execute produces a fresh instance; the cursor is single-pass.
func NewRows(cols []sqltype.Descriptor, rows ...[]driver.Datum) *Rows {
	return &Rows{cols: cols, rows: rows, idx: -1}
}

// Columns returns the result descriptors.
func (r *Rows) Columns() []sqltype.Descriptor { return r.cols }

// Next advances to the next row.
func (r *Rows) Next(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, rowsClosedExc()
	}
	r.idx++
	return r.idx < len(r.rows), nil
}

// Get returns column col of the current row.
func (r *Rows) Get(ctx context.Context, col int) (driver.Datum, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return driver.Datum{}, rowsClosedExc()
	}
	if r.idx < 0 || r.idx >= len(r.rows) {
		return driver.Datum{}, &jerrors.ForeignException{
			Class:    "java.sql.SQLException",
			Message:  "cursor is not positioned on a row",
			SQLState: "24000",
		}
	}
	row := r.rows[r.idx]
	if col < 0 || col >= len(row) {
		return driver.Datum{}, &jerrors.ForeignException{
			Class:    "java.sql.SQLException",
			Message:  fmt.Sprintf("column index %d out of range", col),
			SQLState: "07009",
		}
	}
	return row[col], nil
}

// Close releases the result set. Idempotent.
func (r *Rows) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether the result set was released.
func (r *Rows) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func rowsClosedExc() *jerrors.ForeignException {
	return &jerrors.ForeignException{
		Class:    "java.sql.SQLException",
		Message:  "result set is closed",
		SQLState: "24000",
	}
}

// Datum construction helpers for scripting result rows.

// Text returns a text datum.
func Text(s string) driver.Datum {
	return driver.Datum{Kind: driver.DatumText, SQLType: sqltype.VarChar, Str: s}
}

// Int returns a bigint datum.
func Int(n int64) driver.Datum {
	return driver.Datum{Kind: driver.DatumInt, SQLType: sqltype.BigInt, Int: n}
}

// Float returns a double datum.
func Float(f float64) driver.Datum {
	return driver.Datum{Kind: driver.DatumFloat, SQLType: sqltype.Double, Float: f}
}

// Bool returns a boolean datum.
func Bool(b bool) driver.Datum {
	return driver.Datum{Kind: driver.DatumBool, SQLType: sqltype.Boolean, Bool: b}
}

// Decimal returns an exact-decimal datum.
func Decimal(s string) driver.Datum {
	return driver.Datum{Kind: driver.DatumDecimal, SQLType: sqltype.Numeric, Str: s}
}

// Null returns a typed null datum.
func Null(code sqltype.Code) driver.Datum {
	return driver.NullDatum(code)
}
