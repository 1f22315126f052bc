package drivertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Script describes the behavior of one registered SQL string. Zero-value
// behavior is a successful update of zero rows; builder methods refine it.
type Script struct {
	sql string

	mu          sync.Mutex
	paramTypes  []sqltype.Code
	cols        []sqltype.Descriptor
	rows        [][]driver.Datum
	updateCount int64
	execExc     *jerrors.ForeignException
	batchFailAt int // -1: no injected batch failure
	batchExc    *jerrors.ForeignException
	received    [][]driver.Datum
	batchRuns   int
	executes    int
}

// WithParams declares the parameter type hints the foreign driver reports
// for this statement.
func (s *Script) WithParams(codes ...sqltype.Code) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paramTypes = codes
	return s
}

// Returns makes every execute produce a fresh forward-only result set with
// the given columns and rows.
func (s *Script) Returns(cols []sqltype.Descriptor, rows ...[]driver.Datum) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols = cols
	s.rows = rows
	return s
}

// Updates makes every execute report n affected rows and no result set.
func (s *Script) Updates(n int64) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCount = n
	return s
}

// Fails makes every execute raise the given foreign exception.
func (s *Script) Fails(exc *jerrors.ForeignException) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execExc = exc
	return s
}

// FailsBatchAt injects a row-level failure for parameter set i during
// batch submission. Sets before i complete; nothing past i runs.
func (s *Script) FailsBatchAt(i int, exc *jerrors.ForeignException) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchFailAt = i
	s.batchExc = exc
	return s
}

// Received returns every parameter set that reached the foreign driver,
// across executes and batch submissions.
func (s *Script) Received() [][]driver.Datum {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]driver.Datum, len(s.received))
	copy(out, s.received)
	return out
}

// Executes reports how many direct executes ran.
func (s *Script) Executes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executes
}

// BatchRuns reports how many batch submissions ran.
func (s *Script) BatchRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchRuns
}

func stmtClosedExc() *jerrors.ForeignException {
	return &jerrors.ForeignException{
		Class:    "java.sql.SQLException",
		Message:  "statement is closed",
		SQLState: "HY010",
	}
}

// Stmt is an in-memory prepared statement bound to a script.
type Stmt struct {
	conn   *Conn
	script *Script

	mu     sync.Mutex
	closed bool
	batch  [][]driver.Datum
}

// ParamTypes returns the scripted parameter hints.
func (st *Stmt) ParamTypes(ctx context.Context) ([]sqltype.Code, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return nil, stmtClosedExc()
	}
	st.script.mu.Lock()
	defer st.script.mu.Unlock()
	return st.script.paramTypes, nil
}

// Execute runs the script with the given parameters.
func (st *Stmt) Execute(ctx context.Context, params []driver.Datum) (driver.Result, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return driver.Result{}, stmtClosedExc()
	}

	s := st.script
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executes++
	s.received = append(s.received, cloneParams(params))
	if s.execExc != nil {
		return driver.Result{}, s.execExc
	}
	if s.cols != nil {
		return driver.Result{Rows: NewRows(s.cols, s.rows...), UpdateCount: -1}, nil
	}
	return driver.Result{UpdateCount: s.updateCount}, nil
}

// AddBatch stages one parameter set, rejecting arity mismatches the way a
// foreign driver would.
func (st *Stmt) AddBatch(ctx context.Context, params []driver.Datum) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return stmtClosedExc()
	}

	st.script.mu.Lock()
	hints := st.script.paramTypes
	st.script.mu.Unlock()
	if len(hints) > 0 && len(params) != len(hints) {
		return &jerrors.ForeignException{
			Class:    "java.sql.SQLException",
			Message:  fmt.Sprintf("expected %d parameters, got %d", len(hints), len(params)),
			SQLState: "07001",
		}
	}

	st.batch = append(st.batch, cloneParams(params))
	return nil
}

// ExecuteBatch submits the staged sets. An injected failure surfaces as a
// *driver.BatchFault carrying the counts completed before it.
func (st *Stmt) ExecuteBatch(ctx context.Context) ([]int64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return nil, stmtClosedExc()
	}

	s := st.script
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchRuns++
	batch := st.batch
	st.batch = nil

	counts := make([]int64, 0, len(batch))
	for i, params := range batch {
		if s.batchFailAt >= 0 && i == s.batchFailAt {
			return nil, &driver.BatchFault{Index: i, Counts: counts, Cause: s.batchExc}
		}
		s.received = append(s.received, params)
		n := s.updateCount
		if n == 0 {
			n = 1
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// Close releases the statement. Idempotent.
func (st *Stmt) Close(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed = true
	st.batch = nil
	return nil
}

func cloneParams(params []driver.Datum) []driver.Datum {
	out := make([]driver.Datum, len(params))
	copy(out, params)
	return out
}
