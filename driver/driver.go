package driver

import (
	"context"

	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Info identifies a registered foreign driver.
type Info struct {
	ID      string // driver identifier used by ConnectionBridge.open
	Class   string // foreign driver class name, for diagnostics
	Version string
}

// Host owns the foreign runtime's driver registry. Implementations release
// every outstanding foreign object on Close.
type Host interface {
	// FindDriver resolves a driver identifier to a loaded driver.
	FindDriver(ctx context.Context, id string) (Driver, error)

	// Drivers lists everything registered with the runtime.
	Drivers() []Info

	// Close releases all drivers and their open connections.
	Close(ctx context.Context) error
}

// Driver is one vendor driver living inside the foreign runtime.
type Driver interface {
	Info() Info

	// Connect opens a foreign connection. On failure no partially
	// constructed foreign object survives: implementations release
	// anything they allocated before returning the error.
	Connect(ctx context.Context, url string, props map[string]string) (Conn, error)
}

// Conn is one foreign connection object. Not safe for concurrent use;
// exclusivity is the caller's responsibility.
type Conn interface {
	Prepare(ctx context.Context, sql string) (Stmt, error)
	SetAutoCommit(ctx context.Context, on bool) error
	AutoCommit(ctx context.Context) (bool, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Ping issues a lightweight round-trip. A non-nil error means the
	// connection is unusable; the bridge converts it to false.
	Ping(ctx context.Context) error

	// Meta exposes the foreign structural-metadata API.
	Meta() MetaReader

	Close(ctx context.Context) error
}

// Stmt is one foreign prepared statement. Lifetime is bounded by its
// owning connection.
type Stmt interface {
	// ParamTypes returns the expected parameter type codes, when the
	// foreign driver reports them. An empty slice means no hints.
	ParamTypes(ctx context.Context) ([]sqltype.Code, error)

	// Execute binds the encoded parameters and runs the statement.
	// Result.Rows is nil for statements without a result set.
	Execute(ctx context.Context, params []Datum) (Result, error)

	// AddBatch stages one parameter set. A rejected set is reported
	// before anything past it is staged.
	AddBatch(ctx context.Context, params []Datum) error

	// ExecuteBatch submits the staged sets. A row-level failure is
	// reported as *BatchFault with the failing index and the update
	// counts of the sets that completed.
	ExecuteBatch(ctx context.Context) ([]int64, error)

	Close(ctx context.Context) error
}

// Result is the outcome of one execute call.
type Result struct {
	Rows        Rows  // nil when the statement produced no result set
	UpdateCount int64 // -1 when unknown
}

// Rows is a forward-only foreign result cursor. It is single-pass and not
// restartable; re-querying requires a new execute.
type Rows interface {
	Columns() []sqltype.Descriptor
	Next(ctx context.Context) (bool, error)

	// Get returns the foreign representation of column col (0-based) in
	// the current row.
	Get(ctx context.Context, col int) (Datum, error)

	Close(ctx context.Context) error
}

// MetaReader is the foreign structural-metadata API. Result layouts follow
// the JDBC DatabaseMetaData result-set shapes; the meta package decodes and
// normalizes them.
type MetaReader interface {
	Schemas(ctx context.Context) (Rows, error)
	Tables(ctx context.Context, schema string) (Rows, error)
	Columns(ctx context.Context, schema, table string) (Rows, error)
	PrimaryKeys(ctx context.Context, schema, table string) (Rows, error)
	ImportedKeys(ctx context.Context, schema, table string) (Rows, error)
	IndexInfo(ctx context.Context, schema, table string) (Rows, error)
}

// BatchFault reports a row-level failure during ExecuteBatch.
type BatchFault struct {
	Index  int     // failing parameter set
	Counts []int64 // update counts completed before the failure
	Cause  error   // foreign exception for the failing set
}

func (f *BatchFault) Error() string {
	return f.Cause.Error()
}

func (f *BatchFault) Unwrap() error {
	return f.Cause
}
