package errors

import (
	"fmt"
	"strings"
)

// Kind is the closed taxonomy every foreign-side failure maps into.
// No foreign exception type ever crosses a component boundary unwrapped;
// callers dispatch on Kind (and Code), never on the foreign cause.
type Kind string

const (
	KindConnection   Kind = "connection"    // network, auth, unreachable host
	KindIntegrity    Kind = "integrity"     // constraint violations
	KindProgramming  Kind = "programming"   // bad SQL, misuse of the API
	KindOperational  Kind = "operational"   // timeouts, deadlocks, runtime state
	KindData         Kind = "data"          // value conversion and range failures
	KindInternal     Kind = "internal"      // bridge or driver internal faults
	KindNotSupported Kind = "not_supported" // feature absent in driver or bridge
	KindDatabase     Kind = "database"      // catch-all for unmapped foreign errors
)

// Code narrows a Kind to a specific bridge condition so callers can match
// with errors.Is without growing the taxonomy.
type Code string

const (
	CodeRuntimeStart     Code = "runtime_start"
	CodeRuntimeNotReady  Code = "runtime_not_ready"
	CodeDriverNotFound   Code = "driver_not_found"
	CodeTransactionState Code = "transaction_state"
	CodeValueRange       Code = "value_range"
	CodeCursorClosed     Code = "cursor_closed"
	CodeConnectionClosed Code = "connection_closed"
	CodeNoResult         Code = "no_result"
)

// Error is the structured error type used throughout the bridge.
// For translated foreign failures it retains the foreign class name,
// SQLSTATE and vendor code for diagnostics.
type Error struct {
	Kind       Kind
	Code       Code
	Message    string
	Class      string // foreign exception class, if translated
	SQLState   string
	VendorCode string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.Code != "" {
		b.WriteByte(' ')
		b.WriteString(string(e.Code))
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Class != "" || e.SQLState != "" || e.VendorCode != "" {
		b.WriteString(" (")
		sep := ""
		if e.Class != "" {
			b.WriteString(e.Class)
			sep = ", "
		}
		if e.SQLState != "" {
			b.WriteString(sep)
			b.WriteString("SQLSTATE ")
			b.WriteString(e.SQLState)
			sep = ", "
		}
		if e.VendorCode != "" {
			b.WriteString(sep)
			b.WriteString("vendor ")
			b.WriteString(e.VendorCode)
		}
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two errors match when their
// Kinds are equal and, if the target carries a Code, the Codes are equal too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// Sentinels for errors.Is matching. Message-free on purpose: only Kind and
// Code participate in matching.
var (
	ErrRuntimeStart     = &Error{Kind: KindOperational, Code: CodeRuntimeStart}
	ErrRuntimeNotReady  = &Error{Kind: KindOperational, Code: CodeRuntimeNotReady}
	ErrDriverNotFound   = &Error{Kind: KindOperational, Code: CodeDriverNotFound}
	ErrTransactionState = &Error{Kind: KindProgramming, Code: CodeTransactionState}
	ErrValueRange       = &Error{Kind: KindData, Code: CodeValueRange}
	ErrCursorClosed     = &Error{Kind: KindProgramming, Code: CodeCursorClosed}
	ErrConnectionClosed = &Error{Kind: KindProgramming, Code: CodeConnectionClosed}
	ErrNoResult         = &Error{Kind: KindProgramming, Code: CodeNoResult}
)

// New creates an error of the given kind.
func New(kind Kind, msg string, args ...any) *Error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &Error{Kind: kind, Message: msg}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, cause error, msg string, args ...any) *Error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// RuntimeStart reports a failed foreign-runtime start. The failure is fatal
// to the bridge; callers may retry Start with adjusted options but the
// bridge never retries internally.
func RuntimeStart(cause error, msg string) *Error {
	return &Error{Kind: KindOperational, Code: CodeRuntimeStart, Message: msg, Cause: cause}
}

// RuntimeNotReady reports a foreign call attempted before the runtime
// reached Ready, or after shutdown.
func RuntimeNotReady(state string) *Error {
	return &Error{
		Kind:    KindOperational,
		Code:    CodeRuntimeNotReady,
		Message: fmt.Sprintf("foreign runtime is not ready (state %s)", state),
	}
}

// DriverNotFound reports an unknown driver identifier.
func DriverNotFound(id string) *Error {
	return &Error{
		Kind:    KindOperational,
		Code:    CodeDriverNotFound,
		Message: fmt.Sprintf("driver %q is not registered with the runtime", id),
	}
}

// TransactionState reports a transaction operation on a closed connection.
func TransactionState(op string) *Error {
	return &Error{
		Kind:    KindProgramming,
		Code:    CodeTransactionState,
		Message: fmt.Sprintf("%s on a closed connection", op),
	}
}

// ValueRange reports a host value that does not fit the target foreign
// column width. Narrowing is never silent.
func ValueRange(value any, target string) *Error {
	return &Error{
		Kind:    KindData,
		Code:    CodeValueRange,
		Message: fmt.Sprintf("value %v does not fit %s", value, target),
	}
}

// CursorClosed reports a fetch or execute on a released cursor.
func CursorClosed() *Error {
	return &Error{Kind: KindProgramming, Code: CodeCursorClosed, Message: "cursor is closed"}
}

// ConnectionClosed reports an operation on a released connection.
func ConnectionClosed() *Error {
	return &Error{Kind: KindProgramming, Code: CodeConnectionClosed, Message: "connection is closed"}
}

// NoResult reports a fetch with no open result set.
func NoResult() *Error {
	return &Error{Kind: KindProgramming, Code: CodeNoResult, Message: "no open result set; execute a query first"}
}

// NotSupported reports a feature the driver or bridge does not implement.
func NotSupported(what string) *Error {
	return &Error{Kind: KindNotSupported, Message: what}
}

// Internal reports a bridge-internal fault.
func Internal(cause error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// BatchError reports the first row-level failure inside a batched
// submission. No parameter set past FailedIndex was submitted to the
// foreign driver. Partial holds the update counts of the sets that
// completed before the failure.
type BatchError struct {
	FailedIndex int
	Partial     []int64
	Cause       error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	msg := fmt.Sprintf("batch failed at parameter set %d (%d sets completed)",
		e.FailedIndex, len(e.Partial))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the row-level failure.
func (e *BatchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a BatchError.
func (e *BatchError) Is(target error) bool {
	_, ok := target.(*BatchError)
	return ok
}
