package errors

import "strings"

// ForeignException carries a foreign-side failure across the call boundary.
// It is the only form in which driver implementations surface errors; the
// bridge translates it before anything reaches a caller.
type ForeignException struct {
	Class      string // fully qualified foreign exception class
	Message    string
	SQLState   string
	VendorCode string
}

// Error implements the error interface so a ForeignException can travel as
// the Cause of a translated Error.
func (e *ForeignException) Error() string {
	var b strings.Builder
	b.WriteString(e.Class)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Translation is table-driven: adding a vendor means adding rows, not types.
// Rules are evaluated in order; the first match wins. A rule matches when
// every non-empty field matches the exception.
type rule struct {
	classPrefix string
	stateClass  string // leading two characters of SQLSTATE
	vendorCode  string
	kind        Kind
}

var rules = []rule{
	// Vendor-specific rows first: they are the most precise signal.
	// MySQL reports everything as generic SQLExceptions with vendor codes.
	{classPrefix: "com.mysql.", vendorCode: "1045", kind: KindConnection}, // access denied
	{classPrefix: "com.mysql.", vendorCode: "1062", kind: KindIntegrity},  // duplicate key
	{classPrefix: "com.mysql.", vendorCode: "1064", kind: KindProgramming},
	{classPrefix: "com.mysql.", vendorCode: "1146", kind: KindProgramming}, // unknown table
	{classPrefix: "com.mysql.", vendorCode: "1205", kind: KindOperational}, // lock wait timeout
	{classPrefix: "com.mysql.", vendorCode: "1213", kind: KindOperational}, // deadlock

	// Standard JDBC exception hierarchy.
	{classPrefix: "java.sql.SQLIntegrityConstraintViolationException", kind: KindIntegrity},
	{classPrefix: "java.sql.SQLSyntaxErrorException", kind: KindProgramming},
	{classPrefix: "java.sql.SQLTransientConnectionException", kind: KindConnection},
	{classPrefix: "java.sql.SQLNonTransientConnectionException", kind: KindConnection},
	{classPrefix: "java.sql.SQLInvalidAuthorizationSpecException", kind: KindConnection},
	// A timeout while still establishing the connection (SQLSTATE class 08)
	// is a connection failure; timeouts past that point are operational.
	{classPrefix: "java.sql.SQLTimeoutException", stateClass: "08", kind: KindConnection},
	{classPrefix: "java.sql.SQLTimeoutException", kind: KindOperational},
	{classPrefix: "java.sql.SQLTransactionRollbackException", kind: KindOperational},
	{classPrefix: "java.sql.SQLDataException", kind: KindData},
	{classPrefix: "java.sql.DataTruncation", kind: KindData},
	{classPrefix: "java.sql.SQLFeatureNotSupportedException", kind: KindNotSupported},
	{classPrefix: "java.sql.SQLClientInfoException", kind: KindOperational},
	{classPrefix: "java.net.", kind: KindConnection},
	{classPrefix: "java.io.", kind: KindOperational},

	// SQLSTATE class fallbacks, for drivers that only subclass SQLException.
	{stateClass: "08", kind: KindConnection},   // connection exception
	{stateClass: "28", kind: KindConnection},   // invalid authorization
	{stateClass: "22", kind: KindData},         // data exception
	{stateClass: "23", kind: KindIntegrity},    // integrity constraint violation
	{stateClass: "40", kind: KindOperational},  // transaction rollback
	{stateClass: "42", kind: KindProgramming},  // syntax error or access rule
	{stateClass: "0A", kind: KindNotSupported}, // feature not supported
	{stateClass: "XX", kind: KindInternal},     // internal error (PostgreSQL)
	{stateClass: "57", kind: KindOperational},  // operator intervention
	{stateClass: "53", kind: KindOperational},  // insufficient resources
}

func (r *rule) matches(exc *ForeignException) bool {
	if r.classPrefix != "" && !strings.HasPrefix(exc.Class, r.classPrefix) {
		return false
	}
	if r.stateClass != "" {
		if len(exc.SQLState) < 2 || exc.SQLState[:2] != r.stateClass {
			return false
		}
	}
	if r.vendorCode != "" && exc.VendorCode != r.vendorCode {
		return false
	}
	return true
}

// Translate maps a foreign exception to exactly one taxonomy kind.
// Unmapped exceptions become KindDatabase; translation itself never fails.
func Translate(exc *ForeignException) *Error {
	kind := KindDatabase
	for i := range rules {
		if rules[i].matches(exc) {
			kind = rules[i].kind
			break
		}
	}

	return &Error{
		Kind:       kind,
		Message:    exc.Message,
		Class:      exc.Class,
		SQLState:   exc.SQLState,
		VendorCode: exc.VendorCode,
		Cause:      exc,
	}
}

// TranslateErr normalizes any error crossing the foreign boundary.
// Already-translated errors pass through; raw foreign exceptions are
// translated; anything else is wrapped as KindDatabase so no untyped error
// escapes a component.
func TranslateErr(err error) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *Error:
		return e
	case *BatchError:
		return e
	case *ForeignException:
		return Translate(e)
	default:
		return &Error{Kind: KindDatabase, Message: err.Error(), Cause: err}
	}
}
