package errors

import (
	"errors"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		exc  ForeignException
		want Kind
	}{
		{
			name: "integrity by class",
			exc:  ForeignException{Class: "java.sql.SQLIntegrityConstraintViolationException"},
			want: KindIntegrity,
		},
		{
			name: "syntax by class",
			exc:  ForeignException{Class: "java.sql.SQLSyntaxErrorException", SQLState: "42601"},
			want: KindProgramming,
		},
		{
			name: "timeout by class",
			exc:  ForeignException{Class: "java.sql.SQLTimeoutException"},
			want: KindOperational,
		},
		{
			name: "connect-phase timeout is a connection failure",
			exc:  ForeignException{Class: "java.sql.SQLTimeoutException", SQLState: "08001"},
			want: KindConnection,
		},
		{
			name: "statement timeout stays operational",
			exc:  ForeignException{Class: "java.sql.SQLTimeoutException", SQLState: "57014"},
			want: KindOperational,
		},
		{
			name: "feature not supported",
			exc:  ForeignException{Class: "java.sql.SQLFeatureNotSupportedException"},
			want: KindNotSupported,
		},
		{
			name: "connection refused surfaces as network class",
			exc:  ForeignException{Class: "java.net.ConnectException", Message: "Connection refused"},
			want: KindConnection,
		},
		{
			name: "postgres duplicate key by SQLSTATE",
			exc:  ForeignException{Class: "org.postgresql.util.PSQLException", SQLState: "23505"},
			want: KindIntegrity,
		},
		{
			name: "postgres bad auth by SQLSTATE",
			exc:  ForeignException{Class: "org.postgresql.util.PSQLException", SQLState: "28P01"},
			want: KindConnection,
		},
		{
			name: "postgres syntax by SQLSTATE",
			exc:  ForeignException{Class: "org.postgresql.util.PSQLException", SQLState: "42P01"},
			want: KindProgramming,
		},
		{
			name: "postgres internal by SQLSTATE",
			exc:  ForeignException{Class: "org.postgresql.util.PSQLException", SQLState: "XX000"},
			want: KindInternal,
		},
		{
			name: "mysql duplicate key by vendor code",
			exc:  ForeignException{Class: "com.mysql.cj.jdbc.exceptions.MysqlDataTruncation", VendorCode: "1062"},
			want: KindIntegrity,
		},
		{
			name: "mysql access denied by vendor code",
			exc:  ForeignException{Class: "com.mysql.cj.jdbc.exceptions.CommunicationsException", VendorCode: "1045"},
			want: KindConnection,
		},
		{
			name: "mysql deadlock by vendor code",
			exc:  ForeignException{Class: "com.mysql.cj.jdbc.exceptions.MySQLTransactionRollbackException", VendorCode: "1213"},
			want: KindOperational,
		},
		{
			name: "data exception by SQLSTATE",
			exc:  ForeignException{Class: "java.sql.SQLException", SQLState: "22003"},
			want: KindData,
		},
		{
			name: "unknown class without SQLSTATE is catch-all",
			exc:  ForeignException{Class: "com.example.WeirdVendorException", Message: "boom"},
			want: KindDatabase,
		},
		{
			name: "empty exception is catch-all",
			exc:  ForeignException{},
			want: KindDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(&tt.exc)
			if got.Kind != tt.want {
				t.Errorf("Translate(%+v).Kind = %s, want %s", tt.exc, got.Kind, tt.want)
			}
			if got.Class != tt.exc.Class || got.SQLState != tt.exc.SQLState {
				t.Error("translated error lost foreign diagnostics")
			}
			if tt.exc.Class != "" && got.Cause == nil {
				t.Error("translated error lost its cause")
			}
		})
	}
}

func TestTranslateErr(t *testing.T) {
	// Already-translated errors pass through untouched.
	orig := CursorClosed()
	if got := TranslateErr(orig); got != orig {
		t.Error("translated error did not pass through")
	}

	// Raw foreign exceptions are translated.
	exc := &ForeignException{Class: "java.sql.SQLDataException", SQLState: "22001"}
	if !errors.Is(TranslateErr(exc), &Error{Kind: KindData}) {
		t.Error("foreign exception not translated")
	}

	// Untyped errors become the catch-all kind.
	if !errors.Is(TranslateErr(errors.New("boom")), &Error{Kind: KindDatabase}) {
		t.Error("untyped error not wrapped as database error")
	}

	if TranslateErr(nil) != nil {
		t.Error("nil did not stay nil")
	}
}
