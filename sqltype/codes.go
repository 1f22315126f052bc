package sqltype

import "strconv"

// Code is an enumerated SQL column type identifier, shared between row
// decoding and metadata introspection. Values follow the java.sql.Types
// constants because that is what foreign drivers report.
type Code int32

const (
	Bit           Code = -7
	TinyInt       Code = -6
	BigInt        Code = -5
	LongVarBinary Code = -4
	VarBinary     Code = -3
	Binary        Code = -2
	LongVarChar   Code = -1
	Null          Code = 0
	Char          Code = 1
	Numeric       Code = 2
	Decimal       Code = 3
	Integer       Code = 4
	SmallInt      Code = 5
	Float         Code = 6
	Real          Code = 7
	Double        Code = 8
	VarChar       Code = 12
	Boolean       Code = 16
	Date          Code = 91
	Time          Code = 92
	Timestamp     Code = 93
	Other         Code = 1111
	Array         Code = 2003
	Blob          Code = 2004
	Clob          Code = 2005
	NClob         Code = 2011
)

var codeNames = map[Code]string{
	Bit:           "BIT",
	TinyInt:       "TINYINT",
	BigInt:        "BIGINT",
	LongVarBinary: "LONGVARBINARY",
	VarBinary:     "VARBINARY",
	Binary:        "BINARY",
	LongVarChar:   "LONGVARCHAR",
	Null:          "NULL",
	Char:          "CHAR",
	Numeric:       "NUMERIC",
	Decimal:       "DECIMAL",
	Integer:       "INTEGER",
	SmallInt:      "SMALLINT",
	Float:         "FLOAT",
	Real:          "REAL",
	Double:        "DOUBLE",
	VarChar:       "VARCHAR",
	Boolean:       "BOOLEAN",
	Date:          "DATE",
	Time:          "TIME",
	Timestamp:     "TIMESTAMP",
	Other:         "OTHER",
	Array:         "ARRAY",
	Blob:          "BLOB",
	Clob:          "CLOB",
	NClob:         "NCLOB",
}

// String returns the SQL name of the code, or the numeric value for codes
// outside the supported set.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "SQL(" + strconv.Itoa(int(c)) + ")"
}

// Known reports whether the code is part of the supported vocabulary.
// Unknown codes still decode, but only through the opaque fallback.
func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}
