package sqltype

import "strings"

// Vendor type names as reported through the structural-metadata API.
// Normalization keeps reflection on the same vocabulary as row decoding.
// Rows cover the common PostgreSQL, MySQL, Oracle and standard SQL names;
// adding a vendor means adding rows.
var nameCodes = map[string]Code{
	"bit":               Bit,
	"bool":              Boolean,
	"boolean":           Boolean,
	"tinyint":           TinyInt,
	"int1":              TinyInt,
	"smallint":          SmallInt,
	"int2":              SmallInt,
	"mediumint":         Integer,
	"int":               Integer,
	"int4":              Integer,
	"integer":           Integer,
	"serial":            Integer,
	"bigint":            BigInt,
	"int8":              BigInt,
	"bigserial":         BigInt,
	"numeric":           Numeric,
	"decimal":           Decimal,
	"number":            Numeric,
	"float":             Float,
	"float4":            Real,
	"real":              Real,
	"float8":            Double,
	"double":            Double,
	"double precision":  Double,
	"char":              Char,
	"character":         Char,
	"bpchar":            Char,
	"nchar":             Char,
	"varchar":           VarChar,
	"varchar2":          VarChar,
	"nvarchar":          VarChar,
	"character varying": VarChar,
	"text":              LongVarChar,
	"longtext":          LongVarChar,
	"mediumtext":        LongVarChar,
	"tinytext":          LongVarChar,
	"binary":            Binary,
	"varbinary":         VarBinary,
	"raw":               VarBinary,
	"bytea":             LongVarBinary,
	"longblob":          Blob,
	"mediumblob":        Blob,
	"tinyblob":          VarBinary,
	"blob":              Blob,
	"clob":              Clob,
	"nclob":             NClob,
	"date":              Date,
	"time":              Time,
	"timetz":            Time,
	"timestamp":         Timestamp,
	"timestamptz":       Timestamp,
	"datetime":          Timestamp,
	"array":             Array,
}

// NameToCode resolves a vendor type name to a type code. Array markers
// ("integer[]", "_int4") resolve to the element's code; HasTable-style
// callers that need the array itself check the descriptor's TypeCode.
func NameToCode(name string) (Code, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Other, false
	}

	// PostgreSQL spells array element types "_int4" and standard SQL
	// spells them "integer[]"; strip both markers.
	n = strings.TrimPrefix(n, "_")
	n = strings.TrimSuffix(n, "[]")

	// Drop length and precision suffixes: "varchar(255)", "numeric(10,2)".
	if i := strings.IndexByte(n, '('); i > 0 {
		n = strings.TrimSpace(n[:i])
	}

	code, ok := nameCodes[n]
	if !ok {
		return Other, false
	}
	return code, true
}
