package driver

import (
	"io"

	"github.com/vexdb/jdbc-bridge/sqltype"
)

// DatumKind tags the foreign representation variant.
type DatumKind uint8

const (
	DatumNull DatumKind = iota
	DatumBool
	DatumInt
	DatumFloat
	DatumDecimal // string form of a foreign BigDecimal
	DatumText
	DatumBytes
	DatumTemporal // epoch millis + sub-second nanos, java.sql.Timestamp style
	DatumArray
	DatumLob // large value streamed through a LobReader
	DatumOpaque
)

// Datum is the raw foreign-side form of one column value or parameter.
// It mirrors what the foreign accessors hand back (getLong, getBigDecimal,
// getTimestamp, ...) without interpreting it; interpretation belongs to the
// type converter.
type Datum struct {
	Kind    DatumKind
	SQLType sqltype.Code // foreign SQL type; carries the typed-null code

	Bool  bool
	Int   int64
	Float float64
	Str   string // DatumDecimal and DatumText
	Bytes []byte

	// Temporal values keep the foreign split of epoch milliseconds plus
	// sub-second nanoseconds so no precision is lost in transit.
	Millis int64
	Nanos  int32

	Elems []Datum
	Lob   LobReader
	Raw   any
}

// LobReader streams a large binary or character value out of the foreign
// runtime in bounded chunks. Len may return -1 when the driver cannot
// report the total size up front.
type LobReader interface {
	io.Reader
	io.Closer
	Len() int64
}

// NullDatum returns a typed null for the given foreign SQL type. Several
// foreign setters require the type code alongside the null marker.
func NullDatum(code sqltype.Code) Datum {
	return Datum{Kind: DatumNull, SQLType: code}
}
