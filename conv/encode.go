package conv

import (
	"math"
	"math/big"
	"strconv"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Integer column widths. Encoding never narrows silently: a host integer
// that does not fit the target width fails with a value-range error.
const (
	maxTinyInt  = 127
	minTinyInt  = -128
	maxSmallInt = 32767
	minSmallInt = -32768
)

// maxExactFloat is the largest integer magnitude a float64 represents
// exactly (2^53).
const maxExactFloat = int64(1) << 53

// Encode maps a host value to its foreign representation under the given
// type hint. Nulls are encoded as typed nulls carrying the hint's SQL type
// code, because several foreign setters require one.
func (c *Converter) Encode(v sqltype.Value, hint sqltype.Code) (driver.Datum, error) {
	if v.IsNull() {
		return driver.NullDatum(hint), nil
	}

	switch hint {
	case sqltype.Bit, sqltype.Boolean:
		if v.Kind != sqltype.KindBool {
			return driver.Datum{}, encodeMismatch(v, hint)
		}
		return driver.Datum{Kind: driver.DatumBool, SQLType: hint, Bool: v.Bool}, nil

	case sqltype.TinyInt:
		return c.encodeInt(v, hint, minTinyInt, maxTinyInt)
	case sqltype.SmallInt:
		return c.encodeInt(v, hint, minSmallInt, maxSmallInt)
	case sqltype.Integer:
		return c.encodeInt(v, hint, math.MinInt32, math.MaxInt32)
	case sqltype.BigInt:
		return c.encodeInt(v, hint, math.MinInt64, math.MaxInt64)

	case sqltype.Numeric, sqltype.Decimal:
		return c.encodeDecimal(v, hint)

	case sqltype.Float, sqltype.Real, sqltype.Double:
		return c.encodeFloat(v, hint)

	case sqltype.Char, sqltype.VarChar, sqltype.LongVarChar:
		if v.Kind != sqltype.KindText {
			return driver.Datum{}, encodeMismatch(v, hint)
		}
		return driver.Datum{Kind: driver.DatumText, SQLType: hint, Str: v.Str}, nil

	case sqltype.Clob, sqltype.NClob:
		if v.Kind != sqltype.KindText {
			return driver.Datum{}, encodeMismatch(v, hint)
		}
		return driver.Datum{
			Kind:    driver.DatumLob,
			SQLType: hint,
			Lob:     driver.NewStringLob(v.Str),
		}, nil

	case sqltype.Binary, sqltype.VarBinary:
		if v.Kind != sqltype.KindBytes {
			return driver.Datum{}, encodeMismatch(v, hint)
		}
		return driver.Datum{Kind: driver.DatumBytes, SQLType: hint, Bytes: v.Bytes}, nil

	case sqltype.LongVarBinary, sqltype.Blob:
		if v.Kind != sqltype.KindBytes {
			return driver.Datum{}, encodeMismatch(v, hint)
		}
		return driver.Datum{
			Kind:    driver.DatumLob,
			SQLType: hint,
			Lob:     driver.NewBytesLob(v.Bytes),
		}, nil

	case sqltype.Date, sqltype.Time, sqltype.Timestamp:
		return c.encodeTemporal(v, hint)

	case sqltype.Array:
		return c.encodeArray(v)

	default:
		// Unknown hint: pass the host form through opaquely and let the
		// foreign generic setter take it.
		return driver.Datum{Kind: driver.DatumOpaque, SQLType: hint, Raw: v.Go()}, nil
	}
}

// EncodeNatural encodes a host value under its natural SQL type, for
// statements whose foreign driver reports no parameter type hints.
func (c *Converter) EncodeNatural(v sqltype.Value) (driver.Datum, error) {
	return c.Encode(v, naturalCode(v))
}

func (c *Converter) encodeInt(v sqltype.Value, hint sqltype.Code, lo, hi int64) (driver.Datum, error) {
	if v.Kind != sqltype.KindInt {
		return driver.Datum{}, encodeMismatch(v, hint)
	}
	if v.Int < lo || v.Int > hi {
		return driver.Datum{}, jerrors.ValueRange(v.Int, hint.String())
	}
	return driver.Datum{Kind: driver.DatumInt, SQLType: hint, Int: v.Int}, nil
}

// encodeDecimal moves arbitrary-precision values through their string
// representation; the foreign side parses it into a BigDecimal. No float
// conversion happens on this path.
func (c *Converter) encodeDecimal(v sqltype.Value, hint sqltype.Code) (driver.Datum, error) {
	var s string
	switch v.Kind {
	case sqltype.KindDecimal:
		if _, ok := new(big.Rat).SetString(v.Str); !ok {
			return driver.Datum{}, jerrors.New(jerrors.KindData,
				"malformed decimal literal %q", v.Str)
		}
		s = v.Str
	case sqltype.KindInt:
		s = strconv.FormatInt(v.Int, 10)
	case sqltype.KindFloat:
		// Shortest round-trip form; exact for every float64.
		s = strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return driver.Datum{}, encodeMismatch(v, hint)
	}
	return driver.Datum{Kind: driver.DatumDecimal, SQLType: hint, Str: s}, nil
}

func (c *Converter) encodeFloat(v sqltype.Value, hint sqltype.Code) (driver.Datum, error) {
	switch v.Kind {
	case sqltype.KindFloat:
		return driver.Datum{Kind: driver.DatumFloat, SQLType: hint, Float: v.Float}, nil
	case sqltype.KindInt:
		if v.Int > maxExactFloat || v.Int < -maxExactFloat {
			return driver.Datum{}, jerrors.ValueRange(v.Int, hint.String())
		}
		return driver.Datum{Kind: driver.DatumFloat, SQLType: hint, Float: float64(v.Int)}, nil
	default:
		return driver.Datum{}, encodeMismatch(v, hint)
	}
}

// encodeTemporal keeps the foreign split of epoch milliseconds plus full
// sub-second nanoseconds, preserving at least microsecond precision.
func (c *Converter) encodeTemporal(v sqltype.Value, hint sqltype.Code) (driver.Datum, error) {
	switch v.Kind {
	case sqltype.KindDate, sqltype.KindTime, sqltype.KindTimestamp:
	default:
		return driver.Datum{}, encodeMismatch(v, hint)
	}
	t := v.Time
	return driver.Datum{
		Kind:    driver.DatumTemporal,
		SQLType: hint,
		Millis:  t.UnixMilli(),
		Nanos:   int32(t.Nanosecond()),
	}, nil
}

// encodeArray re-enters the converter per element. The element hint is the
// natural code of each element value, since the ARRAY hint itself carries
// no element type.
func (c *Converter) encodeArray(v sqltype.Value) (driver.Datum, error) {
	if v.Kind != sqltype.KindArray {
		return driver.Datum{}, encodeMismatch(v, sqltype.Array)
	}
	elems := make([]driver.Datum, len(v.Elems))
	for i, e := range v.Elems {
		d, err := c.Encode(e, naturalCode(e))
		if err != nil {
			return driver.Datum{}, err
		}
		elems[i] = d
	}
	return driver.Datum{Kind: driver.DatumArray, SQLType: sqltype.Array, Elems: elems}, nil
}

// naturalCode picks the SQL type an untyped host value maps to.
func naturalCode(v sqltype.Value) sqltype.Code {
	switch v.Kind {
	case sqltype.KindBool:
		return sqltype.Boolean
	case sqltype.KindInt:
		return sqltype.BigInt
	case sqltype.KindDecimal:
		return sqltype.Numeric
	case sqltype.KindFloat:
		return sqltype.Double
	case sqltype.KindText:
		return sqltype.VarChar
	case sqltype.KindBytes:
		return sqltype.VarBinary
	case sqltype.KindDate:
		return sqltype.Date
	case sqltype.KindTime:
		return sqltype.Time
	case sqltype.KindTimestamp:
		return sqltype.Timestamp
	case sqltype.KindArray:
		return sqltype.Array
	default:
		return sqltype.Other
	}
}

func encodeMismatch(v sqltype.Value, hint sqltype.Code) error {
	return jerrors.New(jerrors.KindProgramming,
		"cannot encode %s value as %s", v.Kind, hint)
}
