package conv

import (
	"errors"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Decode maps a foreign datum to the host variant implied by the column
// descriptor. Decoding degrades instead of failing: a type code or datum
// shape with no specific decoder falls back to the opaque variant with a
// logged diagnostic. Only transport failures (a LOB stream breaking mid
// read) produce an error, because those lose data.
func (c *Converter) Decode(d driver.Datum, desc sqltype.Descriptor) (sqltype.Value, error) {
	if d.Kind == driver.DatumNull {
		return sqltype.NullValue(), nil
	}

	switch desc.TypeCode {
	case sqltype.Bit, sqltype.Boolean:
		switch d.Kind {
		case driver.DatumBool:
			return sqltype.BoolValue(d.Bool), nil
		case driver.DatumInt:
			return sqltype.BoolValue(d.Int != 0), nil
		}

	case sqltype.TinyInt, sqltype.SmallInt, sqltype.Integer, sqltype.BigInt:
		if d.Kind == driver.DatumInt {
			return sqltype.IntValue(d.Int), nil
		}

	case sqltype.Numeric, sqltype.Decimal:
		switch d.Kind {
		case driver.DatumDecimal:
			return sqltype.DecimalValue(d.Str), nil
		case driver.DatumInt:
			return sqltype.DecimalValue(strconv.FormatInt(d.Int, 10)), nil
		}

	case sqltype.Float, sqltype.Real, sqltype.Double:
		switch d.Kind {
		case driver.DatumFloat:
			return sqltype.FloatValue(d.Float), nil
		case driver.DatumInt:
			return sqltype.FloatValue(float64(d.Int)), nil
		}

	case sqltype.Char, sqltype.VarChar, sqltype.LongVarChar:
		switch d.Kind {
		case driver.DatumText:
			return sqltype.TextValue(d.Str), nil
		case driver.DatumLob:
			b, err := c.readLob(d.Lob)
			if err != nil {
				return sqltype.Value{}, err
			}
			return sqltype.TextValue(string(b)), nil
		}

	case sqltype.Clob, sqltype.NClob:
		switch d.Kind {
		case driver.DatumLob:
			b, err := c.readLob(d.Lob)
			if err != nil {
				return sqltype.Value{}, err
			}
			return sqltype.TextValue(string(b)), nil
		case driver.DatumText:
			return sqltype.TextValue(d.Str), nil
		}

	case sqltype.Binary, sqltype.VarBinary:
		switch d.Kind {
		case driver.DatumBytes:
			return sqltype.BytesValue(d.Bytes), nil
		case driver.DatumLob:
			b, err := c.readLob(d.Lob)
			if err != nil {
				return sqltype.Value{}, err
			}
			return sqltype.BytesValue(b), nil
		}

	case sqltype.LongVarBinary, sqltype.Blob:
		switch d.Kind {
		case driver.DatumLob:
			b, err := c.readLob(d.Lob)
			if err != nil {
				return sqltype.Value{}, err
			}
			return sqltype.BytesValue(b), nil
		case driver.DatumBytes:
			return sqltype.BytesValue(d.Bytes), nil
		}

	case sqltype.Date:
		if d.Kind == driver.DatumTemporal {
			return sqltype.DateValue(temporalTime(d)), nil
		}

	case sqltype.Time:
		if d.Kind == driver.DatumTemporal {
			return sqltype.TimeOfDay(temporalTime(d)), nil
		}

	case sqltype.Timestamp:
		if d.Kind == driver.DatumTemporal {
			return sqltype.TimestampValue(temporalTime(d)), nil
		}

	case sqltype.Array:
		if d.Kind == driver.DatumArray {
			return c.decodeArray(d, desc)
		}
	}

	// No specific decoder matched: degrade to the opaque variant rather
	// than failing the row.
	c.log.Debug("no decoder for column, falling back to opaque",
		zap.String("column", desc.Name),
		zap.String("type", desc.TypeCode.String()),
		zap.Int("datum_kind", int(d.Kind)))
	return sqltype.OpaqueValue(opaqueRaw(d)), nil
}

// decodeArray re-enters the converter per element with the element's
// descriptor derived from the array column.
func (c *Converter) decodeArray(d driver.Datum, desc sqltype.Descriptor) (sqltype.Value, error) {
	elemDesc := sqltype.Descriptor{
		Name:     desc.Name + "[]",
		TypeCode: desc.ElementCode(),
		TypeName: desc.TypeName,
	}
	elems := make([]sqltype.Value, len(d.Elems))
	for i, e := range d.Elems {
		v, err := c.Decode(e, elemDesc)
		if err != nil {
			return sqltype.Value{}, err
		}
		elems[i] = v
	}
	return sqltype.ArrayValue(elems), nil
}

// readLob drains a foreign LOB through bounded chunks.
func (c *Converter) readLob(lob driver.LobReader) ([]byte, error) {
	if lob == nil {
		return nil, jerrors.New(jerrors.KindInternal, "driver returned a LOB datum without a reader")
	}
	defer lob.Close()

	var out []byte
	if n := lob.Len(); n > 0 {
		out = make([]byte, 0, n)
	}
	buf := make([]byte, c.chunkSize)
	for {
		n, err := lob.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, jerrors.Wrap(jerrors.KindData, err, "LOB stream failed mid-read")
		}
	}
	return out, nil
}

// temporalTime reconstructs a time.Time from the foreign epoch-millis plus
// sub-second-nanos split. The nanos carry the full sub-second component,
// so the millisecond part of Millis is replaced, not added.
func temporalTime(d driver.Datum) time.Time {
	sec := d.Millis / 1000
	if d.Millis < 0 && d.Millis%1000 != 0 {
		sec-- // floor division for pre-epoch values
	}
	return time.Unix(sec, int64(d.Nanos)).UTC()
}

// opaqueRaw preserves whatever the datum held for diagnostics.
func opaqueRaw(d driver.Datum) any {
	switch d.Kind {
	case driver.DatumBool:
		return d.Bool
	case driver.DatumInt:
		return d.Int
	case driver.DatumFloat:
		return d.Float
	case driver.DatumDecimal, driver.DatumText:
		return d.Str
	case driver.DatumBytes:
		return d.Bytes
	case driver.DatumTemporal:
		return temporalTime(d)
	default:
		return d.Raw
	}
}
