package sqltype

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindDecimal // arbitrary precision, string-encoded
	KindFloat
	KindText
	KindBytes
	KindDate
	KindTime
	KindTimestamp
	KindArray
	KindOpaque // opaque-foreign fallback; value preserved, not interpreted
)

var kindNames = [...]string{
	"null", "bool", "int", "decimal", "float", "text", "bytes",
	"date", "time", "timestamp", "array", "opaque",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is the host-side tagged union over every decodable column value.
// The variant always matches the type code implied by the column's
// Descriptor; a decode that cannot pick a specific variant produces
// KindOpaque, never a silently mangled value.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string // KindText and KindDecimal
	Bytes []byte
	Time  time.Time // KindDate, KindTime, KindTimestamp (UTC)
	Elems []Value   // KindArray
	Raw   any       // KindOpaque
}

func NullValue() Value              { return Value{Kind: KindNull} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value        { return Value{Kind: KindInt, Int: i} }
func DecimalValue(s string) Value   { return Value{Kind: KindDecimal, Str: s} }
func FloatValue(f float64) Value    { return Value{Kind: KindFloat, Float: f} }
func TextValue(s string) Value      { return Value{Kind: KindText, Str: s} }
func BytesValue(b []byte) Value     { return Value{Kind: KindBytes, Bytes: b} }
func ArrayValue(el []Value) Value   { return Value{Kind: KindArray, Elems: el} }
func OpaqueValue(raw any) Value     { return Value{Kind: KindOpaque, Raw: raw} }
func TimestampValue(t time.Time) Value {
	return Value{Kind: KindTimestamp, Time: t.UTC()}
}

// DateValue truncates to midnight UTC; a DATE has no time component.
func DateValue(t time.Time) Value {
	y, m, d := t.UTC().Date()
	return Value{Kind: KindDate, Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// TimeOfDay anchors the value to the epoch day; a TIME has no date
// component.
func TimeOfDay(t time.Time) Value {
	u := t.UTC()
	return Value{Kind: KindTime, Time: time.Date(1970, 1, 1,
		u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)}
}

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports deep equality. Floats compare exactly; callers that need
// epsilon comparison (round-trips through foreign FLOAT columns) handle
// that themselves.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindDecimal, KindText:
		return v.Str == o.Str
	case KindBytes:
		return string(v.Bytes) == string(o.Bytes)
	case KindDate, KindTime, KindTimestamp:
		return v.Time.Equal(o.Time)
	case KindArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	case KindOpaque:
		return fmt.Sprint(v.Raw) == fmt.Sprint(o.Raw)
	}
	return false
}

// Go returns the natural Go representation of the value, for display and
// for the export layer. Decimals stay strings.
func (v Value) Go() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindDecimal, KindText:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindDate, KindTime, KindTimestamp:
		return v.Time
	case KindArray:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = e.Go()
		}
		return out
	default:
		return v.Raw
	}
}

// String renders the value for logs and the shell.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindDecimal, KindText:
		return v.Str
	case KindBytes:
		return "0x" + hex.EncodeToString(v.Bytes)
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindTime:
		return v.Time.Format("15:04:05.000000")
	case KindTimestamp:
		return v.Time.Format("2006-01-02 15:04:05.000000")
	case KindArray:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return fmt.Sprint(v.Raw)
	}
}
