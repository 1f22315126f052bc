package sqltype

import (
	"testing"
	"time"
)

func TestValue_Equal(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", NullValue(), NullValue(), true},
		{"null vs int", NullValue(), IntValue(0), false},
		{"ints", IntValue(42), IntValue(42), true},
		{"decimals compare as strings", DecimalValue("1.10"), DecimalValue("1.10"), true},
		{"decimal trailing zero is significant", DecimalValue("1.1"), DecimalValue("1.10"), false},
		{"bytes", BytesValue([]byte{1, 2}), BytesValue([]byte{1, 2}), true},
		{"timestamps", TimestampValue(ts), TimestampValue(ts), true},
		{
			"timestamp zone-insensitive",
			TimestampValue(ts),
			TimestampValue(ts.In(time.FixedZone("X", 3600))),
			true,
		},
		{
			"arrays elementwise",
			ArrayValue([]Value{IntValue(1), TextValue("a")}),
			ArrayValue([]Value{IntValue(1), TextValue("a")}),
			true,
		},
		{
			"arrays differ in length",
			ArrayValue([]Value{IntValue(1)}),
			ArrayValue([]Value{IntValue(1), IntValue(2)}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_String(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC)

	tests := []struct {
		v    Value
		want string
	}{
		{NullValue(), "NULL"},
		{IntValue(-5), "-5"},
		{DecimalValue("12345678901234567890.123"), "12345678901234567890.123"},
		{BytesValue([]byte{0xde, 0xad}), "0xdead"},
		{TimestampValue(ts), "2024-03-01 10:30:00.123456"},
		{ArrayValue([]Value{IntValue(1), NullValue()}), "{1,NULL}"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNameToCode(t *testing.T) {
	tests := []struct {
		name string
		want Code
		ok   bool
	}{
		{"VARCHAR", VarChar, true},
		{"varchar(255)", VarChar, true},
		{"character varying", VarChar, true},
		{"int4", Integer, true},
		{"_int4", Integer, true},
		{"integer[]", Integer, true},
		{"numeric(10,2)", Numeric, true},
		{"timestamptz", Timestamp, true},
		{"bytea", LongVarBinary, true},
		{"geography", Other, false},
		{"", Other, false},
	}

	for _, tt := range tests {
		code, ok := NameToCode(tt.name)
		if code != tt.want || ok != tt.ok {
			t.Errorf("NameToCode(%q) = %s, %v; want %s, %v", tt.name, code, ok, tt.want, tt.ok)
		}
	}
}

func TestDescriptor_ElementCode(t *testing.T) {
	arr := Descriptor{Name: "tags", TypeCode: Array, TypeName: "_int4"}
	if got := arr.ElementCode(); got != Integer {
		t.Errorf("ElementCode = %s, want INTEGER", got)
	}

	unknown := Descriptor{Name: "x", TypeCode: Array, TypeName: "geography[]"}
	if got := unknown.ElementCode(); got != Other {
		t.Errorf("ElementCode for unknown element = %s, want OTHER", got)
	}

	scalar := Descriptor{Name: "id", TypeCode: BigInt, TypeName: "int8"}
	if got := scalar.ElementCode(); got != BigInt {
		t.Errorf("ElementCode for scalar = %s, want BIGINT", got)
	}
}
