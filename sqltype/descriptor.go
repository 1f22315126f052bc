package sqltype

// Descriptor describes one column, both during row decoding and during
// metadata introspection. Reflection and data access share this shape so
// the two paths can never disagree about a column's type.
type Descriptor struct {
	Name      string
	TypeCode  Code
	TypeName  string // vendor-reported type name, normalized casing
	Nullable  bool
	Precision int // 0 when the driver does not report one
	Scale     int
}

// ElementCode returns the element type for array columns. Drivers report
// the element type through the type name ("_int4", "integer[]"); when that
// mapping is unknown the elements fall back to the opaque decoder.
func (d Descriptor) ElementCode() Code {
	if d.TypeCode != Array {
		return d.TypeCode
	}
	if code, ok := NameToCode(d.TypeName); ok {
		return code
	}
	return Other
}
