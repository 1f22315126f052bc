// Package conv implements the bidirectional type converter between host
// Values and the foreign driver representation.
//
// Encoding is strict: nulls carry the target SQL type code, integers that
// do not fit the target column width fail instead of truncating, and
// decimals travel as strings so no float rounding can occur. Decoding is
// lenient: an unrecognized type code degrades to the opaque variant with a
// diagnostic instead of failing the row. Large binary and character values
// stream through bounded chunks in both directions.
package conv
