// Package sqltype defines the single type vocabulary shared by row decoding
// and metadata introspection: SQL type codes (java.sql.Types values, since
// that is what foreign drivers report), column descriptors, and the host
// tagged-union Value.
package sqltype
