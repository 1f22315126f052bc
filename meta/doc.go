// Package meta reflects database structure through the foreign
// DatabaseMetaData-style API: schemas, tables, columns, primary and
// foreign keys, indexes. Results normalize into the sqltype descriptor
// vocabulary shared with row decoding.
package meta
