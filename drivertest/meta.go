package drivertest

import (
	"context"
	"sort"

	"github.com/vexdb/jdbc-bridge/driver"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Column describes one column of a fake table.
type Column struct {
	Name     string
	TypeName string
	Code     sqltype.Code
	Size     int
	Scale    int
	Nullable bool

	// PKSeq is the 1-based position within the primary key, 0 when the
	// column is not part of it.
	PKSeq int
}

// ForeignKey describes one imported-key column of a fake table.
type ForeignKey struct {
	Name      string
	Column    string
	RefSchema string
	RefTable  string
	RefColumn string
	Seq       int
}

// Index describes one index of a fake table.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// Table is the structural metadata the fake meta reader serves. The reader
// renders it into the JDBC DatabaseMetaData result-set layouts.
type Table struct {
	Schema      string
	Name        string
	Type        string // defaults to TABLE
	PKName      string
	Columns     []Column
	ForeignKeys []ForeignKey
	Indexes     []Index
}

type metaReader struct {
	drv *Driver
}

func varcharCol(name string) sqltype.Descriptor {
	return sqltype.Descriptor{Name: name, TypeCode: sqltype.VarChar, TypeName: "VARCHAR"}
}

func intCol(name string) sqltype.Descriptor {
	return sqltype.Descriptor{Name: name, TypeCode: sqltype.Integer, TypeName: "INTEGER"}
}

func boolCol(name string) sqltype.Descriptor {
	return sqltype.Descriptor{Name: name, TypeCode: sqltype.Boolean, TypeName: "BOOLEAN"}
}

func textDatum(s string) driver.Datum {
	return driver.Datum{Kind: driver.DatumText, SQLType: sqltype.VarChar, Str: s}
}

func intDatum(n int) driver.Datum {
	return driver.Datum{Kind: driver.DatumInt, SQLType: sqltype.Integer, Int: int64(n)}
}

func boolDatum(b bool) driver.Datum {
	return driver.Datum{Kind: driver.DatumBool, SQLType: sqltype.Boolean, Bool: b}
}

func (m *metaReader) tables() []*Table {
	m.drv.mu.Lock()
	defer m.drv.mu.Unlock()
	out := make([]*Table, len(m.drv.tables))
	copy(out, m.drv.tables)
	return out
}

// Schemas lists distinct schema names, one VARCHAR column TABLE_SCHEM.
func (m *metaReader) Schemas(ctx context.Context) (driver.Rows, error) {
	seen := make(map[string]bool)
	var names []string
	for _, t := range m.tables() {
		if !seen[t.Schema] {
			seen[t.Schema] = true
			names = append(names, t.Schema)
		}
	}
	sort.Strings(names)

	rows := make([][]driver.Datum, len(names))
	for i, n := range names {
		rows[i] = []driver.Datum{textDatum(n)}
	}
	return NewRows([]sqltype.Descriptor{varcharCol("TABLE_SCHEM")}, rows...), nil
}

// Tables lists tables, optionally filtered by schema.
func (m *metaReader) Tables(ctx context.Context, schema string) (driver.Rows, error) {
	cols := []sqltype.Descriptor{
		varcharCol("TABLE_SCHEM"),
		varcharCol("TABLE_NAME"),
		varcharCol("TABLE_TYPE"),
	}

	var rows [][]driver.Datum
	for _, t := range m.tables() {
		if schema != "" && t.Schema != schema {
			continue
		}
		typ := t.Type
		if typ == "" {
			typ = "TABLE"
		}
		rows = append(rows, []driver.Datum{
			textDatum(t.Schema), textDatum(t.Name), textDatum(typ),
		})
	}
	return NewRows(cols, rows...), nil
}

// Columns lists column metadata in ordinal order.
func (m *metaReader) Columns(ctx context.Context, schema, table string) (driver.Rows, error) {
	cols := []sqltype.Descriptor{
		varcharCol("TABLE_SCHEM"),
		varcharCol("TABLE_NAME"),
		varcharCol("COLUMN_NAME"),
		intCol("DATA_TYPE"),
		varcharCol("TYPE_NAME"),
		intCol("COLUMN_SIZE"),
		intCol("DECIMAL_DIGITS"),
		intCol("NULLABLE"),
		intCol("ORDINAL_POSITION"),
	}

	var rows [][]driver.Datum
	for _, t := range m.tables() {
		if !matches(t, schema, table) {
			continue
		}
		for i, c := range t.Columns {
			nullable := 0
			if c.Nullable {
				nullable = 1
			}
			rows = append(rows, []driver.Datum{
				textDatum(t.Schema),
				textDatum(t.Name),
				textDatum(c.Name),
				intDatum(int(c.Code)),
				textDatum(c.TypeName),
				intDatum(c.Size),
				intDatum(c.Scale),
				intDatum(nullable),
				intDatum(i + 1),
			})
		}
	}
	return NewRows(cols, rows...), nil
}

// PrimaryKeys lists PK columns ordered by column name, as the JDBC
// contract specifies; callers reorder by KEY_SEQ.
func (m *metaReader) PrimaryKeys(ctx context.Context, schema, table string) (driver.Rows, error) {
	cols := []sqltype.Descriptor{
		varcharCol("TABLE_SCHEM"),
		varcharCol("TABLE_NAME"),
		varcharCol("COLUMN_NAME"),
		intCol("KEY_SEQ"),
		varcharCol("PK_NAME"),
	}

	var rows [][]driver.Datum
	for _, t := range m.tables() {
		if !matches(t, schema, table) {
			continue
		}
		var pk []Column
		for _, c := range t.Columns {
			if c.PKSeq > 0 {
				pk = append(pk, c)
			}
		}
		sort.Slice(pk, func(i, j int) bool { return pk[i].Name < pk[j].Name })
		for _, c := range pk {
			rows = append(rows, []driver.Datum{
				textDatum(t.Schema),
				textDatum(t.Name),
				textDatum(c.Name),
				intDatum(c.PKSeq),
				textDatum(t.PKName),
			})
		}
	}
	return NewRows(cols, rows...), nil
}

// ImportedKeys lists foreign keys referencing other tables.
func (m *metaReader) ImportedKeys(ctx context.Context, schema, table string) (driver.Rows, error) {
	cols := []sqltype.Descriptor{
		varcharCol("PKTABLE_SCHEM"),
		varcharCol("PKTABLE_NAME"),
		varcharCol("PKCOLUMN_NAME"),
		varcharCol("FKTABLE_SCHEM"),
		varcharCol("FKTABLE_NAME"),
		varcharCol("FKCOLUMN_NAME"),
		intCol("KEY_SEQ"),
		varcharCol("FK_NAME"),
	}

	var rows [][]driver.Datum
	for _, t := range m.tables() {
		if !matches(t, schema, table) {
			continue
		}
		for _, fk := range t.ForeignKeys {
			seq := fk.Seq
			if seq == 0 {
				seq = 1
			}
			rows = append(rows, []driver.Datum{
				textDatum(fk.RefSchema),
				textDatum(fk.RefTable),
				textDatum(fk.RefColumn),
				textDatum(t.Schema),
				textDatum(t.Name),
				textDatum(fk.Column),
				intDatum(seq),
				textDatum(fk.Name),
			})
		}
	}
	return NewRows(cols, rows...), nil
}

// IndexInfo lists index columns in ordinal order.
func (m *metaReader) IndexInfo(ctx context.Context, schema, table string) (driver.Rows, error) {
	cols := []sqltype.Descriptor{
		varcharCol("TABLE_NAME"),
		boolCol("NON_UNIQUE"),
		varcharCol("INDEX_NAME"),
		intCol("ORDINAL_POSITION"),
		varcharCol("COLUMN_NAME"),
	}

	var rows [][]driver.Datum
	for _, t := range m.tables() {
		if !matches(t, schema, table) {
			continue
		}
		for _, ix := range t.Indexes {
			for i, col := range ix.Columns {
				rows = append(rows, []driver.Datum{
					textDatum(t.Name),
					boolDatum(!ix.Unique),
					textDatum(ix.Name),
					intDatum(i + 1),
					textDatum(col),
				})
			}
		}
	}
	return NewRows(cols, rows...), nil
}

func matches(t *Table, schema, table string) bool {
	if schema != "" && t.Schema != schema {
		return false
	}
	return table == "" || t.Name == table
}
