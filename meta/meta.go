package meta

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/conv"
	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// TableInfo identifies one table or view.
type TableInfo struct {
	Schema string
	Name   string
	Type   string // TABLE, VIEW, vendor-specific
}

// ForeignKey is one named foreign-key constraint, columns in key-sequence
// order.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefSchema  string
	RefTable   string
	RefColumns []string
}

// Index is one named index, columns in ordinal order.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// Introspector reads structural metadata through a connection's foreign
// DatabaseMetaData-style API and normalizes it into the shared descriptor
// vocabulary. It holds no cache: every call reflects current foreign
// state, and reuse within one reflection is the caller's choice.
type Introspector struct {
	reader driver.MetaReader
	conv   *conv.Converter
	log    *zap.Logger
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(in *Introspector) { in.log = log }
}

// WithConverter overrides the type converter used for metadata rows.
func WithConverter(cv *conv.Converter) Option {
	return func(in *Introspector) { in.conv = cv }
}

// New creates an Introspector over a foreign metadata reader.
func New(reader driver.MetaReader, opts ...Option) *Introspector {
	in := &Introspector{reader: reader, log: zap.NewNop()}
	for _, opt := range opts {
		opt(in)
	}
	if in.conv == nil {
		in.conv = conv.New(conv.WithLogger(in.log))
	}
	return in
}

// Schemas lists schema names.
func (in *Introspector) Schemas(ctx context.Context) ([]string, error) {
	rows, err := in.reader.Schemas(ctx)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	recs, err := in.readAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.text("TABLE_SCHEM"))
	}
	return out, nil
}

// Tables lists tables, filtered by schema when non-empty.
func (in *Introspector) Tables(ctx context.Context, schema string) ([]TableInfo, error) {
	rows, err := in.reader.Tables(ctx, schema)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	recs, err := in.readAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	out := make([]TableInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, TableInfo{
			Schema: r.text("TABLE_SCHEM"),
			Name:   r.text("TABLE_NAME"),
			Type:   r.text("TABLE_TYPE"),
		})
	}
	return out, nil
}

// HasTable reports whether the named table exists.
func (in *Introspector) HasTable(ctx context.Context, schema, table string) (bool, error) {
	tables, err := in.Tables(ctx, schema)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t.Name == table {
			return true, nil
		}
	}
	return false, nil
}

// Columns describes a table's columns in ordinal order. Vendor type names
// and nullability normalize into the same descriptor vocabulary row
// decoding uses, so reflection and data access can never disagree.
func (in *Introspector) Columns(ctx context.Context, schema, table string) ([]sqltype.Descriptor, error) {
	rows, err := in.reader.Columns(ctx, schema, table)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	recs, err := in.readAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	type ordered struct {
		pos  int64
		desc sqltype.Descriptor
	}
	cols := make([]ordered, 0, len(recs))
	for _, r := range recs {
		typeName := strings.ToUpper(r.text("TYPE_NAME"))
		code := sqltype.Code(r.integer("DATA_TYPE"))
		if !code.Known() {
			if mapped, ok := sqltype.NameToCode(typeName); ok {
				code = mapped
			}
		}
		cols = append(cols, ordered{
			pos: r.integer("ORDINAL_POSITION"),
			desc: sqltype.Descriptor{
				Name:     r.text("COLUMN_NAME"),
				TypeCode: code,
				TypeName: typeName,
				// columnNoNulls is 0; both nullable and unknown count as
				// nullable here.
				Nullable:  r.integer("NULLABLE") != 0,
				Precision: int(r.integer("COLUMN_SIZE")),
				Scale:     int(r.integer("DECIMAL_DIGITS")),
			},
		})
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].pos < cols[j].pos })

	out := make([]sqltype.Descriptor, len(cols))
	for i, c := range cols {
		out[i] = c.desc
	}
	return out, nil
}

// PrimaryKey returns the primary-key column names in key-sequence order.
// The foreign API reports them ordered by column name; the key order is
// what matters to callers, so rows are reordered by KEY_SEQ.
func (in *Introspector) PrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := in.reader.PrimaryKeys(ctx, schema, table)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	recs, err := in.readAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].integer("KEY_SEQ") < recs[j].integer("KEY_SEQ")
	})
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.text("COLUMN_NAME"))
	}
	return out, nil
}

// ForeignKeys returns the table's foreign-key constraints, grouped by
// constraint name with columns in key-sequence order.
func (in *Introspector) ForeignKeys(ctx context.Context, schema, table string) ([]ForeignKey, error) {
	rows, err := in.reader.ImportedKeys(ctx, schema, table)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	recs, err := in.readAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if an, bn := a.text("FK_NAME"), b.text("FK_NAME"); an != bn {
			return an < bn
		}
		return a.integer("KEY_SEQ") < b.integer("KEY_SEQ")
	})

	var out []ForeignKey
	byName := make(map[string]int)
	for _, r := range recs {
		name := r.text("FK_NAME")
		i, ok := byName[name]
		if !ok {
			i = len(out)
			byName[name] = i
			out = append(out, ForeignKey{
				Name:      name,
				RefSchema: r.text("PKTABLE_SCHEM"),
				RefTable:  r.text("PKTABLE_NAME"),
			})
		}
		out[i].Columns = append(out[i].Columns, r.text("FKCOLUMN_NAME"))
		out[i].RefColumns = append(out[i].RefColumns, r.text("PKCOLUMN_NAME"))
	}
	return out, nil
}

// Indexes returns the table's indexes, grouped by name with columns in
// ordinal order. Statistics rows, which carry no index name, are skipped.
func (in *Introspector) Indexes(ctx context.Context, schema, table string) ([]Index, error) {
	rows, err := in.reader.IndexInfo(ctx, schema, table)
	if err != nil {
		return nil, jerrors.TranslateErr(err)
	}
	recs, err := in.readAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if an, bn := a.text("INDEX_NAME"), b.text("INDEX_NAME"); an != bn {
			return an < bn
		}
		return a.integer("ORDINAL_POSITION") < b.integer("ORDINAL_POSITION")
	})

	var out []Index
	byName := make(map[string]int)
	for _, r := range recs {
		name := r.text("INDEX_NAME")
		if name == "" {
			continue
		}
		i, ok := byName[name]
		if !ok {
			i = len(out)
			byName[name] = i
			out = append(out, Index{Name: name, Unique: !r.boolean("NON_UNIQUE")})
		}
		out[i].Columns = append(out[i].Columns, r.text("COLUMN_NAME"))
	}
	return out, nil
}

// record is one decoded metadata row keyed by column name.
type record map[string]sqltype.Value

func (r record) text(col string) string {
	v := r[col]
	switch v.Kind {
	case sqltype.KindText, sqltype.KindDecimal:
		return v.Str
	default:
		return ""
	}
}

func (r record) integer(col string) int64 {
	v := r[col]
	switch v.Kind {
	case sqltype.KindInt:
		return v.Int
	case sqltype.KindDecimal:
		// Some drivers report numeric metadata columns as DECIMAL.
		var n int64
		for _, c := range v.Str {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + int64(c-'0')
		}
		return n
	default:
		return 0
	}
}

// boolean tolerates drivers reporting flags as SMALLINT.
func (r record) boolean(col string) bool {
	v := r[col]
	switch v.Kind {
	case sqltype.KindBool:
		return v.Bool
	case sqltype.KindInt:
		return v.Int != 0
	default:
		return false
	}
}

// readAll drains and closes a metadata result set, decoding every value
// through the converter.
func (in *Introspector) readAll(ctx context.Context, rows driver.Rows) ([]record, error) {
	defer func() { _ = rows.Close(ctx) }()

	desc := rows.Columns()
	var out []record
	for {
		more, err := rows.Next(ctx)
		if err != nil {
			return nil, jerrors.TranslateErr(err)
		}
		if !more {
			return out, nil
		}

		rec := make(record, len(desc))
		for i, d := range desc {
			datum, err := rows.Get(ctx, i)
			if err != nil {
				return nil, jerrors.TranslateErr(err)
			}
			v, err := in.conv.Decode(datum, d)
			if err != nil {
				return nil, err
			}
			rec[d.Name] = v
		}
		out = append(out, rec)
	}
}
