package engine

import (
	"context"
	"encoding/json"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Guest exports every driver module must provide.
const (
	exportAlloc      = "jb_alloc"
	exportFree       = "jb_free"
	exportDriverInfo = "jb_driver_info"
	exportCall       = "jb_call"
)

// Dispatch operations understood by driver modules.
const (
	opConnect       = "connect"
	opConnClose     = "conn_close"
	opSetAutoCommit = "set_autocommit"
	opCommit        = "commit"
	opRollback      = "rollback"
	opPing          = "ping"
	opPrepare       = "prepare"
	opParamTypes    = "param_types"
	opExecute       = "execute"
	opAddBatch      = "add_batch"
	opExecuteBatch  = "execute_batch"
	opStmtClose     = "stmt_close"
	opFetch         = "fetch"
	opRowsClose     = "rows_close"
	opLobRead       = "lob_read"
	opLobWrite      = "lob_write"
	opMetaSchemas   = "meta_schemas"
	opMetaTables    = "meta_tables"
	opMetaColumns   = "meta_columns"
	opMetaPKeys     = "meta_pkeys"
	opMetaFKeys     = "meta_fkeys"
	opMetaIndexes   = "meta_indexes"
)

// callFrame is one request into a driver module. Target is the guest-side
// handle of the object the op addresses, zero for driver-level ops.
type callFrame struct {
	Op      string          `json:"op"`
	Target  uint64          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// callResult is the guest's reply.
type callResult struct {
	OK    bool            `json:"ok"`
	Body  json.RawMessage `json:"body,omitempty"`
	Error *wireError      `json:"error,omitempty"`
}

// wireError mirrors the foreign exception surface. BatchIndex is set only
// for execute_batch row-level failures, alongside the counts completed
// before the failing set.
type wireError struct {
	Class      string  `json:"class"`
	Message    string  `json:"message"`
	SQLState   string  `json:"sqlstate,omitempty"`
	VendorCode string  `json:"vendor_code,omitempty"`
	BatchIndex *int    `json:"batch_index,omitempty"`
	Counts     []int64 `json:"counts,omitempty"`
}

func (e *wireError) foreign() *jerrors.ForeignException {
	return &jerrors.ForeignException{
		Class:      e.Class,
		Message:    e.Message,
		SQLState:   e.SQLState,
		VendorCode: e.VendorCode,
	}
}

// err converts a wire error into the error the driver surface reports.
func (e *wireError) err() error {
	if e.BatchIndex != nil {
		return &driver.BatchFault{Index: *e.BatchIndex, Counts: e.Counts, Cause: e.foreign()}
	}
	return e.foreign()
}

// driverInfo is the jb_driver_info descriptor.
type driverInfo struct {
	ID      string `json:"id"`
	Class   string `json:"class"`
	Version string `json:"version"`
}

// Wire datum kinds.
const (
	wireNull     = "null"
	wireBool     = "bool"
	wireInt      = "int"
	wireFloat    = "float"
	wireDecimal  = "decimal"
	wireText     = "text"
	wireBytes    = "bytes"
	wireTemporal = "temporal"
	wireArray    = "array"
	wireLob      = "lob"
	wireOpaque   = "opaque"
)

// wireDatum is the JSON form of one value crossing the guest boundary.
// Bytes travel base64 through encoding/json's []byte handling; LOBs travel
// as guest-side handles and stream separately through lob_read/lob_write.
type wireDatum struct {
	Kind   string          `json:"kind"`
	Type   int32           `json:"type"`
	Bool   bool            `json:"bool,omitempty"`
	Int    int64           `json:"int,omitempty"`
	Float  float64         `json:"float,omitempty"`
	Str    string          `json:"str,omitempty"`
	Bytes  []byte          `json:"bytes,omitempty"`
	Millis int64           `json:"millis,omitempty"`
	Nanos  int32           `json:"nanos,omitempty"`
	Elems  []wireDatum     `json:"elems,omitempty"`
	Lob    uint64          `json:"lob,omitempty"`
	LobLen int64           `json:"lob_len,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// wireDescriptor is the JSON form of a column descriptor.
type wireDescriptor struct {
	Name      string `json:"name"`
	Type      int32  `json:"type"`
	TypeName  string `json:"type_name"`
	Nullable  bool   `json:"nullable"`
	Precision int    `json:"precision,omitempty"`
	Scale     int    `json:"scale,omitempty"`
}

func (w wireDescriptor) descriptor() sqltype.Descriptor {
	return sqltype.Descriptor{
		Name:      w.Name,
		TypeCode:  sqltype.Code(w.Type),
		TypeName:  w.TypeName,
		Nullable:  w.Nullable,
		Precision: w.Precision,
		Scale:     w.Scale,
	}
}

func descriptors(ws []wireDescriptor) []sqltype.Descriptor {
	out := make([]sqltype.Descriptor, len(ws))
	for i, w := range ws {
		out[i] = w.descriptor()
	}
	return out
}

// decodeWire maps a wire datum into the driver representation. LOB handles
// become streaming readers bound to their module; reads run under the
// context of the fetch that produced them.
func decodeWire(ctx context.Context, w wireDatum, m *module) driver.Datum {
	d := driver.Datum{SQLType: sqltype.Code(w.Type)}
	switch w.Kind {
	case wireNull:
		d.Kind = driver.DatumNull
	case wireBool:
		d.Kind = driver.DatumBool
		d.Bool = w.Bool
	case wireInt:
		d.Kind = driver.DatumInt
		d.Int = w.Int
	case wireFloat:
		d.Kind = driver.DatumFloat
		d.Float = w.Float
	case wireDecimal:
		d.Kind = driver.DatumDecimal
		d.Str = w.Str
	case wireText:
		d.Kind = driver.DatumText
		d.Str = w.Str
	case wireBytes:
		d.Kind = driver.DatumBytes
		d.Bytes = w.Bytes
	case wireTemporal:
		d.Kind = driver.DatumTemporal
		d.Millis = w.Millis
		d.Nanos = w.Nanos
	case wireArray:
		d.Kind = driver.DatumArray
		d.Elems = make([]driver.Datum, len(w.Elems))
		for i, e := range w.Elems {
			d.Elems[i] = decodeWire(ctx, e, m)
		}
	case wireLob:
		d.Kind = driver.DatumLob
		d.Lob = &lobReader{ctx: ctx, mod: m, id: w.Lob, size: w.LobLen}
	default:
		d.Kind = driver.DatumOpaque
		if w.Raw != nil {
			var raw any
			if err := json.Unmarshal(w.Raw, &raw); err == nil {
				d.Raw = raw
			} else {
				d.Raw = string(w.Raw)
			}
		}
	}
	return d
}

// lobUploader stages a LOB payload guest-side ahead of the call and
// returns the guest handle; see module.uploadLob.
type lobUploader func(ctx context.Context, r driver.LobReader) (uint64, error)

// encodeDatum maps a driver datum into its wire form. LOB payloads, at any
// nesting depth, are uploaded through upload first so the wire form only
// carries guest handles.
func encodeDatum(ctx context.Context, d driver.Datum, upload lobUploader) (wireDatum, error) {
	w := wireDatum{Type: int32(d.SQLType)}
	switch d.Kind {
	case driver.DatumNull:
		w.Kind = wireNull
	case driver.DatumBool:
		w.Kind = wireBool
		w.Bool = d.Bool
	case driver.DatumInt:
		w.Kind = wireInt
		w.Int = d.Int
	case driver.DatumFloat:
		w.Kind = wireFloat
		w.Float = d.Float
	case driver.DatumDecimal:
		w.Kind = wireDecimal
		w.Str = d.Str
	case driver.DatumText:
		w.Kind = wireText
		w.Str = d.Str
	case driver.DatumBytes:
		w.Kind = wireBytes
		w.Bytes = d.Bytes
	case driver.DatumTemporal:
		w.Kind = wireTemporal
		w.Millis = d.Millis
		w.Nanos = d.Nanos
	case driver.DatumArray:
		w.Kind = wireArray
		w.Elems = make([]wireDatum, len(d.Elems))
		for i, e := range d.Elems {
			ew, err := encodeDatum(ctx, e, upload)
			if err != nil {
				return wireDatum{}, err
			}
			w.Elems[i] = ew
		}
	case driver.DatumLob:
		id, err := upload(ctx, d.Lob)
		if err != nil {
			return wireDatum{}, err
		}
		w.Kind = wireLob
		w.Lob = id
	default:
		w.Kind = wireOpaque
		if d.Raw != nil {
			if raw, err := json.Marshal(d.Raw); err == nil {
				w.Raw = raw
			}
		}
	}
	return w, nil
}
