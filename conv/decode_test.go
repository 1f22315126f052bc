package conv

import (
	"errors"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

// Unknown type codes degrade to the opaque variant; decode never raises
// merely because a type is unrecognized.
func TestDecode_OpaqueFallback(t *testing.T) {
	c := New(WithLogger(zap.NewNop()))

	// A vendor-specific code outside the supported set.
	d := driver.Datum{Kind: driver.DatumOpaque, SQLType: sqltype.Code(2002), Raw: "point(1,2)"}
	got, err := c.Decode(d, sqltype.Descriptor{Name: "geo", TypeCode: sqltype.Code(2002), TypeName: "STRUCT"})
	if err != nil {
		t.Fatalf("Decode errored on unknown type: %v", err)
	}
	if got.Kind != sqltype.KindOpaque {
		t.Fatalf("got %s, want opaque", got.Kind)
	}

	// A known code with an unexpected datum shape also degrades: the raw
	// value is preserved, never dropped.
	d = driver.Datum{Kind: driver.DatumText, SQLType: sqltype.Integer, Str: "not-a-number"}
	got, err = c.Decode(d, sqltype.Descriptor{Name: "n", TypeCode: sqltype.Integer})
	if err != nil {
		t.Fatalf("Decode errored on shape mismatch: %v", err)
	}
	if got.Kind != sqltype.KindOpaque || got.Raw != "not-a-number" {
		t.Fatalf("shape mismatch lost the value: %+v", got)
	}
}

type brokenLob struct {
	served int
}

func (l *brokenLob) Read(p []byte) (int, error) {
	if l.served == 0 {
		l.served++
		return copy(p, []byte("partial")), nil
	}
	return 0, errors.New("connection reset")
}

func (l *brokenLob) Close() error { return nil }
func (l *brokenLob) Len() int64   { return -1 }

func TestDecode_LobStreamFailure(t *testing.T) {
	c := New()
	d := driver.Datum{Kind: driver.DatumLob, SQLType: sqltype.Blob, Lob: &brokenLob{}}

	_, err := c.Decode(d, sqltype.Descriptor{Name: "b", TypeCode: sqltype.Blob})
	if !errors.Is(err, &jerrors.Error{Kind: jerrors.KindData}) {
		t.Errorf("broken LOB err = %v, want data error", err)
	}
}

// countingLob verifies the converter pulls LOBs in bounded chunks rather
// than one huge read.
type countingLob struct {
	data    []byte
	off     int
	maxRead int
	reads   int
}

func (l *countingLob) Read(p []byte) (int, error) {
	if len(p) > l.maxRead {
		l.maxRead = len(p)
	}
	l.reads++
	if l.off >= len(l.data) {
		return 0, io.EOF
	}
	n := copy(p, l.data[l.off:])
	l.off += n
	return n, nil
}

func (l *countingLob) Close() error { return nil }
func (l *countingLob) Len() int64   { return int64(len(l.data)) }

func TestDecode_LobChunked(t *testing.T) {
	const chunk = 1024
	c := New(WithChunkSize(chunk))

	lob := &countingLob{data: make([]byte, 10*chunk+5)}
	d := driver.Datum{Kind: driver.DatumLob, SQLType: sqltype.Blob, Lob: lob}

	got, err := c.Decode(d, sqltype.Descriptor{Name: "b", TypeCode: sqltype.Blob})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Bytes) != 10*chunk+5 {
		t.Fatalf("decoded %d bytes, want %d", len(got.Bytes), 10*chunk+5)
	}
	if lob.maxRead > chunk {
		t.Errorf("read buffer of %d bytes exceeds chunk size %d", lob.maxRead, chunk)
	}
	if lob.reads < 10 {
		t.Errorf("only %d reads for 10 chunks of data", lob.reads)
	}
}
