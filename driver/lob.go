package driver

import "io"

// BytesLob is an in-memory LobReader. Drivers that already hold the whole
// value use it to serve the streaming surface; the converter still pulls it
// through bounded chunks.
type BytesLob struct {
	data []byte
	off  int
}

// NewBytesLob wraps a byte slice as a LobReader.
func NewBytesLob(data []byte) *BytesLob {
	return &BytesLob{data: data}
}

// NewStringLob wraps a string as a LobReader (CLOB transport).
func NewStringLob(s string) *BytesLob {
	return &BytesLob{data: []byte(s)}
}

func (l *BytesLob) Read(p []byte) (int, error) {
	if l.off >= len(l.data) {
		return 0, io.EOF
	}
	n := copy(p, l.data[l.off:])
	l.off += n
	return n, nil
}

func (l *BytesLob) Close() error {
	l.data = nil
	return nil
}

func (l *BytesLob) Len() int64 {
	return int64(len(l.data))
}
