package engine

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/vexdb/jdbc-bridge/driver"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
)

// lobChunk bounds one LOB transfer across the guest boundary.
const lobChunk = 64 * 1024

// module is one instantiated driver module. Guest calls are serialized:
// a module instance owns a single linear memory and is not reentrant.
type module struct {
	name  string
	mod   api.Module
	alloc api.Function
	free  api.Function
	call  api.Function
	info  api.Function
	log   *zap.Logger

	mu sync.Mutex
}

// packed return values are (ptr << 32) | len.
func unpack(v uint64) (uint32, uint32) {
	return uint32(v >> 32), uint32(v)
}

// driverInfo reads the module's driver descriptor.
func (m *module) driverInfo(ctx context.Context) (driverInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var info driverInfo
	res, err := m.info.Call(ctx)
	if err != nil {
		return info, jerrors.Internal(err, "jb_driver_info failed")
	}
	data, err := m.readAndFree(ctx, res[0])
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, jerrors.Internal(err, "malformed driver descriptor")
	}
	return info, nil
}

// dispatch sends one call frame into the guest and decodes the reply body
// into out. Guest-reported failures come back as foreign exceptions (or a
// batch fault); transport failures are internal errors.
func (m *module) dispatch(ctx context.Context, op string, target uint64, payload, out any) error {
	frame := callFrame{Op: op, Target: target}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return jerrors.Internal(err, "marshal call payload")
		}
		frame.Payload = raw
	}
	req, err := json.Marshal(frame)
	if err != nil {
		return jerrors.Internal(err, "marshal call frame")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ptr, err := m.writeGuest(ctx, req)
	if err != nil {
		return err
	}
	res, err := m.call.Call(ctx, uint64(ptr), uint64(len(req)))
	// The guest owns the request buffer once jb_call is entered; it frees
	// it itself. Only a failed transfer is cleaned up host-side.
	if err != nil {
		m.freeGuest(ctx, ptr, uint32(len(req)))
		return jerrors.Internal(err, "driver module call failed")
	}

	data, err := m.readAndFree(ctx, res[0])
	if err != nil {
		return err
	}

	var result callResult
	if err := json.Unmarshal(data, &result); err != nil {
		return jerrors.Internal(err, "malformed driver reply")
	}
	if !result.OK {
		if result.Error == nil {
			return jerrors.Internal(nil, "driver reported failure without detail")
		}
		return result.Error.err()
	}
	if out != nil && result.Body != nil {
		if err := json.Unmarshal(result.Body, out); err != nil {
			return jerrors.Internal(err, "malformed driver reply body")
		}
	}
	return nil
}

// writeGuest allocates guest memory and copies data into it. Caller holds
// m.mu.
func (m *module) writeGuest(ctx context.Context, data []byte) (uint32, error) {
	res, err := m.alloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, jerrors.Internal(err, "guest allocation failed")
	}
	ptr := uint32(res[0])
	if !m.mod.Memory().Write(ptr, data) {
		return 0, jerrors.Internal(nil, "guest memory write out of range")
	}
	return ptr, nil
}

// readAndFree copies a packed (ptr,len) guest buffer out and releases it.
// Caller holds m.mu.
func (m *module) readAndFree(ctx context.Context, packed uint64) ([]byte, error) {
	ptr, size := unpack(packed)
	view, ok := m.mod.Memory().Read(ptr, size)
	if !ok {
		return nil, jerrors.Internal(nil, "guest memory read out of range")
	}
	data := make([]byte, size)
	copy(data, view)
	m.freeGuest(ctx, ptr, size)
	return data, nil
}

func (m *module) freeGuest(ctx context.Context, ptr, size uint32) {
	if _, err := m.free.Call(ctx, uint64(ptr), uint64(size)); err != nil {
		m.log.Warn("guest free failed", zap.Error(err))
	}
}

// uploadLob streams a host LOB into the guest in bounded chunks and
// returns the guest-side handle.
func (m *module) uploadLob(ctx context.Context, r driver.LobReader) (uint64, error) {
	defer func() { _ = r.Close() }()

	var id uint64
	buf := make([]byte, lobChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 || id == 0 {
			var resp lobWriteResp
			req := lobWriteReq{Lob: id, Data: buf[:n]}
			if derr := m.dispatch(ctx, opLobWrite, 0, req, &resp); derr != nil {
				return 0, derr
			}
			id = resp.Lob
		}
		if err == io.EOF {
			return id, nil
		}
		if err != nil {
			return 0, jerrors.Wrap(jerrors.KindData, err, "large value stream failed")
		}
	}
}

type lobWriteReq struct {
	Lob  uint64 `json:"lob,omitempty"`
	Data []byte `json:"data,omitempty"`
}

type lobWriteResp struct {
	Lob uint64 `json:"lob"`
}

type lobReadReq struct {
	Lob uint64 `json:"lob"`
	Max int    `json:"max"`
}

type lobReadResp struct {
	Data []byte `json:"data"`
	EOF  bool   `json:"eof"`
}

// lobReader streams a guest-side LOB to the host in bounded chunks, under
// the context of the fetch that produced it. The guest releases the LOB
// together with its result set.
type lobReader struct {
	ctx  context.Context
	mod  *module
	id   uint64
	size int64

	buf []byte
	eof bool
}

func (l *lobReader) Read(p []byte) (int, error) {
	if len(l.buf) == 0 && !l.eof {
		var resp lobReadResp
		err := l.mod.dispatch(l.ctx, opLobRead, 0,
			lobReadReq{Lob: l.id, Max: lobChunk}, &resp)
		if err != nil {
			return 0, err
		}
		l.buf = resp.Data
		l.eof = resp.EOF
	}
	if len(l.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, l.buf)
	l.buf = l.buf[n:]
	return n, nil
}

func (l *lobReader) Close() error {
	l.buf = nil
	l.eof = true
	return nil
}

func (l *lobReader) Len() int64 {
	if l.size > 0 {
		return l.size
	}
	return -1
}
