package handle

import "sync"

// Handle is an opaque reference to a foreign-runtime object. It packs a
// slot index in the low 32 bits and a generation counter in the high 32,
// so a handle kept past its object's release can never alias a recycled
// slot. Handle 0 is reserved and always invalid.
type Handle uint64

// Nil is the invalid handle.
const Nil Handle = 0

func (h Handle) index() uint32      { return uint32(h) }
func (h Handle) generation() uint32 { return uint32(h >> 32) }

func pack(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

type entry[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Table is a generational arena mapping handles to values of type T.
// Slots are recycled through a free list; each release bumps the slot's
// generation so stale handles are rejected rather than resolving to a
// newer occupant.
type Table[T any] struct {
	mu      sync.Mutex
	entries []entry[T]
	free    []uint32
	count   int
	closed  bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		entries: make([]entry[T], 0, 16),
	}
}

// Insert stores a value and returns its handle, or Nil after Close.
func (t *Table[T]) Insert(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return Nil
	}
	t.count++

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		e := &t.entries[idx-1]
		e.value = v
		e.live = true
		return pack(idx, e.gen)
	}

	t.entries = append(t.entries, entry[T]{value: v, live: true})
	// Slot indexes are 1-based so a zero handle stays invalid.
	return pack(uint32(len(t.entries)), 0)
}

// Get retrieves the value for a live handle.
func (t *Table[T]) Get(h Handle) (T, bool) {
	var zero T
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(h)
	if e == nil {
		return zero, false
	}
	return e.value, true
}

// Remove releases a handle and returns its value. The slot's generation
// advances, invalidating any copies of the handle still in flight.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	var zero T
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(h)
	if e == nil {
		return zero, false
	}

	v := e.value
	e.value = zero
	e.live = false
	e.gen++
	t.free = append(t.free, h.index())
	t.count--
	return v, true
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Each visits every live entry until fn returns false.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		e := &t.entries[i]
		if !e.live {
			continue
		}
		if !fn(pack(uint32(i+1), e.gen), e.value) {
			return
		}
	}
}

// Drain removes every live entry and returns the values in insertion-slot
// order. The table keeps accepting inserts afterwards.
func (t *Table[T]) Drain() []T {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	out := make([]T, 0, t.count)
	for i := range t.entries {
		e := &t.entries[i]
		if !e.live {
			continue
		}
		out = append(out, e.value)
		e.value = zero
		e.live = false
		e.gen++
		t.free = append(t.free, uint32(i+1))
	}
	t.count = 0
	return out
}

// Close drains the table and rejects further inserts.
func (t *Table[T]) Close() []T {
	out := t.Drain()
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return out
}

// lookup must be called with t.mu held.
func (t *Table[T]) lookup(h Handle) *entry[T] {
	idx := h.index()
	if idx == 0 || int(idx) > len(t.entries) {
		return nil
	}
	e := &t.entries[idx-1]
	if !e.live || e.gen != h.generation() {
		return nil
	}
	return e
}
