package staging

// Buffer stages variable-length data on its way across the boundary. It
// exclusively owns its backing storage until the contents are consumed by
// a native call or handed back to the caller.
//
// The backing storage is chosen at compile time by the astd_noalloc build
// tag: heap-backed and growable by default, fixed inline capacity when
// the allocator capability is absent. The API is identical in both
// configurations; only the failure behavior of growth differs.
type Buffer struct {
	store backing
}

// NewBuffer returns an empty staging buffer.
func NewBuffer() *Buffer {
	return new(Buffer)
}

// Write appends p to the buffer. In the allocator-absent configuration a
// write past the fixed capacity fails with capacity_exceeded and leaves
// prior contents untouched.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.store.Write(p)
}

// Grow reserves room for n additional bytes. Contents are preserved
// exactly. Without an allocator this is a capacity check and fails when
// n does not fit.
func (b *Buffer) Grow(n int) error {
	return b.store.Grow(n)
}

// Bytes returns the staged contents. The slice is a view into the
// buffer's storage and is valid until the next mutation.
func (b *Buffer) Bytes() []byte { return b.store.Bytes() }

// Len returns the number of staged bytes.
func (b *Buffer) Len() int { return b.store.Len() }

// Cap returns the current backing capacity.
func (b *Buffer) Cap() int { return b.store.Cap() }

// Reset discards the staged contents, keeping the backing storage.
func (b *Buffer) Reset() { b.store.Reset() }

// String returns the staged contents as a string copy.
func (b *Buffer) String() string { return string(b.store.Bytes()) }
