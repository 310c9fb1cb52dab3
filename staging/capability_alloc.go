//go:build !astd_noalloc

package staging

import (
	"sync"

	"github.com/Azzybana/astd/staging/internal/storage"
)

// AllocatorPresent reports the build's allocator capability.
const AllocatorPresent = true

type backing = storage.Heap

const (
	// Pool limits to prevent memory bloat
	poolMaxCap = 64 * 1024
)

var bufferPool = sync.Pool{
	New: func() any {
		return new(Buffer)
	},
}

// Get returns a reusable buffer from the pool.
func Get() *Buffer {
	return bufferPool.Get().(*Buffer)
}

// Put resets the buffer and returns it to the pool. The buffer is invalid
// after Put.
func Put(b *Buffer) {
	if b == nil || b.Cap() > poolMaxCap {
		return // reject oversized
	}
	b.Reset()
	bufferPool.Put(b)
}
