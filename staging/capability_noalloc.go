//go:build astd_noalloc

package staging

import "github.com/Azzybana/astd/staging/internal/storage"

// AllocatorPresent reports the build's allocator capability.
const AllocatorPresent = false

type backing = storage.Inline

// Get returns a fresh fixed-capacity buffer. There is no pool in the
// allocator-absent configuration.
func Get() *Buffer {
	return new(Buffer)
}

// Put is a no-op without an allocator; it exists so call sites compile
// identically in both configurations.
func Put(b *Buffer) {
	if b != nil {
		b.Reset()
	}
}
