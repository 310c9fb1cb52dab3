package astd

import "context"

// Symbol is a callable native entry point resolved from a Backend.
// Arguments and the result travel as raw 64-bit slots; the bind package
// is responsible for marshaling typed values in and out.
type Symbol interface {
	Call(ctx context.Context, args ...uint64) (uint64, error)
}

// Backend abstracts how the native library is reached: a dynamic shared
// object loaded into the process, or a wasm build of the library running
// inside an embedded runtime.
type Backend interface {
	// Lookup resolves a named entry point. Resolution is performed once
	// per name; callers may cache the returned Symbol.
	Lookup(name string) (Symbol, error)

	// Close releases the backend. No Symbol obtained from it may be
	// called afterwards.
	Close(ctx context.Context) error
}

// Memory provides read access to the address space the native library
// writes its buffers into. For a dynamic backend this is the host address
// space; for a wasm backend it is the module's linear memory.
type Memory interface {
	Read(addr uint64, length uint32) ([]byte, error)
}

// MemoryBackend is implemented by backends that can expose buffer
// contents to the wrapper layer. Backends without it cannot service
// buffer-returning functions.
type MemoryBackend interface {
	Backend
	Memory() Memory
}
