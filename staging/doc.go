// Package staging provides the allocator-optional containers used to
// move data across the native boundary: Buffer, Optional, and Result.
//
// # Allocator capability
//
// Whether a heap allocator is available is a property of the build, not
// of any call. The astd_noalloc build tag selects the backing storage at
// compile time:
//
//	default        - heap-backed, growable, pooled reuse via Get/Put
//	astd_noalloc   - fixed 256-byte inline storage, growth past capacity
//	                 fails with capacity_exceeded, no pool
//
// The selected storage is a type alias, so there is no runtime branch on
// allocator presence anywhere in the call path, and every container keeps
// an identical call signature in both configurations.
//
// # Ownership
//
// A Buffer exclusively owns its backing storage. The wrapper layer writes
// native results into a Buffer sized to the reported length; the caller
// reads Bytes() and either keeps a copy or resets the buffer for reuse.
package staging
