// Package astd exposes a native utility library to Go through generated,
// ownership-safe bindings.
//
// The project is a pipeline with a build-time half and a run-time half:
//
//	headers → [extract] → manifest → [synth] → bindings.go
//	                                              │ compiled against
//	                                              ▼
//	                       application → [bind] → native library
//	                                       │
//	                                   [staging]
//
// # Build time
//
// The extract package scans the native library's public headers with
// pattern rules (not a full C parser) and produces an InterfaceManifest:
// every function signature, parameter ownership mode, and type descriptor,
// in first-seen declaration order so the output is reproducible. The synth
// package turns a validated manifest into Go source: one safe wrapper
// per entry point, dispatching through the bind runtime so the same
// generated file serves every backend.
//
// # Run time
//
// The bind package loads the native library through a Backend (purego
// dlopen for shared objects, wazero for wasm builds of the library) and
// enforces the ownership protocol: owned pointers live behind BoundHandle
// values that release their native resource exactly once, and buffer
// returns are copied into staging buffers sized to the reported length.
// The staging package provides the allocator-optional containers used to
// move variable-length data across the boundary; the allocator decision is
// made at build time with the astd_noalloc tag, never per call.
//
// # Key packages
//
//	manifest  - interface manifest data model and serialization
//	extract   - header scanning and signature extraction
//	synth     - Go binding generation
//	bind      - runtime library handle, ownership, call dispatch
//	staging   - allocator-optional buffer, optional, result containers
//	errors    - structured error taxonomy shared by all phases
//	config    - TOML build configuration
//	toolchain - native toolchain probing and artifact gathering
//
// # Error handling
//
// Build-time failures (extraction, synthesis) abort generation with no
// partial output. Run-time failures are explicit results in the errors
// package taxonomy, except a panic that would unwind through a native
// stack frame, which aborts the process.
package astd
