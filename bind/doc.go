// Package bind is the run-time half of the pipeline: it loads a native
// library against its interface manifest and dispatches calls through an
// ownership-safe wrapper layer.
//
// # Lifecycle
//
// A Library binds a backend to a manifest:
//
//	backend, _ := bind.NewDynamicBackend("libabsl_shim.so")
//	lib, _ := bind.New(backend, man, bind.Options{
//		HandleTypes: []bind.HandleType{
//			{Name: "absl_state", Release: "absl_state_free"},
//		},
//	})
//	_ = lib.Init(ctx)
//	defer lib.Teardown(ctx)
//
// Init resolves every manifest symbol up front so version skew between
// the manifest and the loaded library surfaces at load time, not on the
// Nth call. Teardown refuses while calls are in flight.
//
// # Handles
//
// Opaque native resources are held as BoundHandle values. Each handle is
// the sole owner of its pointer: Close releases through the type's
// release entry point exactly once, Move transfers ownership and
// invalidates the source, and an owned-transfer-in parameter consumes
// the handle it is given. Every use after invalidation fails with
// invalid_handle; slots are generation-counted so recycled slots can
// never satisfy a stale handle.
//
// # Calls
//
// Library.Call validates arguments against the manifest signature,
// widens primitives to the ABI slot width, and stages size output
// parameters itself. Buffer returns are copied into a staging.Buffer
// sized to the length the native side reported; a buffer return without
// a paired length output is refused.
//
// A panic reaching the native boundary aborts the process. Unwinding
// through foreign frames is undefined behavior, so the guard converts
// the panic into a logged, deterministic exit.
//
// # Backends
//
// Two backends satisfy the same contract: DynamicBackend dispatches
// through purego against a shared library, WasmBackend runs the library
// compiled to WebAssembly under wazero. Bound code is identical over
// either.
package bind
