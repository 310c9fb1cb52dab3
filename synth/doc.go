// Package synth turns a validated interface manifest into Go binding
// source built on the bind runtime.
//
// For every opaque type the synthesizer emits a wrapper struct whose
// methods delegate to bind.BoundHandle, and for every function a typed
// wrapper that dispatches through bind.Library.Call. Ownership is
// expressed in the wrapper signatures: owned-transfer-out returns yield
// a wrapper value, owned-transfer-in parameters consume one.
//
// Synthesis refuses what it cannot express safely. A buffer return
// without a paired length output fails with unreported_length; a handle
// return without ownership transfer fails with unsupported_ownership;
// two symbols mapping to the same exported name are disambiguated with
// their header name, and a collision that survives that fails with
// name_collision. Output is all-or-nothing.
package synth
