// Package manifest defines the interface manifest: the intermediate
// structured description of a native library's public surface, produced
// by the extract package and consumed by the synth package.
//
// A manifest holds type descriptors and function signatures in first-seen
// declaration order. Ordering is part of the contract: re-extracting the
// same headers must produce a byte-identical manifest so generated
// bindings are reproducible across builds.
//
// The manifest is build-scoped. It carries a format version (wrong
// version → rejected) and a digest of the scanned header bytes
// (mismatch → stale, regenerate). It is never persisted beyond the build
// directory and never partially written.
package manifest
