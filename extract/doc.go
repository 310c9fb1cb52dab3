// Package extract scans C headers and produces the interface manifest
// the rest of the pipeline consumes.
//
// # Recognition, not parsing
//
// The extractor is a pattern recognizer built from regular expressions
// and a small statement scanner. It understands the restricted shim
// dialect an FFI surface is written in: function prototypes, opaque
// typedefs (typedef struct X X;), enum typedefs, and primitive aliases.
// Comments are stripped first; local #include "..." directives are
// followed through the include search paths, each header visited once,
// declarations recorded in first-seen order.
//
// Anything outside the dialect is either ignored (full C++ constructs
// the shim wraps) or a hard error when it sits inside a recognized
// declaration. A parameter that cannot be classified fails extraction;
// nothing is ever guessed.
//
// # Layout tables
//
// Type sizes and alignments are resolved against a per-target layout
// table (lp64, llp64, wasm32) chosen by configuration. The host the
// extractor runs on plays no part.
//
// # Ownership rules
//
// Ownership inference is driven by configurable naming rules: acquire
// suffixes mark constructors (owned-transfer-out returns), release
// suffixes mark destructors (consumed parameters), const pointers are
// borrowed, and a non-const size_t pointer with a recognized name is a
// length output. See Rules and DefaultRules.
//
// # Determinism
//
// Identical inputs produce a byte-identical manifest: headers are
// scanned in include order, declarations kept in textual order, and the
// source digest covers header bytes in scan order. Extraction either
// yields a fully validated manifest or an error, never a partial one.
package extract
