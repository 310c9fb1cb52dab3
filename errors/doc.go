// Package errors provides the structured error taxonomy shared by the
// build-time pipeline and the runtime wrapper layer.
//
// Every failure carries a Phase (where in the pipeline) and a Kind (what
// went wrong), plus optional symbol, native type, and path context:
//
//	[extract] unparsable_declaration at base.h: declaration "..." could not be classified
//	[call] invalid_handle: handle already consumed
//
// Two *Error values match under errors.Is when Phase and Kind agree, so
// callers test categories rather than strings:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindInvalidHandle}) {
//	    ...
//	}
//
// Build-time kinds (missing_header, unparsable_declaration, ambiguous_type,
// unsupported_calling_convention, unsupported_ownership, name_collision)
// are fatal to generation: no partial manifest or bindings are written.
// Run-time kinds (invalid_handle, unreported_length, capacity_exceeded,
// symbol_missing, teardown_busy) are returned to the caller and never
// swallowed. A panic crossing the native boundary is not represented here
// at all; the bind package aborts the process instead.
package errors
