package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseExtract Phase = "extract" // header scanning
	PhaseSynth   Phase = "synth"   // binding generation
	PhaseLoad    Phase = "load"    // library/manifest loading
	PhaseCall    Phase = "call"    // native call dispatch
	PhaseStage   Phase = "stage"   // staging container operations
)

// Kind categorizes the error
type Kind string

const (
	KindMissingHeader        Kind = "missing_header"
	KindUnparsableDecl       Kind = "unparsable_declaration"
	KindAmbiguousType        Kind = "ambiguous_type"
	KindUnsupportedCallConv  Kind = "unsupported_calling_convention"
	KindUnsupportedOwnership Kind = "unsupported_ownership"
	KindNameCollision        Kind = "name_collision"
	KindInvalidHandle        Kind = "invalid_handle"
	KindUnreportedLength     Kind = "unreported_length"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindSymbolMissing        Kind = "symbol_missing"
	KindTeardownBusy         Kind = "teardown_busy"
	KindStaleManifest        Kind = "stale_manifest"
	KindNotInitialized       Kind = "not_initialized"
	KindInvalidInput         Kind = "invalid_input"
	KindUnsupported          Kind = "unsupported"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause      error
	Phase      Phase
	Kind       Kind
	NativeType string
	Symbol     string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Symbol != "" {
		b.WriteString(": symbol ")
		b.WriteString(e.Symbol)
	}

	if e.NativeType != "" {
		if e.Symbol != "" {
			b.WriteString(", native type ")
		} else {
			b.WriteString(": native type ")
		}
		b.WriteString(e.NativeType)
	}

	if e.Detail != "" {
		if e.Symbol != "" || e.NativeType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the declaration or field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Symbol sets the native symbol name
func (b *Builder) Symbol(s string) *Builder {
	b.err.Symbol = s
	return b
}

// NativeType sets the native type name
func (b *Builder) NativeType(t string) *Builder {
	b.err.NativeType = t
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MissingHeader creates an error for a header that could not be located
func MissingHeader(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseExtract,
		Kind:   KindMissingHeader,
		Detail: fmt.Sprintf("header %q not found", path),
		Cause:  cause,
	}
}

// UnparsableDecl creates an error for a declaration that pattern rules
// could not classify
func UnparsableDecl(header, decl string) *Error {
	return &Error{
		Phase:  PhaseExtract,
		Kind:   KindUnparsableDecl,
		Path:   []string{header},
		Detail: fmt.Sprintf("declaration %q could not be classified", decl),
	}
}

// AmbiguousType creates an error for a type seen with conflicting
// classifications
func AmbiguousType(name, first, second string) *Error {
	return &Error{
		Phase:      PhaseExtract,
		Kind:       KindAmbiguousType,
		NativeType: name,
		Detail:     fmt.Sprintf("declared as %s, redeclared as %s", first, second),
	}
}

// UnsupportedCallConv creates an error for a calling convention the
// synthesizer cannot express
func UnsupportedCallConv(symbol, conv string) *Error {
	return &Error{
		Phase:  PhaseExtract,
		Kind:   KindUnsupportedCallConv,
		Symbol: symbol,
		Detail: conv,
	}
}

// UnsupportedOwnership creates an error for an ownership pattern the
// synthesizer cannot express safely
func UnsupportedOwnership(symbol, detail string) *Error {
	return &Error{
		Phase:  PhaseSynth,
		Kind:   KindUnsupportedOwnership,
		Symbol: symbol,
		Detail: detail,
	}
}

// NameCollision creates an error for two declarations mapping to the same
// generated name
func NameCollision(name, firstHeader, secondHeader string) *Error {
	return &Error{
		Phase:  PhaseSynth,
		Kind:   KindNameCollision,
		Detail: fmt.Sprintf("generated name %q claimed by both %s and %s", name, firstHeader, secondHeader),
	}
}

// InvalidHandle creates an error for use of a consumed, moved, or zero
// handle
func InvalidHandle(detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindInvalidHandle,
		Detail: detail,
	}
}

// UnreportedLength creates an error for a buffer result with no paired
// length output
func UnreportedLength(phase Phase, symbol string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnreportedLength,
		Symbol: symbol,
		Detail: "buffer result has no accompanying length output",
	}
}

// CapacityExceeded creates an error for growth past fixed inline capacity
func CapacityExceeded(need, capacity int) *Error {
	return &Error{
		Phase:  PhaseStage,
		Kind:   KindCapacityExceeded,
		Detail: fmt.Sprintf("need %d bytes, fixed capacity %d", need, capacity),
	}
}

// SymbolMissing creates an error for an entry point absent from the
// loaded library
func SymbolMissing(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindSymbolMissing,
		Symbol: symbol,
		Cause:  cause,
	}
}

// TeardownBusy creates an error for teardown attempted with calls in flight
func TeardownBusy(active int64) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTeardownBusy,
		Detail: fmt.Sprintf("%d native call(s) in flight", active),
	}
}

// StaleManifest creates an error for a manifest whose source digest no
// longer matches the headers
func StaleManifest(want, got string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindStaleManifest,
		Detail: fmt.Sprintf("source digest %s, manifest digest %s", want, got),
	}
}

// NotInitialized creates an error for use of the library before Init
func NotInitialized(component string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
