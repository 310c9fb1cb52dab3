package manifest

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Azzybana/astd/errors"
)

// FormatVersion identifies the manifest serialization format. Loaders
// reject any other version so stale manifests are regenerated rather than
// silently reused.
const FormatVersion = 1

// Ownership describes who is responsible for releasing a value that
// crosses the boundary.
type Ownership string

const (
	// OwnershipBorrowed leaves the resource with its current owner for
	// the duration of the call. Value types are borrowed by definition.
	OwnershipBorrowed Ownership = "borrowed"

	// OwnershipOwnedIn transfers the resource into the native call; the
	// caller's handle is consumed.
	OwnershipOwnedIn Ownership = "owned-transfer-in"

	// OwnershipOwnedOut transfers a native resource out to the caller,
	// who must eventually release it.
	OwnershipOwnedOut Ownership = "owned-transfer-out"
)

// TypeClass classifies a native type for binding purposes.
type TypeClass string

const (
	ClassPrimitive    TypeClass = "primitive"
	ClassOpaqueHandle TypeClass = "opaque-handle"
	ClassBuffer       TypeClass = "raw-pointer-buffer"
	ClassEnumTag      TypeClass = "enum-tag"
)

// TypeDescriptor describes one native type. Size and alignment come from
// the target layout table at extraction time, never from assumptions.
// Opaque handles carry pointer size only; their internal layout is never
// exposed to bound code.
type TypeDescriptor struct {
	Name  string    `json:"name"`
	Size  uint32    `json:"size"`
	Align uint32    `json:"align"`
	Class TypeClass `json:"class"`
}

// Param is one function parameter.
type Param struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Ownership Ownership `json:"ownership"`

	// LengthOut marks a size output parameter (e.g. size_t *len) that
	// reports the length of a buffer result.
	LengthOut bool `json:"length_out,omitempty"`
}

// Result describes a function's return value. An empty Type means void.
type Result struct {
	Type      string    `json:"type,omitempty"`
	Ownership Ownership `json:"ownership,omitempty"`
	Nullable  bool      `json:"nullable,omitempty"`

	// LengthParam names the parameter that reports a buffer result's
	// length. Required whenever Type classifies as raw-pointer-buffer.
	LengthParam string `json:"length_param,omitempty"`
}

// FunctionSignature is one extracted native entry point.
type FunctionSignature struct {
	Name     string  `json:"name"`
	Header   string  `json:"header"`
	CallConv string  `json:"call_conv"`
	Params   []Param `json:"params"`
	Return   Result  `json:"return"`
}

// InterfaceManifest is the complete extracted interface, in first-seen
// declaration order. It is immutable once emitted: produced once per
// build, consumed once.
type InterfaceManifest struct {
	FormatVersion int                 `json:"format_version"`
	SourceDigest  string              `json:"source_digest"`
	Types         []TypeDescriptor    `json:"types"`
	Functions     []FunctionSignature `json:"functions"`
}

// Type returns the descriptor for a native type name.
func (m *InterfaceManifest) Type(name string) (TypeDescriptor, bool) {
	for _, t := range m.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeDescriptor{}, false
}

// Function returns the signature for a native symbol name.
func (m *InterfaceManifest) Function(name string) (FunctionSignature, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionSignature{}, false
}

// Validate checks the manifest invariants: every parameter and return
// type resolves to a declared descriptor, and every buffer result names a
// length parameter that exists and is marked as a length output.
func (m *InterfaceManifest) Validate() error {
	seen := make(map[string]TypeClass, len(m.Types))
	for _, t := range m.Types {
		if prev, ok := seen[t.Name]; ok && prev != t.Class {
			return errors.AmbiguousType(t.Name, string(prev), string(t.Class))
		}
		seen[t.Name] = t.Class
	}

	for _, f := range m.Functions {
		for _, p := range f.Params {
			if _, ok := seen[p.Type]; !ok {
				return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
					Symbol(f.Name).
					NativeType(p.Type).
					Detail("parameter %q has unresolved type", p.Name).
					Build()
			}
		}
		if f.Return.Type != "" {
			class, ok := seen[f.Return.Type]
			if !ok {
				return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
					Symbol(f.Name).
					NativeType(f.Return.Type).
					Detail("return has unresolved type").
					Build()
			}
			if class == ClassBuffer {
				if err := m.checkLengthParam(f); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (m *InterfaceManifest) checkLengthParam(f FunctionSignature) error {
	if f.Return.LengthParam == "" {
		return errors.UnreportedLength(errors.PhaseLoad, f.Name)
	}
	for _, p := range f.Params {
		if p.Name == f.Return.LengthParam {
			if !p.LengthOut {
				return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
					Symbol(f.Name).
					Detail("length parameter %q is not a length output", p.Name).
					Build()
			}
			return nil
		}
	}
	return errors.UnreportedLength(errors.PhaseLoad, f.Name)
}

// Digest computes the source digest over header contents in scan order.
func Digest(contents ...[]byte) string {
	h := sha256.New()
	for _, c := range contents {
		h.Write(c)
	}
	return hex.EncodeToString(h.Sum(nil))
}
