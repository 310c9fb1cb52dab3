package manifest

import (
	"bytes"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/Azzybana/astd/errors"
)

func sampleManifest() *InterfaceManifest {
	return &InterfaceManifest{
		FormatVersion: FormatVersion,
		SourceDigest:  Digest([]byte("int32_t absl_add(int32_t a, int32_t b);")),
		Types: []TypeDescriptor{
			{Name: "int32_t", Size: 4, Align: 4, Class: ClassPrimitive},
			{Name: "size_t", Size: 8, Align: 8, Class: ClassPrimitive},
			{Name: "absl_state", Size: 8, Align: 8, Class: ClassOpaqueHandle},
			{Name: "char*", Size: 8, Align: 8, Class: ClassBuffer},
		},
		Functions: []FunctionSignature{
			{
				Name:     "absl_add",
				Header:   "base.h",
				CallConv: "cdecl",
				Params: []Param{
					{Name: "a", Type: "int32_t", Ownership: OwnershipBorrowed},
					{Name: "b", Type: "int32_t", Ownership: OwnershipBorrowed},
				},
				Return: Result{Type: "int32_t", Ownership: OwnershipBorrowed},
			},
			{
				Name:     "absl_state_new",
				Header:   "base.h",
				CallConv: "cdecl",
				Return:   Result{Type: "absl_state", Ownership: OwnershipOwnedOut, Nullable: true},
			},
			{
				Name:     "absl_state_serialize",
				Header:   "base.h",
				CallConv: "cdecl",
				Params: []Param{
					{Name: "s", Type: "absl_state", Ownership: OwnershipBorrowed},
					{Name: "len", Type: "size_t", Ownership: OwnershipBorrowed, LengthOut: true},
				},
				Return: Result{
					Type:        "char*",
					Ownership:   OwnershipOwnedOut,
					Nullable:    true,
					LengthParam: "len",
				},
			},
		},
	}
}

func TestManifest_Validate(t *testing.T) {
	if err := sampleManifest().Validate(); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}
}

func TestManifest_Validate_UnresolvedType(t *testing.T) {
	m := sampleManifest()
	m.Functions[0].Params[0].Type = "uint128_t"
	if err := m.Validate(); err == nil {
		t.Fatal("expected unresolved parameter type to be rejected")
	}
}

func TestManifest_Validate_BufferWithoutLength(t *testing.T) {
	m := sampleManifest()
	m.Functions[2].Return.LengthParam = ""
	err := m.Validate()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindUnreportedLength}) {
		t.Fatalf("expected unreported_length, got %v", err)
	}
}

func TestManifest_Validate_LengthParamNotOutput(t *testing.T) {
	m := sampleManifest()
	m.Functions[2].Params[1].LengthOut = false
	if err := m.Validate(); err == nil {
		t.Fatal("expected non-output length parameter to be rejected")
	}
}

func TestManifest_Validate_AmbiguousType(t *testing.T) {
	m := sampleManifest()
	m.Types = append(m.Types, TypeDescriptor{Name: "absl_state", Size: 4, Align: 4, Class: ClassEnumTag})
	err := m.Validate()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseExtract, Kind: errors.KindAmbiguousType}) {
		t.Fatalf("expected ambiguous_type, got %v", err)
	}
}

func TestManifest_EncodeDeterminism(t *testing.T) {
	a, err := sampleManifest().Encode()
	if err != nil {
		t.Fatal(err)
	}
	b, err := sampleManifest().Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("two encodings of the same manifest differ")
	}
}

func TestManifest_WriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astd.manifest.json")
	m := sampleManifest()

	if err := m.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.SourceDigest != m.SourceDigest {
		t.Fatal("digest lost in round trip")
	}
	if len(loaded.Functions) != len(m.Functions) || len(loaded.Types) != len(m.Types) {
		t.Fatal("entries lost in round trip")
	}
	if loaded.Functions[2].Return.LengthParam != "len" {
		t.Fatal("length pairing lost in round trip")
	}
}

func TestManifest_LoadFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astd.manifest.json")
	m := sampleManifest()
	if err := m.Write(path); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFresh(path, m.SourceDigest); err != nil {
		t.Fatalf("fresh manifest rejected: %v", err)
	}

	_, err := LoadFresh(path, Digest([]byte("changed headers")))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindStaleManifest}) {
		t.Fatalf("expected stale_manifest, got %v", err)
	}
}

func TestDecode_WrongVersion(t *testing.T) {
	m := sampleManifest()
	m.FormatVersion = FormatVersion + 1
	data, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}

	_, err = Decode(data)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindStaleManifest}) {
		t.Fatalf("expected stale_manifest for wrong version, got %v", err)
	}
}

func TestManifest_Lookups(t *testing.T) {
	m := sampleManifest()

	if _, ok := m.Type("absl_state"); !ok {
		t.Fatal("Type lookup failed")
	}
	if _, ok := m.Type("nope"); ok {
		t.Fatal("Type lookup matched missing name")
	}
	f, ok := m.Function("absl_add")
	if !ok || len(f.Params) != 2 {
		t.Fatal("Function lookup failed")
	}
}

func TestManifest_Write_InvalidNotEmitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astd.manifest.json")
	m := sampleManifest()
	m.Functions[2].Return.LengthParam = ""

	if err := m.Write(path); err == nil {
		t.Fatal("expected Write of invalid manifest to fail")
	}
	if _, err := Load(path); err == nil {
		t.Fatal("partial manifest was emitted")
	}
}
