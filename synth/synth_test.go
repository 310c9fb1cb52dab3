package synth

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

func sampleManifest() *manifest.InterfaceManifest {
	return &manifest.InterfaceManifest{
		FormatVersion: manifest.FormatVersion,
		SourceDigest:  "cafe",
		Types: []manifest.TypeDescriptor{
			{Name: "int", Size: 4, Align: 4, Class: manifest.ClassPrimitive},
			{Name: "size_t", Size: 8, Align: 8, Class: manifest.ClassPrimitive},
			{Name: "char*", Size: 8, Align: 8, Class: manifest.ClassBuffer},
			{Name: "absl_state", Size: 8, Align: 8, Class: manifest.ClassOpaqueHandle},
		},
		Functions: []manifest.FunctionSignature{
			{
				Name: "absl_add", Header: "base.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "a", Type: "int", Ownership: manifest.OwnershipBorrowed},
					{Name: "b", Type: "int", Ownership: manifest.OwnershipBorrowed},
				},
				Return: manifest.Result{Type: "int", Ownership: manifest.OwnershipBorrowed},
			},
			{
				Name: "absl_state_new", Header: "state.h", CallConv: "c",
				Return: manifest.Result{Type: "absl_state", Ownership: manifest.OwnershipOwnedOut},
			},
			{
				Name: "absl_state_free", Header: "state.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "s", Type: "absl_state", Ownership: manifest.OwnershipOwnedIn},
				},
			},
			{
				Name: "absl_state_serialize", Header: "state.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "s", Type: "absl_state", Ownership: manifest.OwnershipBorrowed},
					{Name: "len", Type: "size_t", Ownership: manifest.OwnershipBorrowed, LengthOut: true},
				},
				Return: manifest.Result{Type: "char*", Ownership: manifest.OwnershipBorrowed, LengthParam: "len"},
			},
		},
	}
}

func TestGenerate_WrapperShapes(t *testing.T) {
	src, err := New(Options{Package: "absl", TrimPrefix: "absl_"}).Generate(sampleManifest())
	if err != nil {
		t.Fatal(err)
	}
	code := string(src)

	for _, want := range []string{
		"package absl",
		"type State struct {",
		"h *bind.BoundHandle",
		"func Add(ctx context.Context, lib *bind.Library, a int32, b int32) (int32, error)",
		"func StateNew(ctx context.Context, lib *bind.Library) (*State, error)",
		"func StateFree(ctx context.Context, lib *bind.Library, s *State) error",
		"func StateSerialize(ctx context.Context, lib *bind.Library, s *State) (*staging.Buffer, error)",
		`lib.Call(ctx, "absl_add", a, b)`,
	} {
		if !strings.Contains(code, want) {
			t.Fatalf("generated source missing %q:\n%s", want, code)
		}
	}

	// The length output is staged by the runtime, never a wrapper arg.
	if strings.Contains(code, "len_ ") || strings.Contains(code, ", len ") {
		t.Fatalf("length output leaked into a wrapper signature:\n%s", code)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	s := New(Options{TrimPrefix: "absl_"})
	a, err := s.Generate(sampleManifest())
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Generate(sampleManifest())
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("identical manifests produced different source")
	}
}

func TestGenerate_RefusesBufferReturnWithoutLength(t *testing.T) {
	man := sampleManifest()
	for i := range man.Functions {
		if man.Functions[i].Name == "absl_state_serialize" {
			man.Functions[i].Return.LengthParam = ""
			man.Functions[i].Params = man.Functions[i].Params[:1]
		}
	}

	_, err := New(Options{}).Generate(man)
	if err == nil {
		t.Fatal("buffer return without length was accepted")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnreportedLength {
		t.Fatalf("got %v, want unreported_length", err)
	}
}

func TestGenerate_RefusesBorrowedHandleReturn(t *testing.T) {
	man := sampleManifest()
	for i := range man.Functions {
		if man.Functions[i].Name == "absl_state_new" {
			man.Functions[i].Return.Ownership = manifest.OwnershipBorrowed
		}
	}

	_, err := New(Options{}).Generate(man)
	want := &errors.Error{Phase: errors.PhaseSynth, Kind: errors.KindUnsupportedOwnership}
	if !stderrors.Is(err, want) {
		t.Fatalf("got %v, want unsupported_ownership", err)
	}
}

func TestGenerate_CrossHeaderCollisionPrefixed(t *testing.T) {
	man := &manifest.InterfaceManifest{
		FormatVersion: manifest.FormatVersion,
		SourceDigest:  "cafe",
		Types: []manifest.TypeDescriptor{
			{Name: "int", Size: 4, Align: 4, Class: manifest.ClassPrimitive},
		},
		Functions: []manifest.FunctionSignature{
			{
				Name: "hash_reset", Header: "hash.h", CallConv: "c",
				Return: manifest.Result{Type: "int"},
			},
			{
				Name: "hashReset", Header: "compat.h", CallConv: "c",
				Return: manifest.Result{Type: "int"},
			},
		},
	}

	src, err := New(Options{}).Generate(man)
	if err != nil {
		t.Fatal(err)
	}
	code := string(src)
	if !strings.Contains(code, "func HashHashReset(") || !strings.Contains(code, "func CompatHashReset(") {
		t.Fatalf("collision not header-prefixed:\n%s", code)
	}
}

func TestWriteFile_NoPartialOutputOnFailure(t *testing.T) {
	man := sampleManifest()
	for i := range man.Functions {
		if man.Functions[i].Name == "absl_state_serialize" {
			man.Functions[i].Return.LengthParam = ""
			man.Functions[i].Params = man.Functions[i].Params[:1]
		}
	}

	path := filepath.Join(t.TempDir(), "bindings.go")
	if err := New(Options{}).WriteFile(path, man); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("failed synthesis left output behind")
	}
}

func TestWriteFile_EmitsFormattedSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.go")
	if err := New(Options{Package: "absl", TrimPrefix: "absl_"}).WriteFile(path, sampleManifest()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "// Code generated by astdgen. DO NOT EDIT.") {
		t.Fatal("missing generated-code header")
	}
}
