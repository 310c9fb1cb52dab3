package bind

import (
	"context"

	"github.com/Azzybana/astd"
	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

type fakeSymbol struct {
	fn func(args ...uint64) (uint64, error)
}

func (s *fakeSymbol) Call(_ context.Context, args ...uint64) (uint64, error) {
	return s.fn(args...)
}

// fakeBackend is an in-process stand-in for a loaded native library.
// Symbols are Go closures; native memory is a map of fake addresses to
// byte slices.
type fakeBackend struct {
	syms   map[string]func(args ...uint64) (uint64, error)
	mem    map[uint64][]byte
	slot   *fakeOutSlot
	closed bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		syms: make(map[string]func(args ...uint64) (uint64, error)),
		mem:  make(map[uint64][]byte),
	}
}

func (b *fakeBackend) Lookup(name string) (astd.Symbol, error) {
	fn, ok := b.syms[name]
	if !ok {
		return nil, errors.SymbolMissing(name, nil)
	}
	return &fakeSymbol{fn: fn}, nil
}

func (b *fakeBackend) Close(context.Context) error {
	b.closed = true
	return nil
}

func (b *fakeBackend) Memory() astd.Memory { return fakeMemory{b: b} }

func (b *fakeBackend) NewOutSlot(context.Context) (OutSlot, error) {
	b.slot = &fakeOutSlot{}
	return b.slot, nil
}

type fakeMemory struct {
	b *fakeBackend
}

func (m fakeMemory) Read(addr uint64, length uint32) ([]byte, error) {
	data, ok := m.b.mem[addr]
	if !ok || int(length) > len(data) {
		return nil, errors.InvalidInput(errors.PhaseCall, "fake read out of bounds")
	}
	return data[:length], nil
}

// fakeOutSlot advertises a sentinel address; the fake symbol writes the
// length back through the backend's slot field.
type fakeOutSlot struct {
	value    uint64
	released bool
}

func (s *fakeOutSlot) Arg() uint64            { return 0xA110C }
func (s *fakeOutSlot) Value() (uint64, error) { return s.value, nil }
func (s *fakeOutSlot) Release()               { s.released = true }

func testManifest() *manifest.InterfaceManifest {
	return &manifest.InterfaceManifest{
		FormatVersion: manifest.FormatVersion,
		SourceDigest:  "cafe",
		Types: []manifest.TypeDescriptor{
			{Name: "int32", Size: 4, Align: 4, Class: manifest.ClassPrimitive},
			{Name: "size_t", Size: 8, Align: 8, Class: manifest.ClassPrimitive},
			{Name: "absl_state", Size: 8, Align: 8, Class: manifest.ClassOpaqueHandle},
			{Name: "bytes", Size: 8, Align: 8, Class: manifest.ClassBuffer},
		},
		Functions: []manifest.FunctionSignature{
			{
				Name: "absl_add", Header: "base.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "a", Type: "int32", Ownership: manifest.OwnershipBorrowed},
					{Name: "b", Type: "int32", Ownership: manifest.OwnershipBorrowed},
				},
				Return: manifest.Result{Type: "int32"},
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
				Name: "absl_state_merge", Header: "state.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "dst", Type: "absl_state", Ownership: manifest.OwnershipBorrowed},
					{Name: "src", Type: "absl_state", Ownership: manifest.OwnershipOwnedIn},
				},
			},
			{
				Name: "absl_state_serialize", Header: "state.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "s", Type: "absl_state", Ownership: manifest.OwnershipBorrowed},
					{Name: "len", Type: "size_t", Ownership: manifest.OwnershipBorrowed, LengthOut: true},
				},
				Return: manifest.Result{Type: "bytes", LengthParam: "len"},
			},
			{
				Name: "absl_state_store", Header: "state.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "s", Type: "absl_state", Ownership: manifest.OwnershipOwnedIn},
					{Name: "slot", Type: "int32", Ownership: manifest.OwnershipBorrowed},
				},
			},
			{
				Name: "absl_negate", Header: "base.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "v", Type: "int32", Ownership: manifest.OwnershipBorrowed},
				},
				Return: manifest.Result{Type: "int32"},
			},
		},
	}
}

func testLibrary(t interface {
	Helper()
	Fatal(...any)
}, fb *fakeBackend) *Library {
	t.Helper()

	man := testManifest()
	for _, fn := range man.Functions {
		if _, ok := fb.syms[fn.Name]; !ok {
			fb.syms[fn.Name] = func(...uint64) (uint64, error) { return 0, nil }
		}
	}

	lib, err := New(fb, man, Options{
		HandleTypes: []HandleType{{Name: "absl_state", Release: "absl_state_free"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return lib
}
