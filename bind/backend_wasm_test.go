package bind

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

// addModule is the binary encoding of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
var addModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type (i32,i32)->i32
	0x03, 0x02, 0x01, 0x00, // func 0 uses type 0
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // export "add"
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // body
}

func addManifest() *manifest.InterfaceManifest {
	return &manifest.InterfaceManifest{
		FormatVersion: manifest.FormatVersion,
		SourceDigest:  "wasmtest",
		Types: []manifest.TypeDescriptor{
			{Name: "int32", Size: 4, Align: 4, Class: manifest.ClassPrimitive},
		},
		Functions: []manifest.FunctionSignature{
			{
				Name: "add", Header: "add.h", CallConv: "c",
				Params: []manifest.Param{
					{Name: "a", Type: "int32", Ownership: manifest.OwnershipBorrowed},
					{Name: "b", Type: "int32", Ownership: manifest.OwnershipBorrowed},
				},
				Return: manifest.Result{Type: "int32"},
			},
		},
	}
}

func TestWasmBackend_EndToEndCall(t *testing.T) {
	ctx := context.Background()

	backend, err := NewWasmBackend(ctx, addModule)
	if err != nil {
		t.Fatal(err)
	}

	lib, err := New(backend, addManifest(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer lib.Teardown(ctx)

	res, err := lib.Call(ctx, "add", int32(2), int32(3))
	if err != nil {
		t.Fatal(err)
	}
	if res.Int64() != 5 {
		t.Fatalf("add(2,3) = %d", res.Int64())
	}
}

func TestWasmBackend_MissingExport(t *testing.T) {
	ctx := context.Background()

	backend, err := NewWasmBackend(ctx, addModule)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close(ctx)

	_, err = backend.Lookup("sub")
	want := &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindSymbolMissing}
	if !stderrors.Is(err, want) {
		t.Fatalf("got %v, want symbol_missing", err)
	}
}

func TestWasmBackend_BadModule(t *testing.T) {
	_, err := NewWasmBackend(context.Background(), []byte("not wasm"))
	if err == nil {
		t.Fatal("instantiated garbage bytes")
	}
}
