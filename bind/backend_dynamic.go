//go:build darwin || linux || windows

package bind

import (
	"context"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/Azzybana/astd"
	"github.com/Azzybana/astd/errors"
)

// DynamicBackend loads a shared library at run time and dispatches calls
// through raw symbol addresses. No cgo, no generated assembly per
// symbol.
type DynamicBackend struct {
	handle uintptr
	path   string
}

// NewDynamicBackend opens the shared library at path.
func NewDynamicBackend(path string) (*DynamicBackend, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Cause(err).
			Detail("opening shared library %q", path).
			Build()
	}
	return &DynamicBackend{handle: handle, path: path}, nil
}

func (b *DynamicBackend) Lookup(name string) (astd.Symbol, error) {
	addr, err := lookupSymbol(b.handle, name)
	if err != nil {
		return nil, errors.SymbolMissing(name, err)
	}
	return &dynamicSymbol{addr: addr}, nil
}

func (b *DynamicBackend) Close(ctx context.Context) error {
	return closeLibrary(b.handle)
}

func (b *DynamicBackend) Memory() astd.Memory {
	return nativeMemory{}
}

// NewOutSlot stages a size output in host memory. The slot is pinned so
// its address stays valid while the native side holds it.
func (b *DynamicBackend) NewOutSlot(ctx context.Context) (OutSlot, error) {
	s := &dynamicOutSlot{}
	s.pin.Pin(&s.value)
	return s, nil
}

type dynamicSymbol struct {
	addr uintptr
}

func (s *dynamicSymbol) Call(ctx context.Context, args ...uint64) (uint64, error) {
	raw := make([]uintptr, len(args))
	for i, a := range args {
		raw[i] = uintptr(a)
	}
	r1, _, _ := purego.SyscallN(s.addr, raw...)
	return uint64(r1), nil
}

// nativeMemory reads host address space directly. The wrapper layer only
// reaches here with a pointer and length the native side just reported,
// so the read is as trustworthy as the library itself.
type nativeMemory struct{}

func (nativeMemory) Read(addr uint64, length uint32) ([]byte, error) {
	if addr == 0 {
		return nil, errors.InvalidInput(errors.PhaseCall, "read from null native pointer")
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length)
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

type dynamicOutSlot struct {
	value uint64
	pin   runtime.Pinner
}

func (s *dynamicOutSlot) Arg() uint64 {
	return uint64(uintptr(unsafe.Pointer(&s.value)))
}

func (s *dynamicOutSlot) Value() (uint64, error) {
	return s.value, nil
}

func (s *dynamicOutSlot) Release() {
	s.pin.Unpin()
}
