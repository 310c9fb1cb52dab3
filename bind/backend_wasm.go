package bind

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/Azzybana/astd"
	"github.com/Azzybana/astd/errors"
)

// WasmBackend runs a native library compiled to WebAssembly under
// wazero. Linear memory gives buffer returns a bounds-checked read path
// for free; out slots are staged through the module's exported
// allocator when it has one.
type WasmBackend struct {
	runtime wazero.Runtime
	mod     api.Module
	malloc  api.Function
	free    api.Function
}

// NewWasmBackend compiles and instantiates a wasm module from its
// binary form.
func NewWasmBackend(ctx context.Context, wasm []byte) (*WasmBackend, error) {
	rt := wazero.NewRuntime(ctx)

	mod, err := rt.Instantiate(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Cause(err).
			Detail("instantiating wasm module").
			Build()
	}

	return &WasmBackend{
		runtime: rt,
		mod:     mod,
		malloc:  mod.ExportedFunction("malloc"),
		free:    mod.ExportedFunction("free"),
	}, nil
}

func (b *WasmBackend) Lookup(name string) (astd.Symbol, error) {
	fn := b.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.SymbolMissing(name, nil)
	}
	return &wasmSymbol{fn: fn}, nil
}

func (b *WasmBackend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

func (b *WasmBackend) Memory() astd.Memory {
	return &wasmMemory{mem: b.mod.Memory()}
}

// NewOutSlot allocates 4 bytes of guest memory for a size output. Wasm32
// size_t is 32 bits. Modules without an exported malloc cannot stage
// output parameters.
func (b *WasmBackend) NewOutSlot(ctx context.Context) (OutSlot, error) {
	if b.malloc == nil {
		return nil, errors.Unsupported(errors.PhaseCall, "wasm module exports no malloc")
	}
	res, err := b.malloc.Call(ctx, 4)
	if err != nil || len(res) == 0 || res[0] == 0 {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Cause(err).
			Detail("allocating guest out slot").
			Build()
	}
	return &wasmOutSlot{backend: b, ctx: ctx, addr: uint32(res[0])}, nil
}

type wasmSymbol struct {
	fn api.Function
}

func (s *wasmSymbol) Call(ctx context.Context, args ...uint64) (uint64, error) {
	res, err := s.fn.Call(ctx, args...)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

type wasmMemory struct {
	mem api.Memory
}

func (m *wasmMemory) Read(addr uint64, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, errors.Unsupported(errors.PhaseCall, "wasm module exports no memory")
	}
	view, ok := m.mem.Read(uint32(addr), length)
	if !ok {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Detail("read of %d byte(s) at 0x%x out of bounds", length, addr).
			Build()
	}
	// The view aliases linear memory and goes stale on growth.
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

type wasmOutSlot struct {
	backend *WasmBackend
	ctx     context.Context
	addr    uint32
}

func (s *wasmOutSlot) Arg() uint64 { return uint64(s.addr) }

func (s *wasmOutSlot) Value() (uint64, error) {
	v, ok := s.backend.mod.Memory().ReadUint32Le(s.addr)
	if !ok {
		return 0, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Detail("out slot at 0x%x out of bounds", s.addr).
			Build()
	}
	return uint64(v), nil
}

func (s *wasmOutSlot) Release() {
	if s.backend.free != nil {
		_, _ = s.backend.free.Call(s.ctx, uint64(s.addr))
	}
}
