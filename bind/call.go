package bind

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
	"github.com/Azzybana/astd/staging"
)

// CallResult holds a decoded native return value. Exactly one of the
// accessors is meaningful, determined by the manifest's return
// descriptor for the called function.
type CallResult struct {
	raw    uint64
	size   uint32
	handle *BoundHandle
	buf    *staging.Buffer
	null   bool
	void   bool
}

// Uint64 returns the raw primitive or enum-tag return value.
func (r *CallResult) Uint64() uint64 { return r.raw }

// Int64 returns the primitive return value sign-extended from its
// native width.
func (r *CallResult) Int64() int64 { return int64(signExtend(r.raw, r.size)) }

// Bool interprets the return value as a native boolean.
func (r *CallResult) Bool() bool { return r.raw != 0 }

// Float32 interprets the return slot as a native float.
func (r *CallResult) Float32() float32 { return math.Float32frombits(uint32(r.raw)) }

// Float64 interprets the return slot as a native double.
func (r *CallResult) Float64() float64 { return math.Float64frombits(r.raw) }

// Handle returns the adopted handle for an owned-transfer-out return,
// or nil for any other return shape.
func (r *CallResult) Handle() *BoundHandle { return r.handle }

// Buffer returns the staged copy of a buffer return, or nil for any
// other return shape. The caller owns the buffer and should Put it back
// when done.
func (r *CallResult) Buffer() *staging.Buffer { return r.buf }

// IsNull reports whether a nullable return came back null.
func (r *CallResult) IsNull() bool { return r.null }

// IsVoid reports whether the function returns nothing.
func (r *CallResult) IsVoid() bool { return r.void }

// Call invokes a manifest function by symbol name. Arguments are
// supplied in declaration order, skipping length output parameters,
// which the library stages itself. Opaque handle parameters take a
// *BoundHandle; owned-transfer-in parameters consume it.
func (l *Library) Call(ctx context.Context, name string, args ...any) (*CallResult, error) {
	// The counter covers marshaling too: Teardown must not close the
	// backend between the state check and the symbol invocation.
	l.active.Add(1)
	defer l.active.Add(-1)

	if l.state.Load() != stateReady {
		return nil, errors.NotInitialized("library")
	}

	fn, ok := l.man.Function(name)
	if !ok {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(name).
			Detail("function not in manifest").
			Build()
	}
	sym, err := l.symbol(name)
	if err != nil {
		return nil, err
	}

	raw, lengthSlot, err := l.marshalArgs(ctx, fn, args)
	if err != nil {
		return nil, err
	}
	if lengthSlot != nil {
		defer lengthSlot.Release()
	}

	var ret uint64
	err = guardRegion(name, func() error {
		var callErr error
		ret, callErr = sym.Call(ctx, raw...)
		return callErr
	})
	if err != nil {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(name).
			Cause(err).
			Detail("native call failed").
			Build()
	}

	Logger().Debug("native call", zap.String("symbol", name), zap.Int("args", len(raw)))
	return l.decodeReturn(fn, ret, lengthSlot)
}

// marshalArgs converts caller arguments into ABI slots. Length output
// parameters are filled from backend-staged out slots; at most one per
// function, paired with the buffer return.
func (l *Library) marshalArgs(ctx context.Context, fn manifest.FunctionSignature, args []any) ([]uint64, OutSlot, error) {
	expected := 0
	for _, p := range fn.Params {
		if !p.LengthOut {
			expected++
		}
	}
	if len(args) != expected {
		return nil, nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(fn.Name).
			Detail("got %d argument(s), signature takes %d", len(args), expected).
			Build()
	}

	raw := make([]uint64, len(fn.Params))
	var lengthSlot OutSlot
	var consumed []*BoundHandle
	next := 0
	for i, p := range fn.Params {
		if p.LengthOut {
			ob, ok := l.backend.(OutSlotBackend)
			if !ok {
				return nil, nil, errors.Unsupported(errors.PhaseCall,
					"backend cannot stage length output parameter "+p.Name)
			}
			slot, err := ob.NewOutSlot(ctx)
			if err != nil {
				return nil, nil, err
			}
			lengthSlot = slot
			raw[i] = slot.Arg()
			continue
		}

		td, _ := l.man.Type(p.Type)
		v, owned, err := l.marshalOne(fn.Name, p, td, args[next])
		if err != nil {
			if lengthSlot != nil {
				lengthSlot.Release()
			}
			return nil, nil, err
		}
		if owned != nil {
			consumed = append(consumed, owned)
		}
		raw[i] = v
		next++
	}

	// Ownership transfers only once every argument has validated, so a
	// failed call leaves the caller's handles intact.
	for _, h := range consumed {
		if _, err := h.Consume(); err != nil {
			if lengthSlot != nil {
				lengthSlot.Release()
			}
			return nil, nil, err
		}
	}
	return raw, lengthSlot, nil
}

// marshalOne resolves one argument. An owned-transfer-in handle is
// borrowed here and returned for consumption after the full argument
// list has validated.
func (l *Library) marshalOne(symbol string, p manifest.Param, td manifest.TypeDescriptor, arg any) (uint64, *BoundHandle, error) {
	switch td.Class {
	case manifest.ClassOpaqueHandle:
		h, ok := arg.(*BoundHandle)
		if !ok {
			return 0, nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
				Symbol(symbol).
				NativeType(td.Name).
				Detail("parameter %q expects a bound handle, got %T", p.Name, arg).
				Build()
		}
		if h.TypeName() != td.Name {
			return 0, nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
				Symbol(symbol).
				NativeType(td.Name).
				Detail("parameter %q: handle wraps %s", p.Name, h.TypeName()).
				Build()
		}
		ptr, err := h.Ptr()
		if err != nil {
			return 0, nil, err
		}
		if p.Ownership == manifest.OwnershipOwnedIn {
			return uint64(ptr), h, nil
		}
		return uint64(ptr), nil, nil

	case manifest.ClassBuffer:
		switch x := arg.(type) {
		case uintptr:
			return uint64(x), nil, nil
		case uint64:
			return x, nil, nil
		default:
			return 0, nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
				Symbol(symbol).
				NativeType(td.Name).
				Detail("parameter %q expects a raw buffer address, got %T", p.Name, arg).
				Build()
		}

	default:
		v, err := coerceArg(symbol, p, td, arg)
		return v, nil, err
	}
}

func (l *Library) decodeReturn(fn manifest.FunctionSignature, ret uint64, lengthSlot OutSlot) (*CallResult, error) {
	if fn.Return.Type == "" {
		return &CallResult{void: true}, nil
	}
	td, _ := l.man.Type(fn.Return.Type)

	switch td.Class {
	case manifest.ClassOpaqueHandle:
		if ret == 0 {
			if fn.Return.Nullable {
				return &CallResult{null: true}, nil
			}
			return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
				Symbol(fn.Name).
				NativeType(td.Name).
				Detail("non-nullable return came back null").
				Build()
		}
		if fn.Return.Ownership != manifest.OwnershipOwnedOut {
			return nil, errors.New(errors.PhaseCall, errors.KindUnsupportedOwnership).
				Symbol(fn.Name).
				NativeType(td.Name).
				Detail("handle return without ownership transfer").
				Build()
		}
		h, err := l.Adopt(td.Name, uintptr(ret))
		if err != nil {
			return nil, err
		}
		return &CallResult{raw: ret, handle: h}, nil

	case manifest.ClassBuffer:
		return l.stageBufferReturn(fn, td, ret, lengthSlot)

	default:
		return &CallResult{raw: ret, size: td.Size}, nil
	}
}

// stageBufferReturn copies a buffer result out of native memory into a
// staging buffer before the native side can reclaim it. The length
// always comes from the paired length output; the pointer alone is
// never trusted.
func (l *Library) stageBufferReturn(fn manifest.FunctionSignature, td manifest.TypeDescriptor, ret uint64, lengthSlot OutSlot) (*CallResult, error) {
	if lengthSlot == nil {
		return nil, errors.UnreportedLength(errors.PhaseCall, fn.Name)
	}
	length, err := lengthSlot.Value()
	if err != nil {
		return nil, err
	}
	if ret == 0 {
		if fn.Return.Nullable || length == 0 {
			return &CallResult{null: true}, nil
		}
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(fn.Name).
			NativeType(td.Name).
			Detail("buffer return is null with reported length %d", length).
			Build()
	}

	mem, ok := memoryOf(l.backend)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseCall,
			"backend exposes no readable memory for buffer return")
	}
	data, err := mem.Read(ret, uint32(length))
	if err != nil {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(fn.Name).
			Cause(err).
			Detail("reading %d byte(s) of buffer return", length).
			Build()
	}

	buf := staging.Get()
	if err := buf.Grow(len(data)); err != nil {
		staging.Put(buf)
		return nil, err
	}
	if _, err := buf.Write(data); err != nil {
		staging.Put(buf)
		return nil, err
	}
	return &CallResult{raw: ret, buf: buf}, nil
}
