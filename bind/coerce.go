package bind

import (
	"math"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

// coerceArg converts a caller-supplied Go value into the uint64 slot the
// backend ABI expects, widened according to the manifest descriptor.
// Handles are resolved by the caller before reaching here.
func coerceArg(symbol string, p manifest.Param, td manifest.TypeDescriptor, v any) (uint64, error) {
	switch td.Class {
	case manifest.ClassPrimitive, manifest.ClassEnumTag:
	default:
		return 0, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(symbol).
			NativeType(td.Name).
			Detail("parameter %q expects a handle or buffer, got %T", p.Name, v).
			Build()
	}

	var raw uint64
	switch x := v.(type) {
	case uint64:
		raw = x
	case int64:
		raw = uint64(x)
	case uint32:
		raw = uint64(x)
	case int32:
		raw = uint64(int64(x))
	case uint16:
		raw = uint64(x)
	case int16:
		raw = uint64(int64(x))
	case uint8:
		raw = uint64(x)
	case int8:
		raw = uint64(int64(x))
	case int:
		raw = uint64(int64(x))
	case uint:
		raw = uint64(x)
	case uintptr:
		raw = uint64(x)
	case bool:
		if x {
			raw = 1
		}
	case float32:
		raw = uint64(math.Float32bits(x))
	case float64:
		raw = math.Float64bits(x)
	default:
		return 0, errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Symbol(symbol).
			NativeType(td.Name).
			Detail("parameter %q: unsupported argument type %T", p.Name, v).
			Build()
	}

	return truncate(raw, td.Size), nil
}

// truncate masks a raw value to the native type's width so callers
// cannot smuggle extra bits through a narrow parameter.
func truncate(raw uint64, size uint32) uint64 {
	switch size {
	case 1:
		return raw & 0xFF
	case 2:
		return raw & 0xFFFF
	case 4:
		return raw & 0xFFFFFFFF
	default:
		return raw
	}
}

// signExtend widens a native return value of the given size to int64
// semantics, so e.g. an int32 -1 reads back as -1 rather than 4294967295.
func signExtend(raw uint64, size uint32) uint64 {
	switch size {
	case 1:
		return uint64(int64(int8(raw)))
	case 2:
		return uint64(int64(int16(raw)))
	case 4:
		return uint64(int64(int32(raw)))
	default:
		return raw
	}
}
