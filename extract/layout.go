package extract

import (
	"github.com/Azzybana/astd/errors"
)

type typeInfo struct {
	size  uint32
	align uint32
}

// Layout is a per-target data layout table. Sizes and alignments come
// from here, never from the host the extractor happens to run on.
type Layout struct {
	Name        string
	PointerSize uint32
	primitives  map[string]typeInfo
}

// Primitive resolves a C primitive type name to its size and alignment
// under this layout.
func (l Layout) Primitive(name string) (size, align uint32, ok bool) {
	ti, ok := l.primitives[name]
	return ti.size, ti.align, ok
}

func fixedPrimitives(ptr, long uint32) map[string]typeInfo {
	p := map[string]typeInfo{
		"void":               {0, 1},
		"bool":               {1, 1},
		"char":               {1, 1},
		"signed char":        {1, 1},
		"unsigned char":      {1, 1},
		"short":              {2, 2},
		"unsigned short":     {2, 2},
		"int":                {4, 4},
		"unsigned":           {4, 4},
		"unsigned int":       {4, 4},
		"long long":          {8, 8},
		"unsigned long long": {8, 8},
		"float":              {4, 4},
		"double":             {8, 8},
		"int8_t":             {1, 1},
		"uint8_t":            {1, 1},
		"int16_t":            {2, 2},
		"uint16_t":           {2, 2},
		"int32_t":            {4, 4},
		"uint32_t":           {4, 4},
		"int64_t":            {8, 8},
		"uint64_t":           {8, 8},
	}
	for _, n := range []string{"size_t", "uintptr_t", "intptr_t", "ptrdiff_t"} {
		p[n] = typeInfo{ptr, ptr}
	}
	p["long"] = typeInfo{long, long}
	p["unsigned long"] = typeInfo{long, long}
	return p
}

var layouts = map[string]Layout{
	// Unix 64-bit: long and pointers are 8 bytes.
	"lp64": {Name: "lp64", PointerSize: 8, primitives: fixedPrimitives(8, 8)},
	// Windows 64-bit: long stays 4 bytes.
	"llp64": {Name: "llp64", PointerSize: 8, primitives: fixedPrimitives(8, 4)},
	// 32-bit wasm linear memory.
	"wasm32": {Name: "wasm32", PointerSize: 4, primitives: fixedPrimitives(4, 4)},
}

var targetLayouts = map[string]string{
	"linux-amd64":   "lp64",
	"linux-arm64":   "lp64",
	"darwin-amd64":  "lp64",
	"darwin-arm64":  "lp64",
	"windows-amd64": "llp64",
	"wasm32":        "wasm32",
}

// LayoutFor resolves a target name (a GOOS-GOARCH pair or a layout table
// name) to its layout table.
func LayoutFor(target string) (Layout, error) {
	if l, ok := layouts[target]; ok {
		return l, nil
	}
	if name, ok := targetLayouts[target]; ok {
		return layouts[name], nil
	}
	return Layout{}, errors.InvalidInput(errors.PhaseExtract, "unknown target layout "+target)
}
