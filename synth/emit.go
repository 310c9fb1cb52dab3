package synth

import (
	"fmt"
	"strings"

	"github.com/Azzybana/astd/manifest"
)

// goType maps a manifest descriptor to the Go type the wrapper exposes.
// Buffer-class parameters stay raw addresses; buffer returns are staged
// and never surface as a pointer.
func goType(td manifest.TypeDescriptor) string {
	switch td.Class {
	case manifest.ClassEnumTag:
		return "int32"
	case manifest.ClassBuffer:
		return "uintptr"
	}

	switch td.Name {
	case "bool":
		return "bool"
	case "float":
		return "float32"
	case "double":
		return "float64"
	}

	unsigned := strings.HasPrefix(td.Name, "u") ||
		strings.HasPrefix(td.Name, "unsigned") ||
		td.Name == "size_t"

	var width string
	switch td.Size {
	case 1:
		width = "8"
	case 2:
		width = "16"
	case 4:
		width = "32"
	default:
		width = "64"
	}
	if unsigned {
		return "uint" + width
	}
	return "int" + width
}

// resultExpr produces the expression converting a CallResult into the
// wrapper's Go return value.
func resultExpr(td manifest.TypeDescriptor) string {
	switch goType(td) {
	case "bool":
		return "res.Bool()"
	case "float32":
		return "res.Float32()"
	case "float64":
		return "res.Float64()"
	case "uint8", "uint16", "uint32", "uint64":
		return fmt.Sprintf("%s(res.Uint64())", goType(td))
	default:
		return fmt.Sprintf("%s(res.Int64())", goType(td))
	}
}

func zeroValue(goTy string) string {
	switch goTy {
	case "bool":
		return "false"
	default:
		return "0"
	}
}

type emitter struct {
	b           strings.Builder
	usesStaging bool
}

func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(&e.b, format, args...)
}

// emitHandleType writes the wrapper struct for one opaque native type.
func (e *emitter) emitHandleType(goName, cName string) {
	e.printf("// %s wraps the native %s handle. Exactly one live value owns the\n", goName, cName)
	e.printf("// underlying resource; Close releases it exactly once.\n")
	e.printf("type %s struct {\n\th *bind.BoundHandle\n}\n\n", goName)

	e.printf("// Close releases the native %s.\n", cName)
	e.printf("func (t *%s) Close(ctx context.Context) error {\n\treturn t.h.Close(ctx)\n}\n\n", goName)

	e.printf("// Move transfers ownership to the returned value and invalidates t.\n")
	e.printf("func (t *%s) Move() (*%s, error) {\n", goName, goName)
	e.printf("\tmoved, err := t.h.Move()\n\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	e.printf("\treturn &%s{h: moved}, nil\n}\n\n", goName)
}

// emitFunction writes the safe wrapper for one manifest function.
func (e *emitter) emitFunction(goName string, fn manifest.FunctionSignature, man *manifest.InterfaceManifest, typeNames map[string]string) {
	var (
		args    []string
		passes  []string
		consume []string
	)
	for _, p := range fn.Params {
		if p.LengthOut {
			continue
		}
		td, _ := man.Type(p.Type)
		pn := paramName(p.Name)
		if td.Class == manifest.ClassOpaqueHandle {
			args = append(args, fmt.Sprintf("%s *%s", pn, typeNames[td.Name]))
			passes = append(passes, pn+".h")
			if p.Ownership == manifest.OwnershipOwnedIn {
				consume = append(consume, pn)
			}
			continue
		}
		args = append(args, fmt.Sprintf("%s %s", pn, goType(td)))
		passes = append(passes, pn)
	}

	retTD, hasRet := man.Type(fn.Return.Type)
	argList := strings.Join(append([]string{"ctx context.Context", "lib *bind.Library"}, args...), ", ")
	callArgs := strings.Join(append([]string{"ctx", fmt.Sprintf("%q", fn.Name)}, passes...), ", ")

	e.printf("// %s calls %s (%s).", goName, fn.Name, fn.Header)
	if len(consume) > 0 {
		e.printf(" Ownership of %s transfers to the native side.", strings.Join(consume, ", "))
	}
	e.printf("\n")

	switch {
	case !hasRet || fn.Return.Type == "":
		e.printf("func %s(%s) error {\n", goName, argList)
		e.printf("\t_, err := lib.Call(%s)\n\treturn err\n}\n\n", callArgs)

	case retTD.Class == manifest.ClassOpaqueHandle:
		wrap := typeNames[retTD.Name]
		e.printf("func %s(%s) (*%s, error) {\n", goName, argList, wrap)
		e.printf("\tres, err := lib.Call(%s)\n", callArgs)
		e.printf("\tif err != nil {\n\t\treturn nil, err\n\t}\n")
		if fn.Return.Nullable {
			e.printf("\tif res.IsNull() {\n\t\treturn nil, nil\n\t}\n")
		}
		e.printf("\treturn &%s{h: res.Handle()}, nil\n}\n\n", wrap)

	case retTD.Class == manifest.ClassBuffer:
		e.usesStaging = true
		e.printf("func %s(%s) (*staging.Buffer, error) {\n", goName, argList)
		e.printf("\tres, err := lib.Call(%s)\n", callArgs)
		e.printf("\tif err != nil {\n\t\treturn nil, err\n\t}\n")
		e.printf("\tif res.IsNull() {\n\t\treturn nil, nil\n\t}\n")
		e.printf("\treturn res.Buffer(), nil\n}\n\n")

	default:
		goTy := goType(retTD)
		e.printf("func %s(%s) (%s, error) {\n", goName, argList, goTy)
		e.printf("\tres, err := lib.Call(%s)\n", callArgs)
		e.printf("\tif err != nil {\n\t\treturn %s, err\n\t}\n", zeroValue(goTy))
		e.printf("\treturn %s, nil\n}\n\n", resultExpr(retTD))
	}
}
