package synth

import (
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

// Options configures binding synthesis.
type Options struct {
	// Package is the generated package name. Defaults to "bindings".
	Package string

	// TrimPrefix is stripped from C symbol and type names before they
	// are exported, e.g. "absl_".
	TrimPrefix string

	// ModulePath locates the bind and staging packages in generated
	// imports. Defaults to this module.
	ModulePath string
}

// Synthesizer turns a validated manifest into Go binding source. Output
// is all-or-nothing: any refused signature fails the whole run before a
// single byte is produced.
type Synthesizer struct {
	opts Options
}

func New(opts Options) *Synthesizer {
	if opts.Package == "" {
		opts.Package = "bindings"
	}
	if opts.ModulePath == "" {
		opts.ModulePath = "github.com/Azzybana/astd"
	}
	return &Synthesizer{opts: opts}
}

// Generate emits the complete binding source for one manifest.
func (s *Synthesizer) Generate(man *manifest.InterfaceManifest) ([]byte, error) {
	if err := man.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkSignatures(man); err != nil {
		return nil, err
	}

	typeNames, err := s.typeNames(man)
	if err != nil {
		return nil, err
	}
	fnNames, err := s.functionNames(man, typeNames)
	if err != nil {
		return nil, err
	}

	var e emitter
	for _, fn := range man.Functions {
		e.emitFunction(fnNames[fn.Name], fn, man, typeNames)
	}

	var out strings.Builder
	out.WriteString("// Code generated by astdgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", s.opts.Package)
	if len(man.Functions) > 0 || len(typeNames) > 0 {
		out.WriteString("import (\n\t\"context\"\n\n")
		fmt.Fprintf(&out, "\t%q\n", s.opts.ModulePath+"/bind")
		if e.usesStaging {
			fmt.Fprintf(&out, "\t%q\n", s.opts.ModulePath+"/staging")
		}
		out.WriteString(")\n\n")
	}

	var types emitter
	for _, td := range man.Types {
		if td.Class == manifest.ClassOpaqueHandle {
			types.emitHandleType(typeNames[td.Name], td.Name)
		}
	}
	out.WriteString(types.b.String())
	out.WriteString(e.b.String())

	src, err := format.Source([]byte(out.String()))
	if err != nil {
		return nil, errors.New(errors.PhaseSynth, errors.KindInvalidInput).
			Cause(err).
			Detail("generated source does not format").
			Build()
	}

	Logger().Info("synthesis complete",
		zap.String("package", s.opts.Package),
		zap.Int("functions", len(man.Functions)),
		zap.Int("bytes", len(src)))
	return src, nil
}

// WriteFile generates and writes atomically; a failed run leaves no
// partial output behind.
func (s *Synthesizer) WriteFile(path string, man *manifest.InterfaceManifest) error {
	src, err := s.Generate(man)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".astdgen-*")
	if err != nil {
		return errors.Wrap(errors.PhaseSynth, errors.KindInvalidInput, err, "staging output file")
	}
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.PhaseSynth, errors.KindInvalidInput, err, "writing output file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.PhaseSynth, errors.KindInvalidInput, err, "closing output file")
	}
	return os.Rename(tmp.Name(), path)
}

// checkSignatures refuses signatures the wrapper layer cannot express
// safely.
func (s *Synthesizer) checkSignatures(man *manifest.InterfaceManifest) error {
	for _, fn := range man.Functions {
		if fn.Return.Type == "" {
			continue
		}
		td, _ := man.Type(fn.Return.Type)
		switch td.Class {
		case manifest.ClassBuffer:
			if fn.Return.LengthParam == "" {
				return errors.UnreportedLength(errors.PhaseSynth, fn.Name)
			}
		case manifest.ClassOpaqueHandle:
			if fn.Return.Ownership != manifest.OwnershipOwnedOut {
				return errors.UnsupportedOwnership(fn.Name,
					"handle return without ownership transfer cannot be wrapped")
			}
		}
	}
	return nil
}

func (s *Synthesizer) typeNames(man *manifest.InterfaceManifest) (map[string]string, error) {
	names := make(map[string]string, len(man.Types))
	claimed := make(map[string]string)
	for _, td := range man.Types {
		if td.Class != manifest.ClassOpaqueHandle {
			continue
		}
		n := exportName(td.Name, s.opts.TrimPrefix)
		if prev, taken := claimed[n]; taken {
			return nil, errors.NameCollision(n, prev, td.Name)
		}
		claimed[n] = td.Name
		names[td.Name] = n
	}
	return names, nil
}

// functionNames assigns exported names, prefixing the originating header
// when two symbols map to the same name. A collision that survives
// prefixing fails synthesis; names are never silently aliased.
func (s *Synthesizer) functionNames(man *manifest.InterfaceManifest, typeNames map[string]string) (map[string]string, error) {
	base := make(map[string][]manifest.FunctionSignature)
	for _, fn := range man.Functions {
		n := exportName(fn.Name, s.opts.TrimPrefix)
		base[n] = append(base[n], fn)
	}

	typeClaimed := make(map[string]bool, len(typeNames))
	for _, n := range typeNames {
		typeClaimed[n] = true
	}

	names := make(map[string]string, len(man.Functions))
	claimed := make(map[string]string)
	for n, fns := range base {
		needPrefix := len(fns) > 1 || typeClaimed[n]
		for _, fn := range fns {
			final := n
			if needPrefix {
				final = headerPrefix(fn.Header) + n
			}
			if prev, taken := claimed[final]; taken || typeClaimed[final] {
				if prev == "" {
					prev = "generated type"
				}
				return nil, errors.NameCollision(final, prev, fn.Header)
			}
			claimed[final] = fn.Header
			names[fn.Name] = final
		}
	}
	return names, nil
}
