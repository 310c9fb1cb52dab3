package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

var (
	opaqueTypedefRe = regexp.MustCompile(`^typedef struct (\w+) (\w+)$`)
	enumTypedefRe   = regexp.MustCompile(`^typedef enum ?\w* ?\{.*\} (\w+)$`)
	aliasTypedefRe  = regexp.MustCompile(`^typedef ([\w ]+?) (\w+)$`)
	funcRe          = regexp.MustCompile(`^(.+?)\b(\w+) ?\((.*)\)$`)
	callConvRe      = regexp.MustCompile(`__(stdcall|fastcall|vectorcall|thiscall|pascal)\b`)
	paramNameRe     = regexp.MustCompile(`^(.*?)\b([A-Za-z_]\w*)$`)
)

// Extractor scans C headers with pattern rules and produces an interface
// manifest. It is a recognizer, not a parser: declarations it cannot
// classify fail extraction rather than being guessed at.
type Extractor struct {
	rules  Rules
	layout Layout
}

func New(rules Rules, layout Layout) *Extractor {
	return &Extractor{rules: rules, layout: layout}
}

// run holds the mutable state of one extraction. A fresh run per Extract
// call keeps the Extractor itself reusable and stateless.
type run struct {
	e           *Extractor
	includeDirs []string

	visited  map[string]bool
	contents [][]byte

	types     []manifest.TypeDescriptor
	classBy   map[string]manifest.TypeClass
	functions []manifest.FunctionSignature
	fnSeen    map[string]bool
}

// Extract scans rootHeader and every local include reachable from it,
// in first-seen order, and returns the validated manifest. On any
// failure no manifest is returned; partial results are never emitted.
func (e *Extractor) Extract(rootHeader string, includeDirs []string) (*manifest.InterfaceManifest, error) {
	r := &run{
		e:           e,
		includeDirs: includeDirs,
		visited:     make(map[string]bool),
		classBy:     make(map[string]manifest.TypeClass),
		fnSeen:      make(map[string]bool),
	}

	if err := r.processHeader(rootHeader, filepath.Dir(rootHeader)); err != nil {
		return nil, err
	}

	man := &manifest.InterfaceManifest{
		FormatVersion: manifest.FormatVersion,
		SourceDigest:  manifest.Digest(r.contents...),
		Types:         r.types,
		Functions:     r.functions,
	}
	if err := man.Validate(); err != nil {
		return nil, err
	}

	Logger().Info("extraction complete",
		zap.String("root", rootHeader),
		zap.Int("headers", len(r.contents)),
		zap.Int("functions", len(man.Functions)),
		zap.Int("types", len(man.Types)))
	return man, nil
}

func (r *run) processHeader(path, fromDir string) error {
	resolved, err := r.resolveHeader(path, fromDir)
	if err != nil {
		return err
	}
	if r.visited[resolved] {
		return nil
	}
	r.visited[resolved] = true

	data, err := os.ReadFile(resolved)
	if err != nil {
		return errors.MissingHeader(path, err)
	}
	r.contents = append(r.contents, data)

	base := filepath.Base(resolved)
	dir := filepath.Dir(resolved)
	return scanSource(string(data),
		func(include string) error {
			return r.processHeader(include, dir)
		},
		func(stmt string) error {
			return r.parseStatement(base, stmt)
		})
}

func (r *run) resolveHeader(path, fromDir string) (string, error) {
	candidates := make([]string, 0, len(r.includeDirs)+2)
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		if fromDir != "" {
			candidates = append(candidates, filepath.Join(fromDir, path))
		}
		for _, dir := range r.includeDirs {
			candidates = append(candidates, filepath.Join(dir, path))
		}
		candidates = append(candidates, path)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return filepath.Clean(c), nil
		}
	}
	return "", errors.MissingHeader(path, nil)
}

func (r *run) parseStatement(header, stmt string) error {
	stmt = collapseSpace(r.e.rules.stripExportMacros(stmt))
	// Trailing C++ qualifiers on shim declarations are noise.
	stmt = strings.TrimSuffix(stmt, " const")
	stmt = strings.TrimSuffix(stmt, " noexcept")

	if m := opaqueTypedefRe.FindStringSubmatch(stmt); m != nil {
		return r.addType(manifest.TypeDescriptor{
			Name:  m[2],
			Size:  r.e.layout.PointerSize,
			Align: r.e.layout.PointerSize,
			Class: manifest.ClassOpaqueHandle,
		})
	}

	if m := enumTypedefRe.FindStringSubmatch(stmt); m != nil {
		return r.addType(manifest.TypeDescriptor{
			Name:  m[1],
			Size:  4,
			Align: 4,
			Class: manifest.ClassEnumTag,
		})
	}

	if m := aliasTypedefRe.FindStringSubmatch(stmt); m != nil {
		if size, align, ok := r.e.layout.Primitive(m[1]); ok {
			return r.addType(manifest.TypeDescriptor{
				Name:  m[2],
				Size:  size,
				Align: align,
				Class: manifest.ClassPrimitive,
			})
		}
		return nil
	}

	if strings.HasPrefix(stmt, "typedef ") || strings.HasPrefix(stmt, "struct ") {
		return nil
	}

	if m := funcRe.FindStringSubmatch(stmt); m != nil {
		return r.parseFunction(header, stmt, m[1], m[2], m[3])
	}
	return nil
}

func (r *run) parseFunction(header, stmt, retPart, name, paramPart string) error {
	if m := callConvRe.FindStringSubmatch(stmt); m != nil {
		return errors.UnsupportedCallConv(name, "__"+m[1])
	}
	if r.fnSeen[name] {
		return nil
	}

	retPart = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(retPart), "__cdecl"))
	sig := manifest.FunctionSignature{
		Name:     name,
		Header:   header,
		CallConv: "c",
	}

	ret, err := r.classify(header, stmt, retPart)
	if err != nil {
		return err
	}
	switch {
	case ret.void:
	case ret.lengthOut:
		return errors.UnparsableDecl(header, stmt)
	default:
		sig.Return = manifest.Result{Type: ret.td.Name, Ownership: manifest.OwnershipBorrowed}
		if ret.td.Class == manifest.ClassOpaqueHandle {
			if r.e.rules.isAcquire(name) {
				sig.Return.Ownership = manifest.OwnershipOwnedOut
			}
			sig.Return.Nullable = r.e.rules.isNullable(name)
		}
		if err := r.addType(ret.td); err != nil {
			return err
		}
	}

	params, err := r.parseParams(header, stmt, name, paramPart)
	if err != nil {
		return err
	}
	sig.Params = params

	if ret.td.Class == manifest.ClassBuffer {
		for _, p := range sig.Params {
			if p.LengthOut {
				sig.Return.LengthParam = p.Name
				break
			}
		}
		if sig.Return.LengthParam == "" {
			return errors.New(errors.PhaseExtract, errors.KindUnreportedLength).
				Symbol(name).
				Path(header).
				Detail("buffer result has no accompanying length output").
				Build()
		}
	}

	r.fnSeen[name] = true
	r.functions = append(r.functions, sig)
	return nil
}

func (r *run) parseParams(header, stmt, fnName, paramPart string) ([]manifest.Param, error) {
	paramPart = strings.TrimSpace(paramPart)
	if paramPart == "" || paramPart == "void" {
		return nil, nil
	}
	if strings.ContainsAny(paramPart, "(){}") {
		return nil, errors.UnparsableDecl(header, stmt)
	}

	release := r.e.rules.isRelease(fnName)
	pieces := strings.Split(paramPart, ",")
	params := make([]manifest.Param, 0, len(pieces))
	for i, piece := range pieces {
		piece = collapseSpace(piece)
		typePart, pname := splitParam(piece)
		if pname == "" {
			pname = fmt.Sprintf("arg%d", i)
		}

		c, err := r.classify(header, stmt, typePart)
		if err != nil {
			return nil, err
		}
		if c.void {
			return nil, errors.UnparsableDecl(header, stmt)
		}

		p := manifest.Param{
			Name:      pname,
			Type:      c.td.Name,
			Ownership: manifest.OwnershipBorrowed,
		}
		if c.lengthOut {
			if !r.e.rules.isLengthName(pname) {
				return nil, errors.UnparsableDecl(header, stmt)
			}
			p.LengthOut = true
		}
		if c.td.Class == manifest.ClassOpaqueHandle && !c.isConst {
			if release || r.e.rules.isConsume(pname) {
				p.Ownership = manifest.OwnershipOwnedIn
			}
		}
		if err := r.addType(c.td); err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// splitParam separates a parameter's type spelling from its trailing
// identifier. A piece that is only a type comes back with an empty name.
func splitParam(piece string) (typePart, name string) {
	m := paramNameRe.FindStringSubmatch(piece)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return piece, ""
	}
	return strings.TrimSpace(m[1]), m[2]
}

type classified struct {
	td        manifest.TypeDescriptor
	isConst   bool
	void      bool
	lengthOut bool
}

// classify resolves one spelled C type against the layout table and the
// running symbol table. Anything it cannot place fails extraction.
func (r *run) classify(header, stmt, spelled string) (classified, error) {
	s := collapseSpace(spelled)

	isConst := strings.HasPrefix(s, "const ")
	s = strings.TrimPrefix(s, "const ")
	s = strings.TrimPrefix(s, "struct ")

	ptr := strings.Count(s, "*")
	base := collapseSpace(strings.ReplaceAll(s, "*", " "))

	if base == "void" && ptr == 0 {
		return classified{void: true, isConst: isConst}, nil
	}

	if size, align, ok := r.e.layout.Primitive(base); ok {
		switch {
		case ptr == 0:
			return classified{
				td:      manifest.TypeDescriptor{Name: base, Size: size, Align: align, Class: manifest.ClassPrimitive},
				isConst: isConst,
			}, nil
		case ptr == 1 && isByteBase(base):
			return classified{
				td: manifest.TypeDescriptor{
					Name:  base + "*",
					Size:  r.e.layout.PointerSize,
					Align: r.e.layout.PointerSize,
					Class: manifest.ClassBuffer,
				},
				isConst: isConst,
			}, nil
		case ptr == 1 && base == "size_t" && !isConst:
			return classified{
				td:        manifest.TypeDescriptor{Name: base, Size: size, Align: align, Class: manifest.ClassPrimitive},
				lengthOut: true,
			}, nil
		}
		return classified{}, errors.UnparsableDecl(header, stmt)
	}

	if class, known := r.classBy[base]; known {
		switch {
		case class == manifest.ClassOpaqueHandle && ptr == 1:
			return classified{
				td: manifest.TypeDescriptor{
					Name:  base,
					Size:  r.e.layout.PointerSize,
					Align: r.e.layout.PointerSize,
					Class: manifest.ClassOpaqueHandle,
				},
				isConst: isConst,
			}, nil
		case class != manifest.ClassOpaqueHandle && ptr == 0:
			if td, ok := r.typeNamed(base); ok {
				return classified{td: td, isConst: isConst}, nil
			}
		}
		return classified{}, errors.UnparsableDecl(header, stmt)
	}

	return classified{}, errors.UnparsableDecl(header, stmt)
}

func isByteBase(base string) bool {
	switch base {
	case "char", "unsigned char", "signed char", "uint8_t", "int8_t", "void":
		return true
	}
	return false
}

func (r *run) typeNamed(name string) (manifest.TypeDescriptor, bool) {
	for _, t := range r.types {
		if t.Name == name {
			return t, true
		}
	}
	return manifest.TypeDescriptor{}, false
}

// addType records a descriptor in first-seen order. The same name seen
// again with a different classification is a hard error, never a merge.
func (r *run) addType(td manifest.TypeDescriptor) error {
	if prev, seen := r.classBy[td.Name]; seen {
		if prev != td.Class {
			return errors.AmbiguousType(td.Name, string(prev), string(td.Class))
		}
		return nil
	}
	r.classBy[td.Name] = td.Class
	r.types = append(r.types, td)
	return nil
}
