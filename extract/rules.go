package extract

import "strings"

// Rules configures the pattern recognizer and the ownership inference.
// The native library is a parameter of the pipeline, so everything the
// extractor assumes about naming lives here rather than in code.
type Rules struct {
	// ExportMacros are annotation macros stripped from declarations
	// before matching, e.g. ABSL_EXPORT.
	ExportMacros []string

	// AcquireSuffixes mark constructors: an opaque pointer returned by a
	// matching function transfers ownership out.
	AcquireSuffixes []string

	// ReleaseSuffixes mark destructors: the single opaque parameter of a
	// matching function is consumed.
	ReleaseSuffixes []string

	// DupSuffixes mark explicit duplicate entry points.
	DupSuffixes []string

	// NullableSuffixes mark functions whose pointer return may be null
	// without that being an error.
	NullableSuffixes []string

	// ConsumePrefixes mark parameters consumed by name, independent of
	// the function suffix.
	ConsumePrefixes []string

	// LengthNames are parameter names recognized as size outputs when
	// their type is a non-const size_t pointer.
	LengthNames []string
}

// DefaultRules covers the conventional C shim naming scheme.
func DefaultRules() Rules {
	return Rules{
		ExportMacros:     []string{"ABSL_EXPORT", "ABSL_DLL", "EXPORT", "API"},
		AcquireSuffixes:  []string{"_new", "_create", "_clone", "_dup", "_copy"},
		ReleaseSuffixes:  []string{"_free", "_destroy", "_release", "_delete"},
		DupSuffixes:      []string{"_clone", "_dup", "_copy"},
		NullableSuffixes: []string{"_find", "_try_new", "_lookup"},
		ConsumePrefixes:  []string{"take_", "owned_"},
		LengthNames:      []string{"len", "length", "size", "out_len", "out_size", "n"},
	}
}

func matchSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func matchPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (r Rules) isAcquire(fn string) bool  { return matchSuffix(fn, r.AcquireSuffixes) }
func (r Rules) isRelease(fn string) bool  { return matchSuffix(fn, r.ReleaseSuffixes) }
func (r Rules) isNullable(fn string) bool { return matchSuffix(fn, r.NullableSuffixes) }
func (r Rules) isConsume(param string) bool {
	return matchPrefix(param, r.ConsumePrefixes)
}

func (r Rules) isLengthName(param string) bool {
	for _, n := range r.LengthNames {
		if param == n {
			return true
		}
	}
	return false
}

func (r Rules) stripExportMacros(decl string) string {
	for _, m := range r.ExportMacros {
		decl = strings.ReplaceAll(decl, m+" ", " ")
	}
	return decl
}
