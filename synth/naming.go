package synth

import (
	"strings"
	"unicode"
)

// exportName turns a C symbol into an exported Go identifier:
// absl_state_new -> StateNew (with TrimPrefix "absl_").
func exportName(cName, trimPrefix string) string {
	name := strings.TrimPrefix(cName, trimPrefix)
	if name == "" {
		name = cName
	}

	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" || !unicode.IsLetter(rune(out[0])) {
		out = "X" + out
	}
	return out
}

// headerPrefix derives a collision prefix from a header base name:
// container.h -> Container.
func headerPrefix(header string) string {
	base := header
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return exportName(base, "")
}

// paramName makes a C parameter name safe as a Go identifier.
func paramName(name string) string {
	switch name {
	case "type", "func", "range", "len", "cap", "map", "chan", "var", "new", "make", "string", "int":
		return name + "_"
	}
	return name
}
