package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azzybana/astd/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "astd.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsFillAbsentFields(t *testing.T) {
	path := writeConfig(t, `
[header]
root = "shim/astd.h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target != "lp64" || cfg.Linkage != LinkageDynamic || !cfg.Allocator {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Output.Package != "bindings" {
		t.Fatalf("output defaults not applied: %+v", cfg.Output)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
target = "wasm32"
linkage = "wasm"
allocator = false

[header]
root = "shim/astd.h"
include_dirs = ["shim", "third_party/include"]

[output]
manifest = "out/astd.json"
bindings = "out/bindings.gen.go"
package = "absl"
trim_prefix = "absl_"

[rules]
acquire_suffixes = ["_make"]
length_names = ["out_n"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target != "wasm32" || cfg.Linkage != LinkageWasm || cfg.Allocator {
		t.Fatalf("fields not read: %+v", cfg)
	}
	if len(cfg.Header.IncludeDirs) != 2 {
		t.Fatalf("include dirs: %v", cfg.Header.IncludeDirs)
	}

	layout, err := cfg.Layout()
	if err != nil {
		t.Fatal(err)
	}
	if layout.PointerSize != 4 {
		t.Fatalf("wasm32 pointer size %d", layout.PointerSize)
	}

	rules := cfg.ExtractionRules()
	if len(rules.AcquireSuffixes) != 1 || rules.AcquireSuffixes[0] != "_make" {
		t.Fatalf("acquire override lost: %v", rules.AcquireSuffixes)
	}
	if len(rules.LengthNames) != 1 || rules.LengthNames[0] != "out_n" {
		t.Fatalf("length override lost: %v", rules.LengthNames)
	}
	// Unset rule groups keep their defaults.
	if len(rules.ReleaseSuffixes) == 0 {
		t.Fatal("release defaults dropped")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad target", "target = \"pdp11\"\n[header]\nroot = \"x.h\"\n"},
		{"bad linkage", "linkage = \"static\"\n[header]\nroot = \"x.h\"\n"},
		{"missing root", "target = \"lp64\"\n"},
		{"bad toml", "target = = =\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	want := &errors.Error{Phase: errors.PhaseExtract, Kind: errors.KindInvalidInput}
	if !stderrors.Is(err, want) {
		t.Fatalf("got %v, want invalid_input", err)
	}
}
