package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/extract"
)

// Linkage selects how the generated bindings reach the native library.
const (
	LinkageDynamic = "dynamic"
	LinkageWasm    = "wasm"
)

// Config is the build-time configuration for the binding pipeline.
// Everything is file-driven; no environment variables are consulted.
type Config struct {
	// Target selects the data layout table: a layout name (lp64, llp64,
	// wasm32) or a GOOS-GOARCH pair.
	Target string `toml:"target"`

	// Linkage is "dynamic" (shared library via dlopen) or "wasm".
	Linkage string `toml:"linkage"`

	// Allocator records whether the consuming build has a heap
	// allocator. Informational for generated docs; the actual selection
	// is the astd_noalloc build tag.
	Allocator bool `toml:"allocator"`

	Header HeaderConfig `toml:"header"`
	Output OutputConfig `toml:"output"`
	Rules  RulesConfig  `toml:"rules"`
}

type HeaderConfig struct {
	// Root is the header extraction starts from.
	Root string `toml:"root"`

	// IncludeDirs are searched for local includes, in order.
	IncludeDirs []string `toml:"include_dirs"`
}

type OutputConfig struct {
	// Manifest is where the interface manifest is written.
	Manifest string `toml:"manifest"`

	// Bindings is where the generated Go source is written.
	Bindings string `toml:"bindings"`

	// Package names the generated package.
	Package string `toml:"package"`

	// TrimPrefix is stripped from C names before export.
	TrimPrefix string `toml:"trim_prefix"`
}

// RulesConfig overrides parts of the default extraction rules. Empty
// fields keep the defaults.
type RulesConfig struct {
	ExportMacros     []string `toml:"export_macros"`
	AcquireSuffixes  []string `toml:"acquire_suffixes"`
	ReleaseSuffixes  []string `toml:"release_suffixes"`
	DupSuffixes      []string `toml:"dup_suffixes"`
	NullableSuffixes []string `toml:"nullable_suffixes"`
	ConsumePrefixes  []string `toml:"consume_prefixes"`
	LengthNames      []string `toml:"length_names"`
}

// Default returns the configuration used when a field is absent from
// the file.
func Default() Config {
	return Config{
		Target:    "lp64",
		Linkage:   LinkageDynamic,
		Allocator: true,
		Output: OutputConfig{
			Manifest: "astd.manifest.json",
			Bindings: "bindings.gen.go",
			Package:  "bindings",
		},
	}
}

// Load reads a TOML configuration file over the defaults and validates
// the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseExtract, errors.KindInvalidInput, err,
			"reading config "+path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseExtract, errors.KindInvalidInput, err,
			"parsing config "+path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration names a known layout and
// linkage and points at a root header.
func (c Config) Validate() error {
	if _, err := extract.LayoutFor(c.Target); err != nil {
		return err
	}
	if c.Linkage != LinkageDynamic && c.Linkage != LinkageWasm {
		return errors.InvalidInput(errors.PhaseExtract, "linkage must be dynamic or wasm, got "+c.Linkage)
	}
	if c.Header.Root == "" {
		return errors.InvalidInput(errors.PhaseExtract, "header.root is required")
	}
	return nil
}

// Layout resolves the configured target's layout table.
func (c Config) Layout() (extract.Layout, error) {
	return extract.LayoutFor(c.Target)
}

// ExtractionRules merges the configured overrides into the default
// rules.
func (c Config) ExtractionRules() extract.Rules {
	r := extract.DefaultRules()
	if len(c.Rules.ExportMacros) > 0 {
		r.ExportMacros = c.Rules.ExportMacros
	}
	if len(c.Rules.AcquireSuffixes) > 0 {
		r.AcquireSuffixes = c.Rules.AcquireSuffixes
	}
	if len(c.Rules.ReleaseSuffixes) > 0 {
		r.ReleaseSuffixes = c.Rules.ReleaseSuffixes
	}
	if len(c.Rules.DupSuffixes) > 0 {
		r.DupSuffixes = c.Rules.DupSuffixes
	}
	if len(c.Rules.NullableSuffixes) > 0 {
		r.NullableSuffixes = c.Rules.NullableSuffixes
	}
	if len(c.Rules.ConsumePrefixes) > 0 {
		r.ConsumePrefixes = c.Rules.ConsumePrefixes
	}
	if len(c.Rules.LengthNames) > 0 {
		r.LengthNames = c.Rules.LengthNames
	}
	return r
}
