package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Azzybana/astd/bind"
	"github.com/Azzybana/astd/config"
	"github.com/Azzybana/astd/extract"
	"github.com/Azzybana/astd/manifest"
	"github.com/Azzybana/astd/synth"
	"github.com/Azzybana/astd/toolchain"
)

func main() {
	var (
		configPath  = flag.String("config", "astd.toml", "Path to the build configuration")
		headerRoot  = flag.String("header", "", "Root header (overrides config)")
		target      = flag.String("target", "", "Target layout (overrides config)")
		outManifest = flag.String("manifest", "", "Manifest output path (overrides config)")
		outBindings = flag.String("bindings", "", "Bindings output path (overrides config)")
		list        = flag.Bool("list", false, "List extracted signatures and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			extract.SetLogger(logger)
			synth.SetLogger(logger)
			toolchain.SetLogger(logger)
			bind.SetLogger(logger)
			defer logger.Sync()
		}
	}

	cfg, err := loadConfig(*configPath, *headerRoot, *target, *outManifest, *outBindings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides. A missing
// file is tolerated when -header supplies the root directly.
func loadConfig(path, headerRoot, target, outManifest, outBindings string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if headerRoot == "" {
			return config.Config{}, err
		}
		cfg = config.Default()
	}

	if headerRoot != "" {
		cfg.Header.Root = headerRoot
	}
	if target != "" {
		cfg.Target = target
	}
	if outManifest != "" {
		cfg.Output.Manifest = outManifest
	}
	if outBindings != "" {
		cfg.Output.Bindings = outBindings
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func extractManifest(cfg config.Config) (*manifest.InterfaceManifest, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	return extract.New(cfg.ExtractionRules(), layout).
		Extract(cfg.Header.Root, cfg.Header.IncludeDirs)
}

func run(cfg config.Config, listOnly bool) error {
	man, err := extractManifest(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Extracted: %d function(s), %d type(s)\n", len(man.Functions), len(man.Types))
	fmt.Printf("Source digest: %s\n", man.SourceDigest)

	if listOnly {
		fmt.Printf("\nFunctions:\n")
		for _, fn := range man.Functions {
			fmt.Printf("  %s\n", formatSignature(fn, man))
		}
		fmt.Printf("\nTypes:\n")
		for _, td := range man.Types {
			fmt.Printf("  %-24s %-18s size=%d align=%d\n", td.Name, td.Class, td.Size, td.Align)
		}
		return nil
	}

	if err := man.Write(cfg.Output.Manifest); err != nil {
		return err
	}
	fmt.Printf("Wrote manifest: %s\n", cfg.Output.Manifest)

	s := synth.New(synth.Options{
		Package:    cfg.Output.Package,
		TrimPrefix: cfg.Output.TrimPrefix,
	})
	if err := s.WriteFile(cfg.Output.Bindings, man); err != nil {
		return err
	}
	fmt.Printf("Wrote bindings: %s\n", cfg.Output.Bindings)
	return nil
}

func formatSignature(fn manifest.FunctionSignature, man *manifest.InterfaceManifest) string {
	var params []string
	for _, p := range fn.Params {
		s := p.Name + ": " + p.Type
		if p.LengthOut {
			s += " (length out)"
		}
		if p.Ownership == manifest.OwnershipOwnedIn {
			s += " (consumed)"
		}
		params = append(params, s)
	}
	sig := fn.Name + "(" + strings.Join(params, ", ") + ")"
	if fn.Return.Type != "" {
		sig += " -> " + fn.Return.Type
		if fn.Return.Ownership == manifest.OwnershipOwnedOut {
			sig += " (owned)"
		}
		if fn.Return.Nullable {
			sig += "?"
		}
	}
	return sig + "  [" + fn.Header + "]"
}
