package toolchain

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/Azzybana/astd/errors"
)

// Minimum tool versions the native build is known to work with.
var (
	MinGitVersion   = Version{2, 40, 0}
	MinCMakeVersion = Version{3, 31, 0}
)

// Runner executes external build tools in a working directory. Stdout is
// captured and returned; a non-zero exit is an error carrying stderr.
type Runner struct {
	Dir string
}

// Run executes one command and returns its standard output.
func (r Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	Logger().Debug("running command",
		zap.String("command", name),
		zap.Strings("args", args),
		zap.String("dir", r.Dir))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.New(errors.PhaseExtract, errors.KindInvalidInput).
			Cause(err).
			Detail("%s failed: %s", name, strings.TrimSpace(stderr.String())).
			Build()
	}
	return stdout.String(), nil
}

// ProbeTool runs a tool's version command and checks the reported
// version against the minimum.
func (r Runner) ProbeTool(ctx context.Context, name string, min Version) (Version, error) {
	out, err := r.Run(ctx, name, "--version")
	if err != nil {
		return Version{}, errors.New(errors.PhaseExtract, errors.KindInvalidInput).
			Cause(err).
			Detail("%s is not installed or not on PATH", name).
			Build()
	}
	v, ok := ParseVersion(out)
	if !ok {
		return Version{}, errors.InvalidInput(errors.PhaseExtract,
			name+" reported no parsable version")
	}
	if !v.AtLeast(min) {
		return v, errors.InvalidInput(errors.PhaseExtract,
			name+" "+v.String()+" is older than required "+min.String())
	}
	Logger().Info("tool probe", zap.String("tool", name), zap.String("version", v.String()))
	return v, nil
}

// Probe verifies that git and cmake are present at the required
// versions. The native build cannot start without both.
func (r Runner) Probe(ctx context.Context) error {
	if _, err := r.ProbeTool(ctx, "git", MinGitVersion); err != nil {
		return err
	}
	if _, err := r.ProbeTool(ctx, "cmake", MinCMakeVersion); err != nil {
		return err
	}
	return nil
}

// BuildSpec describes one native library build.
type BuildSpec struct {
	// RepoURL is cloned into WorkDir.
	RepoURL string

	// WorkDir holds the clone and the out-of-tree build directory.
	WorkDir string

	// SourceSubdir is the clone's directory name under WorkDir.
	SourceSubdir string

	// ConfigFlags are passed to the cmake configure step.
	ConfigFlags []string

	// OutputDir receives the gathered libraries and header tree.
	OutputDir string

	// LibExtensions filters which built artifacts are gathered.
	LibExtensions []string
}

// Build clones, configures, compiles, and gathers a native library.
// Every step failure is fatal; nothing is gathered from a failed build.
func Build(ctx context.Context, spec BuildSpec) error {
	if spec.RepoURL == "" || spec.WorkDir == "" || spec.OutputDir == "" {
		return errors.InvalidInput(errors.PhaseExtract, "build spec missing repo, work dir, or output dir")
	}
	if len(spec.LibExtensions) == 0 {
		spec.LibExtensions = []string{".a", ".so", ".lib", ".dll"}
	}

	if err := os.MkdirAll(spec.WorkDir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseExtract, errors.KindInvalidInput, err, "creating work dir")
	}
	work := Runner{Dir: spec.WorkDir}
	if err := work.Probe(ctx); err != nil {
		return err
	}

	Logger().Info("obtaining source", zap.String("repo", spec.RepoURL))
	if _, err := work.Run(ctx, "git", "clone", "--depth", "1", spec.RepoURL, spec.SourceSubdir); err != nil {
		return err
	}

	srcDir := spec.WorkDir + "/" + spec.SourceSubdir
	buildDir := srcDir + "/build"
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseExtract, errors.KindInvalidInput, err, "creating build dir")
	}

	build := Runner{Dir: buildDir}
	cfg := append(append([]string{}, spec.ConfigFlags...), "..")
	if _, err := build.Run(ctx, "cmake", cfg...); err != nil {
		return err
	}
	if _, err := build.Run(ctx, "cmake", "--build", "."); err != nil {
		return err
	}

	if err := CopyFiltered(buildDir, spec.OutputDir+"/lib", GatherOptions{
		Extensions:    spec.LibExtensions,
		StripSegments: []string{"Debug", "Release"},
	}); err != nil {
		return err
	}
	if err := CopyFiltered(srcDir, spec.OutputDir+"/include", GatherOptions{
		Extensions: []string{".h"},
	}); err != nil {
		return err
	}

	Logger().Info("native build complete", zap.String("output", spec.OutputDir))
	return nil
}
