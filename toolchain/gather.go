package toolchain

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Azzybana/astd/errors"
)

// GatherOptions filters a recursive copy.
type GatherOptions struct {
	// Extensions keeps only files with one of these extensions
	// (case-insensitive, leading dot included). Empty keeps everything.
	Extensions []string

	// StripSegments removes matching path segments from the destination
	// relative path, flattening e.g. Debug/ configuration directories.
	StripSegments []string

	// RequireSegment, when set, keeps only files whose relative path
	// contains this segment.
	RequireSegment string
}

func (o GatherOptions) keep(rel string) bool {
	if len(o.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(rel))
		found := false
		for _, want := range o.Extensions {
			if ext == strings.ToLower(want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.RequireSegment != "" && !hasSegment(rel, o.RequireSegment) {
		return false
	}
	return true
}

func hasSegment(rel, segment string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == segment {
			return true
		}
	}
	return false
}

func (o GatherOptions) destRel(rel string) string {
	if len(o.StripSegments) == 0 {
		return rel
	}
	parts := strings.Split(rel, string(filepath.Separator))
	kept := parts[:0]
	for _, part := range parts {
		strip := false
		for _, s := range o.StripSegments {
			if part == s {
				strip = true
				break
			}
		}
		if !strip {
			kept = append(kept, part)
		}
	}
	return filepath.Join(kept...)
}

// CopyFiltered recursively copies files from srcRoot to destRoot,
// preserving relative structure, keeping only files the options accept.
func CopyFiltered(srcRoot, destRoot string, opts GatherOptions) error {
	copied := 0
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		if !opts.keep(rel) {
			return nil
		}

		dest := filepath.Join(destRoot, opts.destRel(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := copyFile(path, dest); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.PhaseExtract, errors.KindInvalidInput, err,
			"gathering from "+srcRoot)
	}

	Logger().Debug("gather complete",
		zap.String("src", srcRoot),
		zap.String("dest", destRoot),
		zap.Int("files", copied))
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
