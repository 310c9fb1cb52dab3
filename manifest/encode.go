package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Azzybana/astd/errors"
)

// Encode serializes the manifest. Field order is fixed by the struct
// definitions and slices preserve first-seen declaration order, so
// identical inputs produce byte-identical output.
func (m *InterfaceManifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "encode manifest")
	}
	return buf.Bytes(), nil
}

// Write validates and serializes the manifest to path. The file is
// written to a temporary name and renamed into place so a failed build
// never leaves a partial manifest behind.
func (m *InterfaceManifest) Write(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "create manifest")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "write manifest")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "close manifest")
	}
	return os.Rename(tmpName, path)
}

// Decode parses a serialized manifest and checks its format version.
func Decode(data []byte) (*InterfaceManifest, error) {
	var m InterfaceManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "decode manifest")
	}
	if m.FormatVersion != FormatVersion {
		return nil, errors.New(errors.PhaseLoad, errors.KindStaleManifest).
			Detail("format version %d, expected %d", m.FormatVersion, FormatVersion).
			Build()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and decodes a manifest from path.
func Load(path string) (*InterfaceManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "read manifest")
	}
	return Decode(data)
}

// LoadFresh loads a manifest and rejects it when its source digest does
// not match the current header digest. Callers regenerate on a
// stale_manifest error instead of reusing the old bindings.
func LoadFresh(path, sourceDigest string) (*InterfaceManifest, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	if m.SourceDigest != sourceDigest {
		return nil, errors.StaleManifest(sourceDigest, m.SourceDigest)
	}
	return m, nil
}
