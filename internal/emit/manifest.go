package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"factories-generator/internal/common"
)

// ManifestLocation is where FileSystem.WriteManifest puts the manifest.
const ManifestLocation = "META-INF/factories-deps.yaml"

// Manifest lists every generated resource with the sources it depends on.
type Manifest struct {
	Outputs []ManifestOutput `yaml:"outputs"`
}

type ManifestOutput struct {
	Path        string           `yaml:"path"`
	Aggregating bool             `yaml:"aggregating"`
	Sources     []ManifestSource `yaml:"sources"`
}

type ManifestSource struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// BuildManifest hashes the sources of each output. Outputs are ordered by
// path and sources keep the order they were recorded in.
func BuildManifest(outputs map[string]Dependencies) (*Manifest, error) {
	m := &Manifest{Outputs: make([]ManifestOutput, 0, len(outputs))}
	digests := make(map[string]string)

	for _, p := range common.SortedKeys(outputs) {
		deps := outputs[p]
		out := ManifestOutput{
			Path:        p,
			Aggregating: deps.Aggregating,
			Sources:     make([]ManifestSource, 0, len(deps.Sources)),
		}

		for _, src := range deps.Sources {
			sum, ok := digests[src]
			if !ok {
				var err error
				sum, err = hashFile(src)
				if err != nil {
					return nil, err
				}

				digests[src] = sum
			}

			out.Sources = append(out.Sources, ManifestSource{Path: src, SHA256: sum})
		}

		m.Outputs = append(m.Outputs, out)
	}

	return m, nil
}

// ReadManifest loads a manifest. A missing file yields an error matching
// os.ErrNotExist.
func ReadManifest(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", file, err)
	}

	return &m, nil
}

// WriteFile writes the manifest as YAML, creating parent directories.
func (m *Manifest) WriteFile(file string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return fmt.Errorf("creating directory for manifest: %w", err)
	}

	if err := os.WriteFile(file, data, filePerm); err != nil {
		return fmt.Errorf("writing manifest %s: %w", file, err)
	}

	return nil
}

// Changed returns the sources whose current digest differs from the recorded
// one, including sources that no longer exist.
func (m *Manifest) Changed() []string {
	seen := make(map[string]struct{})
	var changed []string

	for _, out := range m.Outputs {
		for _, src := range out.Sources {
			if _, ok := seen[src.Path]; ok {
				continue
			}
			seen[src.Path] = struct{}{}

			sum, err := hashFile(src.Path)
			if err != nil || sum != src.SHA256 {
				changed = append(changed, src.Path)
			}
		}
	}

	return changed
}

func hashFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("source %s: %w", file, err)
		}

		return "", fmt.Errorf("opening source %s: %w", file, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing source %s: %w", file, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
