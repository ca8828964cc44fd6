package emit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"factories-generator/internal/common"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrAlreadyCreated is returned when a resource path is created twice in one run.
var ErrAlreadyCreated = errors.New("resource already created in this run")

// ErrInvalidPath is returned for resource paths that would escape the root.
var ErrInvalidPath = errors.New("invalid resource path")

// FileSystem writes artifacts below a root directory.
type FileSystem struct {
	root string

	mu      sync.Mutex
	outputs map[string]Dependencies
}

// NewFileSystem creates a generator rooted at dir.
func NewFileSystem(dir string) *FileSystem {
	return &FileSystem{
		root:    dir,
		outputs: make(map[string]Dependencies),
	}
}

// Root returns the output root directory.
func (f *FileSystem) Root() string {
	return f.root
}

// CreateNewFile implements CodeGenerator.
func (f *FileSystem) CreateNewFile(deps Dependencies, resource string) (io.WriteCloser, error) {
	clean, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.outputs[clean]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCreated, clean)
	}

	full := filepath.Join(f.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", clean, err)
	}

	file, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", clean, err)
	}

	f.outputs[clean] = Dependencies{
		Aggregating: deps.Aggregating,
		Sources:     append([]string(nil), deps.Sources...),
	}

	return &bufferedFile{Writer: bufio.NewWriter(file), file: file}, nil
}

// bufferedFile flushes its buffer when closed.
type bufferedFile struct {
	*bufio.Writer
	file *os.File
}

func (b *bufferedFile) Close() error {
	return errors.Join(b.Flush(), b.file.Close())
}

// Outputs returns the resource paths created so far, sorted.
func (f *FileSystem) Outputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return common.SortedKeys(f.outputs)
}

// Dependencies returns what was recorded for a created resource.
func (f *FileSystem) Dependencies(resource string) (Dependencies, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.outputs[resource]

	return d, ok
}

// WriteManifest writes the dependency manifest of every created resource to
// ManifestLocation below the root.
func (f *FileSystem) WriteManifest() error {
	f.mu.Lock()
	outputs := make(map[string]Dependencies, len(f.outputs))
	for k, v := range f.outputs {
		outputs[k] = v
	}
	f.mu.Unlock()

	m, err := BuildManifest(outputs)
	if err != nil {
		return err
	}

	return m.WriteFile(filepath.Join(f.root, filepath.FromSlash(ManifestLocation)))
}

// Prune removes resources listed in a previous manifest that this run did not
// create, so a registry that became empty does not linger on disk.
func (f *FileSystem) Prune(previous *Manifest) ([]string, error) {
	if previous == nil {
		return nil, nil
	}

	var (
		removed []string
		errs    []error
	)

	for _, out := range previous.Outputs {
		if _, ok := f.Dependencies(out.Path); ok {
			continue
		}

		clean, err := cleanResource(out.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		err = os.Remove(filepath.Join(f.root, filepath.FromSlash(clean)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing stale %s: %w", clean, err))
			continue
		}

		removed = append(removed, clean)
	}

	return removed, errors.Join(errs...)
}

// cleanResource normalizes a slash-separated resource path and rejects paths
// that are absolute or leave the root.
func cleanResource(resource string) (string, error) {
	clean := path.Clean(filepath.ToSlash(resource))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, resource)
	}

	return clean, nil
}
