package emit

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"factories-generator/internal/common"
)

// Memory keeps artifacts in memory. It backs dry runs and up-to-date checks.
type Memory struct {
	mu    sync.Mutex
	files map[string]*memoryFile
}

type memoryFile struct {
	deps    Dependencies
	content bytes.Buffer
}

// memoryWriter appends to a memoryFile under the owning Memory's lock.
type memoryWriter struct {
	m    *Memory
	file *memoryFile
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()

	return w.file.content.Write(p)
}

func (w *memoryWriter) Close() error {
	return nil
}

// NewMemory creates an empty in-memory generator.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memoryFile)}
}

// CreateNewFile implements CodeGenerator.
func (m *Memory) CreateNewFile(deps Dependencies, resource string) (io.WriteCloser, error) {
	clean, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[clean]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCreated, clean)
	}

	f := &memoryFile{deps: Dependencies{
		Aggregating: deps.Aggregating,
		Sources:     append([]string(nil), deps.Sources...),
	}}
	m.files[clean] = f

	return &memoryWriter{m: m, file: f}, nil
}

// Paths returns the created resource paths, sorted.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return common.SortedKeys(m.files)
}

// Content returns a copy of the bytes written to resource.
func (m *Memory) Content(resource string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[resource]
	if !ok {
		return nil, false
	}

	return bytes.Clone(f.content.Bytes()), true
}

// Dependencies returns what was recorded for resource.
func (m *Memory) Dependencies(resource string) (Dependencies, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[resource]
	if !ok {
		return Dependencies{}, false
	}

	return f.deps, true
}
