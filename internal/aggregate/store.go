// Package aggregate holds the build-scoped multimaps from registry key to
// implementors, one per target registry.
package aggregate

import (
	"slices"
	"sync"

	"factories-generator/internal/common"
	"factories-generator/internal/symbols"
)

// Implementor is one registered implementation.
type Implementor struct {
	Name string // canonical name
	File string // contributing source file, for dependency tracking only
}

// entries maps implementor name to the set of files that contributed it.
type entries map[string]map[string]struct{}

// Store aggregates implementors for both targets. The zero value is not
// usable; create one with New per build.
type Store struct {
	mu   sync.Mutex
	maps map[symbols.Target]map[string]entries
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		maps: map[symbols.Target]map[string]entries{
			symbols.TargetStandard: {},
			symbols.TargetAOT:      {},
		},
	}
}

// Put adds impl under key. Adding the same implementor again is a no-op
// apart from remembering an extra source file.
func (s *Store) Put(target symbols.Target, key string, impl Implementor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.maps[target]

	byName, ok := m[key]
	if !ok {
		byName = make(entries)
		m[key] = byName
	}

	files, ok := byName[impl.Name]
	if !ok {
		files = make(map[string]struct{})
		byName[impl.Name] = files
	}

	if impl.File != "" {
		files[impl.File] = struct{}{}
	}
}

// IsEmpty reports whether target holds no keys.
func (s *Store) IsEmpty(target symbols.Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.maps[target]) == 0
}

// Len returns the number of (key, implementor) pairs in target.
func (s *Store) Len(target symbols.Target) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, byName := range s.maps[target] {
		n += len(byName)
	}

	return n
}

// Keys returns the registry keys of target in ascending order.
func (s *Store) Keys(target symbols.Target) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return common.SortedKeys(s.maps[target])
}

// Values returns the implementor names under key in ascending order.
func (s *Store) Values(target symbols.Target, key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return common.SortedKeys(s.maps[target][key])
}

// Sources returns every source file contributing to target, sorted.
func (s *Store) Sources(target symbols.Target) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{})
	for _, byName := range s.maps[target] {
		for _, files := range byName {
			for f := range files {
				set[f] = struct{}{}
			}
		}
	}

	return common.SortedKeys(set)
}

// Snapshot returns a copy of target as key -> sorted implementor names.
func (s *Store) Snapshot(target symbols.Target) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string, len(s.maps[target]))
	for key, byName := range s.maps[target] {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}

		slices.Sort(names)
		out[key] = names
	}

	return out
}

// Clear empties target. Only call once no more Put can happen for the build.
func (s *Store) Clear(target symbols.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maps[target] = make(map[string]entries)
}
