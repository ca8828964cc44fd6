package symbols

import (
	"fmt"
	"sync"
)

// MapTable is an in-memory SymbolTable, populated up front. It is useful when
// declarations come from somewhere other than Go source, and in tests.
type MapTable struct {
	mu         sync.RWMutex
	arguments  map[TypeID][]Arguments
	supertypes map[TypeID][]Supertype
	errs       map[TypeID]error
}

// NewMapTable creates an empty MapTable.
func NewMapTable() *MapTable {
	return &MapTable{
		arguments:  make(map[TypeID][]Arguments),
		supertypes: make(map[TypeID][]Supertype),
		errs:       make(map[TypeID]error),
	}
}

// Annotate records one marker usage on id and returns the table for chaining.
func (m *MapTable) Annotate(id TypeID, args Arguments) *MapTable {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.arguments[id] = append(m.arguments[id], args)

	return m
}

// Extend records direct supertypes of id and returns the table for chaining.
func (m *MapTable) Extend(id TypeID, supertypes ...Supertype) *MapTable {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.supertypes[id] = append(m.supertypes[id], supertypes...)

	return m
}

// Fail makes Arguments report err for id.
func (m *MapTable) Fail(id TypeID, err error) *MapTable {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs[id] = err

	return m
}

// Arguments implements SymbolTable.
func (m *MapTable) Arguments(decl Declaration) ([]Arguments, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	args := append([]Arguments(nil), m.arguments[decl.ID]...)
	if err := m.errs[decl.ID]; err != nil {
		return args, fmt.Errorf("arguments of %s: %w", decl.ID, err)
	}

	return args, nil
}

// Supertypes implements SymbolTable.
func (m *MapTable) Supertypes(decl Declaration) []Supertype {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Supertype(nil), m.supertypes[decl.ID]...)
}

// CanonicalName implements SymbolTable.
func (m *MapTable) CanonicalName(decl Declaration) string {
	return decl.ID.String()
}
