package relation

import (
	"fmt"
	"sync"

	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// Manager is the sole owner of every relation and its index
// structures (spec.md §5 "Shared resource policy": "the relation
// manager is the sole owner of all relations"). It is the thing
// LVM_Create/Clear/Drop/Merge/Swap/Load/Store and every iterator
// opcode ultimately act on.
type Manager struct {
	mu        sync.RWMutex
	relations map[symbol.ID]Relation
}

// NewManager returns an empty relation manager.
func NewManager() *Manager {
	return &Manager{relations: make(map[symbol.ID]Relation)}
}

// Create allocates a new relation. Re-creating an existing name is
// fatal (spec.md §4.5 "Create: Re-creating an existing name is
// fatal"), surfaced to the caller as an error rather than a panic
// since the evaluator reports it as a named evaluation fault.
func (m *Manager) Create(name symbol.ID, arity int, kind ram.StorageKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.relations[name]; exists {
		return fmt.Errorf("relation: %d already exists", name)
	}
	m.relations[name] = New(arity, kind)
	return nil
}

// Get returns the named relation. Relation-not-found is a compiler
// bug (spec.md §4.5 "Failure semantics"), so Get panics rather than
// returning an error the caller would have to re-check everywhere.
func (m *Manager) Get(name symbol.ID) Relation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, ok := m.relations[name]
	if !ok {
		panic(fmt.Sprintf("relation: %d not found", name))
	}
	return rel
}

// Clear empties a relation but keeps its index structures allocated.
func (m *Manager) Clear(name symbol.ID) { m.Get(name).Clear() }

// Drop destroys a relation and its indexes entirely.
func (m *Manager) Drop(name symbol.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.relations, name)
}

// Merge bulk-inserts every tuple of source into target.
func (m *Manager) Merge(target, source symbol.ID) {
	dst := m.Get(target)
	for _, t := range m.Get(source).All() {
		dst.Insert(t)
	}
}

// Swap exchanges the relations bound to a and b. Tuples themselves
// never move; only the name->relation bindings do.
func (m *Manager) Swap(a, b symbol.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations[a], m.relations[b] = m.relations[b], m.relations[a]
}
