// Package symbol implements the bidirectional string <-> integer
// interning table shared by every later stage of the pipeline. Every
// cross-component reference to a name (relation, attribute, function)
// uses an ID, never a raw string, so that bytecode cells stay fixed
// width.
package symbol

import "sync"

// ID is an interned symbol identifier. IDs are stable for the process
// lifetime and are assigned in insertion order starting at 0.
type ID int32

// Table is an append-only string <-> ID mapping. Concurrent readers
// are safe; writers (Intern of a not-yet-seen string) are serialized.
type Table struct {
	mu     sync.RWMutex
	byID   []string
	lookup map[string]ID
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{
		lookup: make(map[string]ID),
	}
}

// Intern returns the ID for s, allocating a new one if s has not been
// seen before. Safe for concurrent use.
func (t *Table) Intern(s string) ID {
	t.mu.RLock()
	if id, ok := t.lookup[s]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check: another writer may have interned s while we waited for
	// the write lock.
	if id, ok := t.lookup[s]; ok {
		return id
	}
	id := ID(len(t.byID))
	t.byID = append(t.byID, s)
	t.lookup[s] = id
	return id
}

// Resolve returns the string for id. Panics if id was never interned
// by this table — that indicates a compiler bug, never a user error.
func (t *Table) Resolve(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(t.byID) {
		panic("symbol: resolve of unknown id")
	}
	return t.byID[id]
}

// Lookup returns the ID for s without interning it.
func (t *Table) Lookup(s string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.lookup[s]
	return id, ok
}

// Len returns the number of interned symbols.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
