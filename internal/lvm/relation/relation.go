// Package relation implements the Relation Manager (spec.md §3
// "Relation", §4.5 "Create"): one storage backend per StorageKind,
// each wired to a distinct real index library from the example pack,
// plus the Iterator abstraction the compiled bytecode drives through
// LVM_ITER_TypeScan / LVM_ITER_TypeIndexScan / LVM_ITER_NotAtEnd /
// LVM_ITER_Select / LVM_ITER_Inc.
package relation

import "ramlvm/internal/ram"

// Pattern restricts an index scan to tuples matching the bound
// positions; a nil entry is an unbound wildcard (spec.md GLOSSARY
// "Pattern": "a per-attribute vector of equality bounds").
type Pattern []*ram.Value

// Bound reports whether pattern constrains any position at all.
func (p Pattern) Bound() bool {
	for _, v := range p {
		if v != nil {
			return true
		}
	}
	return false
}

// matches reports whether t satisfies every bound position of p.
func (p Pattern) matches(t ram.Tuple) bool {
	for i, v := range p {
		if v == nil {
			continue
		}
		if i >= len(t) || t[i].Bits != v.Bits || t[i].Kind != v.Kind {
			return false
		}
	}
	return true
}

// Iterator is a cursor over a Relation's tuples, optionally restricted
// to a Pattern (spec.md §3 "Iterator"). Advancing and end-check are
// dispatched on the backing index's own representation; callers never
// see storage-kind-specific state.
type Iterator interface {
	// NotAtEnd reports whether Select would return a valid tuple.
	NotAtEnd() bool
	// Select returns the tuple the cursor currently points at. Only
	// valid while NotAtEnd is true.
	Select() ram.Tuple
	// Inc advances the cursor.
	Inc()
}

// Relation is a named, typed bag of tuples with fixed arity (spec.md
// §3 "Relation"). Every storage kind satisfies the same invariants:
// every tuple is reachable through every index it exposes, and
// insertion is idempotent (set, not multiset, semantics).
type Relation interface {
	Storage() ram.StorageKind
	Arity() int
	Len() int
	Clear()

	// Insert adds t if not already present, reporting whether it was
	// newly added.
	Insert(t ram.Tuple) bool

	// Contains reports whether any tuple matches pattern.
	Contains(pattern Pattern) bool

	// Scan returns an iterator over every tuple.
	Scan() Iterator

	// IndexScan returns an iterator restricted to pattern.
	IndexScan(pattern Pattern) Iterator

	// All snapshots every tuple currently stored, for Merge/Store.
	All() []ram.Tuple
}

// New constructs an empty Relation of the given arity and storage
// kind (spec.md §4.5 "Create": "the chosen kind is immutable for the
// relation's lifetime").
func New(arity int, kind ram.StorageKind) Relation {
	switch kind {
	case ram.StorageBTree:
		return newBTreeRelation(arity)
	case ram.StorageBrie:
		return newBrieRelation(arity)
	case ram.StorageEqrel:
		return newEqrelRelation(arity)
	case ram.StorageDirect:
		return newDirectRelation(arity)
	default:
		return newBTreeRelation(arity)
	}
}

// sliceIterator adapts a pre-materialized snapshot into an Iterator.
// Every backend ultimately produces one of these: the index libraries
// in this package either don't expose a cancellable live cursor
// (go-set) or make a point-in-time copy cheap and safe against the
// "iterator invalidation" invariant (spec.md §3 "Ownership") simply by
// construction.
type sliceIterator struct {
	tuples []ram.Tuple
	pos    int
}

func newSliceIterator(tuples []ram.Tuple) *sliceIterator {
	return &sliceIterator{tuples: tuples}
}

func (it *sliceIterator) NotAtEnd() bool { return it.pos < len(it.tuples) }
func (it *sliceIterator) Select() ram.Tuple {
	return it.tuples[it.pos]
}
func (it *sliceIterator) Inc() { it.pos++ }

// filterMatching returns the subset of tuples matching pattern,
// preserving order. Used by backends whose native index can't narrow
// on the given combination of bound positions.
func filterMatching(tuples []ram.Tuple, pattern Pattern) []ram.Tuple {
	if !pattern.Bound() {
		return tuples
	}
	out := make([]ram.Tuple, 0, len(tuples))
	for _, t := range tuples {
		if pattern.matches(t) {
			out = append(out, t)
		}
	}
	return out
}
