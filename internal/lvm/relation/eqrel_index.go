package relation

import (
	"github.com/hashicorp/go-set/v3"

	"ramlvm/internal/ram"
)

// eqrelPair is the comparable key the eqrel storage kind indexes on: a
// binary relation's two fields, in the order they were inserted.
type eqrelPair struct {
	a, b ram.Value
}

// eqrelRelation is the `eqrel` storage kind: a relation Soufflé
// restricts to arity 2, stored as a set of ordered pairs via
// hashicorp/go-set/v3's generic hash set. Pairs are kept exactly as
// inserted: (a,b) and (b,a) are distinct tuples, and no reflexive,
// symmetric or transitive pairs are derived.
type eqrelRelation struct {
	pairs *set.Set[eqrelPair]
}

func newEqrelRelation(arity int) *eqrelRelation {
	// arity is always 2 for a well-formed eqrel relation (spec.md §3);
	// a malformed Create still gets a working, just never-matching,
	// relation rather than a panic.
	_ = arity
	return &eqrelRelation{pairs: set.New[eqrelPair](0)}
}

func (r *eqrelRelation) Storage() ram.StorageKind { return ram.StorageEqrel }
func (r *eqrelRelation) Arity() int                { return 2 }
func (r *eqrelRelation) Len() int                  { return r.pairs.Size() }
func (r *eqrelRelation) Clear()                    { r.pairs = set.New[eqrelPair](0) }

func (r *eqrelRelation) Insert(t ram.Tuple) bool {
	if len(t) != 2 {
		return false
	}
	return r.pairs.Insert(eqrelPair{a: t[0], b: t[1]})
}

func (r *eqrelRelation) Contains(pattern Pattern) bool {
	for _, t := range r.All() {
		if pattern.matches(t) {
			return true
		}
	}
	return false
}

func (r *eqrelRelation) Scan() Iterator {
	return newSliceIterator(r.All())
}

func (r *eqrelRelation) IndexScan(pattern Pattern) Iterator {
	return newSliceIterator(filterMatching(r.All(), pattern))
}

func (r *eqrelRelation) All() []ram.Tuple {
	out := make([]ram.Tuple, 0, r.pairs.Size())
	for _, p := range r.pairs.Slice() {
		out = append(out, ram.Tuple{p.a, p.b})
	}
	return out
}
