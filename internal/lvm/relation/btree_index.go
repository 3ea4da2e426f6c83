package relation

import (
	"github.com/google/btree"

	"ramlvm/internal/ram"
)

// btreeDegree mirrors the degree the teacher's dependency graph pulls
// in btree for elsewhere in the pack (hashicorp-nomad's indirect
// google/btree pin): a mid-sized node fanout, not tuned for this
// workload specifically.
const btreeDegree = 32

// btreeRelation is the `btree` storage kind: an ordered index over
// full tuples, via google/btree's generic BTreeG (spec.md DOMAIN
// STACK "ordered index, supports bounded query patterns").
type btreeRelation struct {
	arity int
	tree  *btree.BTreeG[ram.Tuple]
}

func newBTreeRelation(arity int) *btreeRelation {
	return &btreeRelation{
		arity: arity,
		tree:  newBTreeTree(),
	}
}

func newBTreeTree() *btree.BTreeG[ram.Tuple] {
	return btree.NewG[ram.Tuple](btreeDegree, func(a, b ram.Tuple) bool {
		return a.Less(b)
	})
}

func (r *btreeRelation) Storage() ram.StorageKind { return ram.StorageBTree }
func (r *btreeRelation) Arity() int                { return r.arity }
func (r *btreeRelation) Len() int                  { return r.tree.Len() }
func (r *btreeRelation) Clear()                    { r.tree = newBTreeTree() }

func (r *btreeRelation) Insert(t ram.Tuple) bool {
	if r.tree.Has(t) {
		return false
	}
	r.tree.ReplaceOrInsert(t.Clone())
	return true
}

func (r *btreeRelation) Contains(pattern Pattern) bool {
	found := false
	r.eachMatching(pattern, func(ram.Tuple) bool {
		found = true
		return false
	})
	return found
}

func (r *btreeRelation) Scan() Iterator {
	return newSliceIterator(r.All())
}

func (r *btreeRelation) IndexScan(pattern Pattern) Iterator {
	var out []ram.Tuple
	r.eachMatching(pattern, func(t ram.Tuple) bool {
		out = append(out, t)
		return true
	})
	return newSliceIterator(out)
}

func (r *btreeRelation) All() []ram.Tuple {
	out := make([]ram.Tuple, 0, r.tree.Len())
	r.tree.Ascend(func(t ram.Tuple) bool {
		out = append(out, t)
		return true
	})
	return out
}

// eachMatching walks candidates in ascending order, calling visit for
// each that matches pattern, until visit returns false. When pattern
// binds a contiguous prefix of positions starting at 0 — the shape
// MakeIndex (internal/ram/transform) actually produces — the tree's
// lexicographic ordering lets AscendRange narrow the walk directly;
// any other binding shape falls back to a full ascend with a
// post-filter, since a single-key ordered tree can't otherwise prune
// on a non-prefix combination of bound fields.
func (r *btreeRelation) eachMatching(pattern Pattern, visit func(ram.Tuple) bool) {
	if !pattern.Bound() {
		r.tree.Ascend(func(t ram.Tuple) bool { return visit(t) })
		return
	}
	prefixLen := contiguousPrefixLen(pattern)
	if prefixLen == 0 {
		r.tree.Ascend(func(t ram.Tuple) bool {
			if !pattern.matches(t) {
				return true
			}
			return visit(t)
		})
		return
	}
	lo, hi := rangeBounds(pattern, prefixLen, r.arity)
	r.tree.AscendRange(lo, hi, func(t ram.Tuple) bool {
		if !pattern.matches(t) {
			return true
		}
		return visit(t)
	})
}

func contiguousPrefixLen(pattern Pattern) int {
	n := 0
	for _, v := range pattern {
		if v == nil {
			break
		}
		n++
	}
	return n
}

// rangeBounds builds [lo, hi) tuples of length prefixLen: the standard
// prefix-range trick for a lexicographically ordered key. lo is the
// bound prefix itself; hi is the same prefix with its last field
// bumped by one. Tuple.Compare sorts a tuple before every longer tuple
// it is a prefix of, so any tuple sharing the bound prefix sorts
// between the two, and nothing else does.
func rangeBounds(pattern Pattern, prefixLen, arity int) (lo, hi ram.Tuple) {
	lo = make(ram.Tuple, prefixLen)
	hi = make(ram.Tuple, prefixLen)
	for i := 0; i < prefixLen; i++ {
		lo[i] = *pattern[i]
		hi[i] = *pattern[i]
	}
	hi[prefixLen-1].Bits++
	return lo, hi
}
