package relation

import (
	"encoding/binary"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"ramlvm/internal/ram"
)

// brieRelation is the `brie` storage kind ("Binary Relation Index
// Engine"): tuples are byte-encoded into a trie key, stored in a
// persistent radix tree (spec.md DOMAIN STACK: "persistent/immutable
// snapshots fit the iterator-invalidation invariant cleanly — an
// iterator holds its own root and is unaffected by later inserts").
// Every Insert replaces r.tree with the new root returned by the
// library rather than mutating in place, which is what makes that
// guarantee free.
type brieRelation struct {
	arity int
	tree  *iradix.Tree[ram.Tuple]
}

func newBrieRelation(arity int) *brieRelation {
	return &brieRelation{arity: arity, tree: iradix.New[ram.Tuple]()}
}

func (r *brieRelation) Storage() ram.StorageKind { return ram.StorageBrie }
func (r *brieRelation) Arity() int                { return r.arity }
func (r *brieRelation) Len() int                  { return r.tree.Len() }
func (r *brieRelation) Clear()                    { r.tree = iradix.New[ram.Tuple]() }

func (r *brieRelation) Insert(t ram.Tuple) bool {
	key := encodeTupleKey(t)
	tree, _, existed := r.tree.Insert(key, t.Clone())
	r.tree = tree
	return !existed
}

func (r *brieRelation) Contains(pattern Pattern) bool {
	if prefixLen := contiguousPrefixLen(pattern); prefixLen > 0 {
		found := false
		it := r.tree.Root().Iterator()
		it.SeekPrefix(encodeTupleKey(boundPrefix(pattern, prefixLen)))
		for {
			_, v, ok := it.Next()
			if !ok {
				break
			}
			if pattern.matches(v) {
				found = true
				break
			}
		}
		return found
	}
	found := false
	r.tree.Root().Walk(func(_ []byte, v ram.Tuple) bool {
		if pattern.matches(v) {
			found = true
			return true
		}
		return false
	})
	return found
}

func (r *brieRelation) Scan() Iterator {
	return newSliceIterator(r.All())
}

func (r *brieRelation) IndexScan(pattern Pattern) Iterator {
	if prefixLen := contiguousPrefixLen(pattern); prefixLen > 0 {
		var out []ram.Tuple
		it := r.tree.Root().Iterator()
		it.SeekPrefix(encodeTupleKey(boundPrefix(pattern, prefixLen)))
		for {
			_, v, ok := it.Next()
			if !ok {
				break
			}
			if pattern.matches(v) {
				out = append(out, v)
			}
		}
		return newSliceIterator(out)
	}
	return newSliceIterator(filterMatching(r.All(), pattern))
}

func (r *brieRelation) All() []ram.Tuple {
	out := make([]ram.Tuple, 0, r.tree.Len())
	r.tree.Root().Walk(func(_ []byte, v ram.Tuple) bool {
		out = append(out, v)
		return false
	})
	return out
}

// boundPrefix returns the first prefixLen fields of pattern as a
// standalone tuple, for seeking the trie to the matching subtree.
func boundPrefix(pattern Pattern, prefixLen int) ram.Tuple {
	prefix := make(ram.Tuple, prefixLen)
	for i := 0; i < prefixLen; i++ {
		prefix[i] = *pattern[i]
	}
	return prefix
}

// encodeTupleKey turns a tuple into a byte string preserving
// lexicographic tuple order as byte-string order, so a bound prefix
// of fields becomes a trie key prefix: kind byte then big-endian bits
// per field (big-endian bytes sort the same as the unsigned integer).
// A KindSigned field has its sign bit flipped first, so negative values
// sort before non-negative ones, as Tuple.Compare orders them.
func encodeTupleKey(t ram.Tuple) []byte {
	key := make([]byte, 0, len(t)*9)
	var buf [8]byte
	for _, v := range t {
		key = append(key, byte(v.Kind))
		bits := v.Bits
		if v.Kind == ram.KindSigned {
			bits ^= 1 << 63
		}
		binary.BigEndian.PutUint64(buf[:], bits)
		key = append(key, buf[:]...)
	}
	return key
}
