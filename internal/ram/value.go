package ram

import "ramlvm/internal/symbol"

// Kind tags the interpretation of a Value's machine word.
type Kind uint8

const (
	KindSigned Kind = iota
	KindUnsigned
	KindFloat
	KindSymbol
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindSigned:
		return "i"
	case KindUnsigned:
		return "u"
	case KindFloat:
		return "f"
	case KindSymbol:
		return "s"
	case KindRecord:
		return "r"
	default:
		return "?"
	}
}

// Value is a tagged machine word: all arithmetic/comparison opcodes
// are monomorphic on Kind, selected by the compiler from RAM type
// information (spec.md §3 "Value").
type Value struct {
	Kind Kind
	Bits uint64 // signed/unsigned stored as their bit pattern; float bit-laid into the same width
}

// Int builds a signed-integer Value.
func Int(v int64) Value { return Value{Kind: KindSigned, Bits: uint64(v)} }

// Uint builds an unsigned-integer Value.
func Uint(v uint64) Value { return Value{Kind: KindUnsigned, Bits: v} }

// Sym builds a symbol-id Value.
func Sym(id symbol.ID) Value { return Value{Kind: KindSymbol, Bits: uint64(uint32(id))} }

// Int64 reinterprets the Value as a signed integer regardless of Kind;
// callers are responsible for checking Kind first.
func (v Value) Int64() int64 { return int64(v.Bits) }

// SymbolID reinterprets the Value as a symbol id.
func (v Value) SymbolID() symbol.ID { return symbol.ID(int32(uint32(v.Bits))) }

// Tuple is a fixed-arity ordered sequence of Values. Tuples compare
// lexicographically on their fields (spec.md §3 "Tuple").
type Tuple []Value

// compareValue orders two Values of the same field: KindSigned compares
// as a two's-complement int64 so that Int(-1) sorts before Int(0),
// matching OpLT/OpLE/OpGT/OpGE's Int64()-based comparison; every other
// Kind orders on its raw Bits pattern.
func compareValue(a, b Value) int {
	if a.Kind == KindSigned {
		x, y := a.Int64(), b.Int64()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a.Bits < b.Bits:
		return -1
	case a.Bits > b.Bits:
		return 1
	default:
		return 0
	}
}

// Compare returns -1, 0 or 1 comparing t to other lexicographically by
// field. Tuples of differing arity compare by their common prefix,
// then the shorter tuple sorts first — relations are fixed-arity, but
// the btree index relies on this to use a bare prefix as a range bound.
func (t Tuple) Compare(other Tuple) int {
	n := len(t)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if c := compareValue(t[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(t) < len(other):
		return -1
	case len(t) > len(other):
		return 1
	default:
		return 0
	}
}

// Less reports whether t sorts before other — the ordering relied on
// by btree/brie index structures.
func (t Tuple) Less(other Tuple) bool { return t.Compare(other) < 0 }

// Equal reports field-wise equality.
func (t Tuple) Equal(other Tuple) bool { return t.Compare(other) == 0 }

// Clone returns an independent copy of t.
func (t Tuple) Clone() Tuple {
	c := make(Tuple, len(t))
	copy(c, t)
	return c
}
