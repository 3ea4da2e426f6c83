package eval

import (
	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/ram"
)

// aggState accumulates one in-flight Aggregate's reduction across the
// candidates its inner scan visits (spec.md §4.4 "Aggregate lowering":
// AggregateReduce folds one candidate per iteration, AggregateReturn
// commits the final value once, after the loop).
type aggState struct {
	fn      opcode.AggregateFunc
	tuple   ram.TupleID
	sum     int64
	count   int64
	extreme int64
	hasAny  bool
}

func newAggState(fn opcode.AggregateFunc, tuple ram.TupleID) aggState {
	return aggState{fn: fn, tuple: tuple}
}

func (s *aggState) fold(v ram.Value) {
	s.count++
	n := v.Int64()
	s.sum += n
	switch {
	case !s.hasAny:
		s.extreme = n
	case s.fn == opcode.AggMin && n < s.extreme:
		s.extreme = n
	case s.fn == opcode.AggMax && n > s.extreme:
		s.extreme = n
	}
	s.hasAny = true
}

// finish returns the reduced value Soufflé's LVM would bind to the
// aggregate's tuple: count and sum default to zero over an empty
// candidate set; min/max over an empty set has no defined value, so
// this returns zero rather than failing the whole query — an
// aggregate over zero candidates is a normal, not exceptional, case.
func (s *aggState) finish() ram.Value {
	switch s.fn {
	case opcode.AggCount:
		return ram.Int(s.count)
	case opcode.AggSum:
		return ram.Int(s.sum)
	case opcode.AggMin, opcode.AggMax:
		if !s.hasAny {
			return ram.Int(0)
		}
		return ram.Int(s.extreme)
	default:
		return ram.Int(0)
	}
}
