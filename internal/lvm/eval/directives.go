package eval

import (
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// Directives supplies the externally registered Load/Store behavior
// an LVM_Load/LVM_Store opcode's IOindex selects (spec.md §6 "I/O
// directives": "the IOindex selects an externally supplied directive
// describing source... and format"). internal/iodirective provides
// the concrete implementation; the evaluator only needs this much of
// its surface, so it declares the interface itself rather than
// importing that package directly.
type Directives interface {
	Load(ioIndex int, relation symbol.ID, arity int) ([]ram.Tuple, error)
	Store(ioIndex int, relation symbol.ID, tuples []ram.Tuple) error
}

// Functor evaluates one externally registered user-defined operator
// call (spec.md §4.5's UserDefinedOperator: "calls an externally
// registered functor").
type Functor func(args []ram.Value) (ram.Value, error)

// FunctorSet resolves a UserDefinedOperator's interned name to its
// implementation.
type FunctorSet map[symbol.ID]Functor
