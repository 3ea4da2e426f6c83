package ram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/symbol"
)

func TestConjFoldsRightLeaning(t *testing.T) {
	a := &True{}
	b := &True{}
	c := &True{}

	assert.IsType(t, &True{}, Conj())
	assert.Same(t, Condition(a), Conj(a))

	conj := Conj(a, b, c).(*Conjunction)
	assert.Same(t, Condition(a), conj.LHS)
	inner := conj.RHS.(*Conjunction)
	assert.Same(t, Condition(b), inner.LHS)
	assert.Same(t, Condition(c), inner.RHS)
}

func TestPrintTransitiveClosureProgram(t *testing.T) {
	tbl := symbol.NewTable()
	edge := tbl.Intern("edge")
	tc := tbl.Intern("tc")

	prog := &Program{
		Symbols: tbl,
		Main: &Sequence{Statements: []Statement{
			&Create{Relation: edge, Arity: 2, Storage: StorageBTree},
			&Create{Relation: tc, Arity: 2, Storage: StorageBTree},
			&Query{Root: &Scan{
				Relation: edge,
				Tuple:    0,
				Body: &Project{
					Relation: tc,
					Values: []Expression{
						&TupleElement{Tuple: 0, Element: 0},
						&TupleElement{Tuple: 0, Element: 1},
					},
				},
			}},
		}},
	}

	out := Print(prog)
	assert.True(t, strings.Contains(out, "CREATE edge (btree)"))
	assert.True(t, strings.Contains(out, "FOR t0 IN edge"))
	assert.True(t, strings.Contains(out, "PROJECT (t0.0, t0.1) INTO tc"))
}
