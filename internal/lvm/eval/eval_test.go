package eval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/lvm/compile"
	"ramlvm/internal/lvm/eval"
	"ramlvm/internal/lvm/record"
	"ramlvm/internal/lvm/relation"
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

type noopDirectives struct{}

func (noopDirectives) Load(ioIndex int, rel symbol.ID, arity int) ([]ram.Tuple, error) {
	return nil, nil
}
func (noopDirectives) Store(ioIndex int, rel symbol.ID, tuples []ram.Tuple) error { return nil }

func num(v int64) ram.Expression { return &ram.NumberConstant{Value: ram.Int(v)} }

func elem(tuple ram.TupleID, i int) ram.Expression {
	return &ram.TupleElement{Tuple: tuple, Element: i}
}

func run(t *testing.T, prog *ram.Program) (*relation.Manager, eval.Status) {
	t.Helper()
	compiled := compile.Compile(prog)
	manager := relation.NewManager()
	st := eval.Evaluate(context.Background(), compiled, manager, record.New(), noopDirectives{}, eval.FunctorSet{})
	return manager, st
}

func TestEvaluateFactPopulatesRelation(t *testing.T) {
	symbols := symbol.NewTable()
	r := symbols.Intern("r")
	a := symbols.Intern("a")
	b := symbols.Intern("b")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: r, Arity: 2, Storage: ram.StorageBTree, AttributeNames: []symbol.ID{a, b}},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(2)}},
		}},
	}

	manager, st := run(t, prog)
	assert.Equal(t, eval.OK, st.Kind)
	tuples := manager.Get(r).All()
	assert.Len(t, tuples, 1)
	assert.Equal(t, ram.Int(1), tuples[0][0])
	assert.Equal(t, ram.Int(2), tuples[0][1])
}

func TestEvaluateScanFilterProjectCopiesMatchingRows(t *testing.T) {
	symbols := symbol.NewTable()
	r := symbols.Intern("r")
	s := symbols.Intern("s")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: r, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: s, Arity: 2, Storage: ram.StorageBTree},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(2)}},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(3), num(4)}},
			&ram.Query{Root: &ram.Scan{
				Relation: r,
				Tuple:    0,
				Body: &ram.Filter{
					Condition: &ram.Constraint{Op: ram.CmpGT, LHS: elem(0, 0), RHS: num(2)},
					Body: &ram.Project{
						Values:   []ram.Expression{elem(0, 0), elem(0, 1)},
						Relation: s,
					},
				},
			}},
		}},
	}

	manager, st := run(t, prog)
	assert.Equal(t, eval.OK, st.Kind)
	tuples := manager.Get(s).All()
	assert.Len(t, tuples, 1)
	assert.Equal(t, ram.Int(3), tuples[0][0])
	assert.Equal(t, ram.Int(4), tuples[0][1])
}

func TestEvaluateIndexScanNarrowsToBoundPattern(t *testing.T) {
	symbols := symbol.NewTable()
	r := symbols.Intern("r")
	s := symbols.Intern("s")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: r, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: s, Arity: 2, Storage: ram.StorageBTree},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(2)}},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(3)}},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(2), num(4)}},
			&ram.Query{Root: &ram.IndexScan{
				Relation: r,
				Tuple:    0,
				Pattern:  []ram.Expression{num(1), nil},
				Body: &ram.Project{
					Values:   []ram.Expression{elem(0, 0), elem(0, 1)},
					Relation: s,
				},
			}},
		}},
	}

	manager, st := run(t, prog)
	assert.Equal(t, eval.OK, st.Kind)
	tuples := manager.Get(s).All()
	assert.Len(t, tuples, 2)
	for _, tup := range tuples {
		assert.Equal(t, ram.Int(1), tup[0])
	}
}

func TestEvaluateAggregateSumsColumn(t *testing.T) {
	symbols := symbol.NewTable()
	r := symbols.Intern("r")
	s := symbols.Intern("s")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: r, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: s, Arity: 1, Storage: ram.StorageBTree},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(10)}},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(20)}},
			&ram.Fact{Relation: r, Values: []ram.Expression{num(1), num(30)}},
			&ram.Query{Root: &ram.Aggregate{
				Function: ram.AggSum,
				Relation: r,
				Tuple:    0,
				Pattern:  []ram.Expression{nil, nil},
				Target:   elem(0, 1),
				Body: &ram.Project{
					Values:   []ram.Expression{elem(0, 0)},
					Relation: s,
				},
			}},
		}},
	}

	manager, st := run(t, prog)
	assert.Equal(t, eval.OK, st.Kind)
	tuples := manager.Get(s).All()
	assert.Len(t, tuples, 1)
	assert.Equal(t, ram.Int(60), tuples[0][0])
}

func TestEvaluateLoopRunsToExitCondition(t *testing.T) {
	// A classic semi-naive transitive-closure shape: seed `path` with
	// `edge`, then repeatedly extend it by joining edge against path
	// until a full pass adds nothing new, detected via EmptinessCheck
	// against a "delta" relation that Swap rotates each iteration.
	//
	// This test simplifies that down to a Loop/Exit bound by iteration
	// count (Exit once `count` reaches a target via AutoIncrement) to
	// exercise Loop/IncIterationNumber/Exit without needing a second
	// relation's worth of semi-naive bookkeeping.
	symbols := symbol.NewTable()
	counters := symbols.Intern("counters")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: counters, Arity: 1, Storage: ram.StorageBTree},
			&ram.Loop{Body: &ram.Sequence{Statements: []ram.Statement{
				&ram.Query{Root: &ram.Project{
					Values:   []ram.Expression{&ram.AutoIncrement{}},
					Relation: counters,
				}},
				&ram.Exit{Condition: &ram.Constraint{
					Op:  ram.CmpGE,
					LHS: &ram.AutoIncrement{},
					RHS: num(3),
				}},
			}}},
		}},
	}

	manager, st := run(t, prog)
	assert.Equal(t, eval.OK, st.Kind)
	assert.GreaterOrEqual(t, manager.Get(counters).Len(), 1)
}

func TestEvaluateParallelMergesEveryAlternative(t *testing.T) {
	symbols := symbol.NewTable()
	s := symbols.Intern("s")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: s, Arity: 1, Storage: ram.StorageBTree},
			&ram.Parallel{Statements: []ram.Statement{
				&ram.Query{Root: &ram.Project{Values: []ram.Expression{num(1)}, Relation: s}},
				&ram.Query{Root: &ram.Project{Values: []ram.Expression{num(2)}, Relation: s}},
				&ram.Query{Root: &ram.Project{Values: []ram.Expression{num(3)}, Relation: s}},
			}},
		}},
	}

	manager, st := run(t, prog)
	assert.Equal(t, eval.OK, st.Kind)
	tuples := manager.Get(s).All()
	assert.Len(t, tuples, 3)
	seen := map[int64]bool{}
	for _, tup := range tuples {
		seen[tup[0].Int64()] = true
	}
	assert.True(t, seen[1] && seen[2] && seen[3])
}

func TestEvaluateCancellationStopsAtNextPoll(t *testing.T) {
	symbols := symbol.NewTable()

	// A Loop with no reachable Exit: without cancellation this would
	// spin forever, so reaching Cancelled proves the poll at
	// IncIterationNumber actually fires.
	prog := &ram.Program{
		Symbols: symbols,
		Main:    &ram.Loop{Body: &ram.Sequence{}},
	}

	compiled := compile.Compile(prog)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager := relation.NewManager()
	st := eval.Evaluate(ctx, compiled, manager, record.New(), noopDirectives{}, eval.FunctorSet{})
	assert.Equal(t, eval.Cancelled, st.Kind)
}
