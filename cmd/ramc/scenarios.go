// scenarios.go stands in for the external AST/Datalog-source layer
// spec.md places outside this module's scope (§1 "Non-goals"): each
// function hand-builds a ram.Program the way a real front end's
// RAM-lowering pass would, so ramc has something to compile and run.
package main

import (
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// Scenario names a hardcoded program plus the I/O directive
// descriptions its Load/Store statements resolve against, in IOIndex
// order.
type Scenario struct {
	Name       string
	Build      func() *ram.Program
	Directives []string
}

func scenarios() map[string]Scenario {
	list := []Scenario{transitiveClosureScenario(), parallelSeedScenario()}
	out := make(map[string]Scenario, len(list))
	for _, s := range list {
		out[s.Name] = s
	}
	return out
}

func num(v int64) ram.Expression { return &ram.NumberConstant{Value: ram.Int(v)} }
func elem(tuple ram.TupleID, i int) ram.Expression {
	return &ram.TupleElement{Tuple: tuple, Element: i}
}

// transitiveClosureScenario computes the transitive closure of a
// `directives/edge.facts` relation by semi-naive fixpoint: seed `tc`
// and `delta` from `edge`, then repeatedly join `delta` against `edge`
// for tuples not already in `tc`, merging the result back and rotating
// delta <- newdelta, until a full pass derives nothing new (spec.md §4.4
// "Semi-naive loop", the load-bearing algorithm this whole module
// exists to run).
func transitiveClosureScenario() Scenario {
	symbols := symbol.NewTable()
	edge := symbols.Intern("edge")
	tc := symbols.Intern("tc")
	delta := symbols.Intern("delta")
	newdelta := symbols.Intern("newdelta")
	sizeMsg := symbols.Intern("tc size")

	const (
		tDelta = ram.TupleID(iota)
		tEdge
	)

	// Left as a plain Scan guarded by an explicit equality Filter rather
	// than a hand-built IndexScan: the transform pipeline's MakeIndex
	// pass (wired into compile.Compile) absorbs the Filter into an
	// index pattern before this ever reaches the LVM compiler.
	join := &ram.Scan{
		Relation: delta,
		Tuple:    tDelta,
		Body: &ram.Scan{
			Relation: edge,
			Tuple:    tEdge,
			Body: &ram.Filter{
				Condition: &ram.Constraint{
					Op:  ram.CmpEQ,
					LHS: elem(tDelta, 1),
					RHS: elem(tEdge, 0),
				},
				Body: &ram.Filter{
					Condition: &ram.Negation{Operand: &ram.ExistenceCheck{
						Relation: tc,
						Pattern:  []ram.Expression{elem(tDelta, 0), elem(tEdge, 1)},
					}},
					Body: &ram.Project{
						Values:   []ram.Expression{elem(tDelta, 0), elem(tEdge, 1)},
						Relation: newdelta,
					},
				},
			},
		},
	}

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: edge, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: tc, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: delta, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: newdelta, Arity: 2, Storage: ram.StorageBTree},
			&ram.Load{Relation: edge, IOIndex: 0},
			&ram.Merge{Target: tc, Source: edge},
			&ram.Merge{Target: delta, Source: edge},
			&ram.Loop{Body: &ram.Sequence{Statements: []ram.Statement{
				&ram.Query{Root: join},
				&ram.Merge{Target: tc, Source: newdelta},
				&ram.Swap{A: delta, B: newdelta},
				&ram.Clear{Relation: newdelta},
				&ram.Exit{Condition: &ram.EmptinessCheck{Relation: delta}},
			}}},
			&ram.LogSize{Relation: tc, Message: sizeMsg},
			&ram.Store{Relation: tc, IOIndex: 1},
		}},
	}
	return Scenario{
		Name:       "transitive-closure",
		Build:      func() *ram.Program { return prog },
		Directives: []string{`edge : file("edge.facts")`, `tc : file("tc.facts")`},
	}
}

// parallelSeedScenario exercises the Parallel/StopParallel scheduler
// directly: three alternatives each project one literal into a shared
// relation, then the whole relation is written out, demonstrating that
// the merge is deterministic regardless of goroutine completion order
// (spec.md §8 invariant 8).
func parallelSeedScenario() Scenario {
	symbols := symbol.NewTable()
	seeds := symbols.Intern("seeds")

	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: seeds, Arity: 1, Storage: ram.StorageBTree},
			&ram.Parallel{Statements: []ram.Statement{
				&ram.Query{Root: &ram.Project{Values: []ram.Expression{num(1)}, Relation: seeds}},
				&ram.Query{Root: &ram.Project{Values: []ram.Expression{num(2)}, Relation: seeds}},
				&ram.Query{Root: &ram.Project{Values: []ram.Expression{num(3)}, Relation: seeds}},
			}},
			&ram.Store{Relation: seeds, IOIndex: 0},
		}},
	}
	return Scenario{
		Name:       "parallel-seed",
		Build:      func() *ram.Program { return prog },
		Directives: []string{`seeds : file("seeds.facts")`},
	}
}

func scenarioNames() []string {
	names := make([]string, 0, 2)
	for name := range scenarios() {
		names = append(names, name)
	}
	return names
}
