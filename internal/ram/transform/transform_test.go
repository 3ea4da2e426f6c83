package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// edge(x,y), tc(x,y) :- edge(x,z), tc(z,y). shaped program: scan edge as
// t0, scan tc as t1, filter t0.1 = t1.0, project (t0.0, t1.1) into tc.
// The filter only needs t0 and t1 in scope, i.e. condition-level 1, so
// HoistConditions has nothing to do here but MakeIndex should turn the
// t1 scan into an index probe once the filter sits directly below it.
func buildJoinQuery(tbl *symbol.Table) (ram.Operation, symbol.ID, symbol.ID) {
	edge := tbl.Intern("edge")
	tc := tbl.Intern("tc")
	root := &ram.Scan{
		Relation: edge,
		Tuple:    0,
		Body: &ram.Scan{
			Relation: tc,
			Tuple:    1,
			Body: &ram.Filter{
				Condition: &ram.Constraint{
					Op:  ram.CmpEQ,
					LHS: &ram.TupleElement{Tuple: 0, Element: 1},
					RHS: &ram.TupleElement{Tuple: 1, Element: 0},
				},
				Body: &ram.Project{
					Relation: tc,
					Values: []ram.Expression{
						&ram.TupleElement{Tuple: 0, Element: 0},
						&ram.TupleElement{Tuple: 1, Element: 1},
					},
				},
			},
		},
	}
	return root, edge, tc
}

func TestHoistConditionsMovesFilterToEarliestScope(t *testing.T) {
	tbl := symbol.NewTable()
	edge := tbl.Intern("edge")

	// FOR t0 IN edge FOR t1 IN edge IF t0.0 = 5 PROJECT (t0.0) INTO edge
	// The filter only needs t0, so it should hoist above the t1 scan.
	root := &ram.Scan{
		Relation: edge,
		Tuple:    0,
		Body: &ram.Scan{
			Relation: edge,
			Tuple:    1,
			Body: &ram.Filter{
				Condition: &ram.Constraint{
					Op:  ram.CmpEQ,
					LHS: &ram.TupleElement{Tuple: 0, Element: 0},
					RHS: &ram.NumberConstant{Value: ram.Int(5)},
				},
				Body: &ram.Project{
					Relation: edge,
					Values:   []ram.Expression{&ram.TupleElement{Tuple: 0, Element: 0}},
				},
			},
		},
	}

	prog := &ram.Program{Symbols: tbl, Main: &ram.Query{Root: root}}
	changed := (HoistConditions{}).Apply(prog)
	require.True(t, changed)

	query := prog.Main.(*ram.Query)
	outer, ok := query.Root.(*ram.Scan)
	require.True(t, ok)
	assert.Equal(t, ram.TupleID(0), outer.Tuple)
	filter, ok := outer.Body.(*ram.Filter)
	require.True(t, ok, "filter should now sit directly below the t0 scan")
	_, stillScan := filter.Body.(*ram.Scan)
	assert.True(t, stillScan)
}

func TestMakeIndexAbsorbsEqualityIntoPattern(t *testing.T) {
	tbl := symbol.NewTable()
	root, _, _ := buildJoinQuery(tbl)
	prog := &ram.Program{Symbols: tbl, Main: &ram.Query{Root: root}}

	changed := (MakeIndex{}).Apply(prog)
	require.True(t, changed)

	query := prog.Main.(*ram.Query)
	outer := query.Root.(*ram.Scan)
	inner, ok := outer.Body.(*ram.IndexScan)
	require.True(t, ok, "t1 scan should have become an IndexScan")
	require.Len(t, inner.Pattern, 1)
	elem, ok := inner.Pattern[0].(*ram.TupleElement)
	require.True(t, ok)
	assert.Equal(t, ram.TupleID(0), elem.Tuple)
	assert.Equal(t, 1, elem.Element)

	_, leftoverFilter := inner.Body.(*ram.Filter)
	assert.False(t, leftoverFilter, "the absorbed equality should leave no filter behind")
}

func TestIfConversionRewritesUnreferencedIndexScan(t *testing.T) {
	tbl := symbol.NewTable()
	edge := tbl.Intern("edge")
	tc := tbl.Intern("tc")

	// FOR t0 IN edge INDEX [5] (t0 never read below) PROJECT (1) INTO tc
	root := &ram.IndexScan{
		Relation: edge,
		Tuple:    0,
		Pattern:  []ram.Expression{&ram.NumberConstant{Value: ram.Int(5)}},
		Body: &ram.Project{
			Relation: tc,
			Values:   []ram.Expression{&ram.NumberConstant{Value: ram.Int(1)}},
		},
	}
	prog := &ram.Program{Symbols: tbl, Main: &ram.Query{Root: root}}

	changed := (IfConversion{}).Apply(prog)
	require.True(t, changed)

	query := prog.Main.(*ram.Query)
	filter, ok := query.Root.(*ram.Filter)
	require.True(t, ok)
	check, ok := filter.Condition.(*ram.ExistenceCheck)
	require.True(t, ok)
	assert.Equal(t, edge, check.Relation)
}

func TestIfConversionLeavesReferencedIndexScanAlone(t *testing.T) {
	tbl := symbol.NewTable()
	edge := tbl.Intern("edge")
	tc := tbl.Intern("tc")

	root := &ram.IndexScan{
		Relation: edge,
		Tuple:    0,
		Pattern:  []ram.Expression{nil},
		Body: &ram.Project{
			Relation: tc,
			Values:   []ram.Expression{&ram.TupleElement{Tuple: 0, Element: 1}},
		},
	}
	prog := &ram.Program{Symbols: tbl, Main: &ram.Query{Root: root}}

	changed := (IfConversion{}).Apply(prog)
	assert.False(t, changed)
	query := prog.Main.(*ram.Query)
	_, stillIndexScan := query.Root.(*ram.IndexScan)
	assert.True(t, stillIndexScan)
}

func TestPipelineReachesFixedPointWithinCap(t *testing.T) {
	tbl := symbol.NewTable()
	root, _, _ := buildJoinQuery(tbl)
	prog := &ram.Program{Symbols: tbl, Main: &ram.Query{Root: root}}

	pipeline := NewPipeline()
	rounds := pipeline.Run(prog)
	assert.True(t, rounds >= 1)
	assert.True(t, rounds <= pipeline.MaxIterations)

	// A second run against the already-fixed-point program changes nothing.
	again := pipeline.Run(prog)
	assert.Equal(t, 0, again)
}
