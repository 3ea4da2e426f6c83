package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// decode walks code using opcode.Width the same way the disassembler
// does, returning the opcode at each instruction boundary. A require
// assertion stops the test if a width ever overruns the buffer, which is the
// cheapest way to catch an emit/width mismatch without an evaluator.
func decode(t *testing.T, code []int32) []opcode.Op {
	t.Helper()
	var ops []opcode.Op
	ip := 0
	for ip < len(code) {
		op := opcode.Op(code[ip])
		ops = append(ops, op)
		w := opcode.Width(code, ip)
		require.Greater(t, w, 0)
		require.LessOrEqual(t, ip+w, len(code), "instruction at %d overruns buffer", ip)
		ip += w
		if op == opcode.STOP {
			break
		}
	}
	require.Equal(t, len(code), ip, "stream did not decode to an exact instruction boundary")
	return ops
}

func TestCompileScanProjectDecodesCleanly(t *testing.T) {
	tbl := symbol.NewTable()
	edge := tbl.Intern("edge")
	tc := tbl.Intern("tc")

	prog := &ram.Program{
		Symbols: tbl,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Create{Relation: edge, Arity: 2, Storage: ram.StorageBTree},
			&ram.Create{Relation: tc, Arity: 2, Storage: ram.StorageBTree},
			&ram.Query{Root: &ram.Scan{
				Relation: edge,
				Tuple:    0,
				Body: &ram.Project{
					Relation: tc,
					Values: []ram.Expression{
						&ram.TupleElement{Tuple: 0, Element: 0},
						&ram.TupleElement{Tuple: 0, Element: 1},
					},
				},
			}},
		}},
	}

	compiled := Compile(prog)
	ops := decode(t, compiled.Code)

	assert.Contains(t, ops, opcode.IterTypeScan)
	assert.Contains(t, ops, opcode.Search)
	assert.Contains(t, ops, opcode.IterSelect)
	assert.Contains(t, ops, opcode.Project)
	assert.Contains(t, ops, opcode.IterInc)
	assert.Contains(t, ops, opcode.Goto)
	assert.Equal(t, opcode.STOP, ops[len(ops)-1])
}

func TestCompileLoopExitPatchesForwardBranch(t *testing.T) {
	tbl := symbol.NewTable()
	p := tbl.Intern("p")

	prog := &ram.Program{
		Symbols: tbl,
		Main: &ram.Loop{Body: &ram.Sequence{Statements: []ram.Statement{
			&ram.Exit{Condition: &ram.EmptinessCheck{Relation: p}},
		}}},
	}

	compiled := Compile(prog)
	ops := decode(t, compiled.Code)
	assert.Contains(t, ops, opcode.Exit)
	assert.Contains(t, ops, opcode.Goto)

	// Find the Exit instruction and confirm its patched target is a
	// valid in-bounds address strictly after the instruction itself
	// (never left as the zero placeholder, unless the stream is
	// impossibly short).
	code := compiled.Code
	for ip := 0; ip < len(code); ip += opcode.Width(code, ip) {
		if opcode.Op(code[ip]) == opcode.Exit {
			target := code[ip+1]
			assert.Greater(t, target, int32(ip))
			assert.LessOrEqual(t, int(target), len(code))
		}
	}
}

func TestCompileParallelPatchesMatchingJoinAddress(t *testing.T) {
	tbl := symbol.NewTable()
	a := tbl.Intern("a")
	b := tbl.Intern("b")

	prog := &ram.Program{
		Symbols: tbl,
		Main: &ram.Parallel{Statements: []ram.Statement{
			&ram.Clear{Relation: a},
			&ram.Clear{Relation: b},
		}},
	}

	compiled := Compile(prog)
	code := compiled.Code
	decode(t, code)

	require.Equal(t, int32(opcode.Parallel), code[0])
	count := code[1]
	require.Equal(t, int32(2), count)

	var joinAddrs []int32
	ip := 0
	for ip < len(code) {
		if opcode.Op(code[ip]) == opcode.StopParallel {
			joinAddrs = append(joinAddrs, code[ip+1])
		}
		ip += opcode.Width(code, ip)
	}
	require.Len(t, joinAddrs, 2)
	assert.Equal(t, joinAddrs[0], joinAddrs[1])
}
