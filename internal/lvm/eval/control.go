package eval

import (
	"context"

	"ramlvm/internal/lvm/opcode"
)

// stepControl handles every opcode that can move ip somewhere other
// than ip+width: the branch family (Goto/Jmpnz/Jmpez/Exit/Filter/
// Search) plus the structural no-ops (Sequence/Query/Loop/Stratum/
// Return/NOP) that spec.md §4.4 emits purely as markers around a
// subtree the compiler already flattened. handled is false for every
// other opcode, which stepValue then dispatches.
func (e *Evaluator) stepControl(ctx context.Context, code []int32, ip int, op opcode.Op, width int) (next int, st Status, handled bool) {
	switch op {
	case opcode.Sequence, opcode.Query, opcode.Loop, opcode.Stratum,
		opcode.ResetIterationNumber, opcode.Return, opcode.NOP,
		opcode.LogTimer, opcode.StopLogTimer, opcode.DebugInfo:
		return ip + width, ok(), true

	case opcode.IncIterationNumber:
		if st, cancelled := e.pollCancel(ctx, ip); cancelled {
			return 0, st, true
		}
		return ip + width, ok(), true

	case opcode.Goto:
		return int(code[ip+1]), ok(), true

	case opcode.Jmpnz:
		if e.pop().Bits != 0 {
			return int(code[ip+1]), ok(), true
		}
		return ip + width, ok(), true

	case opcode.Jmpez:
		if e.pop().Bits == 0 {
			return int(code[ip+1]), ok(), true
		}
		return ip + width, ok(), true

	case opcode.Exit:
		if e.pop().Bits != 0 {
			return int(code[ip+1]), ok(), true
		}
		return ip + width, ok(), true

	case opcode.Filter:
		if e.pop().Bits == 0 {
			return int(code[ip+1]), ok(), true
		}
		return ip + width, ok(), true

	case opcode.Search:
		slot := int(code[ip+1])
		if !e.iters[slot].NotAtEnd() {
			return int(code[ip+2]), ok(), true
		}
		return ip + width, ok(), true

	case opcode.Parallel:
		join, st := e.runParallel(ctx, code, ip)
		if st.Kind != OK {
			return 0, st, true
		}
		return join, ok(), true

	default:
		return 0, Status{}, false
	}
}
