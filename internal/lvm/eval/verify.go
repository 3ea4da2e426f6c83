package eval

import (
	"fmt"

	"ramlvm/internal/lvm/opcode"
)

// branchOperand gives the operand offset (from the opcode cell) of an
// instruction's absolute branch target, for opcodes that carry one.
var branchOperand = map[opcode.Op]int{
	opcode.Goto:         1,
	opcode.Jmpnz:        1,
	opcode.Jmpez:        1,
	opcode.Exit:         1,
	opcode.Filter:       1,
	opcode.Search:       2,
	opcode.StopParallel: 1,
}

// Verify walks code once, checking that every instruction cell holds a
// known opcode and the two structural invariants spec.md §8 testable
// property 2 requires before evaluation ever
// starts: every instruction's width table entry sums to exactly the
// buffer length (no instruction overruns or leaves a gap), and every
// branch target lands on an instruction boundary reachable by the
// same walk (spec.md §7 error kind 2, "bytecode verification
// errors... abort before evaluation").
func Verify(code []int32) error {
	boundaries := make(map[int]bool, len(code))
	ip := 0
	for ip < len(code) {
		boundaries[ip] = true
		op := opcode.Op(code[ip])
		if op.String() == "LVM_UNKNOWN" {
			return fmt.Errorf("eval: verify: unknown opcode %d at ip=%d", int32(op), ip)
		}
		width := opcode.Width(code, ip)
		if width <= 0 {
			return fmt.Errorf("eval: verify: non-positive width at ip=%d (opcode %s)", ip, op)
		}
		if ip+width > len(code) {
			return fmt.Errorf("eval: verify: instruction at ip=%d (opcode %s, width %d) overruns buffer of length %d", ip, op, width, len(code))
		}
		ip += width
	}
	if ip != len(code) {
		return fmt.Errorf("eval: verify: stream did not decode to an exact instruction boundary (stopped at %d of %d)", ip, len(code))
	}

	checkTarget := func(op opcode.Op, instrIP, target int) error {
		if target < 0 || target > len(code) {
			return fmt.Errorf("eval: verify: %s at ip=%d targets out-of-range address %d", op, instrIP, target)
		}
		if target != len(code) && !boundaries[target] {
			return fmt.Errorf("eval: verify: %s at ip=%d targets mid-instruction address %d", op, instrIP, target)
		}
		return nil
	}

	for instrIP := range boundaries {
		op := opcode.Op(code[instrIP])
		if op == opcode.Parallel {
			n := int(code[instrIP+1])
			for i := 0; i < n; i++ {
				if err := checkTarget(op, instrIP, int(code[instrIP+2+i])); err != nil {
					return err
				}
			}
			continue
		}
		operandOffset, ok := branchOperand[op]
		if !ok {
			continue
		}
		if err := checkTarget(op, instrIP, int(code[instrIP+operandOffset])); err != nil {
			return err
		}
	}
	return nil
}
