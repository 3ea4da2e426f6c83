package eval

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/ram"
)

// evalUnary applies a unary opcode to v (spec.md §4.5's unary
// expression opcodes), returning an evaluation fault for the checked
// failure cases §4.4 "Failure semantics" names: toNumber on a
// non-numeric symbol, out-of-range conversion.
func (e *Evaluator) evalUnary(op opcode.Op, v ram.Value) (ram.Value, error) {
	switch op {
	case opcode.OpNeg:
		return ram.Int(-v.Int64()), nil
	case opcode.OpBNot:
		return ram.Uint(^v.Bits), nil
	case opcode.OpLNot:
		if v.Bits == 0 {
			return ram.Int(1), nil
		}
		return ram.Int(0), nil
	case opcode.OpOrd:
		return ram.Int(int64(v.SymbolID())), nil
	case opcode.OpStrlen:
		s := e.symbols.Resolve(v.SymbolID())
		return ram.Int(int64(len(s))), nil
	case opcode.OpToNumber:
		s := e.symbols.Resolve(v.SymbolID())
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return ram.Value{}, fmt.Errorf("to_number: %q is not a canonical integer literal", s)
		}
		return ram.Int(n), nil
	case opcode.OpToString:
		s := strconv.FormatInt(v.Int64(), 10)
		return ram.Sym(e.symbols.Intern(s)), nil
	default:
		return ram.Value{}, fmt.Errorf("eval: unknown unary opcode %s", op)
	}
}

// evalBinary applies a binary opcode to (lhs, rhs). Division/modulo
// by zero are checked per spec.md §4.4 "Failure semantics".
func (e *Evaluator) evalBinary(op opcode.Op, lhs, rhs ram.Value) (ram.Value, error) {
	switch op {
	case opcode.OpAdd:
		return arith(lhs, rhs, func(a, b int64) int64 { return a + b }), nil
	case opcode.OpSub:
		return arith(lhs, rhs, func(a, b int64) int64 { return a - b }), nil
	case opcode.OpMul:
		return arith(lhs, rhs, func(a, b int64) int64 { return a * b }), nil
	case opcode.OpDiv:
		if rhs.Int64() == 0 {
			return ram.Value{}, fmt.Errorf("division by zero")
		}
		return arith(lhs, rhs, func(a, b int64) int64 { return a / b }), nil
	case opcode.OpMod:
		if rhs.Int64() == 0 {
			return ram.Value{}, fmt.Errorf("modulo by zero")
		}
		return arith(lhs, rhs, func(a, b int64) int64 { return a % b }), nil
	case opcode.OpExp:
		return ram.Int(int64(math.Pow(float64(lhs.Int64()), float64(rhs.Int64())))), nil
	case opcode.OpBAnd:
		return ram.Uint(lhs.Bits & rhs.Bits), nil
	case opcode.OpBOr:
		return ram.Uint(lhs.Bits | rhs.Bits), nil
	case opcode.OpBXor:
		return ram.Uint(lhs.Bits ^ rhs.Bits), nil
	case opcode.OpLAnd:
		return boolValue(lhs.Bits != 0 && rhs.Bits != 0), nil
	case opcode.OpLOr:
		return boolValue(lhs.Bits != 0 || rhs.Bits != 0), nil
	case opcode.OpMax:
		return arith(lhs, rhs, func(a, b int64) int64 {
			if a > b {
				return a
			}
			return b
		}), nil
	case opcode.OpMin:
		return arith(lhs, rhs, func(a, b int64) int64 {
			if a < b {
				return a
			}
			return b
		}), nil
	case opcode.OpCat:
		l := e.symbols.Resolve(lhs.SymbolID())
		r := e.symbols.Resolve(rhs.SymbolID())
		return ram.Sym(e.symbols.Intern(l + r)), nil
	default:
		return ram.Value{}, fmt.Errorf("eval: unknown binary opcode %s", op)
	}
}

// regexMatch evaluates LVM_OP_MATCH: LHS is the pattern, RHS the
// subject, mirroring Soufflé's MATCH(pattern, string).
func (e *Evaluator) regexMatch(lhs, rhs ram.Value) (bool, error) {
	pattern := e.symbols.Resolve(lhs.SymbolID())
	subject := e.symbols.Resolve(rhs.SymbolID())
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("match: invalid pattern %q: %w", pattern, err)
	}
	return re.MatchString(subject), nil
}

func arith(lhs, rhs ram.Value, f func(a, b int64) int64) ram.Value {
	return ram.Value{Kind: lhs.Kind, Bits: uint64(f(lhs.Int64(), rhs.Int64()))}
}

func boolValue(b bool) ram.Value {
	if b {
		return ram.Int(1)
	}
	return ram.Int(0)
}

// evalCompare applies a comparison/match opcode, producing a boolean
// result encoded as Int(0|1) on the same operand stack expressions
// use (spec.md §9 "Operand-stack opcodes vs register machine").
func (e *Evaluator) evalCompare(op opcode.Op, lhs, rhs ram.Value) (ram.Value, error) {
	switch op {
	case opcode.OpEQ:
		return boolValue(lhs.Bits == rhs.Bits), nil
	case opcode.OpNE:
		return boolValue(lhs.Bits != rhs.Bits), nil
	case opcode.OpLT:
		return boolValue(lhs.Int64() < rhs.Int64()), nil
	case opcode.OpLE:
		return boolValue(lhs.Int64() <= rhs.Int64()), nil
	case opcode.OpGT:
		return boolValue(lhs.Int64() > rhs.Int64()), nil
	case opcode.OpGE:
		return boolValue(lhs.Int64() >= rhs.Int64()), nil
	case opcode.OpMatch, opcode.OpNotMatch:
		matched, err := e.regexMatch(lhs, rhs)
		if err != nil {
			return ram.Value{}, err
		}
		if op == opcode.OpNotMatch {
			matched = !matched
		}
		return boolValue(matched), nil
	case opcode.OpContains, opcode.OpNotContains:
		// LHS is the needle, RHS the haystack — mirrors Soufflé's
		// CONTAINS(substring, string) argument order.
		needle := e.symbols.Resolve(lhs.SymbolID())
		haystack := e.symbols.Resolve(rhs.SymbolID())
		contains := strings.Contains(haystack, needle)
		if op == opcode.OpNotContains {
			contains = !contains
		}
		return boolValue(contains), nil
	default:
		return ram.Value{}, fmt.Errorf("eval: unknown compare opcode %s", op)
	}
}
