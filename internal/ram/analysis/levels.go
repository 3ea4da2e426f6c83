// Package analysis implements the three pure analyses over the RAM IR
// described in spec.md §4.2: condition-level, expression-level and
// const-value. None of them cache results across transformer passes —
// each pass rebuilds from the current tree (spec.md §4.2 "Results are
// not cached across transformer passes").
package analysis

import "ramlvm/internal/ram"

// levelNone is returned for expressions/conditions that reference no
// tuple identifier at all (constants).
const levelNone = -1

// ExpressionLevel returns the minimal nest depth at which every tuple
// identifier referenced by e is in scope. Because tuple identifiers
// are assigned monotonically outward-to-inward, a TupleID's numeric
// value already equals its nesting level (spec.md §4.1).
func ExpressionLevel(e ram.Expression) int {
	switch n := e.(type) {
	case nil:
		return levelNone
	case *ram.NumberConstant:
		return levelNone
	case *ram.TupleElement:
		return int(n.Tuple)
	case *ram.AutoIncrement:
		return levelNone
	case *ram.UnaryOperator:
		return ExpressionLevel(n.Operand)
	case *ram.BinaryOperator:
		return max(ExpressionLevel(n.LHS), ExpressionLevel(n.RHS))
	case *ram.UserDefinedOperator:
		return maxOverExprs(n.Args)
	case *ram.PackRecord:
		return maxOverExprs(n.Args)
	case *ram.SubroutineArgument:
		return levelNone
	default:
		return levelNone
	}
}

// ConditionLevel returns the minimal nest depth at which every tuple
// identifier referenced by c is in scope (spec.md §4.2).
func ConditionLevel(c ram.Condition) int {
	switch n := c.(type) {
	case nil:
		return levelNone
	case *ram.True:
		return levelNone
	case *ram.Conjunction:
		return max(ConditionLevel(n.LHS), ConditionLevel(n.RHS))
	case *ram.Negation:
		return ConditionLevel(n.Operand)
	case *ram.Constraint:
		return max(ExpressionLevel(n.LHS), ExpressionLevel(n.RHS))
	case *ram.EmptinessCheck:
		return levelNone
	case *ram.ExistenceCheck:
		return maxOverExprs(n.Pattern)
	case *ram.ProvenanceExistenceCheck:
		return max(maxOverExprs(n.Pattern), ExpressionLevel(n.Level))
	default:
		return levelNone
	}
}

// IsConstValue reports whether e is free of tuple references, I/O and
// auto-increment (spec.md §4.2 "Const-value analysis").
func IsConstValue(e ram.Expression) bool {
	switch n := e.(type) {
	case nil:
		return true
	case *ram.NumberConstant:
		return true
	case *ram.TupleElement:
		return false
	case *ram.AutoIncrement:
		return false
	case *ram.UnaryOperator:
		return IsConstValue(n.Operand)
	case *ram.BinaryOperator:
		return IsConstValue(n.LHS) && IsConstValue(n.RHS)
	case *ram.UserDefinedOperator:
		return false // externally defined, may perform I/O
	case *ram.PackRecord:
		return allConstValue(n.Args)
	case *ram.SubroutineArgument:
		return false
	default:
		return false
	}
}

func maxOverExprs(exprs []ram.Expression) int {
	level := levelNone
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if l := ExpressionLevel(e); l > level {
			level = l
		}
	}
	return level
}

func allConstValue(exprs []ram.Expression) bool {
	for _, e := range exprs {
		if e != nil && !IsConstValue(e) {
			return false
		}
	}
	return true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
