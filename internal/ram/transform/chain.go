// Package transform implements the RAM transformer pipeline: the
// HoistConditions, MakeIndex and IfConversion passes, run to a fixed
// point, as described in spec.md §4.3 and mirrored from
// original_source/src/RamTransforms.h.
//
// The relational-operation trees this subset of RAM produces are
// strict nests (each node has at most one child operation, terminating
// in a Project), so passes are expressed as list-like chain rewrites
// rather than general tree surgery.
package transform

import "ramlvm/internal/ram"

// bodyOf returns op's single child operation, or nil if op is a leaf
// (Project).
func bodyOf(op ram.Operation) ram.Operation {
	switch n := op.(type) {
	case *ram.Scan:
		return n.Body
	case *ram.IndexScan:
		return n.Body
	case *ram.Filter:
		return n.Body
	case *ram.UnpackRecord:
		return n.Body
	case *ram.Aggregate:
		return n.Body
	case *ram.Project:
		return nil
	default:
		return nil
	}
}

// withBody returns a shallow copy of op with its child operation
// replaced by body. Nodes are immutable once attached to their parent
// (spec.md §4.1), so every rewrite produces a fresh node rather than
// mutating op in place.
func withBody(op ram.Operation, body ram.Operation) ram.Operation {
	switch n := op.(type) {
	case *ram.Scan:
		cp := *n
		cp.Body = body
		return &cp
	case *ram.IndexScan:
		cp := *n
		cp.Body = body
		return &cp
	case *ram.Filter:
		cp := *n
		cp.Body = body
		return &cp
	case *ram.UnpackRecord:
		cp := *n
		cp.Body = body
		return &cp
	case *ram.Aggregate:
		cp := *n
		cp.Body = body
		return &cp
	default:
		return op
	}
}

// introducedTuple returns the TupleID op binds, and whether op
// introduces one at all (Filter and Project do not).
func introducedTuple(op ram.Operation) (ram.TupleID, bool) {
	switch n := op.(type) {
	case *ram.Scan:
		return n.Tuple, true
	case *ram.IndexScan:
		return n.Tuple, true
	case *ram.UnpackRecord:
		return n.Tuple, true
	case *ram.Aggregate:
		return n.Tuple, true
	default:
		return 0, false
	}
}

// rewriteQueries applies f to the root Operation of every Query
// statement reachable from s, rebuilding the enclosing Sequence/
// Parallel/Loop/Stratum/LogTimer/DebugInfo wrappers around the result.
// Returns a possibly-new statement tree and whether f changed anything.
func rewriteQueries(s ram.Statement, f func(ram.Operation) (ram.Operation, bool)) (ram.Statement, bool) {
	switch n := s.(type) {
	case *ram.Sequence:
		changed := false
		out := make([]ram.Statement, len(n.Statements))
		for i, child := range n.Statements {
			rewritten, did := rewriteQueries(child, f)
			out[i] = rewritten
			changed = changed || did
		}
		if !changed {
			return s, false
		}
		return &ram.Sequence{Statements: out}, true
	case *ram.Parallel:
		changed := false
		out := make([]ram.Statement, len(n.Statements))
		for i, child := range n.Statements {
			rewritten, did := rewriteQueries(child, f)
			out[i] = rewritten
			changed = changed || did
		}
		if !changed {
			return s, false
		}
		return &ram.Parallel{Statements: out}, true
	case *ram.Loop:
		body, changed := rewriteQueries(n.Body, f)
		if !changed {
			return s, false
		}
		return &ram.Loop{Body: body}, true
	case *ram.Stratum:
		body, changed := rewriteQueries(n.Body, f)
		if !changed {
			return s, false
		}
		return &ram.Stratum{Body: body, Level: n.Level}, true
	case *ram.LogTimer:
		body, changed := rewriteQueries(n.Body, f)
		if !changed {
			return s, false
		}
		return &ram.LogTimer{Message: n.Message, Relation: n.Relation, Body: body}, true
	case *ram.DebugInfo:
		body, changed := rewriteQueries(n.Body, f)
		if !changed {
			return s, false
		}
		return &ram.DebugInfo{Text: n.Text, Body: body}, true
	case *ram.Query:
		root, changed := f(n.Root)
		if !changed {
			return s, false
		}
		return &ram.Query{Root: root}, true
	default:
		return s, false
	}
}

// referencesTuple reports whether id is referenced anywhere within
// op's subtree: its own pattern/condition/values plus every descendant
// operation's.
func referencesTuple(op ram.Operation, id ram.TupleID) bool {
	if op == nil {
		return false
	}
	switch n := op.(type) {
	case *ram.Scan:
		return referencesTuple(n.Body, id)
	case *ram.IndexScan:
		if exprsReferenceTuple(n.Pattern, id) {
			return true
		}
		return referencesTuple(n.Body, id)
	case *ram.Filter:
		if conditionReferencesTuple(n.Condition, id) {
			return true
		}
		return referencesTuple(n.Body, id)
	case *ram.Project:
		return exprsReferenceTuple(n.Values, id)
	case *ram.UnpackRecord:
		if exprReferencesTuple(n.Expr, id) {
			return true
		}
		return referencesTuple(n.Body, id)
	case *ram.Aggregate:
		if exprsReferenceTuple(n.Pattern, id) || exprReferencesTuple(n.Target, id) {
			return true
		}
		return referencesTuple(n.Body, id)
	default:
		return false
	}
}

func exprsReferenceTuple(exprs []ram.Expression, id ram.TupleID) bool {
	for _, e := range exprs {
		if exprReferencesTuple(e, id) {
			return true
		}
	}
	return false
}

func exprReferencesTuple(e ram.Expression, id ram.TupleID) bool {
	switch n := e.(type) {
	case nil:
		return false
	case *ram.TupleElement:
		return n.Tuple == id
	case *ram.UnaryOperator:
		return exprReferencesTuple(n.Operand, id)
	case *ram.BinaryOperator:
		return exprReferencesTuple(n.LHS, id) || exprReferencesTuple(n.RHS, id)
	case *ram.UserDefinedOperator:
		return exprsReferenceTuple(n.Args, id)
	case *ram.PackRecord:
		return exprsReferenceTuple(n.Args, id)
	default:
		return false
	}
}

func conditionReferencesTuple(c ram.Condition, id ram.TupleID) bool {
	switch n := c.(type) {
	case nil:
		return false
	case *ram.Conjunction:
		return conditionReferencesTuple(n.LHS, id) || conditionReferencesTuple(n.RHS, id)
	case *ram.Negation:
		return conditionReferencesTuple(n.Operand, id)
	case *ram.Constraint:
		return exprReferencesTuple(n.LHS, id) || exprReferencesTuple(n.RHS, id)
	case *ram.ExistenceCheck:
		return exprsReferenceTuple(n.Pattern, id)
	case *ram.ProvenanceExistenceCheck:
		return exprsReferenceTuple(n.Pattern, id) || exprReferencesTuple(n.Level, id)
	default:
		return false
	}
}
