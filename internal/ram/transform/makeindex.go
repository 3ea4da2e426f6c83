package transform

import "ramlvm/internal/ram"

// MakeIndex absorbs equality filters immediately below a Scan into an
// IndexScan pattern when the equality's other side doesn't reference
// the scan's own tuple, turning a full relation scan plus a guard into
// a direct index probe (spec.md §4.3 "MakeIndex", grounded on
// original_source/src/RamTransforms.h's MakeIndexTransformer). Runs
// after HoistConditions has already pulled qualifying filters as close
// to their scan as they can get.
type MakeIndex struct{}

func (MakeIndex) Name() string { return "MakeIndex" }

func (t MakeIndex) Apply(program *ram.Program) bool {
	main, changed := rewriteQueries(program.Main, func(root ram.Operation) (ram.Operation, bool) {
		return rewriteOperation(root, tryMakeIndex)
	})
	if changed {
		program.Main = main
	}
	return changed
}

// rewriteOperation applies f bottom-up: every Body is rewritten first,
// then f is given the chance to replace the (possibly already
// rewritten) node itself.
func rewriteOperation(op ram.Operation, f func(ram.Operation) (ram.Operation, bool)) (ram.Operation, bool) {
	switch n := op.(type) {
	case *ram.Scan:
		body, bc := rewriteOperation(n.Body, f)
		cur := ram.Operation(n)
		if bc {
			cp := *n
			cp.Body = body
			cur = &cp
		}
		out, fc := f(cur)
		return out, bc || fc
	case *ram.IndexScan:
		body, bc := rewriteOperation(n.Body, f)
		cur := ram.Operation(n)
		if bc {
			cp := *n
			cp.Body = body
			cur = &cp
		}
		out, fc := f(cur)
		return out, bc || fc
	case *ram.Filter:
		body, bc := rewriteOperation(n.Body, f)
		cur := ram.Operation(n)
		if bc {
			cp := *n
			cp.Body = body
			cur = &cp
		}
		out, fc := f(cur)
		return out, bc || fc
	case *ram.UnpackRecord:
		body, bc := rewriteOperation(n.Body, f)
		cur := ram.Operation(n)
		if bc {
			cp := *n
			cp.Body = body
			cur = &cp
		}
		out, fc := f(cur)
		return out, bc || fc
	case *ram.Aggregate:
		body, bc := rewriteOperation(n.Body, f)
		cur := ram.Operation(n)
		if bc {
			cp := *n
			cp.Body = body
			cur = &cp
		}
		out, fc := f(cur)
		return out, bc || fc
	case *ram.Project:
		return f(op)
	default:
		return f(op)
	}
}

func tryMakeIndex(op ram.Operation) (ram.Operation, bool) {
	scan, ok := op.(*ram.Scan)
	if !ok {
		return op, false
	}

	pattern := map[int]ram.Expression{}
	var remaining []ram.Condition
	cur := scan.Body
	for {
		f, isFilter := cur.(*ram.Filter)
		if !isFilter {
			break
		}
		elem, expr, matched := matchIndexEquality(f.Condition, scan.Tuple)
		if matched {
			if _, exists := pattern[elem]; !exists {
				pattern[elem] = expr
				cur = f.Body
				continue
			}
		}
		remaining = append(remaining, f.Condition)
		cur = f.Body
	}
	if len(pattern) == 0 {
		return op, false
	}

	maxElem := -1
	for k := range pattern {
		if k > maxElem {
			maxElem = k
		}
	}
	patSlice := make([]ram.Expression, maxElem+1)
	for k, v := range pattern {
		patSlice[k] = v
	}

	body := cur
	for i := len(remaining) - 1; i >= 0; i-- {
		body = &ram.Filter{Condition: remaining[i], Body: body}
	}

	return &ram.IndexScan{
		Relation: scan.Relation,
		Tuple:    scan.Tuple,
		Pattern:  patSlice,
		Body:     body,
	}, true
}

// matchIndexEquality reports whether cond is an equality between
// tuple.elem and an expression that does not itself reference tuple.
func matchIndexEquality(cond ram.Condition, tuple ram.TupleID) (elem int, expr ram.Expression, ok bool) {
	c, isConstraint := cond.(*ram.Constraint)
	if !isConstraint || c.Op != ram.CmpEQ {
		return 0, nil, false
	}
	if te, isTE := c.LHS.(*ram.TupleElement); isTE && te.Tuple == tuple && !exprReferencesTuple(c.RHS, tuple) {
		return te.Element, c.RHS, true
	}
	if te, isTE := c.RHS.(*ram.TupleElement); isTE && te.Tuple == tuple && !exprReferencesTuple(c.LHS, tuple) {
		return te.Element, c.LHS, true
	}
	return 0, nil, false
}
