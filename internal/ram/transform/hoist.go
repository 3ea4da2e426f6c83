package transform

import (
	"ramlvm/internal/ram"
	"ramlvm/internal/ram/analysis"
)

// HoistConditions moves each Filter as far outward (earlier) in its
// query's operation chain as its condition-level allows, so that a
// condition fires the moment every tuple it references comes into
// scope rather than waiting for the innermost scan to open (spec.md
// §4.3 "HoistConditions", grounded on
// original_source/src/RamTransforms.h's HoistConditionsTransformer).
type HoistConditions struct{}

func (HoistConditions) Name() string { return "HoistConditions" }

func (t HoistConditions) Apply(program *ram.Program) bool {
	main, changed := rewriteQueries(program.Main, hoistQuery)
	if changed {
		program.Main = main
	}
	return changed
}

type pendingFilter struct {
	cond       ram.Condition
	origBucket int
}

// flattenChain walks a strict-nest operation chain into its ordered
// binding operations (Scan/IndexScan/UnpackRecord/Aggregate, terminated
// by a Project) and the Filters interleaved among them, recording for
// each filter how many binding operations preceded it originally.
func flattenChain(root ram.Operation) (ops []ram.Operation, filters []pendingFilter, ok bool) {
	cur := root
	bound := 0
	for cur != nil {
		if f, isFilter := cur.(*ram.Filter); isFilter {
			filters = append(filters, pendingFilter{cond: f.Condition, origBucket: bound})
			cur = f.Body
			continue
		}
		ops = append(ops, cur)
		if _, isProject := cur.(*ram.Project); isProject {
			return ops, filters, true
		}
		bound++
		cur = bodyOf(cur)
	}
	return ops, filters, false
}

func hoistQuery(root ram.Operation) (ram.Operation, bool) {
	ops, filters, ok := flattenChain(root)
	if !ok || len(filters) == 0 {
		return root, false
	}
	bindingOps := ops[:len(ops)-1]
	project := ops[len(ops)-1]

	buckets := make([][]ram.Condition, len(bindingOps)+1)
	changed := false
	for _, pf := range filters {
		level := analysis.ConditionLevel(pf.cond)
		idx := level + 1
		if idx < 0 {
			idx = 0
		}
		if idx > len(bindingOps) {
			idx = len(bindingOps)
		}
		if idx < pf.origBucket {
			changed = true
		}
		buckets[idx] = append(buckets[idx], pf.cond)
	}
	if !changed {
		return root, false
	}

	// Rebuild from the tail: each bucket's filters sit between the
	// binding op that unlocked them and whatever follows, so wrap the
	// bucket around the body built so far *before* attaching the next
	// binding op in front of it.
	var body ram.Operation = project
	for i := len(bindingOps) - 1; i >= 0; i-- {
		for j := len(buckets[i+1]) - 1; j >= 0; j-- {
			body = &ram.Filter{Condition: buckets[i+1][j], Body: body}
		}
		body = withBody(bindingOps[i], body)
	}
	for j := len(buckets[0]) - 1; j >= 0; j-- {
		body = &ram.Filter{Condition: buckets[0][j], Body: body}
	}
	return body, true
}
