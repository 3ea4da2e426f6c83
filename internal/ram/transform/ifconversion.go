package transform

import "ramlvm/internal/ram"

// IfConversion rewrites an IndexScan whose bound tuple is never
// referenced again in its own body into a Filter guarded by an
// ExistenceCheck over the same pattern: the scan only ever needed to
// know whether a match existed, not to bind its fields (spec.md §4.3
// "IfConversion", grounded on
// original_source/src/RamTransforms.h's IfConversionTransformer).
type IfConversion struct{}

func (IfConversion) Name() string { return "IfConversion" }

func (t IfConversion) Apply(program *ram.Program) bool {
	main, changed := rewriteQueries(program.Main, func(root ram.Operation) (ram.Operation, bool) {
		return rewriteOperation(root, tryIfConvert)
	})
	if changed {
		program.Main = main
	}
	return changed
}

func tryIfConvert(op ram.Operation) (ram.Operation, bool) {
	scan, ok := op.(*ram.IndexScan)
	if !ok {
		return op, false
	}
	if referencesTuple(scan.Body, scan.Tuple) {
		return op, false
	}
	return &ram.Filter{
		Condition: &ram.ExistenceCheck{Relation: scan.Relation, Pattern: scan.Pattern},
		Body:      scan.Body,
	}, true
}
