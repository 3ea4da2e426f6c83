package transform

import "ramlvm/internal/ram"

// Pass is one RAM-to-RAM rewrite. Apply mutates program.Main in place
// when it changes anything and reports whether it did, mirroring the
// OptimizationPass contract in
// _examples/kanso-lang-kanso/internal/ir/optimizations.go.
type Pass interface {
	Name() string
	Apply(program *ram.Program) bool
}

// defaultMaxIterations bounds the fixed-point loop (spec.md §4.3 "runs
// to a fixed point, default iteration cap 4").
const defaultMaxIterations = 4

// Pipeline runs an ordered set of passes to a fixed point: each round
// applies every pass once, in order, and stops as soon as a round
// changes nothing (or the iteration cap is hit).
type Pipeline struct {
	Passes        []Pass
	MaxIterations int
}

// NewPipeline returns the standard HoistConditions -> MakeIndex ->
// IfConversion pipeline (spec.md §4.3).
func NewPipeline() *Pipeline {
	return &Pipeline{
		Passes:        []Pass{HoistConditions{}, MakeIndex{}, IfConversion{}},
		MaxIterations: defaultMaxIterations,
	}
}

// Run applies the pipeline to program until a round changes nothing or
// MaxIterations rounds have run. Returns the number of rounds that
// changed something.
func (p *Pipeline) Run(program *ram.Program) int {
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	rounds := 0
	for i := 0; i < maxIter; i++ {
		changed := false
		for _, pass := range p.Passes {
			if pass.Apply(program) {
				changed = true
			}
		}
		if !changed {
			break
		}
		rounds++
	}
	return rounds
}
