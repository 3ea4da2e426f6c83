// Package eval implements the LVM interpreter: the stack-based
// execution engine that drives compiled bytecode against the
// relation manager and record pool (spec.md §4.4, §5).
package eval

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tliron/commonlog"

	"ramlvm/internal/lvm/compile"
	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/lvm/record"
	"ramlvm/internal/lvm/relation"
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// cancelPollInterval is how many body instructions pass between
// cooperative-cancellation checks, on top of the once-per-loop-
// iteration poll at IncIterationNumber (spec.md §5 "Cancellation").
const cancelPollInterval = 4096

var logger = commonlog.GetLogger("lvm.eval")

// Evaluator holds one thread's execution state: operand and iterator
// stacks, the tuple environment, and the resources it shares with
// every other thread in the same run (spec.md §3 "Evaluation
// context", §5 "the operand and iterator stacks are per-thread").
type Evaluator struct {
	symbols    *symbol.Table
	relations  *relation.Manager
	records    *record.Pool
	directives Directives
	functors   FunctorSet
	autoInc    *atomic.Int64

	operand []ram.Value
	iters   []relation.Iterator
	env     []ram.Tuple
	aggs    []aggState

	// args holds the positional arguments of a subroutine-style query
	// invocation (ram.SubroutineArgument / opcode.Argument); empty for
	// a top-level Evaluate call.
	args []ram.Value

	// delta is non-nil only while this Evaluator is running as one
	// alternative of a Parallel block: Project routes through it
	// instead of writing the shared relation directly (spec.md §5
	// "writes go to per-worker delta buffers, not to the shared
	// relation").
	delta *deltaWriter

	sinceCancelPoll int

	// maxParallel bounds how many of a Parallel block's alternatives run
	// concurrently (config.Config.EffectiveThreads, SOUFFLE_THREADS).
	// 0 means unbounded: every alternative gets its own goroutine.
	maxParallel int
}

// NewEvaluator builds the shared, program-wide resources a single
// Evaluate call needs. Multiple Evaluators (one per parallel-block
// worker) share the same relations/records/autoInc so that the
// invariants in spec.md §5 ("Shared resource policy") hold across
// threads, while each gets its own stacks and environment.
func NewEvaluator(symbols *symbol.Table, relations *relation.Manager, records *record.Pool, directives Directives, functors FunctorSet) *Evaluator {
	return &Evaluator{
		symbols:    symbols,
		relations:  relations,
		records:    records,
		directives: directives,
		functors:   functors,
		autoInc:    new(atomic.Int64),
	}
}

// fork returns a new Evaluator for a Parallel alternative: it shares
// every program-wide resource but starts with empty per-thread state
// and, when delta is non-nil, redirects Project writes into it.
func (e *Evaluator) fork(delta *deltaWriter) *Evaluator {
	return &Evaluator{
		symbols:     e.symbols,
		relations:   e.relations,
		records:     e.records,
		directives:  e.directives,
		functors:    e.functors,
		autoInc:     e.autoInc,
		delta:       delta,
		maxParallel: e.maxParallel,
	}
}

// Evaluate is the library entrypoint (spec.md §6: "Evaluate(Program,
// DirectiveSet, CancelFlag) -> Status"). It verifies the bytecode
// before ever stepping it, matching error kind 2's "abort before
// evaluation" contract.
func Evaluate(ctx context.Context, prog *compile.Program, relations *relation.Manager, records *record.Pool, directives Directives, functors FunctorSet) Status {
	return EvaluateWithConfig(ctx, prog, relations, records, directives, functors, 0)
}

// EvaluateWithConfig is Evaluate plus a maxParallel bound (0 = unbounded)
// for callers that read it from config.Config.EffectiveThreads.
func EvaluateWithConfig(ctx context.Context, prog *compile.Program, relations *relation.Manager, records *record.Pool, directives Directives, functors FunctorSet, maxParallel int) Status {
	if err := Verify(prog.Code); err != nil {
		return fault(VerificationError, -1, err)
	}
	e := NewEvaluator(prog.Symbols, relations, records, directives, functors)
	e.maxParallel = maxParallel
	return e.run(ctx, prog.Code)
}

func (e *Evaluator) push(v ram.Value) { e.operand = append(e.operand, v) }

func (e *Evaluator) pop() ram.Value {
	if len(e.operand) == 0 {
		panic("eval: operand stack underflow")
	}
	v := e.operand[len(e.operand)-1]
	e.operand = e.operand[:len(e.operand)-1]
	return v
}

func (e *Evaluator) bindTuple(id ram.TupleID, t ram.Tuple) {
	for int(id) >= len(e.env) {
		e.env = append(e.env, nil)
	}
	e.env[id] = t
}

// tuple returns the tuple bound to id, or nil if id was never bound
// (including a negative or out-of-range id): ElementAccess turns a nil
// result into a checked EvaluationFault rather than indexing into it.
func (e *Evaluator) tuple(id ram.TupleID) ram.Tuple {
	if id < 0 || int(id) >= len(e.env) {
		return nil
	}
	return e.env[id]
}

func (e *Evaluator) setIter(slot int, it relation.Iterator) {
	for slot >= len(e.iters) {
		e.iters = append(e.iters, nil)
	}
	e.iters[slot] = it
}

func (e *Evaluator) insert(rel symbol.ID, t ram.Tuple) {
	if e.delta != nil {
		e.delta.insert(rel, t)
		return
	}
	e.relations.Get(rel).Insert(t)
}

// popPattern pops count (position, value) pairs the compiler pushed
// via compilePattern, assembling a relation.Pattern of length arity
// (spec.md §4.4: "the pattern is materialised into the code as a
// sequence of Number/ElementAccess cells that push the bounds").
func (e *Evaluator) popPattern(count, arity int) relation.Pattern {
	pattern := make(relation.Pattern, arity)
	for i := 0; i < count; i++ {
		val := e.pop()
		pos := e.pop()
		v := val
		pattern[int(pos.Int64())] = &v
	}
	return pattern
}

// run steps code from ip=0 to LVM_STOP, dispatching one instruction
// at a time. Branches (Goto/Jmpnz/Jmpez/Exit/Filter/Search) and
// Parallel, which resumes at its join address, are the only opcodes
// that move ip non-sequentially; everything else falls through to
// ip += width.
func (e *Evaluator) run(ctx context.Context, code []int32) (st Status) {
	ip := 0
	defer func() {
		if r := recover(); r != nil {
			st = fault(EvaluationFault, ip, fmt.Errorf("eval: %v", r))
		}
	}()
	for {
		if ip >= len(code) {
			return fault(VerificationError, ip, fmt.Errorf("eval: ran off the end of the instruction stream"))
		}
		op := opcode.Op(code[ip])
		if op == opcode.STOP {
			return ok()
		}
		width := opcode.Width(code, ip)

		if e.sinceCancelPoll++; e.sinceCancelPoll >= cancelPollInterval {
			e.sinceCancelPoll = 0
			if st, cancelled := e.pollCancel(ctx, ip); cancelled {
				return st
			}
		}

		next, st, handled := e.stepControl(ctx, code, ip, op, width)
		if handled {
			if st.Kind != OK {
				return st
			}
			ip = next
			continue
		}

		if err := e.stepValue(code, ip, op); err != nil {
			var rf *resourceError
			if errors.As(err, &rf) {
				return fault(ResourceFault, ip, rf.err)
			}
			return fault(EvaluationFault, ip, err)
		}
		ip += width
	}
}

func (e *Evaluator) pollCancel(ctx context.Context, ip int) (Status, bool) {
	select {
	case <-ctx.Done():
		e.releaseIterators()
		return fault(Cancelled, ip, ctx.Err()), true
	default:
		return Status{}, false
	}
}

func (e *Evaluator) releaseIterators() {
	for i := range e.iters {
		e.iters[i] = nil
	}
}
