package eval

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// deltaWriter buffers one Parallel worker's Project/Fact writes so
// they never touch the shared relation manager until every
// alternative has finished (spec.md §5 "writes go to per-worker delta
// buffers, not to the shared relation"). Reads still go through the
// shared manager, so every alternative sees the same pre-block state.
type deltaWriter struct {
	writes []deltaWrite
}

type deltaWrite struct {
	relation symbol.ID
	tuple    ram.Tuple
}

func (d *deltaWriter) insert(rel symbol.ID, t ram.Tuple) {
	d.writes = append(d.writes, deltaWrite{relation: rel, tuple: t.Clone()})
}

// runParallel executes every alternative of the Parallel instruction
// at ip concurrently, each against its own delta buffer, then merges
// the buffers into the shared relation manager in alternative order.
// Merging in a fixed order regardless of goroutine completion order is
// what makes repeated runs produce byte-identical relation contents
// (spec.md §8 invariant 8 / scenario S4): relation insertion is
// idempotent, so only the order the deltas are applied in can vary
// observable state, and fixing it removes that variance.
func (e *Evaluator) runParallel(ctx context.Context, code []int32, ip int) (int, Status) {
	count := int(code[ip+1])
	starts := make([]int, count)
	for i := 0; i < count; i++ {
		starts[i] = int(code[ip+2+i])
	}

	deltas := make([]*deltaWriter, count)
	joins := make([]int, count)
	g, gctx := errgroup.WithContext(ctx)
	if e.maxParallel > 0 {
		g.SetLimit(e.maxParallel)
	}
	for i := 0; i < count; i++ {
		i := i
		deltas[i] = &deltaWriter{}
		worker := e.fork(deltas[i])
		g.Go(func() error {
			join, st := worker.runAlternative(gctx, code, starts[i])
			joins[i] = join
			if st.Kind != OK {
				return statusError{st}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if se, ok := err.(statusError); ok {
			return 0, se.st
		}
		return 0, fault(EvaluationFault, ip, err)
	}

	for i := 0; i < count; i++ {
		for _, w := range deltas[i].writes {
			e.relations.Get(w.relation).Insert(w.tuple)
		}
	}

	join := ip + opcode.Width(code, ip)
	if count > 0 {
		join = joins[0]
	}
	return join, ok()
}

// statusError adapts a Status into an error so errgroup.Group can
// carry it back to the caller without losing fault classification.
type statusError struct{ st Status }

func (s statusError) Error() string {
	if s.st.Err != nil {
		return s.st.Err.Error()
	}
	return s.st.Kind.String()
}

// runAlternative runs one Parallel alternative starting at ip until it
// reaches its LVM_Stop_Parallel, returning the join address recorded
// there. It otherwise behaves exactly like the top-level dispatch loop
// (run), including nested Parallel support and cooperative
// cancellation.
func (e *Evaluator) runAlternative(ctx context.Context, code []int32, ip int) (join int, st Status) {
	defer func() {
		if r := recover(); r != nil {
			join = 0
			st = fault(EvaluationFault, ip, fmt.Errorf("eval: %v", r))
		}
	}()
	for {
		op := opcode.Op(code[ip])
		if op == opcode.StopParallel {
			return int(code[ip+1]), ok()
		}
		width := opcode.Width(code, ip)

		if e.sinceCancelPoll++; e.sinceCancelPoll >= cancelPollInterval {
			e.sinceCancelPoll = 0
			if st, cancelled := e.pollCancel(ctx, ip); cancelled {
				return 0, st
			}
		}

		next, st, handled := e.stepControl(ctx, code, ip, op, width)
		if handled {
			if st.Kind != OK {
				return 0, st
			}
			ip = next
			continue
		}

		if err := e.stepValue(code, ip, op); err != nil {
			var rf *resourceError
			if errors.As(err, &rf) {
				return 0, fault(ResourceFault, ip, rf.err)
			}
			return 0, fault(EvaluationFault, ip, err)
		}
		ip += width
	}
}
