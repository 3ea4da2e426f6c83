// Package diagnostics renders eval.Status faults as Rust-style
// terminal diagnostics, the way internal/errors.ErrorReporter renders
// Kanso compiler errors — except the "source" a diagnostic points
// into is a bytecode disassembly and the "position" is an instruction
// pointer, not a line/column pair, since LVM programs carry no source
// text of their own (spec.md §7).
package diagnostics

// Code identifies one diagnosable condition. Ranges mirror the
// teacher's own E0xxx numbering convention, starting a new block per
// eval.Kind so each stays independently extensible.
type Code string

const (
	// E1xxx: compile-time RAM invariant violations (spec.md §7.1) —
	// reserved for callers that route a ram/transform rejection
	// through this reporter rather than a bare Go error.
	ErrMalformedRAM Code = "E1001"

	// E2xxx: bytecode verification errors (spec.md §7.2).
	ErrNonPositiveWidth  Code = "E2001"
	ErrInstructionOverrun Code = "E2002"
	ErrMisalignedTarget  Code = "E2003"
	ErrOutOfRangeTarget  Code = "E2004"

	// E3xxx: evaluation faults (spec.md §7.3) — checked runtime
	// errors such as division by zero or a malformed conversion.
	ErrEvaluationFault Code = "E3001"

	// E4xxx: resource faults (spec.md §7.4) — I/O directive failures
	// and allocation failures.
	ErrResourceFault Code = "E4001"

	// E5xxx: cancellation (spec.md §7, Cancelled kind). Not really an
	// error, but reported through the same pipeline so a caller never
	// has to special-case it.
	ErrCancelled Code = "E5001"
)
