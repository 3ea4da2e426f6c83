package eval

// Kind classifies how an evaluation run ended (spec.md §7 "Error
// handling design" enumerates five kinds of failure plus the success
// case every library entrypoint must report through the same type).
type Kind uint8

const (
	// OK: the program ran to LVM_STOP with no fault.
	OK Kind = iota
	// CompileInvariant: reserved for callers that route a transformer
	// or compiler rejection through Status rather than a Go error —
	// the evaluator itself never produces this kind.
	CompileInvariant
	// VerificationError: the bytecode failed verification before the
	// evaluator would have executed it (unknown opcode, malformed
	// width, out-of-range or mid-instruction branch target). Iterator
	// invalidation is not checked.
	VerificationError
	// EvaluationFault: a checked runtime error (division by zero, bad
	// conversion, index-out-of-range element access,
	// relation-not-found).
	EvaluationFault
	// ResourceFault: out-of-memory during relation growth, or any error
	// returned by a Load/Store directive, including a Load/Store whose
	// IOindex has no directive.
	ResourceFault
	// Cancelled: external cancellation observed at a poll point.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case CompileInvariant:
		return "compile-invariant-violation"
	case VerificationError:
		return "verification-error"
	case EvaluationFault:
		return "evaluation-fault"
	case ResourceFault:
		return "resource-fault"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Status is the result of Evaluate (spec.md §6 "Evaluate(Program,
// DirectiveSet, CancelFlag) -> Status"). Err is nil iff Kind == OK.
type Status struct {
	Kind Kind
	Err  error
	// IP is the instruction pointer active when a fault occurred, or
	// -1 when not applicable (spec.md §4.5 "Failure semantics":
	// faults are "reported with the current ip").
	IP int
}

func ok() Status { return Status{Kind: OK, IP: -1} }

func fault(kind Kind, ip int, err error) Status {
	return Status{Kind: kind, Err: err, IP: ip}
}
