package diagnostics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"ramlvm/internal/lvm/eval"
	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/symbol"
)

// Level mirrors the teacher's ErrorLevel, trimmed to the severities a
// Status actually needs: every non-OK Kind is an error, and Notice is
// reserved for advisory output (e.g. LogSize/LogTimer echoes) that
// never blocks a run.
type Level string

const (
	LevelError  Level = "error"
	LevelNotice Level = "notice"
)

// Diagnostic is a structured, renderable description of one
// eval.Status fault (spec.md §7).
type Diagnostic struct {
	Level   Level
	Code    Code
	Message string
	IP      int // -1 when the fault has no specific instruction
}

// FromStatus classifies st into a Diagnostic; st.Kind == eval.OK has
// no diagnostic and callers should not call this.
func FromStatus(st eval.Status) Diagnostic {
	msg := ""
	if st.Err != nil {
		msg = st.Err.Error()
	}
	code := map[eval.Kind]Code{
		eval.CompileInvariant:   ErrMalformedRAM,
		eval.VerificationError:  ErrOutOfRangeTarget,
		eval.EvaluationFault:    ErrEvaluationFault,
		eval.ResourceFault:      ErrResourceFault,
		eval.Cancelled:          ErrCancelled,
	}[st.Kind]
	return Diagnostic{Level: LevelError, Code: code, Message: msg, IP: st.IP}
}

// Reporter formats Diagnostics against one program's disassembly, the
// same way ErrorReporter formats CompilerErrors against one file's
// source lines.
type Reporter struct {
	program string   // the compiled program's name, shown in the location line
	listing []string // one disassembly line per instruction, indexed by ip via ipLine
	ipLine  map[int]int
}

// NewReporter disassembles code once and indexes it by instruction
// pointer so repeated FormatDiagnostic calls don't re-disassemble.
func NewReporter(program string, code []int32, symbols *symbol.Table) *Reporter {
	listing := strings.Split(strings.TrimRight(opcode.Disassemble(code, symbols), "\n"), "\n")
	ipLine := make(map[int]int, len(listing))
	for i, line := range listing {
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		if ip, err := strconv.Atoi(line[:tab]); err == nil {
			ipLine[ip] = i
		}
	}
	return &Reporter{program: program, listing: listing, ipLine: ipLine}
}

// FormatDiagnostic renders d with one line of disassembly context on
// either side of its IP, mirroring ErrorReporter.FormatError's
// line-before/line/line-after layout but over bytecode instead of
// source text.
func (r *Reporter) FormatDiagnostic(d Diagnostic) string {
	var b strings.Builder

	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", levelColor(string(d.Level)), d.Message)
	}

	fmt.Fprintf(&b, "  %s %s:ip=%d\n", dim("-->"), r.program, d.IP)
	fmt.Fprintf(&b, "  %s\n", dim("│"))

	line, ok := r.ipLine[d.IP]
	if !ok {
		b.WriteString("\n")
		return b.String()
	}
	if line > 0 {
		fmt.Fprintf(&b, "  %s %s\n", dim("│"), dim(r.listing[line-1]))
	}
	fmt.Fprintf(&b, "%s %s %s\n", bold(">"), dim("│"), bold(r.listing[line]))
	if line+1 < len(r.listing) {
		fmt.Fprintf(&b, "  %s %s\n", dim("│"), dim(r.listing[line+1]))
	}

	b.WriteString("\n")
	return b.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case LevelNotice:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}
