package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/lvm/compile"
	"ramlvm/internal/lvm/eval"
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

func TestFormatDiagnosticShowsFaultingInstruction(t *testing.T) {
	symbols := symbol.NewTable()
	r := symbols.Intern("r")
	prog := &ram.Program{
		Symbols: symbols,
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Fact{Relation: r, Values: []ram.Expression{&ram.NumberConstant{Value: ram.Int(1)}}},
		}},
	}
	compiled := compile.Compile(prog)

	st := eval.Status{Kind: eval.EvaluationFault, IP: 0, Err: assertError("relation 0 not found")}
	d := FromStatus(st)
	assert.Equal(t, ErrEvaluationFault, d.Code)

	reporter := NewReporter("prog", compiled.Code, symbols)
	formatted := reporter.FormatDiagnostic(d)
	assert.Contains(t, formatted, "error["+string(ErrEvaluationFault)+"]")
	assert.Contains(t, formatted, "prog:ip=0")
	assert.Contains(t, formatted, "LVM_Number")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func assertError(msg string) error { return assertErr(msg) }
