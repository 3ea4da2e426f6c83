package ram

import (
	"fmt"
	"strings"

	"ramlvm/internal/symbol"
)

// Printer pretty-prints a RAM program. Mirrors the indent-tracking
// style used for the rest of this pipeline's trees.
type Printer struct {
	indent  int
	output  strings.Builder
	symbols *symbol.Table
}

// Print returns the textual form of program, resolving symbol ids
// through program.Symbols.
func Print(program *Program) string {
	p := &Printer{symbols: program.Symbols}
	p.printStatement(program.Main)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) name(id int32) string {
	if p.symbols == nil {
		return fmt.Sprintf("sym%d", id)
	}
	return p.symbols.Resolve(symbol.ID(id))
}

func (p *Printer) printStatement(s Statement) {
	switch n := s.(type) {
	case *Sequence:
		for _, child := range n.Statements {
			p.printStatement(child)
		}
	case *Parallel:
		p.writeLine("PARALLEL")
		p.indent++
		for _, child := range n.Statements {
			p.printStatement(child)
		}
		p.indent--
		p.writeLine("END PARALLEL")
	case *Loop:
		p.writeLine("LOOP")
		p.indent++
		p.printStatement(n.Body)
		p.indent--
		p.writeLine("END LOOP")
	case *Exit:
		p.writeLine("EXIT (%s)", n.Condition.String())
	case *Stratum:
		p.writeLine("STRATUM %d", n.Level)
		p.indent++
		p.printStatement(n.Body)
		p.indent--
	case *Query:
		p.writeLine("QUERY")
		p.indent++
		p.printOperation(n.Root)
		p.indent--
	case *Create:
		p.writeLine("CREATE %s (%s)", p.name(int32(n.Relation)), n.Storage)
	case *Clear:
		p.writeLine("CLEAR %s", p.name(int32(n.Relation)))
	case *Drop:
		p.writeLine("DROP %s", p.name(int32(n.Relation)))
	case *Load:
		p.writeLine("LOAD %s IOidx:%d", p.name(int32(n.Relation)), n.IOIndex)
	case *Store:
		p.writeLine("STORE %s IOidx:%d", p.name(int32(n.Relation)), n.IOIndex)
	case *Merge:
		p.writeLine("MERGE %s <- %s", p.name(int32(n.Target)), p.name(int32(n.Source)))
	case *Swap:
		p.writeLine("SWAP %s, %s", p.name(int32(n.A)), p.name(int32(n.B)))
	case *Fact:
		p.writeLine("FACT %s(%s)", p.name(int32(n.Relation)), joinExpr(n.Values))
	case *LogSize:
		p.writeLine("LOGSIZE %s", p.name(int32(n.Relation)))
	case *LogTimer:
		p.writeLine("TIMER %q ON %s", p.name(int32(n.Message)), p.name(int32(n.Relation)))
		p.indent++
		p.printStatement(n.Body)
		p.indent--
	case *DebugInfo:
		p.writeLine("; %s", p.name(int32(n.Text)))
		p.printStatement(n.Body)
	default:
		p.writeLine("<unknown statement %T>", s)
	}
}

func (p *Printer) printOperation(op Operation) {
	switch n := op.(type) {
	case *Scan:
		p.writeLine("FOR t%d IN %s", n.Tuple, p.name(int32(n.Relation)))
		p.indent++
		p.printOperation(n.Body)
		p.indent--
	case *IndexScan:
		p.writeLine("FOR t%d IN %s INDEX [%s]", n.Tuple, p.name(int32(n.Relation)), joinExpr(n.Pattern))
		p.indent++
		p.printOperation(n.Body)
		p.indent--
	case *Filter:
		p.writeLine("IF %s", n.Condition.String())
		p.indent++
		p.printOperation(n.Body)
		p.indent--
	case *Project:
		p.writeLine("PROJECT (%s) INTO %s", joinExpr(n.Values), p.name(int32(n.Relation)))
	case *UnpackRecord:
		p.writeLine("UNPACK %s AS t%d", n.Expr.String(), n.Tuple)
		p.indent++
		p.printOperation(n.Body)
		p.indent--
	case *Aggregate:
		p.writeLine("t%d = %s %s : %s[%s]", n.Tuple, aggName(n.Function), n.Target.String(), p.name(int32(n.Relation)), joinExpr(n.Pattern))
		p.indent++
		p.printOperation(n.Body)
		p.indent--
	default:
		p.writeLine("<unknown operation %T>", op)
	}
}

func aggName(f AggregateFunc) string {
	switch f {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return "?"
	}
}

func joinExpr(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		if e == nil {
			parts[i] = "_"
		} else {
			parts[i] = e.String()
		}
	}
	return strings.Join(parts, ", ")
}

// ---- String() implementations -----------------------------------------

func (e *NumberConstant) String() string { return fmt.Sprintf("%d", int64(e.Value.Bits)) }
func (e *TupleElement) String() string   { return fmt.Sprintf("t%d.%d", e.Tuple, e.Element) }
func (e *AutoIncrement) String() string  { return "autoinc()" }
func (e *UnaryOperator) String() string {
	return fmt.Sprintf("%s(%s)", unaryName(e.Op), e.Operand.String())
}
func (e *BinaryOperator) String() string {
	return fmt.Sprintf("(%s %s %s)", e.LHS.String(), binaryName(e.Op), e.RHS.String())
}
func (e *UserDefinedOperator) String() string {
	return fmt.Sprintf("@%d(%s)", e.Name, joinExpr(e.Args))
}
func (e *PackRecord) String() string         { return fmt.Sprintf("[%s]", joinExpr(e.Args)) }
func (e *SubroutineArgument) String() string { return fmt.Sprintf("arg(%d)", e.Index) }

func unaryName(op UnaryOp) string {
	switch op {
	case OpNeg:
		return "-"
	case OpBNot:
		return "bnot"
	case OpLNot:
		return "!"
	case OpOrd:
		return "ord"
	case OpStrlen:
		return "strlen"
	case OpToNumber:
		return "to_number"
	case OpToString:
		return "to_string"
	default:
		return "?"
	}
}

func binaryName(op BinaryOp) string {
	names := []string{"+", "-", "*", "/", "^", "%", "band", "bor", "bxor", "land", "lor", "max", "min", "cat"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

func (c *True) String() string { return "true" }
func (c *Conjunction) String() string {
	return fmt.Sprintf("(%s AND %s)", c.LHS.String(), c.RHS.String())
}
func (c *Negation) String() string { return fmt.Sprintf("NOT (%s)", c.Operand.String()) }
func (c *Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.LHS.String(), compareName(c.Op), c.RHS.String())
}
func (c *EmptinessCheck) String() string { return fmt.Sprintf("%d = 0", c.Relation) }
func (c *ExistenceCheck) String() string {
	return fmt.Sprintf("(%s) IN %d", joinExpr(c.Pattern), c.Relation)
}
func (c *ProvenanceExistenceCheck) String() string {
	return fmt.Sprintf("(%s) IN %d [prov]", joinExpr(c.Pattern), c.Relation)
}

func compareName(op CompareOp) string {
	names := []string{"=", "!=", "<", "<=", ">", ">=", "match", "not_match", "contains", "not_contains"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}
