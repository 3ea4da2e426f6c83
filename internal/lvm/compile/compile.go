// Package compile implements the single post-order RAM-to-bytecode
// compiler described in spec.md §4.4: one walk over the transformed RAM
// tree that appends opcodes to a mutable instruction buffer and
// back-patches branch targets as their addresses become known.
package compile

import (
	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/ram"
	"ramlvm/internal/ram/transform"
	"ramlvm/internal/symbol"
)

// Program is the compiled output: the flat instruction stream plus the
// symbol table it was compiled against (so the disassembler can
// resolve names without re-threading it through every caller).
type Program struct {
	Code    []int32
	Symbols *symbol.Table
}

// Compiler performs the post-order emission. It is not safe for
// concurrent use and is discarded after one Compile call.
type Compiler struct {
	code     []int32
	symbols  *symbol.Table
	nextIter int
	loopEnds [][]int // stack of pending-patch lists, one per enclosing Loop
	blank    symbol.ID
	blankSet bool
}

// Compile lowers prog's Main statement into a flat LVM instruction
// stream, terminated by LVM_STOP (spec.md §4.4 "Termination"). It runs
// the HoistConditions/MakeIndex/IfConversion pipeline to a fixed point
// first (spec.md §2 "RAM tree -> analyses -> transformer pipeline ->
// LVM compiler"), mutating prog.Main in place, so every caller gets the
// same transformed tree this package's emission logic already assumes.
func Compile(prog *ram.Program) *Program {
	transform.NewPipeline().Run(prog)

	c := &Compiler{symbols: prog.Symbols}
	c.compileStatement(prog.Main)
	c.emit(int32(opcode.STOP))
	return &Program{Code: c.code, Symbols: c.symbols}
}

// emit appends values to the instruction stream and returns the
// position of the first cell written.
func (c *Compiler) emit(values ...int32) int {
	pos := len(c.code)
	c.code = append(c.code, values...)
	return pos
}

func (c *Compiler) patch(pos int, value int32) {
	c.code[pos] = value
}

func (c *Compiler) here() int32 { return int32(len(c.code)) }

// emitNumber pushes a tagged literal: kind then bits, so the kind
// survives into the bytecode for the monomorphic opcodes downstream
// to dispatch on.
func (c *Compiler) emitNumber(v ram.Value) {
	c.emit(int32(opcode.Number), int32(v.Kind), int32(v.Bits))
}

func (c *Compiler) allocIter() int {
	slot := c.nextIter
	c.nextIter++
	return slot
}

// blankSymbol interns the empty string once per compile and reuses it
// to pad Create's attribute-name run when the RAM node didn't supply
// enough names.
func (c *Compiler) blankSymbol() symbol.ID {
	if c.symbols == nil {
		return 0
	}
	if c.blank == 0 && !c.blankSet {
		c.blank = c.symbols.Intern("")
		c.blankSet = true
	}
	return c.blank
}

// ---- Statements ---------------------------------------------------------

func (c *Compiler) compileStatement(s ram.Statement) {
	switch n := s.(type) {
	case *ram.Sequence:
		c.emit(int32(opcode.Sequence))
		for _, child := range n.Statements {
			c.compileStatement(child)
		}

	case *ram.Parallel:
		count := len(n.Statements)
		c.emit(int32(opcode.Parallel), int32(count))
		addrPos := make([]int, count)
		for i := range n.Statements {
			addrPos[i] = c.emit(0)
		}
		joinPos := make([]int, 0, count)
		for i, alt := range n.Statements {
			c.patch(addrPos[i], c.here())
			c.compileStatement(alt)
			joinPos = append(joinPos, c.emit(int32(opcode.StopParallel), 0)+1)
		}
		join := c.here()
		for _, pos := range joinPos {
			c.patch(pos, join)
		}

	case *ram.Loop:
		start := c.here()
		c.emit(int32(opcode.Loop))
		// One IncIterationNumber per pass, at the top of the body: the
		// semi-naive iteration counter advances here, and it's the
		// evaluator's once-per-iteration cancellation poll point
		// (spec.md §5 "Cancellation/timeouts").
		c.emit(int32(opcode.IncIterationNumber))
		c.loopEnds = append(c.loopEnds, nil)
		c.compileStatement(n.Body)
		c.emit(int32(opcode.Goto), start)
		end := c.here()
		pending := c.loopEnds[len(c.loopEnds)-1]
		c.loopEnds = c.loopEnds[:len(c.loopEnds)-1]
		for _, pos := range pending {
			c.patch(pos, end)
		}

	case *ram.Exit:
		if len(c.loopEnds) == 0 {
			// Malformed RAM (Exit outside a Loop); emit a no-op rather
			// than panicking mid-compile.
			c.emit(int32(opcode.NOP))
			return
		}
		top := len(c.loopEnds) - 1
		if _, isTrue := n.Condition.(*ram.True); isTrue {
			pos := c.emit(int32(opcode.Goto), 0) + 1
			c.loopEnds[top] = append(c.loopEnds[top], pos)
			return
		}
		c.compileCondition(n.Condition)
		pos := c.emit(int32(opcode.Exit), 0) + 1
		c.loopEnds[top] = append(c.loopEnds[top], pos)

	case *ram.Stratum:
		c.emit(int32(opcode.Stratum))
		c.compileStatement(n.Body)
		c.emit(int32(opcode.ResetIterationNumber))

	case *ram.Query:
		c.emit(int32(opcode.Query))
		c.compileOperation(n.Root)

	case *ram.Create:
		// The inline attribute-name run must be exactly Arity cells
		// (opcode.Width relies on it to size the instruction), so pad
		// or truncate whatever the RAM node supplied.
		attrs := n.AttributeNames
		if len(attrs) > n.Arity {
			attrs = attrs[:n.Arity]
		}
		cells := []int32{int32(opcode.Create), int32(n.Relation), int32(n.Arity), int32(n.Storage)}
		for i := 0; i < n.Arity; i++ {
			if i < len(attrs) {
				cells = append(cells, int32(attrs[i]))
			} else {
				cells = append(cells, int32(c.blankSymbol()))
			}
		}
		c.emit(cells...)

	case *ram.Clear:
		c.emit(int32(opcode.Clear), int32(n.Relation))
	case *ram.Drop:
		c.emit(int32(opcode.Drop), int32(n.Relation))
	case *ram.Load:
		c.emit(int32(opcode.Load), int32(n.Relation), int32(n.IOIndex))
	case *ram.Store:
		c.emit(int32(opcode.Store), int32(n.Relation), int32(n.IOIndex))
	case *ram.Merge:
		c.emit(int32(opcode.Merge), int32(n.Target), int32(n.Source))
	case *ram.Swap:
		c.emit(int32(opcode.Swap), int32(n.A), int32(n.B))

	case *ram.Fact:
		for _, v := range n.Values {
			c.compileExpr(v)
		}
		c.emit(int32(opcode.Fact), int32(n.Relation), int32(len(n.Values)))

	case *ram.LogSize:
		c.emit(int32(opcode.LogSize), int32(n.Relation), int32(n.Message))

	case *ram.LogTimer:
		c.emit(int32(opcode.LogTimer), int32(n.Message), int32(n.Relation), 0, 0)
		c.compileStatement(n.Body)
		c.emit(int32(opcode.StopLogTimer), 0)

	case *ram.DebugInfo:
		c.emit(int32(opcode.DebugInfo), int32(n.Text))
		c.compileStatement(n.Body)

	default:
		c.emit(int32(opcode.NOP))
	}
}

// ---- Operations -----------------------------------------------------------

func (c *Compiler) compileOperation(op ram.Operation) {
	switch n := op.(type) {
	case *ram.Scan:
		iter := c.allocIter()
		c.emit(int32(opcode.IterTypeScan), int32(iter), int32(n.Relation))
		c.compileSearchLoop(iter, n.Tuple, n.Body)

	case *ram.IndexScan:
		bound := c.compilePattern(n.Pattern)
		iter := c.allocIter()
		c.emit(int32(opcode.IterTypeIndexScan), int32(iter), int32(n.Relation), int32(bound))
		c.compileSearchLoop(iter, n.Tuple, n.Body)

	case *ram.Filter:
		if _, isTrue := n.Condition.(*ram.True); isTrue {
			c.compileOperation(n.Body)
			return
		}
		c.compileCondition(n.Condition)
		skip := c.emit(int32(opcode.Filter), 0) + 1
		c.compileOperation(n.Body)
		c.patch(skip, c.here())

	case *ram.Project:
		for _, v := range n.Values {
			c.compileExpr(v)
		}
		c.emit(int32(opcode.Project), int32(len(n.Values)), int32(n.Relation))

	case *ram.UnpackRecord:
		c.compileExpr(n.Expr)
		c.emit(int32(opcode.UnpackRecord), int32(n.Tuple), int32(n.Arity), 0, 0)
		c.compileOperation(n.Body)

	case *ram.Aggregate:
		c.compileAggregate(n)

	default:
		c.emit(int32(opcode.NOP))
	}
}

// compileSearchLoop emits the shared NotAtEnd/Select/body/Inc/Goto shape
// described in spec.md §4.4 for both Scan and IndexScan: create the
// iterator beforehand, then loop: if at end, branch to endLabel; else
// bind tuple, run body, advance, and retry.
func (c *Compiler) compileSearchLoop(iter int, tuple ram.TupleID, body ram.Operation) {
	searchAddr := c.here()
	endPos := c.emit(int32(opcode.Search), int32(iter), 0) + 2
	c.emit(int32(opcode.IterSelect), int32(iter), int32(tuple), 0)
	c.compileOperation(body)
	c.emit(int32(opcode.IterInc), int32(iter), 0)
	c.emit(int32(opcode.Goto), searchAddr)
	c.patch(endPos, c.here())
}

// compilePattern pushes (position, value) for every bound entry of
// pattern and returns how many were bound; nil entries are unbound
// wildcards and contribute nothing (spec.md §4.4 "the pattern is
// materialised into the code as a sequence of Number/ElementAccess
// cells that push the bounds onto the operand stack").
func (c *Compiler) compilePattern(pattern []ram.Expression) int {
	bound := 0
	for i, e := range pattern {
		if e == nil {
			continue
		}
		c.emitNumber(ram.Int(int64(i)))
		c.compileExpr(e)
		bound++
	}
	return bound
}

func (c *Compiler) compileAggregate(n *ram.Aggregate) {
	c.emit(int32(opcode.AggregateInit), int32(aggregateFuncCode(n.Function)), int32(n.Tuple))

	var iter int
	if bound := countBound(n.Pattern); bound > 0 {
		c.compilePattern(n.Pattern)
		iter = c.allocIter()
		c.emit(int32(opcode.IterTypeIndexScan), int32(iter), int32(n.Relation), int32(bound))
	} else {
		iter = c.allocIter()
		c.emit(int32(opcode.IterTypeScan), int32(iter), int32(n.Relation))
	}

	searchAddr := c.here()
	endPos := c.emit(int32(opcode.Search), int32(iter), 0) + 2
	c.emit(int32(opcode.IterSelect), int32(iter), int32(n.Tuple), 0)
	c.compileExpr(n.Target)
	c.emit(int32(opcode.AggregateReduce))
	c.emit(int32(opcode.IterInc), int32(iter), 0)
	c.emit(int32(opcode.Goto), searchAddr)
	c.patch(endPos, c.here())

	c.emit(int32(opcode.AggregateReturn), int32(n.Tuple))
	c.compileOperation(n.Body)
}

func countBound(pattern []ram.Expression) int {
	n := 0
	for _, e := range pattern {
		if e != nil {
			n++
		}
	}
	return n
}

func aggregateFuncCode(f ram.AggregateFunc) opcode.AggregateFunc {
	switch f {
	case ram.AggCount:
		return opcode.AggCount
	case ram.AggSum:
		return opcode.AggSum
	case ram.AggMin:
		return opcode.AggMin
	case ram.AggMax:
		return opcode.AggMax
	default:
		return opcode.AggCount
	}
}

// ---- Expressions & conditions ----------------------------------------

func (c *Compiler) compileExpr(e ram.Expression) {
	switch n := e.(type) {
	case *ram.NumberConstant:
		c.emitNumber(n.Value)
	case *ram.TupleElement:
		c.emit(int32(opcode.ElementAccess), int32(n.Tuple), int32(n.Element))
	case *ram.AutoIncrement:
		c.emit(int32(opcode.AutoIncrement))
	case *ram.UnaryOperator:
		c.compileExpr(n.Operand)
		c.emit(int32(unaryOpcode(n.Op)))
	case *ram.BinaryOperator:
		c.compileExpr(n.LHS)
		c.compileExpr(n.RHS)
		c.emit(int32(binaryOpcode(n.Op)))
	case *ram.UserDefinedOperator:
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emit(int32(opcode.UserDefinedOperator), int32(n.Name), int32(len(n.Args)))
	case *ram.PackRecord:
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emit(int32(opcode.PackRecord), int32(len(n.Args)))
	case *ram.SubroutineArgument:
		c.emit(int32(opcode.Argument), int32(n.Index))
	default:
		c.emitNumber(ram.Int(0))
	}
}

func (c *Compiler) compileCondition(cond ram.Condition) {
	switch n := cond.(type) {
	case *ram.True:
		// No opcode: callers special-case True to skip the branch
		// entirely rather than pushing a literal boolean.
	case *ram.Conjunction:
		c.compileCondition(n.LHS)
		c.compileCondition(n.RHS)
		c.emit(int32(opcode.Conjunction))
	case *ram.Negation:
		c.compileCondition(n.Operand)
		c.emit(int32(opcode.Negation))
	case *ram.Constraint:
		c.compileExpr(n.LHS)
		c.compileExpr(n.RHS)
		c.emit(int32(compareOpcode(n.Op)))
	case *ram.EmptinessCheck:
		c.emit(int32(opcode.EmptinessCheck), int32(n.Relation))
	case *ram.ExistenceCheck:
		bound := c.compilePattern(n.Pattern)
		c.emit(int32(opcode.ExistenceCheck), int32(n.Relation), int32(bound))
	case *ram.ProvenanceExistenceCheck:
		c.compileExpr(n.Level)
		bound := c.compilePattern(n.Pattern)
		c.emit(int32(opcode.ProvenanceExistenceCheck), int32(n.Relation), int32(bound))
	default:
		c.emit(int32(opcode.NOP))
	}
}

func unaryOpcode(op ram.UnaryOp) opcode.Op {
	switch op {
	case ram.OpNeg:
		return opcode.OpNeg
	case ram.OpBNot:
		return opcode.OpBNot
	case ram.OpLNot:
		return opcode.OpLNot
	case ram.OpOrd:
		return opcode.OpOrd
	case ram.OpStrlen:
		return opcode.OpStrlen
	case ram.OpToNumber:
		return opcode.OpToNumber
	case ram.OpToString:
		return opcode.OpToString
	default:
		return opcode.NOP
	}
}

func binaryOpcode(op ram.BinaryOp) opcode.Op {
	switch op {
	case ram.OpAdd:
		return opcode.OpAdd
	case ram.OpSub:
		return opcode.OpSub
	case ram.OpMul:
		return opcode.OpMul
	case ram.OpDiv:
		return opcode.OpDiv
	case ram.OpExp:
		return opcode.OpExp
	case ram.OpMod:
		return opcode.OpMod
	case ram.OpBAnd:
		return opcode.OpBAnd
	case ram.OpBOr:
		return opcode.OpBOr
	case ram.OpBXor:
		return opcode.OpBXor
	case ram.OpLAnd:
		return opcode.OpLAnd
	case ram.OpLOr:
		return opcode.OpLOr
	case ram.OpMax:
		return opcode.OpMax
	case ram.OpMin:
		return opcode.OpMin
	case ram.OpCat:
		return opcode.OpCat
	default:
		return opcode.NOP
	}
}

func compareOpcode(op ram.CompareOp) opcode.Op {
	switch op {
	case ram.CmpEQ:
		return opcode.OpEQ
	case ram.CmpNE:
		return opcode.OpNE
	case ram.CmpLT:
		return opcode.OpLT
	case ram.CmpLE:
		return opcode.OpLE
	case ram.CmpGT:
		return opcode.OpGT
	case ram.CmpGE:
		return opcode.OpGE
	case ram.CmpMatch:
		return opcode.OpMatch
	case ram.CmpNotMatch:
		return opcode.OpNotMatch
	case ram.CmpContains:
		return opcode.OpContains
	case ram.CmpNotContains:
		return opcode.OpNotContains
	default:
		return opcode.NOP
	}
}
