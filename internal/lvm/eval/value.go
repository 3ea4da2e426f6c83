package eval

import (
	"fmt"

	"ramlvm/internal/lvm/opcode"
	"ramlvm/internal/lvm/record"
	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

// resourceError marks a failure that should surface as Status{Kind:
// ResourceFault} rather than EvaluationFault (spec.md §7: I/O-directive
// and allocation failures are a distinct kind from checked runtime
// errors like division by zero).
type resourceError struct{ err error }

func (r *resourceError) Error() string { return r.err.Error() }
func (r *resourceError) Unwrap() error { return r.err }

func asResourceFault(err error) error {
	if err == nil {
		return nil
	}
	return &resourceError{err}
}

// stepValue dispatches every opcode stepControl didn't handle: value-
// producing expressions, comparisons, relational operations, relation
// management, and I/O. ip is only used to read inline operands; the
// caller always advances by Width itself afterward.
func (e *Evaluator) stepValue(code []int32, ip int, op opcode.Op) error {
	switch op {
	case opcode.Number:
		e.push(ram.Value{Kind: ram.Kind(code[ip+1]), Bits: uint64(uint32(code[ip+2]))})
		return nil

	case opcode.ElementAccess:
		tuple := ram.TupleID(code[ip+1])
		elem := int(code[ip+2])
		t := e.tuple(tuple)
		if elem < 0 || elem >= len(t) {
			return fmt.Errorf("element_access: tuple %d has arity %d, index %d out of range", tuple, len(t), elem)
		}
		e.push(t[elem])
		return nil

	case opcode.AutoIncrement:
		v := e.autoInc.Add(1) - 1
		e.push(ram.Int(v))
		return nil

	case opcode.Argument:
		idx := int(code[ip+1])
		if idx < 0 || idx >= len(e.args) {
			return fmt.Errorf("argument: index %d out of range (have %d)", idx, len(e.args))
		}
		e.push(e.args[idx])
		return nil

	case opcode.OpOrd, opcode.OpStrlen, opcode.OpNeg, opcode.OpBNot, opcode.OpLNot,
		opcode.OpToNumber, opcode.OpToString:
		v := e.pop()
		result, err := e.evalUnary(op, v)
		if err != nil {
			return err
		}
		e.push(result)
		return nil

	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv, opcode.OpExp, opcode.OpMod,
		opcode.OpBAnd, opcode.OpBOr, opcode.OpBXor, opcode.OpLAnd, opcode.OpLOr,
		opcode.OpMax, opcode.OpMin, opcode.OpCat:
		rhs := e.pop()
		lhs := e.pop()
		result, err := e.evalBinary(op, lhs, rhs)
		if err != nil {
			return err
		}
		e.push(result)
		return nil

	case opcode.OpEQ, opcode.OpNE, opcode.OpLT, opcode.OpLE, opcode.OpGT, opcode.OpGE,
		opcode.OpMatch, opcode.OpNotMatch, opcode.OpContains, opcode.OpNotContains:
		rhs := e.pop()
		lhs := e.pop()
		result, err := e.evalCompare(op, lhs, rhs)
		if err != nil {
			return err
		}
		e.push(result)
		return nil

	case opcode.UserDefinedOperator:
		name := symbol.ID(code[ip+1])
		argc := int(code[ip+2])
		args := e.popArgs(argc)
		fn, ok := e.functors[name]
		if !ok {
			return fmt.Errorf("user-defined operator %d is not registered", name)
		}
		result, err := fn(args)
		if err != nil {
			return fmt.Errorf("user-defined operator %d: %w", name, err)
		}
		e.push(result)
		return nil

	case opcode.PackRecord:
		argc := int(code[ip+1])
		fields := ram.Tuple(e.popArgs(argc))
		id := e.records.Pack(fields)
		e.push(ram.Value{Kind: ram.KindRecord, Bits: uint64(uint32(id))})
		return nil

	case opcode.Conjunction:
		rhs := e.pop()
		lhs := e.pop()
		e.push(boolValue(lhs.Bits != 0 && rhs.Bits != 0))
		return nil

	case opcode.Negation:
		v := e.pop()
		e.push(boolValue(v.Bits == 0))
		return nil

	case opcode.EmptinessCheck:
		rel := symbol.ID(code[ip+1])
		e.push(boolValue(e.relations.Get(rel).Len() == 0))
		return nil

	case opcode.ExistenceCheck:
		rel := symbol.ID(code[ip+1])
		bound := int(code[ip+2])
		r := e.relations.Get(rel)
		pattern := e.popPattern(bound, r.Arity())
		e.push(boolValue(r.Contains(pattern)))
		return nil

	case opcode.ProvenanceExistenceCheck:
		rel := symbol.ID(code[ip+1])
		bound := int(code[ip+2])
		r := e.relations.Get(rel)
		pattern := e.popPattern(bound, r.Arity())
		_ = e.pop() // provenance level: not modeled, existence alone decides
		e.push(boolValue(r.Contains(pattern)))
		return nil

	case opcode.IterTypeScan:
		slot := int(code[ip+1])
		rel := symbol.ID(code[ip+2])
		e.setIter(slot, e.relations.Get(rel).Scan())
		return nil

	case opcode.IterTypeIndexScan:
		slot := int(code[ip+1])
		rel := symbol.ID(code[ip+2])
		bound := int(code[ip+3])
		r := e.relations.Get(rel)
		pattern := e.popPattern(bound, r.Arity())
		e.setIter(slot, r.IndexScan(pattern))
		return nil

	case opcode.IterNotAtEnd:
		slot := int(code[ip+1])
		e.push(boolValue(e.iters[slot].NotAtEnd()))
		return nil

	case opcode.IterSelect:
		slot := int(code[ip+1])
		tuple := ram.TupleID(code[ip+2])
		e.bindTuple(tuple, e.iters[slot].Select())
		return nil

	case opcode.IterInc:
		slot := int(code[ip+1])
		e.iters[slot].Inc()
		return nil

	case opcode.UnpackRecord:
		tuple := ram.TupleID(code[ip+1])
		arity := int(code[ip+2])
		v := e.pop()
		fields := e.records.Unpack(record.ID(int32(uint32(v.Bits))))
		if len(fields) != arity {
			return fmt.Errorf("unpack_record: record has arity %d, expected %d", len(fields), arity)
		}
		e.bindTuple(tuple, fields)
		return nil

	case opcode.Project:
		count := int(code[ip+1])
		rel := symbol.ID(code[ip+2])
		values := ram.Tuple(e.popArgs(count))
		e.insert(rel, values)
		return nil

	case opcode.Create:
		rel := symbol.ID(code[ip+1])
		arity := int(code[ip+2])
		kind := ram.StorageKind(code[ip+3])
		if err := e.relations.Create(rel, arity, kind); err != nil {
			return err
		}
		return nil

	case opcode.Clear:
		e.relations.Clear(symbol.ID(code[ip+1]))
		return nil

	case opcode.Drop:
		e.relations.Drop(symbol.ID(code[ip+1]))
		return nil

	case opcode.Merge:
		e.relations.Merge(symbol.ID(code[ip+1]), symbol.ID(code[ip+2]))
		return nil

	case opcode.Swap:
		e.relations.Swap(symbol.ID(code[ip+1]), symbol.ID(code[ip+2]))
		return nil

	case opcode.Fact:
		rel := symbol.ID(code[ip+1])
		count := int(code[ip+2])
		values := ram.Tuple(e.popArgs(count))
		e.insert(rel, values)
		return nil

	case opcode.Load:
		rel := symbol.ID(code[ip+1])
		ioIndex := int(code[ip+2])
		r := e.relations.Get(rel)
		tuples, err := e.directives.Load(ioIndex, rel, r.Arity())
		if err != nil {
			return asResourceFault(fmt.Errorf("load relation %d via directive %d: %w", rel, ioIndex, err))
		}
		for _, t := range tuples {
			e.insert(rel, t)
		}
		return nil

	case opcode.Store:
		rel := symbol.ID(code[ip+1])
		ioIndex := int(code[ip+2])
		if err := e.directives.Store(ioIndex, rel, e.relations.Get(rel).All()); err != nil {
			return asResourceFault(fmt.Errorf("store relation %d via directive %d: %w", rel, ioIndex, err))
		}
		return nil

	case opcode.LogSize:
		rel := symbol.ID(code[ip+1])
		msg := symbol.ID(code[ip+2])
		logger.Debugf("%s: relation %d has %d tuples", e.symbols.Resolve(msg), rel, e.relations.Get(rel).Len())
		return nil

	case opcode.AggregateInit:
		fn := opcode.AggregateFunc(code[ip+1])
		tuple := ram.TupleID(code[ip+2])
		e.aggs = append(e.aggs, newAggState(fn, tuple))
		return nil

	case opcode.AggregateReduce:
		top := &e.aggs[len(e.aggs)-1]
		top.fold(e.pop())
		return nil

	case opcode.AggregateReturn:
		top := e.aggs[len(e.aggs)-1]
		e.aggs = e.aggs[:len(e.aggs)-1]
		e.bindTuple(top.tuple, ram.Tuple{top.finish()})
		return nil

	default:
		return fmt.Errorf("eval: unimplemented opcode %s", op)
	}
}

// popArgs pops count operand-stack values and returns them in their
// original push order (compileExpr/compilePattern push left-to-right,
// so the stack top is the last one pushed).
func (e *Evaluator) popArgs(count int) []ram.Value {
	out := make([]ram.Value, count)
	for i := count - 1; i >= 0; i-- {
		out[i] = e.pop()
	}
	return out
}
