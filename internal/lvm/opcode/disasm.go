package opcode

import (
	"fmt"
	"strings"

	"ramlvm/internal/symbol"
)

// Disassemble renders code as one line per instruction, in the style
// of original_source/src/LVMCode.cpp's LVMCode::print. Two places where
// the reference disassembler is known to diverge from its own opcode
// semantics are corrected here per spec.md §9's open-question rulings:
// LVM_OP_NOT_CONTAINS prints under its own name rather than as
// LVM_OP_CONTAINS, and LVM_Parallel's entry-address loop numbers the n
// address slots that follow the count cell 1..=n rather than 0..=n-1.
func Disassemble(code []int32, symbols *symbol.Table) string {
	var b strings.Builder
	stratum := 0
	ip := 0
	for ip < len(code) {
		op := Op(code[ip])
		switch op {
		case Parallel:
			n := int(code[ip+1])
			fmt.Fprintf(&b, "%d\tLVM_Parallel\t%d\t", ip, n)
			for i := 1; i <= n; i++ {
				fmt.Fprintf(&b, "%d\t", code[ip+1+i])
			}
			b.WriteString("\n")
		case Create:
			arity := int(code[ip+2])
			fmt.Fprintf(&b, "%d\tLVM_Create\tName:%s Arity:%d Struct:%d\n",
				ip, resolve(symbols, code[ip+1]), arity, code[ip+3])
			for i := 0; i < arity; i++ {
				fmt.Fprintf(&b, "\t%s", resolve(symbols, code[ip+4+i]))
			}
			b.WriteString("\n")
		case Stratum:
			fmt.Fprintf(&b, "%d\tLVM_Stratum\t%d\n", ip, stratum)
			stratum++
		case EmptinessCheck, Clear, Drop:
			fmt.Fprintf(&b, "%d\t%s\t%s\n", ip, op, resolve(symbols, code[ip+1]))
		case ExistenceCheck, ProvenanceExistenceCheck:
			fmt.Fprintf(&b, "%d\t%s\t%s\tBound:%d\n", ip, op, resolve(symbols, code[ip+1]), code[ip+2])
		case LogSize:
			fmt.Fprintf(&b, "%d\tLVM_LogSize\t%s\n", ip, resolve(symbols, code[ip+1]))
		case Load, Store:
			fmt.Fprintf(&b, "%d\t%s\t%s\tIOidx:%d\n", ip, op, resolve(symbols, code[ip+1]), code[ip+2])
		case Fact:
			fmt.Fprintf(&b, "%d\tLVM_Fact\t%s\t%d\n", ip, resolve(symbols, code[ip+1]), code[ip+2])
		case Merge, Swap:
			fmt.Fprintf(&b, "%d\t%s\t%s\t%s\n", ip, op, resolve(symbols, code[ip+1]), resolve(symbols, code[ip+2]))
		case Project:
			fmt.Fprintf(&b, "%d\tLVM_Project\t%d\t%s\n", ip, code[ip+1], resolve(symbols, code[ip+2]))
		case Number:
			fmt.Fprintf(&b, "%d\tLVM_Number\tKind:%d\t%d\n", ip, code[ip+1], code[ip+2])
		case PackRecord, Argument:
			fmt.Fprintf(&b, "%d\t%s\t%d\n", ip, op, code[ip+1])
		case ElementAccess:
			fmt.Fprintf(&b, "%d\tLVM_ElementAccess\t%d\t%d\n", ip, code[ip+1], code[ip+2])
		case UserDefinedOperator:
			fmt.Fprintf(&b, "%d\tLVM_UserDefinedOperator\t%s\t%s\n", ip, resolve(symbols, code[ip+1]), resolve(symbols, code[ip+2]))
		case UnpackRecord:
			fmt.Fprintf(&b, "%d\tLVM_UnpackRecord\t%d %d %d %d\n", ip, code[ip+1], code[ip+2], code[ip+3], code[ip+4])
		case Return:
			fmt.Fprintf(&b, "%d\tLVM_Return\t%d\n", ip, code[ip+1])
		case StopParallel, Exit, DebugInfo:
			fmt.Fprintf(&b, "%d\t%s\t%d\n", ip, op, code[ip+1])
		case Goto, Jmpnz, Jmpez:
			fmt.Fprintf(&b, "%d\t%s\t%d\n", ip, op, code[ip+1])
		case Search:
			fmt.Fprintf(&b, "%d\tLVM_Search\tIter:%d\tEnd:%d\n", ip, code[ip+1], code[ip+2])
		case IterTypeScan:
			fmt.Fprintf(&b, "%d\tLVM_ITER_TypeScan\t%s\n", ip, resolve(symbols, code[ip+2]))
		case IterTypeIndexScan:
			fmt.Fprintf(&b, "%d\tLVM_ITER_TypeIndexScan\t%s\n", ip, resolve(symbols, code[ip+2]))
		case IterNotAtEnd:
			fmt.Fprintf(&b, "%d\tLVM_ITER_NotAtEnd\t%d\tType:%d\n", ip, code[ip+1], code[ip+2])
		case IterSelect:
			fmt.Fprintf(&b, "%d\tLVM_ITER_Select\t%d\t%d\t%d\n", ip, code[ip+1], code[ip+2], code[ip+3])
		case IterInc:
			fmt.Fprintf(&b, "%d\tLVM_ITER_Inc\tIter:%d\tType:%d\n", ip, code[ip+1], code[ip+2])
		case AggregateInit:
			fmt.Fprintf(&b, "%d\tLVM_AggregateInit\tFn:%d\tTuple:%d\n", ip, code[ip+1], code[ip+2])
		case AggregateReduce:
			fmt.Fprintf(&b, "%d\tLVM_Aggregate_Reduce\n", ip)
		case AggregateReturn:
			fmt.Fprintf(&b, "%d\tLVM_Aggregate_Return\tTuple:%d\n", ip, code[ip+1])
		case STOP:
			fmt.Fprintf(&b, "%d\tLVM_STOP\n", ip)
		default:
			fmt.Fprintf(&b, "%d\t%s\n", ip, op)
		}
		width := Width(code, ip)
		if width <= 0 {
			break
		}
		ip += width
		if op == STOP {
			break
		}
	}
	return b.String()
}

func resolve(symbols *symbol.Table, id int32) string {
	if symbols == nil {
		return fmt.Sprintf("sym%d", id)
	}
	return symbols.Resolve(symbol.ID(id))
}
