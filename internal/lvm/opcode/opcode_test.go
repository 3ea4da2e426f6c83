package opcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/symbol"
)

func TestWidthFixedOpcodes(t *testing.T) {
	assert.Equal(t, 3, Width([]int32{int32(Number), 0, 5}, 0))
	assert.Equal(t, 3, Width([]int32{int32(ElementAccess), 0, 1}, 0))
	assert.Equal(t, 1, Width([]int32{int32(OpAdd)}, 0))
	assert.Equal(t, 3, Width([]int32{int32(Return), 1, 0}, 0))
}

func TestWidthParallelIsVariable(t *testing.T) {
	code := []int32{int32(Parallel), 3, 10, 20, 30, 40}
	assert.Equal(t, 5, Width(code, 0)) // 1 (opcode) + 1 (count) + 3 entries
}

func TestWidthCreateIsVariable(t *testing.T) {
	code := []int32{int32(Create), 7, 2, int32(0), 8, 9}
	assert.Equal(t, 6, Width(code, 0)) // opcode + relation + arity + storage + 2 attr names
}

func TestDisassembleNotContainsPrintsUnderItsOwnName(t *testing.T) {
	code := []int32{int32(OpNotContains), int32(STOP)}
	out := Disassemble(code, nil)
	assert.True(t, strings.Contains(out, "LVM_OP_NOT_CONTAINS"))
	assert.False(t, strings.Contains(out, "LVM_OP_CONTAINS\n"))
}

func TestDisassembleParallelAddressesAreOneIndexed(t *testing.T) {
	code := []int32{int32(Parallel), 2, 100, 200, int32(STOP)}
	out := Disassemble(code, nil)
	line := strings.Split(out, "\n")[0]
	assert.True(t, strings.Contains(line, "100"))
	assert.True(t, strings.Contains(line, "200"))
	assert.False(t, strings.Contains(line, "LVM_Parallel\t2\t2\t")) // the count cell is not printed again as an address
}

func TestDisassembleResolvesSymbols(t *testing.T) {
	tbl := symbol.NewTable()
	edge := tbl.Intern("edge")
	code := []int32{int32(Clear), int32(edge), int32(STOP)}
	out := Disassemble(code, tbl)
	assert.True(t, strings.Contains(out, "edge"))
}

func TestDisassembleStopsAtSTOP(t *testing.T) {
	code := []int32{int32(NOP), int32(STOP), int32(NOP)}
	out := Disassemble(code, nil)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}
