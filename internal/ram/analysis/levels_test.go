package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ramlvm/internal/ram"
)

func TestExpressionLevelMaxOfOperands(t *testing.T) {
	e := &ram.BinaryOperator{
		Op:  ram.OpAdd,
		LHS: &ram.TupleElement{Tuple: 0, Element: 0},
		RHS: &ram.TupleElement{Tuple: 2, Element: 1},
	}
	assert.Equal(t, 2, ExpressionLevel(e))
}

func TestExpressionLevelConstant(t *testing.T) {
	assert.Equal(t, -1, ExpressionLevel(&ram.NumberConstant{Value: ram.Int(5)}))
}

func TestConditionLevelConjunction(t *testing.T) {
	c := &ram.Conjunction{
		LHS: &ram.Constraint{Op: ram.CmpEQ, LHS: &ram.TupleElement{Tuple: 1}, RHS: &ram.NumberConstant{}},
		RHS: &ram.Constraint{Op: ram.CmpEQ, LHS: &ram.TupleElement{Tuple: 3}, RHS: &ram.NumberConstant{}},
	}
	assert.Equal(t, 3, ConditionLevel(c))
}

func TestIsConstValue(t *testing.T) {
	assert.True(t, IsConstValue(&ram.NumberConstant{Value: ram.Int(1)}))
	assert.False(t, IsConstValue(&ram.AutoIncrement{}))
	assert.False(t, IsConstValue(&ram.TupleElement{Tuple: 0}))

	mixed := &ram.BinaryOperator{Op: ram.OpAdd, LHS: &ram.NumberConstant{}, RHS: &ram.TupleElement{Tuple: 0}}
	assert.False(t, IsConstValue(mixed))

	allConst := &ram.BinaryOperator{Op: ram.OpAdd, LHS: &ram.NumberConstant{}, RHS: &ram.NumberConstant{}}
	assert.True(t, IsConstValue(allConst))
}
