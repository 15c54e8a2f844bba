package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paauw/polars/expr"
)

func TestOutputNamePrefersAlias(t *testing.T) {
	e := expr.Alias{Name: "total", Operand: expr.Col{Name: "amount"}}
	assert.Equal(t, "total", expr.OutputName(e))
}

func TestOutputNameFallsBackToColName(t *testing.T) {
	assert.Equal(t, "amount", expr.OutputName(expr.Col{Name: "amount"}))
}

func TestColumnNamesWalksNestedExpr(t *testing.T) {
	e := expr.BinaryOp{
		Op:   "add",
		Left: expr.Col{Name: "a"},
		Right: expr.UnaryOp{
			Op:      "neg",
			Operand: expr.Col{Name: "b"},
		},
	}
	assert.ElementsMatch(t, []string{"a", "b"}, expr.ColumnNames(e))
}

func TestColumnNamesIgnoresWildcardAndLiteral(t *testing.T) {
	e := expr.BinaryOp{Op: "add", Left: expr.Wildcard{}, Right: expr.Literal{Value: 1}}
	assert.Empty(t, expr.ColumnNames(e))
}

func TestHasWildcardFindsNestedRoot(t *testing.T) {
	e := expr.Agg{Func: "first", Operand: expr.Wildcard{Except: []string{"id"}}}
	assert.True(t, expr.HasWildcard(e))
	assert.Equal(t, []string{"id"}, expr.WildcardExcept(e))
	assert.False(t, expr.HasWildcard(expr.Col{Name: "id"}))
	assert.Nil(t, expr.WildcardExcept(expr.Col{Name: "id"}))
}

func TestReplaceWildcardClonesOperandChain(t *testing.T) {
	e := expr.UnaryOp{Op: "not", Operand: expr.Wildcard{}}
	cloned := expr.ReplaceWildcard(e, expr.Col{Name: "flag"})
	assert.Equal(t, "not(flag)", cloned.String())
	// the original expression is untouched.
	assert.Equal(t, "not(*)", e.String())
}
