package materialize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/internal/joinindex"
	"github.com/paauw/polars/internal/materialize"
)

func TestJoinGathersAndRenamesCollisions(t *testing.T) {
	leftNames := []string{"id", "v"}
	leftCols := []*column.Column{
		column.NewInt64("id", []int64{1, 2}, nil),
		column.NewString("v", []string{"a", "b"}, nil),
	}
	rightNames := []string{"v"}
	rightCols := []*column.Column{
		column.NewString("v", []string{"x", "y"}, nil),
	}

	res := &joinindex.Result{Left: []uint32{0, 1}, Right: []uint32{0, 1}}
	joined, err := materialize.Join(leftNames, leftCols, rightNames, rightCols, res)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "v", "v_right"}, joined.Names)
	assert.Equal(t, "x", joined.Columns[2].StringAt(0))
}

func TestJoinDoubleCollisionErrors(t *testing.T) {
	leftNames := []string{"v", "v_right"}
	leftCols := []*column.Column{
		column.NewInt64("v", []int64{1}, nil),
		column.NewInt64("v_right", []int64{2}, nil),
	}
	rightNames := []string{"v"}
	rightCols := []*column.Column{
		column.NewInt64("v", []int64{3}, nil),
	}
	res := &joinindex.Result{Left: []uint32{0}, Right: []uint32{0}}
	_, err := materialize.Join(leftNames, leftCols, rightNames, rightCols, res)
	assert.Error(t, err)
}

func TestZipOuterKeyCoalescesSides(t *testing.T) {
	left := column.NewInt64("id", []int64{1, 2}, nil)
	right := column.NewInt64("id", []int64{9}, nil)
	res := &joinindex.Result{
		Left:  []uint32{0, column.NullIndex},
		Right: []uint32{column.NullIndex, 0},
	}
	out := materialize.ZipOuterKey(left, right, res)
	assert.Equal(t, int64(1), out.Int64At(0))
	assert.Equal(t, int64(9), out.Int64At(1))
}
