package column_test

import (
	"math"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paauw/polars/column"
)

func TestGatherPropagatesNulls(t *testing.T) {
	nulls := bitset.New(3)
	nulls.Set(1)
	c := column.NewInt64("a", []int64{10, 20, 30}, nulls)

	out := c.Gather([]uint32{2, column.NullIndex, 1, 0})

	require.Equal(t, 4, out.Len())
	assert.False(t, out.IsNull(0))
	assert.Equal(t, int64(30), out.Int64At(0))
	assert.True(t, out.IsNull(1))
	assert.True(t, out.IsNull(2))
	assert.False(t, out.IsNull(3))
	assert.Equal(t, int64(10), out.Int64At(3))
}

func TestGatherPreservesName(t *testing.T) {
	c := column.NewInt32("x", []int32{1, 2}, nil)
	out := c.Gather([]uint32{0, 0, 1})
	assert.Equal(t, "x", out.Name())
	assert.Equal(t, 3, out.Len())
}

func TestFloatBitPatternsDistinguishNaNPayloads(t *testing.T) {
	nan1 := math.Float64frombits(0x7ff8000000000001)
	nan2 := math.Float64frombits(0x7ff8000000000002)
	c := column.NewFloat64("f", []float64{nan1, nan2, 0, math.Copysign(0, -1)}, nil)

	// Gather is bit-preserving: no normalization of NaN payloads or
	// signed zero happens anywhere in this package.
	out := c.Gather([]uint32{0, 1, 2, 3})
	assert.Equal(t, math.Float64bits(nan1), math.Float64bits(out.Float64At(0)))
	assert.Equal(t, math.Float64bits(nan2), math.Float64bits(out.Float64At(1)))
	assert.NotEqual(t, math.Float64bits(out.Float64At(2)), math.Float64bits(out.Float64At(3)))
}

func TestWithNameIsShallowCopy(t *testing.T) {
	c := column.NewBool("b", []bool{true, false}, nil)
	renamed := c.WithName("b_right")
	assert.Equal(t, "b", c.Name())
	assert.Equal(t, "b_right", renamed.Name())
	assert.Equal(t, c.Len(), renamed.Len())
}

func TestCoalescePicksWhicheverSideIsPresent(t *testing.T) {
	a := column.NewInt64("k", []int64{1, 2, 3}, nil)
	b := column.NewInt64("k", []int64{40, 50, 60}, nil)

	aIdx := []uint32{0, column.NullIndex, 2}
	bIdx := []uint32{column.NullIndex, 1, column.NullIndex}

	out := column.Coalesce(a, b, aIdx, bIdx)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, int64(1), out.Int64At(0))
	assert.Equal(t, int64(50), out.Int64At(1))
	assert.Equal(t, int64(3), out.Int64At(2))
}

func TestCoalesceNullWhenBothAbsent(t *testing.T) {
	a := column.NewInt64("k", []int64{1}, nil)
	b := column.NewInt64("k", []int64{2}, nil)
	out := column.Coalesce(a, b, []uint32{column.NullIndex}, []uint32{column.NullIndex})
	assert.True(t, out.IsNull(0))
}
