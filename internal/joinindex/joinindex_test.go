package joinindex_test

import (
	"sort"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/internal/joinindex"
	"github.com/paauw/polars/internal/keyenc"
)

func keysOf(t *testing.T, values []int64) []keyenc.Key {
	t.Helper()
	col := column.NewInt64("k", values, nil)
	keys, err := keyenc.EncodeKeys([]*column.Column{col})
	require.NoError(t, err)
	return keys
}

type pair struct{ l, r uint32 }

func pairs(res *joinindex.Result) []pair {
	out := make([]pair, len(res.Left))
	for i := range res.Left {
		out[i] = pair{res.Left[i], res.Right[i]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].l != out[j].l {
			return out[i].l < out[j].l
		}
		return out[i].r < out[j].r
	})
	return out
}

func TestInnerJoinMatchesOnly(t *testing.T) {
	left := keysOf(t, []int64{1, 2, 3})
	right := keysOf(t, []int64{2, 3, 4})

	res, err := joinindex.BuildWithShards(left, right, joinindex.Inner, 2)
	require.NoError(t, err)

	got := pairs(res)
	want := []pair{{1, 0}, {2, 1}}
	assert.Equal(t, want, got)
}

func TestLeftJoinKeepsUnmatchedLeftRows(t *testing.T) {
	left := keysOf(t, []int64{1, 2, 3})
	right := keysOf(t, []int64{2})

	res, err := joinindex.BuildWithShards(left, right, joinindex.Left, 3)
	require.NoError(t, err)

	got := pairs(res)
	want := []pair{
		{0, column.NullIndex},
		{1, 0},
		{2, column.NullIndex},
	}
	assert.Equal(t, want, got)
}

func TestOuterJoinKeepsBothUnmatchedSides(t *testing.T) {
	left := keysOf(t, []int64{1, 2})
	right := keysOf(t, []int64{2, 3})

	res, err := joinindex.Build(left, right, joinindex.Outer)
	require.NoError(t, err)

	got := pairs(res)
	// row 1<->2 matched; left row 0 (value 1) and right row 1 (value 3)
	// are each unmatched on their own side.
	assert.Len(t, got, 3)
	matched := 0
	for _, p := range got {
		if p.l != column.NullIndex && p.r != column.NullIndex {
			matched++
		}
	}
	assert.Equal(t, 1, matched)
}

func TestNullKeysMatchEachOther(t *testing.T) {
	leftCol := column.NewInt64("k", []int64{0, 0}, allNullMask(2))
	rightCol := column.NewInt64("k", []int64{0}, allNullMask(1))

	leftKeys, err := keyenc.EncodeKeys([]*column.Column{leftCol})
	require.NoError(t, err)
	rightKeys, err := keyenc.EncodeKeys([]*column.Column{rightCol})
	require.NoError(t, err)

	res, err := joinindex.BuildWithShards(leftKeys, rightKeys, joinindex.Inner, 1)
	require.NoError(t, err)
	assert.Len(t, res.Left, 2) // both null left rows match the single null right row
}

func TestThreadCountInvariance(t *testing.T) {
	left := keysOf(t, []int64{1, 2, 3, 4, 5, 6, 7})
	right := keysOf(t, []int64{1, 3, 5, 7, 9})

	var want []pair
	for shards := 1; shards <= 7; shards++ {
		res, err := joinindex.BuildWithShards(left, right, joinindex.Inner, shards)
		require.NoError(t, err)
		got := pairs(res)
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "shards=%d produced a different result set", shards)
	}
}

func allNullMask(n int) *bitset.BitSet {
	b := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		b.Set(uint(i))
	}
	return b
}
