package table_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/table"
)

func usersTable() *table.Table {
	return table.New(
		[]string{"id", "name"},
		[]*column.Column{
			column.NewInt64("id", []int64{1, 2, 3}, nil),
			column.NewString("name", []string{"alice", "bob", "carol"}, nil),
		},
	)
}

func ordersTable() *table.Table {
	return table.New(
		[]string{"user_id", "amount"},
		[]*column.Column{
			column.NewInt64("user_id", []int64{2, 3, 3, 99}, nil),
			column.NewInt64("amount", []int64{10, 20, 30, 40}, nil),
		},
	)
}

func TestInnerJoinIntegers(t *testing.T) {
	users := usersTable()
	orders := ordersTable()

	out, err := users.InnerJoin(orders, []string{"id"}, []string{"user_id"})
	require.NoError(t, err)

	assert.Equal(t, 3, out.NumRows())
	names := collectStrings(t, out, "name")
	sort.Strings(names)
	assert.Equal(t, []string{"bob", "carol", "carol"}, names)
}

func TestLeftJoinKeepsUnmatchedLeftRows(t *testing.T) {
	users := usersTable()
	orders := ordersTable()

	out, err := users.LeftJoin(orders, []string{"id"}, []string{"user_id"})
	require.NoError(t, err)

	// alice (id=1) has no orders and appears once with a null amount;
	// bob has one order; carol has two, so her row appears twice.
	assert.Equal(t, 4, out.NumRows())
	amountCol, err := out.ColumnByName("amount")
	require.NoError(t, err)
	nullRows := 0
	for i := 0; i < amountCol.Len(); i++ {
		if amountCol.IsNull(i) {
			nullRows++
		}
	}
	assert.Equal(t, 1, nullRows)
}

func TestOuterJoinKeepsBothSidesUnmatched(t *testing.T) {
	users := usersTable()
	orders := ordersTable()

	out, err := users.OuterJoin(orders, []string{"id"}, []string{"user_id"})
	require.NoError(t, err)

	// alice (id=1, unmatched) + bob+carol matches (3 rows) + order for
	// user_id=99 (unmatched on the right) = 5 rows.
	assert.Equal(t, 5, out.NumRows())

	idCol, err := out.ColumnByName("id")
	require.NoError(t, err)
	nullCount := 0
	for i := 0; i < idCol.Len(); i++ {
		if idCol.IsNull(i) {
			nullCount++
		}
	}
	assert.Equal(t, 0, nullCount, "outer-key zip should have filled every row's id from whichever side matched")
}

func TestJoinRenamesCollidingColumn(t *testing.T) {
	left := table.New([]string{"id", "value"}, []*column.Column{
		column.NewInt64("id", []int64{1, 2}, nil),
		column.NewString("value", []string{"a", "b"}, nil),
	})
	right := table.New([]string{"id", "value"}, []*column.Column{
		column.NewInt64("id", []int64{1, 2}, nil),
		column.NewString("value", []string{"x", "y"}, nil),
	})

	out, err := left.InnerJoin(right, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	_, err = out.ColumnByName("value")
	require.NoError(t, err)
	_, err = out.ColumnByName("value_right")
	require.NoError(t, err)
}

func TestLeftJoinCompositeKey(t *testing.T) {
	left := table.New([]string{"a", "b"}, []*column.Column{
		column.NewInt64("a", []int64{1, 2, 1, 1}, nil),
		column.NewString("b", []string{"a", "b", "c", "c"}, nil),
	})
	right := table.New([]string{"foo", "bar", "ham"}, []*column.Column{
		column.NewInt64("foo", []int64{1, 1, 1}, nil),
		column.NewString("bar", []string{"a", "c", "c"}, nil),
		column.NewString("ham", []string{"let", "var", "const"}, nil),
	})

	out, err := left.LeftJoin(right, []string{"a", "b"}, []string{"foo", "bar"})
	require.NoError(t, err)

	require.Equal(t, 6, out.NumRows())
	hamCol, err := out.ColumnByName("ham")
	require.NoError(t, err)
	got := make([]string, hamCol.Len())
	for i := range got {
		if hamCol.IsNull(i) {
			got[i] = "<null>"
			continue
		}
		got[i] = hamCol.StringAt(i)
	}
	assert.Equal(t, []string{"let", "<null>", "var", "const", "var", "const"}, got)
}

func TestJoinWithEmptyLeftSide(t *testing.T) {
	left := table.New([]string{"id"}, []*column.Column{column.NewInt64("id", nil, nil)})
	right := table.New([]string{"id", "val"}, []*column.Column{
		column.NewInt64("id", []int64{1}, nil),
		column.NewString("val", []string{"x"}, nil),
	})

	inner, err := left.InnerJoin(right, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, 0, inner.NumRows())

	leftJoined, err := left.LeftJoin(right, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, 0, leftJoined.NumRows())

	outer, err := left.OuterJoin(right, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	require.Equal(t, 1, outer.NumRows())
	valCol, err := outer.ColumnByName("val")
	require.NoError(t, err)
	assert.Equal(t, "x", valCol.StringAt(0))
}

func collectStrings(t *testing.T, tbl *table.Table, col string) []string {
	t.Helper()
	c, err := tbl.ColumnByName(col)
	require.NoError(t, err)
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.StringAt(i)
	}
	return out
}
