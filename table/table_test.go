package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/table"
)

func TestNewPanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		table.New([]string{"a", "b"}, []*column.Column{
			column.NewInt64("a", []int64{1, 2}, nil),
			column.NewInt64("b", []int64{1}, nil),
		})
	})
}

func TestWithColumnAppendsNewOrReplacesExisting(t *testing.T) {
	tbl := table.New([]string{"a"}, []*column.Column{column.NewInt64("a", []int64{1, 2}, nil)})

	withB := tbl.WithColumn("b", column.NewInt64("b", []int64{3, 4}, nil))
	assert.Equal(t, 2, withB.NumCols())

	replaced := withB.WithColumn("a", column.NewInt64("a", []int64{9, 9}, nil))
	assert.Equal(t, 2, replaced.NumCols())
	aCol, err := replaced.ColumnByName("a")
	require.NoError(t, err)
	assert.Equal(t, int64(9), aCol.Int64At(0))
}

func TestGatherBuildsNewTableAtIndices(t *testing.T) {
	tbl := table.New([]string{"a"}, []*column.Column{column.NewInt64("a", []int64{10, 20, 30}, nil)})
	out := tbl.Gather([]uint32{2, 0, column.NullIndex})
	require.Equal(t, 3, out.NumRows())
	aCol, err := out.ColumnByName("a")
	require.NoError(t, err)
	assert.Equal(t, int64(30), aCol.Int64At(0))
	assert.Equal(t, int64(10), aCol.Int64At(1))
	assert.True(t, aCol.IsNull(2))
}

func TestColumnByNameAmbiguous(t *testing.T) {
	tbl := table.New([]string{"a", "a"}, []*column.Column{
		column.NewInt64("a", []int64{1}, nil),
		column.NewInt64("a", []int64{2}, nil),
	})
	_, err := tbl.ColumnByName("a")
	assert.Error(t, err)
}

func TestSchemaReflectsColumnTypes(t *testing.T) {
	tbl := table.New([]string{"id", "name"}, []*column.Column{
		column.NewInt64("id", []int64{1}, nil),
		column.NewString("name", []string{"x"}, nil),
	})
	sch := tbl.Schema()
	require.Len(t, sch.Fields, 2)
	assert.Equal(t, column.Int64, sch.Fields[0].Type)
	assert.Equal(t, column.String, sch.Fields[1].Type)
}
