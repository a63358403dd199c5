package convert

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casarrow/internal/casa"
)

// caseTable builds a three row table with one column per shape class.
func caseTable(t *testing.T) *casa.Table {
	t.Helper()
	desc := casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "VARIABLE", Comment: "VARIABLE column", ValueType: casa.Int, NDim: 3},
		{Name: "FIXED", ValueType: casa.Int, NDim: 2, Shape: []int{2, 4}},
		{Name: "SCALAR", ValueType: casa.Int},
		{Name: "SCALAR_STRING", ValueType: casa.String},
		{Name: "VIS", ValueType: casa.Complex, NDim: 1, Shape: []int{2}},
	}}
	tbl, err := casa.NewTable(desc, 3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.PutCell("VARIABLE", i, casa.Full([]int{3, 1 + i, 2}, int32(i))))
		require.NoError(t, tbl.PutCell("FIXED", i, casa.Full([]int{2, 4}, int32(i))))
		require.NoError(t, tbl.PutCell("SCALAR", i, casa.Scalar(int32(i))))
		require.NoError(t, tbl.PutCell("SCALAR_STRING", i, casa.Scalar(string(rune('a'+i)))))
		require.NoError(t, tbl.PutCell("VIS", i, casa.Full([]int{2}, complex(float32(i), 1))))
	}
	return tbl
}

func chunk(t *testing.T, tbl arrow.Table, name string) arrow.Array {
	t.Helper()
	idx := tbl.Schema().FieldIndices(name)
	require.Len(t, idx, 1)
	col := tbl.Column(idx[0])
	require.Len(t, col.Data().Chunks(), 1)
	return col.Data().Chunks()[0]
}

func TestTableToArrowTypes(t *testing.T) {
	at, err := TableToArrow(caseTable(t))
	require.NoError(t, err)
	defer at.Release()

	schema := at.Schema()
	field := func(name string) arrow.Field {
		idx := schema.FieldIndices(name)
		require.Len(t, idx, 1)
		return schema.Field(idx[0])
	}

	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int32, field("SCALAR").Type))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, field("SCALAR_STRING").Type))
	assert.True(t, arrow.TypeEqual(
		arrow.FixedSizeListOf(2, arrow.FixedSizeListOf(4, arrow.PrimitiveTypes.Int32)),
		field("FIXED").Type))
	assert.True(t, arrow.TypeEqual(
		arrow.ListOf(arrow.ListOf(arrow.ListOf(arrow.PrimitiveTypes.Int32))),
		field("VARIABLE").Type))
	assert.True(t, arrow.TypeEqual(
		arrow.FixedSizeListOf(2, arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float32)),
		field("VIS").Type))

	comment, ok := field("VARIABLE").Metadata.GetValue("comment")
	require.True(t, ok)
	assert.Equal(t, "VARIABLE column", comment)
}

func TestTableToArrowValues(t *testing.T) {
	at, err := TableToArrow(caseTable(t))
	require.NoError(t, err)
	defer at.Release()
	assert.EqualValues(t, 3, at.NumRows())

	scalars := chunk(t, at, "SCALAR").(*array.Int32)
	assert.Equal(t, []int32{0, 1, 2}, scalars.Int32Values())

	strs := chunk(t, at, "SCALAR_STRING").(*array.String)
	assert.Equal(t, "a", strs.Value(0))
	assert.Equal(t, "c", strs.Value(2))

	// Row i of VARIABLE holds shape (3, 1+i, 2); the outer list has
	// three entries, the middle list grows with the row.
	variable := chunk(t, at, "VARIABLE").(*array.List)
	for row := 0; row < 3; row++ {
		start, end := variable.ValueOffsets(row)
		assert.EqualValues(t, 3, end-start)
	}
	middle := variable.ListValues().(*array.List)
	start, _ := variable.ValueOffsets(2)
	mStart, mEnd := middle.ValueOffsets(int(start))
	assert.EqualValues(t, 3, mEnd-mStart)

	inner := middle.ListValues().(*array.List)
	leaves := inner.ListValues().(*array.Int32)
	// 3*1*2 + 3*2*2 + 3*3*2 elements in total.
	assert.Equal(t, 2*(3+6+9), leaves.Len())

	fixed := chunk(t, at, "FIXED").(*array.FixedSizeList)
	leafVals := fixed.ListValues().(*array.FixedSizeList).ListValues().(*array.Int32)
	require.Equal(t, 24, leafVals.Len())
	assert.Equal(t, int32(0), leafVals.Value(0))
	assert.Equal(t, int32(2), leafVals.Value(23))

	vis := chunk(t, at, "VIS").(*array.FixedSizeList)
	pairVals := vis.ListValues().(*array.FixedSizeList).ListValues().(*array.Float32)
	// First complex element of row 2: re=2, im=1.
	assert.Equal(t, float32(2), pairVals.Value(8))
	assert.Equal(t, float32(1), pairVals.Value(9))
}

func TestActuallyFixedVariableColumn(t *testing.T) {
	desc := casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "DATA", ValueType: casa.Float, NDim: 2},
	}}
	tbl, err := casa.NewTable(desc, 2)
	require.NoError(t, err)
	require.NoError(t, tbl.PutCell("DATA", 0, casa.Full([]int{2, 3}, float32(0))))
	require.NoError(t, tbl.PutCell("DATA", 1, casa.Full([]int{2, 3}, float32(1))))

	at, err := TableToArrow(tbl)
	require.NoError(t, err)
	defer at.Release()

	assert.True(t, arrow.TypeEqual(
		arrow.FixedSizeListOf(2, arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Float32)),
		at.Schema().Field(0).Type))
}

func TestVaryingDimensionsRejected(t *testing.T) {
	desc := casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "GOOD", ValueType: casa.Int},
		{Name: "WILD", ValueType: casa.Int, NDim: -1},
	}}
	tbl, err := casa.NewTable(desc, 3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.PutCell("GOOD", i, casa.Scalar(int32(i))))
	}
	require.NoError(t, tbl.PutCell("WILD", 0, casa.Full([]int{2, 3, 4}, int32(0))))
	require.NoError(t, tbl.PutCell("WILD", 1, casa.Scalar(int32(1))))

	_, err = TableToArrow(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions vary per row")

	// Skipping drops the offending column but keeps the rest.
	at, err := TableToArrow(tbl, SkipUnconvertible())
	require.NoError(t, err)
	defer at.Release()
	assert.Equal(t, 1, at.Schema().NumFields())
	assert.Equal(t, "GOOD", at.Schema().Field(0).Name)
}

func TestNoConvertibleColumns(t *testing.T) {
	desc := casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "WILD", ValueType: casa.Int, NDim: -1},
	}}
	tbl, err := casa.NewTable(desc, 2)
	require.NoError(t, err)
	require.NoError(t, tbl.PutCell("WILD", 0, casa.Full([]int{2}, int32(0))))
	require.NoError(t, tbl.PutCell("WILD", 1, casa.Scalar(int32(1))))

	_, err = TableToArrow(tbl, SkipUnconvertible())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no convertible columns")
}

func TestUndefinedCellsBecomeNulls(t *testing.T) {
	desc := casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "SPARSE", ValueType: casa.Int, NDim: 2, Shape: []int{2, 2}},
	}}
	tbl, err := casa.NewTable(desc, 3)
	require.NoError(t, err)
	require.NoError(t, tbl.PutCell("SPARSE", 1, casa.Full([]int{2, 2}, int32(9))))

	at, err := TableToArrow(tbl)
	require.NoError(t, err)
	defer at.Release()

	col := chunk(t, at, "SPARSE")
	assert.Equal(t, 2, col.NullN())
	assert.True(t, col.IsNull(0))
	assert.False(t, col.IsNull(1))
	assert.True(t, col.IsNull(2))
}

func TestWithRowsSelection(t *testing.T) {
	tbl := caseTable(t)

	at, err := TableToArrow(tbl, WithRows(2, 0))
	require.NoError(t, err)
	defer at.Release()

	// Selections are coalesced into ascending order.
	assert.EqualValues(t, 2, at.NumRows())
	scalars := chunk(t, at, "SCALAR").(*array.Int32)
	assert.Equal(t, []int32{0, 2}, scalars.Int32Values())

	_, err = TableToArrow(tbl, WithRows(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestColumnToArrow(t *testing.T) {
	tbl := caseTable(t)

	arr, err := ColumnToArrow(tbl, "SCALAR", WithRows(1))
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, []int32{1}, arr.(*array.Int32).Int32Values())

	_, err = ColumnToArrow(tbl, "MISSING")
	var nf *casa.NotFoundError
	require.ErrorAs(t, err, &nf)
}
