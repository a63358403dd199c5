package fixtures

import (
	"path/filepath"
	"strconv"

	"casarrow/internal/casa"
)

// ColumnCasesRows is the row count of the column cases table.
const ColumnCasesRows = 3

// ColumnCasesDesc describes a table with one column per shape class,
// for both a numeric and a string element type.
func ColumnCasesDesc() casa.TableDesc {
	return casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "VARIABLE", Comment: "VARIABLE column", ValueType: casa.Int, NDim: 3},
		{Name: "VARIABLE_STRING", Comment: "VARIABLE_STRING column", ValueType: casa.String, NDim: 3},
		{Name: "FIXED", Comment: "FIXED column", ValueType: casa.Int, NDim: 2, Shape: []int{2, 4}},
		{Name: "FIXED_STRING", Comment: "FIXED_STRING column", ValueType: casa.String, NDim: 2, Shape: []int{2, 4}},
		{Name: "SCALAR", Comment: "SCALAR column", ValueType: casa.Int},
		{Name: "SCALAR_STRING", Comment: "SCALAR_STRING column", ValueType: casa.String},
		{Name: "UNCONSTRAINED", Comment: "UNCONSTRAINED column", ValueType: casa.Int, NDim: -1},
	}}
}

// GenerateColumnCases builds the column cases table.
//
// Rows 0..2 of the VARIABLE, FIXED and SCALAR columns (and their
// string twins) are filled with the row index; the VARIABLE cells
// grow along their middle dimension so no two rows share a shape.
// The UNCONSTRAINED column holds a 3-d array in row 0, a scalar in
// row 1 (written as an array first, then overwritten) and leaves
// row 2 undefined.
func GenerateColumnCases() (*casa.Table, error) {
	t, err := casa.NewTable(ColumnCasesDesc(), ColumnCasesRows)
	if err != nil {
		return nil, err
	}

	put := func(column string, row int, cell casa.Cell) {
		if err == nil {
			err = t.PutCell(column, row, cell)
		}
	}

	for i := 0; i < ColumnCasesRows; i++ {
		put("VARIABLE", i, casa.Full([]int{3, 1 + i, 2}, int32(i)))
		put("FIXED", i, casa.Full([]int{2, 4}, int32(i)))
		put("SCALAR", i, casa.Scalar(int32(i)))

		s := strconv.Itoa(i)
		put("VARIABLE_STRING", i, casa.Full([]int{3, 1 + i, 2}, s))
		put("FIXED_STRING", i, casa.Full([]int{2, 4}, s))
		put("SCALAR_STRING", i, casa.Scalar(s))
	}

	put("UNCONSTRAINED", 0, casa.Full([]int{2, 3, 4}, int32(0)))
	put("UNCONSTRAINED", 1, casa.Full([]int{4, 3}, int32(1)))
	put("UNCONSTRAINED", 1, casa.Scalar(int32(1)))

	if err != nil {
		return nil, err
	}
	return t, nil
}

// WriteColumnCases generates the column cases table and saves it
// under dir as "test.table", returning the table directory.
func WriteColumnCases(dir string) (string, error) {
	t, err := GenerateColumnCases()
	if err != nil {
		return "", err
	}
	tableDir := filepath.Join(dir, "test.table")
	if err := t.Save(tableDir); err != nil {
		return "", err
	}
	return tableDir, nil
}
