package fixtures

import (
	"context"

	"casarrow/internal/casa"
	"casarrow/internal/convert"
	"casarrow/internal/dataset"
)

// Partitioning used by the dataset fixtures.
const (
	PartitionFieldID    = "FIELD_ID"
	PartitionDataDescID = "DATA_DESC_ID"
	MaxPartitionRows    = 25000
)

// SimulatedMS builds a small measurement-set-like table: scalar
// TIME, ANTENNA1, ANTENNA2, FIELD_ID and DATA_DESC_ID columns plus a
// fixed-shape complex DATA column. Field and data description ids
// cycle through nfield and nddid so every partition combination is
// populated.
func SimulatedMS(nrow, nfield, nddid int) (*casa.Table, error) {
	desc := casa.TableDesc{Columns: []casa.ColumnDesc{
		{Name: "TIME", Comment: "observation time", ValueType: casa.Double},
		{Name: "ANTENNA1", ValueType: casa.Int},
		{Name: "ANTENNA2", ValueType: casa.Int},
		{Name: PartitionFieldID, ValueType: casa.Int},
		{Name: PartitionDataDescID, ValueType: casa.Int},
		{Name: "DATA", Comment: "visibilities", ValueType: casa.Complex, NDim: 2, Shape: []int{2, 4}},
	}}

	t, err := casa.NewTable(desc, nrow)
	if err != nil {
		return nil, err
	}

	const nant = 4
	put := func(column string, row int, cell casa.Cell) {
		if err == nil {
			err = t.PutCell(column, row, cell)
		}
	}
	for i := 0; i < nrow; i++ {
		put("TIME", i, casa.Scalar(float64(i)))
		put("ANTENNA1", i, casa.Scalar(int32(i%nant)))
		put("ANTENNA2", i, casa.Scalar(int32((i/nant)%nant)))
		put(PartitionFieldID, i, casa.Scalar(int32(i%nfield)))
		put(PartitionDataDescID, i, casa.Scalar(int32(i%nddid)))
		put("DATA", i, casa.Full([]int{2, 4}, complex(float32(i), -float32(i))))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// WritePartitionedDataset converts t to arrow and writes it under
// dir as a parquet dataset hive-partitioned on FIELD_ID and
// DATA_DESC_ID, capping files and row groups at MaxPartitionRows.
func WritePartitionedDataset(ctx context.Context, t *casa.Table, dir string) error {
	tbl, err := convert.TableToArrow(t, convert.SkipUnconvertible())
	if err != nil {
		return err
	}
	defer tbl.Release()

	return dataset.Write(ctx, tbl, dir, dataset.WriteOptions{
		PartitionBy:     []string{PartitionFieldID, PartitionDataDescID},
		MaxRowsPerFile:  MaxPartitionRows,
		MaxRowsPerGroup: MaxPartitionRows,
	})
}
