package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyReadsDatasetBack(t *testing.T) {
	tbl := testTable(t, 9, 3)
	defer tbl.Release()
	dir := t.TempDir()

	err := Write(context.Background(), tbl, dir, WriteOptions{
		PartitionBy: []string{"FIELD_ID", "DATA_DESC_ID"},
	})
	require.NoError(t, err)

	report, err := Verify(context.Background(), dir, []string{"FIELD_ID", "DATA_DESC_ID"})
	require.NoError(t, err)

	assert.EqualValues(t, 9, report.Rows)
	require.Len(t, report.Partitions, 3)
	for i, pc := range report.Partitions {
		assert.Equal(t, []string{string(rune('0' + i)), "0"}, pc.Values)
		assert.EqualValues(t, 3, pc.Rows)
	}
}

func TestVerifyRequiresPartitionColumns(t *testing.T) {
	_, err := Verify(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no partition columns")
}
