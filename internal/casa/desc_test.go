package casa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnKind(t *testing.T) {
	tests := []struct {
		name string
		col  ColumnDesc
		want ColumnKind
	}{
		{"scalar", ColumnDesc{Name: "A", ValueType: Int}, KindScalar},
		{"fixed", ColumnDesc{Name: "A", ValueType: Int, NDim: 2, Shape: []int{2, 4}}, KindFixed},
		{"variable", ColumnDesc{Name: "A", ValueType: Int, NDim: 3}, KindVariable},
		{"unconstrained", ColumnDesc{Name: "A", ValueType: Int, NDim: -1}, KindUnconstrained},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.Kind())
		})
	}
}

func TestColumnDescValidate(t *testing.T) {
	tests := []struct {
		name    string
		col     ColumnDesc
		wantErr string
	}{
		{"ok scalar", ColumnDesc{Name: "A", ValueType: Int}, ""},
		{"ok fixed", ColumnDesc{Name: "A", ValueType: String, NDim: 2, Shape: []int{2, 4}}, ""},
		{"no name", ColumnDesc{ValueType: Int}, "name"},
		{"bad type", ColumnDesc{Name: "A", ValueType: "quaternion"}, "value type"},
		{"shape ndim mismatch", ColumnDesc{Name: "A", ValueType: Int, NDim: 3, Shape: []int{2, 4}}, "shape"},
		{"zero dimension", ColumnDesc{Name: "A", ValueType: Int, NDim: 2, Shape: []int{2, 0}}, "shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.col.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestTableDescDuplicateColumns(t *testing.T) {
	desc := TableDesc{Columns: []ColumnDesc{
		{Name: "A", ValueType: Int},
		{Name: "A", ValueType: String},
	}}
	err := desc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestTableDescColumnLookup(t *testing.T) {
	desc := TableDesc{Columns: []ColumnDesc{
		{Name: "A", ValueType: Int},
		{Name: "B", ValueType: Double},
	}}

	col, err := desc.Column("B")
	require.NoError(t, err)
	assert.Equal(t, Double, col.ValueType)

	_, err = desc.Column("MISSING")
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	assert.True(t, desc.HasColumn("A"))
	assert.False(t, desc.HasColumn("MISSING"))
}

func TestFixedCellSize(t *testing.T) {
	col := ColumnDesc{Name: "A", ValueType: Int, NDim: 2, Shape: []int{2, 4}}
	assert.Equal(t, 8, col.FixedCellSize())
}
