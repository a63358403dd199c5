package fixtures

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"casarrow/internal/casa"
	"casarrow/internal/convert"
	"casarrow/internal/groupsort"
)

// SortedRows returns the row numbers of t ordered by the grouping
// columns, then TIME, ANTENNA1 and ANTENNA2. The table must carry
// those three columns with their usual measurement set types.
func SortedRows(t *casa.Table, groupBy []string) ([]int64, error) {
	mem := memory.DefaultAllocator

	groups := make([]arrow.Array, len(groupBy))
	for i, name := range groupBy {
		a, err := convert.ColumnToArrow(t, name)
		if err != nil {
			return nil, err
		}
		defer a.Release()
		groups[i] = a
	}

	keys := make([]arrow.Array, 3)
	for i, name := range []string{"TIME", "ANTENNA1", "ANTENNA2"} {
		a, err := convert.ColumnToArrow(t, name)
		if err != nil {
			return nil, err
		}
		defer a.Release()
		keys[i] = a
	}

	rb := array.NewInt64Builder(mem)
	defer rb.Release()
	for i := 0; i < t.NRows(); i++ {
		rb.Append(int64(i))
	}
	rows := rb.NewArray()
	defer rows.Release()

	d, err := groupsort.Make(groups, keys[0], keys[1], keys[2], rows)
	if err != nil {
		return nil, err
	}
	sorted, err := d.Sort(mem)
	if err != nil {
		return nil, err
	}

	out := make([]int64, sorted.NRows())
	copy(out, sorted.Rows().Int64Values())
	return out, nil
}
