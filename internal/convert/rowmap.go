package convert

import (
	"sort"

	"casarrow/internal/casa"
)

// RowRange is a contiguous run of row ids; End is exclusive.
type RowRange struct {
	Start int
	End   int
}

// NRows returns the number of rows the range covers.
func (r RowRange) NRows() int { return r.End - r.Start }

// CoalesceRows sorts a row-id selection and merges adjacent ids into
// contiguous ranges, so that readers can move data in runs instead of
// row at a time. Duplicate and negative ids are rejected.
func CoalesceRows(rows []int) ([]RowRange, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)

	if sorted[0] < 0 {
		return nil, casa.ErrValidation("row id %d is negative", sorted[0])
	}
	ranges := []RowRange{{Start: sorted[0], End: sorted[0] + 1}}
	for _, r := range sorted[1:] {
		last := &ranges[len(ranges)-1]
		switch {
		case r == last.End:
			last.End++
		case r < last.End:
			return nil, casa.ErrValidation("duplicate row id %d in selection", r)
		default:
			ranges = append(ranges, RowRange{Start: r, End: r + 1})
		}
	}
	return ranges, nil
}

// ExpandRanges flattens ranges back into the ordered row ids they
// cover.
func ExpandRanges(ranges []RowRange) []int {
	var rows []int
	for _, rng := range ranges {
		for r := rng.Start; r < rng.End; r++ {
			rows = append(rows, r)
		}
	}
	return rows
}
