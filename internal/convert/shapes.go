package convert

import (
	"casarrow/internal/casa"
)

// columnShapes holds the per-row shape analysis for a column whose
// descriptor does not pin the cell shape. Rows left undefined in the
// table carry a nil shape entry and convert to nulls.
type columnShapes struct {
	// rowShapes has one entry per selected row; nil marks an
	// undefined cell.
	rowShapes [][]int
	// ndim is the dimensionality shared by all defined cells.
	ndim int
	// fixed is the common shape when every defined cell agrees on
	// one, making the column fixed in practice.
	fixed []int
}

// isActuallyFixed reports whether the column has a uniform shape even
// though its descriptor allows variation.
func (s *columnShapes) isActuallyFixed() bool { return s.fixed != nil }

// analyzeShapes inspects the selected rows of a variable or
// unconstrained column. Defined cells must agree on dimensionality:
// Arrow list nesting is uniform per column, so a column whose rows
// differ in dimension count cannot be represented and is rejected.
func analyzeShapes(t *casa.Table, col *casa.ColumnDesc, rows []int) (*columnShapes, error) {
	shapes := &columnShapes{rowShapes: make([][]int, len(rows)), ndim: -1}
	fixed := true

	for i, r := range rows {
		if !t.IsDefined(col.Name, r) {
			continue
		}
		cell, err := t.Cell(col.Name, r)
		if err != nil {
			return nil, err
		}
		shape := cell.Shape
		if shape == nil {
			// A scalar write into an unconstrained column.
			shape = []int{}
		}
		if shapes.ndim < 0 {
			shapes.ndim = len(shape)
			shapes.fixed = shape
		} else {
			if len(shape) != shapes.ndim {
				return nil, casa.ErrValidation(
					"column %s dimensions vary per row: %d != %d",
					col.Name, len(shape), shapes.ndim)
			}
			if fixed && !sameShape(shape, shapes.fixed) {
				fixed = false
				shapes.fixed = nil
			}
		}
		shapes.rowShapes[i] = shape
	}

	// A column with no defined cells converts to all-null scalars.
	if shapes.ndim < 0 {
		shapes.ndim = 0
		shapes.fixed = []int{}
	}
	if !fixed {
		shapes.fixed = nil
	}
	return shapes, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
