package convert

import (
	"github.com/apache/arrow-go/v18/arrow"

	"casarrow/internal/casa"
)

// leafType maps a CASA value type to the Arrow type of a single
// element. Complex values have no native Arrow type and are encoded
// as fixed-size lists of two floats (real, imaginary).
func leafType(vt casa.ValueType) (arrow.DataType, error) {
	switch vt {
	case casa.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case casa.Int:
		return arrow.PrimitiveTypes.Int32, nil
	case casa.Float:
		return arrow.PrimitiveTypes.Float32, nil
	case casa.Double:
		return arrow.PrimitiveTypes.Float64, nil
	case casa.Complex:
		return arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float32), nil
	case casa.DComplex:
		return arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float64), nil
	case casa.String:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, casa.ErrValidation("no Arrow type for value type %q", vt)
	}
}

// fixedColumnType builds the nested FixedSizeList type for a
// fixed-shape column. The shape is C-ordered, so the first dimension
// becomes the outermost list.
func fixedColumnType(vt casa.ValueType, shape []int) (arrow.DataType, error) {
	dt, err := leafType(vt)
	if err != nil {
		return nil, err
	}
	for dim := len(shape) - 1; dim >= 0; dim-- {
		dt = arrow.FixedSizeListOf(int32(shape[dim]), dt)
	}
	return dt, nil
}

// variableColumnType builds the nested List type for a column whose
// rows share a dimension count but not extents.
func variableColumnType(vt casa.ValueType, ndim int) (arrow.DataType, error) {
	dt, err := leafType(vt)
	if err != nil {
		return nil, err
	}
	for i := 0; i < ndim; i++ {
		dt = arrow.ListOf(dt)
	}
	return dt, nil
}
