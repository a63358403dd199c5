package casa

import "fmt"

// Cell holds the value of one table cell. Array cells store their
// elements flattened in C (row-major) order with the original shape
// alongside; scalar cells have a nil shape and a single element.
type Cell struct {
	Shape []int
	Data  interface{}
}

// Scalar wraps a single value as a cell. Plain ints are narrowed to
// int32, matching the CASA "int" element type.
func Scalar(v interface{}) Cell {
	if i, ok := v.(int); ok {
		v = int32(i)
	}
	return Cell{Data: v}
}

// Array wraps a flat element slice and its C-order shape as a cell.
func Array(shape []int, flat interface{}) Cell {
	return Cell{Shape: append([]int(nil), shape...), Data: flat}
}

// Full builds an array cell of the given shape with every element set
// to v, the equivalent of numpy.full in the fixtures this package
// replaces. Plain ints are narrowed to int32.
func Full(shape []int, v interface{}) Cell {
	n := 1
	for _, d := range shape {
		n *= d
	}
	var flat interface{}
	switch val := v.(type) {
	case bool:
		s := make([]bool, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	case int:
		s := make([]int32, n)
		for i := range s {
			s[i] = int32(val)
		}
		flat = s
	case int32:
		s := make([]int32, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	case float32:
		s := make([]float32, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	case float64:
		s := make([]float64, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	case complex64:
		s := make([]complex64, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	case complex128:
		s := make([]complex128, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	case string:
		s := make([]string, n)
		for i := range s {
			s[i] = val
		}
		flat = s
	default:
		panic(fmt.Sprintf("casa.Full: unsupported element type %T", v))
	}
	return Array(shape, flat)
}

// IsScalar reports whether the cell holds a single unshaped value.
func (c *Cell) IsScalar() bool { return c.Shape == nil }

// NDim returns the cell's dimensionality (0 for scalars).
func (c *Cell) NDim() int { return len(c.Shape) }

// NumElements returns the number of elements the shape implies.
func (c *Cell) NumElements() int {
	n := 1
	for _, d := range c.Shape {
		n *= d
	}
	return n
}

// Flat returns the cell data as a flat slice, boxing bare scalar
// values into one-element slices so callers can iterate uniformly.
func (c *Cell) Flat() interface{} {
	switch d := c.Data.(type) {
	case bool:
		return []bool{d}
	case int32:
		return []int32{d}
	case float32:
		return []float32{d}
	case float64:
		return []float64{d}
	case complex64:
		return []complex64{d}
	case complex128:
		return []complex128{d}
	case string:
		return []string{d}
	default:
		return c.Data
	}
}

// elemCount returns the length of the flat data slice, or an error if
// the element type does not belong to vt.
func (c *Cell) elemCount(vt ValueType) (int, error) {
	switch d := c.Data.(type) {
	case bool:
		if vt == Bool {
			return 1, nil
		}
	case int32:
		if vt == Int {
			return 1, nil
		}
	case float32:
		if vt == Float {
			return 1, nil
		}
	case float64:
		if vt == Double {
			return 1, nil
		}
	case complex64:
		if vt == Complex {
			return 1, nil
		}
	case complex128:
		if vt == DComplex {
			return 1, nil
		}
	case string:
		if vt == String {
			return 1, nil
		}
	case []bool:
		if vt == Bool {
			return len(d), nil
		}
	case []int32:
		if vt == Int {
			return len(d), nil
		}
	case []float32:
		if vt == Float {
			return len(d), nil
		}
	case []float64:
		if vt == Double {
			return len(d), nil
		}
	case []complex64:
		if vt == Complex {
			return len(d), nil
		}
	case []complex128:
		if vt == DComplex {
			return len(d), nil
		}
	case []string:
		if vt == String {
			return len(d), nil
		}
	}
	return 0, fmt.Errorf("cell data %T does not match value type %q", c.Data, vt)
}

// validate checks the cell's data against the value type and shape.
func (c *Cell) validate(vt ValueType) error {
	n, err := c.elemCount(vt)
	if err != nil {
		return ErrValidation("%v", err)
	}
	if c.IsScalar() {
		if n != 1 {
			return ErrValidation("scalar cell holds %d elements", n)
		}
		return nil
	}
	for _, d := range c.Shape {
		if d <= 0 {
			return ErrValidation("cell shape %v has non-positive dimension", c.Shape)
		}
	}
	if want := c.NumElements(); n != want {
		return ErrValidation("cell shape %v implies %d elements, data has %d", c.Shape, want, n)
	}
	return nil
}
