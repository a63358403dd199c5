// Package convert maps casa tables onto Arrow columnar tables.
// Fixed-shape columns become nested fixed-size lists, variable-shape
// columns with a uniform dimension count become nested lists, scalars
// become primitive arrays, and complex elements are encoded as
// two-element float lists. Columns whose rows disagree on
// dimensionality cannot be expressed in Arrow and are rejected (or
// skipped, when asked to).
package convert

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"casarrow/internal/casa"
)

// Options controls a table conversion.
type Options struct {
	rows      []int
	skipBad   bool
	allocator memory.Allocator
}

// Option mutates conversion options.
type Option func(*Options)

// WithRows selects a subset of rows, in any order. Ids are sorted and
// deduplicated through range coalescing before reading.
func WithRows(rows ...int) Option {
	return func(o *Options) { o.rows = rows }
}

// SkipUnconvertible drops columns that cannot be represented in Arrow
// instead of failing the whole conversion.
func SkipUnconvertible() Option {
	return func(o *Options) { o.skipBad = true }
}

// WithAllocator sets the Arrow memory allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *Options) { o.allocator = mem }
}

// TableToArrow converts a casa table into an Arrow table.
func TableToArrow(t *casa.Table, opts ...Option) (arrow.Table, error) {
	o := Options{allocator: memory.NewGoAllocator()}
	for _, opt := range opts {
		opt(&o)
	}

	rows, err := resolveRows(t, o.rows)
	if err != nil {
		return nil, err
	}

	var (
		fields []arrow.Field
		cols   []arrow.Array
	)
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	desc := t.Desc()
	for i := range desc.Columns {
		col := &desc.Columns[i]
		arr, field, err := convertColumn(t, col, rows, o.allocator)
		if err != nil {
			var verr *casa.ValidationError
			if o.skipBad && errors.As(err, &verr) {
				continue
			}
			return nil, fmt.Errorf("convert column %s: %w", col.Name, err)
		}
		fields = append(fields, field)
		cols = append(cols, arr)
	}
	if len(fields) == 0 {
		return nil, casa.ErrValidation("no convertible columns in table")
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, cols, int64(len(rows)))
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}

// ColumnToArrow converts a single column, applying an optional row
// selection.
func ColumnToArrow(t *casa.Table, name string, opts ...Option) (arrow.Array, error) {
	o := Options{allocator: memory.NewGoAllocator()}
	for _, opt := range opts {
		opt(&o)
	}
	col, err := t.Desc().Column(name)
	if err != nil {
		return nil, err
	}
	rows, err := resolveRows(t, o.rows)
	if err != nil {
		return nil, err
	}
	arr, _, err := convertColumn(t, col, rows, o.allocator)
	return arr, err
}

func resolveRows(t *casa.Table, selection []int) ([]int, error) {
	if selection == nil {
		rows := make([]int, t.NRows())
		for i := range rows {
			rows[i] = i
		}
		return rows, nil
	}
	ranges, err := CoalesceRows(selection)
	if err != nil {
		return nil, err
	}
	rows := ExpandRanges(ranges)
	if len(rows) > 0 && rows[len(rows)-1] >= t.NRows() {
		return nil, casa.ErrValidation("row id %d out of range [0, %d)", rows[len(rows)-1], t.NRows())
	}
	return rows, nil
}

func convertColumn(t *casa.Table, col *casa.ColumnDesc, rows []int, mem memory.Allocator) (arrow.Array, arrow.Field, error) {
	var (
		dtype arrow.DataType
		err   error
	)

	switch col.Kind() {
	case casa.KindScalar:
		dtype, err = leafType(col.ValueType)
	case casa.KindFixed:
		dtype, err = fixedColumnType(col.ValueType, col.Shape)
	default:
		var shapes *columnShapes
		shapes, err = analyzeShapes(t, col, rows)
		if err != nil {
			return nil, arrow.Field{}, err
		}
		if shapes.isActuallyFixed() {
			// Variable in the descriptor, uniform in the data.
			dtype, err = fixedColumnType(col.ValueType, shapes.fixed)
		} else {
			dtype, err = variableColumnType(col.ValueType, shapes.ndim)
		}
	}
	if err != nil {
		return nil, arrow.Field{}, err
	}

	bldr := array.NewBuilder(mem, dtype)
	defer bldr.Release()

	for _, r := range rows {
		if !t.IsDefined(col.Name, r) {
			bldr.AppendNull()
			continue
		}
		cell, err := t.Cell(col.Name, r)
		if err != nil {
			return nil, arrow.Field{}, err
		}
		pos := 0
		if err := appendCell(bldr, col.ValueType, cell.Shape, cell.Flat(), &pos); err != nil {
			return nil, arrow.Field{}, fmt.Errorf("row %d: %w", r, err)
		}
	}

	field := arrow.Field{
		Name:     col.Name,
		Type:     dtype,
		Nullable: true,
		Metadata: fieldMetadata(col),
	}
	return bldr.NewArray(), field, nil
}

// appendCell writes one cell into the builder, recursing through the
// list nesting. pos tracks the flat element index across the
// recursion.
func appendCell(b array.Builder, vt casa.ValueType, shape []int, flat interface{}, pos *int) error {
	if len(shape) == 0 {
		return appendLeaf(b, vt, flat, pos)
	}
	switch lb := b.(type) {
	case *array.FixedSizeListBuilder:
		lb.Append(true)
		for i := 0; i < shape[0]; i++ {
			if err := appendCell(lb.ValueBuilder(), vt, shape[1:], flat, pos); err != nil {
				return err
			}
		}
	case *array.ListBuilder:
		lb.Append(true)
		for i := 0; i < shape[0]; i++ {
			if err := appendCell(lb.ValueBuilder(), vt, shape[1:], flat, pos); err != nil {
				return err
			}
		}
	default:
		return casa.ErrValidation("cell shape %v does not fit column type %s", shape, b.Type())
	}
	return nil
}

func appendLeaf(b array.Builder, vt casa.ValueType, flat interface{}, pos *int) error {
	i := *pos
	*pos++
	switch vt {
	case casa.Bool:
		b.(*array.BooleanBuilder).Append(flat.([]bool)[i])
	case casa.Int:
		b.(*array.Int32Builder).Append(flat.([]int32)[i])
	case casa.Float:
		b.(*array.Float32Builder).Append(flat.([]float32)[i])
	case casa.Double:
		b.(*array.Float64Builder).Append(flat.([]float64)[i])
	case casa.Complex:
		fsl := b.(*array.FixedSizeListBuilder)
		fsl.Append(true)
		vb := fsl.ValueBuilder().(*array.Float32Builder)
		v := flat.([]complex64)[i]
		vb.Append(real(v))
		vb.Append(imag(v))
	case casa.DComplex:
		fsl := b.(*array.FixedSizeListBuilder)
		fsl.Append(true)
		vb := fsl.ValueBuilder().(*array.Float64Builder)
		v := flat.([]complex128)[i]
		vb.Append(real(v))
		vb.Append(imag(v))
	case casa.String:
		b.(*array.StringBuilder).Append(flat.([]string)[i])
	default:
		return casa.ErrValidation("unknown value type %q", vt)
	}
	return nil
}

// fieldMetadata carries the column comment and keywords into the
// Arrow field so they survive the conversion.
func fieldMetadata(col *casa.ColumnDesc) arrow.Metadata {
	var keys, vals []string
	if col.Comment != "" {
		keys = append(keys, "comment")
		vals = append(vals, col.Comment)
	}
	if len(col.Keywords) > 0 {
		if raw, err := json.Marshal(col.Keywords); err == nil {
			keys = append(keys, "keywords")
			vals = append(vals, string(raw))
		}
	}
	if len(keys) == 0 {
		return arrow.Metadata{}
	}
	return arrow.NewMetadata(keys, vals)
}
