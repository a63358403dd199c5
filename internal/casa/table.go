// Package casa implements a lightweight in-memory model of CASA
// measurement-set tables: column descriptors with fixed, variable, or
// unconstrained cell shapes, per-row cell storage, and a JSON-backed
// on-disk form. It exists to synthesize the table layouts the Arrow
// conversion code has to handle; it is not a casacore implementation.
package casa

import "fmt"

// Table is an in-memory CASA-style table: a descriptor plus per-row
// cells for each column. Cells start undefined and are written with
// PutCell; a cell may be overwritten, in which case the last write
// wins.
type Table struct {
	desc  TableDesc
	nrows int
	cells map[string][]*Cell
}

// NewTable creates a table with nrows undefined rows per column.
func NewTable(desc TableDesc, nrows int) (*Table, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if nrows < 0 {
		return nil, ErrValidation("row count %d is negative", nrows)
	}
	cells := make(map[string][]*Cell, len(desc.Columns))
	for i := range desc.Columns {
		cells[desc.Columns[i].Name] = make([]*Cell, nrows)
	}
	return &Table{desc: desc, nrows: nrows, cells: cells}, nil
}

// NRows returns the number of rows.
func (t *Table) NRows() int { return t.nrows }

// Desc returns the table descriptor.
func (t *Table) Desc() *TableDesc { return &t.desc }

// PutCell writes a cell value, validating it against the column's
// shape constraint.
func (t *Table) PutCell(column string, row int, cell Cell) error {
	desc, err := t.desc.Column(column)
	if err != nil {
		return err
	}
	if row < 0 || row >= t.nrows {
		return ErrValidation("row %d out of range [0, %d)", row, t.nrows)
	}
	if err := cell.validate(desc.ValueType); err != nil {
		return fmt.Errorf("column %s row %d: %w", column, row, err)
	}

	switch desc.Kind() {
	case KindScalar:
		if !cell.IsScalar() {
			return ErrValidation("column %s is scalar, got shape %v", column, cell.Shape)
		}
	case KindFixed:
		if !shapeEqual(cell.Shape, desc.Shape) {
			return ErrValidation("column %s requires shape %v, got %v", column, desc.Shape, cell.Shape)
		}
	case KindVariable:
		if cell.NDim() != desc.NDim {
			return ErrValidation("column %s requires %d dimensions, got shape %v", column, desc.NDim, cell.Shape)
		}
	case KindUnconstrained:
		// Any shape, including scalars.
	}

	t.cells[column][row] = &cell
	return nil
}

// Cell reads a cell value. Reading an undefined cell returns an
// UndefinedCellError.
func (t *Table) Cell(column string, row int) (Cell, error) {
	cells, ok := t.cells[column]
	if !ok {
		return Cell{}, ErrNotFound("column %s does not exist", column)
	}
	if row < 0 || row >= t.nrows {
		return Cell{}, ErrValidation("row %d out of range [0, %d)", row, t.nrows)
	}
	if cells[row] == nil {
		return Cell{}, &UndefinedCellError{Column: column, Row: row}
	}
	return *cells[row], nil
}

// IsDefined reports whether the cell has been written.
func (t *Table) IsDefined(column string, row int) bool {
	cells, ok := t.cells[column]
	return ok && row >= 0 && row < t.nrows && cells[row] != nil
}

func shapeEqual(a, b []int) bool {
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
