package fixtures

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"casarrow/internal/casa"
)

// TableSpec is a YAML description of a synthetic table, used by the
// casagen CLI to generate case tables beyond the built-in one.
type TableSpec struct {
	Name    string       `yaml:"name"`
	NRows   int          `yaml:"nrows"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec describes one column of a TableSpec.
//
// Shape fixes the column shape. CellShape sets the per-row cell shape
// for variable and unconstrained columns; a 0 entry expands to
// 1 + row index so cell shapes differ between rows.
type ColumnSpec struct {
	Name      string `yaml:"name"`
	Comment   string `yaml:"comment,omitempty"`
	ValueType string `yaml:"valueType"`
	NDim      int    `yaml:"ndim,omitempty"`
	Shape     []int  `yaml:"shape,omitempty"`
	CellShape []int  `yaml:"cellShape,omitempty"`
	Fill      string `yaml:"fill,omitempty"` // "rowindex" (default) or "none"
}

// LoadTableSpec reads a TableSpec from a YAML file.
func LoadTableSpec(path string) (*TableSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read table spec: %w", err)
	}
	var spec TableSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse table spec %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks the spec for problems the table descriptor cannot
// catch itself.
func (s *TableSpec) Validate() error {
	if s.NRows <= 0 {
		return casa.ErrValidation("table spec %q: nrows must be positive, got %d", s.Name, s.NRows)
	}
	if len(s.Columns) == 0 {
		return casa.ErrValidation("table spec %q: no columns", s.Name)
	}
	for i := range s.Columns {
		c := &s.Columns[i]
		switch c.Fill {
		case "", "none", "rowindex":
		default:
			return casa.ErrValidation("column %s: unknown fill %q", c.Name, c.Fill)
		}
		if c.fills() && c.Shape == nil && c.NDim != 0 && len(c.CellShape) == 0 {
			return casa.ErrValidation("column %s: variable columns need cellShape to be filled", c.Name)
		}
		if len(c.CellShape) > 0 && c.NDim > 0 && len(c.CellShape) != c.NDim {
			return casa.ErrValidation("column %s: cellShape has %d dimensions, ndim is %d",
				c.Name, len(c.CellShape), c.NDim)
		}
	}
	return nil
}

func (c *ColumnSpec) fills() bool { return c.Fill != "none" }

// Desc builds the table descriptor for the spec.
func (s *TableSpec) Desc() casa.TableDesc {
	cols := make([]casa.ColumnDesc, 0, len(s.Columns))
	for _, c := range s.Columns {
		cols = append(cols, casa.ColumnDesc{
			Name:      c.Name,
			Comment:   c.Comment,
			ValueType: casa.ValueType(c.ValueType),
			NDim:      c.NDim,
			Shape:     c.Shape,
		})
	}
	return casa.TableDesc{Columns: cols}
}

// Build generates the table described by the spec, filling every
// "rowindex" column with values derived from the row number.
func (s *TableSpec) Build() (*casa.Table, error) {
	t, err := casa.NewTable(s.Desc(), s.NRows)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Columns {
		if !c.fills() {
			continue
		}
		for row := 0; row < s.NRows; row++ {
			cell, err := c.cell(row)
			if err != nil {
				return nil, err
			}
			if err := t.PutCell(c.Name, row, cell); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (c *ColumnSpec) cell(row int) (casa.Cell, error) {
	v, err := fillValue(casa.ValueType(c.ValueType), row)
	if err != nil {
		return casa.Cell{}, err
	}
	switch {
	case c.Shape != nil:
		return casa.Full(c.Shape, v), nil
	case c.NDim == 0:
		return casa.Scalar(v), nil
	default:
		shape := make([]int, len(c.CellShape))
		for i, d := range c.CellShape {
			if d == 0 {
				d = 1 + row
			}
			shape[i] = d
		}
		return casa.Full(shape, v), nil
	}
}

func fillValue(vt casa.ValueType, row int) (interface{}, error) {
	switch vt {
	case casa.Bool:
		return row%2 == 1, nil
	case casa.Int:
		return int32(row), nil
	case casa.Float:
		return float32(row), nil
	case casa.Double:
		return float64(row), nil
	case casa.Complex:
		return complex(float32(row), -float32(row)), nil
	case casa.DComplex:
		return complex(float64(row), -float64(row)), nil
	case casa.String:
		return strconv.Itoa(row), nil
	}
	return nil, casa.ErrValidation("unknown value type %q", vt)
}
