package casa

import "fmt"

// ColumnKind classifies the cell-shape constraint a column places on
// its rows.
type ColumnKind int

const (
	// KindScalar columns hold one value per row.
	KindScalar ColumnKind = iota
	// KindFixed columns hold an array of the same shape in every row.
	KindFixed
	// KindVariable columns fix the number of dimensions but let each
	// row choose its own extent along them.
	KindVariable
	// KindUnconstrained columns accept any shape per row, including
	// scalars, and rows may differ in dimensionality.
	KindUnconstrained
)

func (k ColumnKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindFixed:
		return "fixed"
	case KindVariable:
		return "variable"
	case KindUnconstrained:
		return "unconstrained"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ColumnDesc describes a single column. NDim follows the CASA
// convention: 0 for scalar columns, a positive dimension count for
// array columns, and -1 when per-row cell shapes are unconstrained.
// Shape is only set for fixed-shape columns, in C (row-major) order.
type ColumnDesc struct {
	Name      string                 `json:"name"`
	Comment   string                 `json:"comment,omitempty"`
	ValueType ValueType              `json:"valueType"`
	NDim      int                    `json:"ndim,omitempty"`
	Shape     []int                  `json:"shape,omitempty"`
	Keywords  map[string]interface{} `json:"keywords,omitempty"`
	MaxLen    int                    `json:"maxlen,omitempty"`
	Option    int                    `json:"option,omitempty"`
}

// Kind returns the shape constraint class of the column.
func (c *ColumnDesc) Kind() ColumnKind {
	switch {
	case c.NDim < 0:
		return KindUnconstrained
	case c.NDim == 0:
		return KindScalar
	case len(c.Shape) > 0:
		return KindFixed
	default:
		return KindVariable
	}
}

// FixedCellSize returns the number of elements in a cell of a
// fixed-shape column.
func (c *ColumnDesc) FixedCellSize() int {
	n := 1
	for _, d := range c.Shape {
		n *= d
	}
	return n
}

// Validate checks the descriptor for internal consistency.
func (c *ColumnDesc) Validate() error {
	if c.Name == "" {
		return ErrValidation("column descriptor has no name")
	}
	if !c.ValueType.Valid() {
		return ErrValidation("column %s: unknown value type %q", c.Name, c.ValueType)
	}
	if c.NDim < -1 {
		return ErrValidation("column %s: ndim %d is invalid", c.Name, c.NDim)
	}
	if len(c.Shape) > 0 {
		if c.NDim <= 0 {
			return ErrValidation("column %s: shape given but ndim is %d", c.Name, c.NDim)
		}
		if len(c.Shape) != c.NDim {
			return ErrValidation("column %s: shape %v does not match ndim %d", c.Name, c.Shape, c.NDim)
		}
		for _, d := range c.Shape {
			if d <= 0 {
				return ErrValidation("column %s: shape %v has non-positive dimension", c.Name, c.Shape)
			}
		}
	}
	return nil
}

// TableDesc is an ordered set of column descriptors.
type TableDesc struct {
	Columns []ColumnDesc `json:"columns"`
}

// Validate checks every column descriptor and rejects duplicates.
func (d *TableDesc) Validate() error {
	if len(d.Columns) == 0 {
		return ErrValidation("table descriptor has no columns")
	}
	seen := make(map[string]struct{}, len(d.Columns))
	for i := range d.Columns {
		c := &d.Columns[i]
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return ErrValidation("duplicate column %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Column returns the descriptor for the named column.
func (d *TableDesc) Column(name string) (*ColumnDesc, error) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], nil
		}
	}
	return nil, ErrNotFound("column %s does not exist", name)
}

// HasColumn reports whether the named column exists.
func (d *TableDesc) HasColumn(name string) bool {
	_, err := d.Column(name)
	return err == nil
}
