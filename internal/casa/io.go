package casa

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// tableFileName is the single file a saved table directory contains.
const tableFileName = "table.json"

type jsonCell struct {
	Shape []int         `json:"shape,omitempty"`
	Data  []interface{} `json:"data"`
}

type jsonTable struct {
	Desc  TableDesc              `json:"desc"`
	NRows int                    `json:"nrows"`
	Cells map[string][]*jsonCell `json:"cells"`
}

// Save writes the table to dir as a table directory. The directory is
// created if needed. Undefined cells are stored as nulls.
func (t *Table) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	jt := jsonTable{Desc: t.desc, NRows: t.nrows, Cells: make(map[string][]*jsonCell, len(t.desc.Columns))}
	for i := range t.desc.Columns {
		col := &t.desc.Columns[i]
		rows := make([]*jsonCell, t.nrows)
		for r, cell := range t.cells[col.Name] {
			if cell == nil {
				continue
			}
			jc, err := encodeCell(cell, col.ValueType)
			if err != nil {
				return fmt.Errorf("column %s row %d: %w", col.Name, r, err)
			}
			rows[r] = jc
		}
		jt.Cells[col.Name] = rows
	}

	raw, err := json.MarshalIndent(&jt, "", "  ")
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	path := filepath.Join(dir, tableFileName)
	if err := os.WriteFile(path, raw, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OpenTable loads a table previously written by Save.
func OpenTable(dir string) (*Table, error) {
	path := filepath.Join(dir, tableFileName)
	raw, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound("no table at %s", dir)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var jt jsonTable
	if err := json.Unmarshal(raw, &jt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	table, err := NewTable(jt.Desc, jt.NRows)
	if err != nil {
		return nil, err
	}
	for i := range jt.Desc.Columns {
		col := &jt.Desc.Columns[i]
		rows := jt.Cells[col.Name]
		if len(rows) != jt.NRows {
			return nil, ErrValidation("column %s has %d saved rows, table has %d", col.Name, len(rows), jt.NRows)
		}
		for r, jc := range rows {
			if jc == nil {
				continue
			}
			cell, err := decodeCell(jc, col.ValueType)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", col.Name, r, err)
			}
			if err := table.PutCell(col.Name, r, cell); err != nil {
				return nil, err
			}
		}
	}
	return table, nil
}

// encodeCell flattens a cell into JSON-safe values. Complex elements
// are stored as interleaved [re, im, re, im, ...] pairs.
func encodeCell(c *Cell, vt ValueType) (*jsonCell, error) {
	jc := &jsonCell{Shape: c.Shape}
	switch flat := c.Flat().(type) {
	case []bool:
		for _, v := range flat {
			jc.Data = append(jc.Data, v)
		}
	case []int32:
		for _, v := range flat {
			jc.Data = append(jc.Data, v)
		}
	case []float32:
		for _, v := range flat {
			jc.Data = append(jc.Data, v)
		}
	case []float64:
		for _, v := range flat {
			jc.Data = append(jc.Data, v)
		}
	case []complex64:
		for _, v := range flat {
			jc.Data = append(jc.Data, real(v), imag(v))
		}
	case []complex128:
		for _, v := range flat {
			jc.Data = append(jc.Data, real(v), imag(v))
		}
	case []string:
		for _, v := range flat {
			jc.Data = append(jc.Data, v)
		}
	default:
		return nil, fmt.Errorf("cannot encode cell data %T as %q", c.Data, vt)
	}
	return jc, nil
}

// decodeCell rebuilds a typed cell from JSON values.
func decodeCell(jc *jsonCell, vt ValueType) (Cell, error) {
	n := len(jc.Data)
	if vt == Complex || vt == DComplex {
		if n%2 != 0 {
			return Cell{}, fmt.Errorf("complex cell has odd element count %d", n)
		}
		n /= 2
	}

	if jc.Shape == nil && n != 1 {
		return Cell{}, fmt.Errorf("scalar cell has %d elements", n)
	}

	cell := Cell{Shape: jc.Shape}
	switch vt {
	case Bool:
		s := make([]bool, n)
		for i, v := range jc.Data {
			b, ok := v.(bool)
			if !ok {
				return Cell{}, fmt.Errorf("element %d: expected bool, got %T", i, v)
			}
			s[i] = b
		}
		cell.Data = s
	case Int:
		s := make([]int32, n)
		for i, v := range jc.Data {
			f, err := asFloat(v, i)
			if err != nil {
				return Cell{}, err
			}
			if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
				return Cell{}, ErrValidation("element %d: value %v does not fit int32", i, f)
			}
			s[i] = int32(f)
		}
		cell.Data = s
	case Float:
		s := make([]float32, n)
		for i, v := range jc.Data {
			f, err := asFloat(v, i)
			if err != nil {
				return Cell{}, err
			}
			s[i] = float32(f)
		}
		cell.Data = s
	case Double:
		s := make([]float64, n)
		for i, v := range jc.Data {
			f, err := asFloat(v, i)
			if err != nil {
				return Cell{}, err
			}
			s[i] = f
		}
		cell.Data = s
	case Complex:
		s := make([]complex64, n)
		for i := 0; i < n; i++ {
			re, err := asFloat(jc.Data[2*i], 2*i)
			if err != nil {
				return Cell{}, err
			}
			im, err := asFloat(jc.Data[2*i+1], 2*i+1)
			if err != nil {
				return Cell{}, err
			}
			s[i] = complex(float32(re), float32(im))
		}
		cell.Data = s
	case DComplex:
		s := make([]complex128, n)
		for i := 0; i < n; i++ {
			re, err := asFloat(jc.Data[2*i], 2*i)
			if err != nil {
				return Cell{}, err
			}
			im, err := asFloat(jc.Data[2*i+1], 2*i+1)
			if err != nil {
				return Cell{}, err
			}
			s[i] = complex(re, im)
		}
		cell.Data = s
	case String:
		s := make([]string, n)
		for i, v := range jc.Data {
			str, ok := v.(string)
			if !ok {
				return Cell{}, fmt.Errorf("element %d: expected string, got %T", i, v)
			}
			s[i] = str
		}
		cell.Data = s
	default:
		return Cell{}, fmt.Errorf("unknown value type %q", vt)
	}

	// Scalars round-trip as bare values rather than 1-element slices.
	if cell.Shape == nil {
		switch s := cell.Data.(type) {
		case []bool:
			cell.Data = s[0]
		case []int32:
			cell.Data = s[0]
		case []float32:
			cell.Data = s[0]
		case []float64:
			cell.Data = s[0]
		case []complex64:
			cell.Data = s[0]
		case []complex128:
			cell.Data = s[0]
		case []string:
			cell.Data = s[0]
		}
	}
	return cell, nil
}

func asFloat(v interface{}, idx int) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("element %d: expected number, got %T", idx, v)
	}
	return f, nil
}
