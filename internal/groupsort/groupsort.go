// Package groupsort orders measurement-set rows for partitioned
// writes. Rows are keyed by a list of int32 grouping columns followed
// by time, antenna1, and antenna2, with the original row number
// carried along so readers can recover the disk order.
package groupsort

import (
	"container/heap"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"casarrow/internal/casa"
)

// Data bundles the sort-key columns of one table fragment.
type Data struct {
	groups []*array.Int32
	time   *array.Float64
	ant1   *array.Int32
	ant2   *array.Int32
	rows   *array.Int64
}

// Make validates the key columns and bundles them. All arrays must be
// non-null, equal length, and of the exact expected types: int32 for
// group keys and antennas, float64 for time, int64 for row numbers.
func Make(groups []arrow.Array, time, ant1, ant2, rows arrow.Array) (*Data, error) {
	if time == nil || ant1 == nil || ant2 == nil || rows == nil {
		return nil, casa.ErrValidation("group sort array is nil")
	}
	n := time.Len()
	if ant1.Len() != n || ant2.Len() != n || rows.Len() != n {
		return nil, casa.ErrValidation("group sort length mismatch")
	}

	timeArr, ok := time.(*array.Float64)
	if !ok {
		return nil, casa.ErrValidation("time column was not float64")
	}
	ant1Arr, ok := ant1.(*array.Int32)
	if !ok {
		return nil, casa.ErrValidation("ant1 column was not int32")
	}
	ant2Arr, ok := ant2.(*array.Int32)
	if !ok {
		return nil, casa.ErrValidation("ant2 column was not int32")
	}
	rowsArr, ok := rows.(*array.Int64)
	if !ok {
		return nil, casa.ErrValidation("row column was not int64")
	}
	for _, a := range []arrow.Array{time, ant1, ant2, rows} {
		if a.NullN() > 0 {
			return nil, casa.ErrValidation("group sort data has nulls")
		}
	}

	groupArrs := make([]*array.Int32, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			return nil, casa.ErrValidation("group sort array is nil")
		}
		if g.Len() != n {
			return nil, casa.ErrValidation("group sort length mismatch")
		}
		gi, ok := g.(*array.Int32)
		if !ok {
			return nil, casa.ErrValidation("grouping column was not int32")
		}
		if gi.NullN() > 0 {
			return nil, casa.ErrValidation("group sort data has nulls")
		}
		groupArrs = append(groupArrs, gi)
	}

	return &Data{groups: groupArrs, time: timeArr, ant1: ant1Arr, ant2: ant2Arr, rows: rowsArr}, nil
}

// NRows returns the number of rows.
func (d *Data) NRows() int { return d.time.Len() }

// NGroups returns the number of grouping columns.
func (d *Data) NGroups() int { return len(d.groups) }

// Group returns the g-th grouping column.
func (d *Data) Group(g int) *array.Int32 { return d.groups[g] }

// Time returns the time column.
func (d *Data) Time() *array.Float64 { return d.time }

// Ant1 returns the first antenna column.
func (d *Data) Ant1() *array.Int32 { return d.ant1 }

// Ant2 returns the second antenna column.
func (d *Data) Ant2() *array.Int32 { return d.ant2 }

// Rows returns the original row number column.
func (d *Data) Rows() *array.Int64 { return d.rows }

// less orders row l of d before row r of o by (groups..., time, ant1,
// ant2).
func (d *Data) less(l int, o *Data, r int) bool {
	for g := range d.groups {
		lv, rv := d.groups[g].Value(l), o.groups[g].Value(r)
		if lv != rv {
			return lv < rv
		}
	}
	if d.time.Value(l) != o.time.Value(r) {
		return d.time.Value(l) < o.time.Value(r)
	}
	if d.ant1.Value(l) != o.ant1.Value(r) {
		return d.ant1.Value(l) < o.ant1.Value(r)
	}
	return d.ant2.Value(l) < o.ant2.Value(r)
}

// Sort returns a copy of d with rows ordered by the sort key.
func (d *Data) Sort(mem memory.Allocator) (*Data, error) {
	n := d.NRows()
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	sort.SliceStable(index, func(a, b int) bool {
		return d.less(index[a], d, index[b])
	})

	out := newOutput(mem, d.NGroups())
	defer out.release()
	for _, i := range index {
		out.copyRow(d, i)
	}
	return out.finish()
}

// mergeItem tracks the cursor into one sorted fragment.
type mergeItem struct {
	data *Data
	row  int
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	return h[i].data.less(h[i].row, h[j].data, h[j].row)
}
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merge performs a k-way merge of sorted fragments. Fragments must
// agree on the number of grouping columns.
func Merge(mem memory.Allocator, parts ...*Data) (*Data, error) {
	if len(parts) == 0 {
		return nil, casa.ErrValidation("no group sort data to merge")
	}
	ngroups := parts[0].NGroups()
	for _, p := range parts[1:] {
		if p.NGroups() != ngroups {
			return nil, casa.ErrValidation("group count mismatch: %d != %d", p.NGroups(), ngroups)
		}
	}

	h := make(mergeHeap, 0, len(parts))
	for _, p := range parts {
		if p.NRows() > 0 {
			h = append(h, mergeItem{data: p, row: 0})
		}
	}
	heap.Init(&h)

	out := newOutput(mem, ngroups)
	defer out.release()
	for h.Len() > 0 {
		top := h[0]
		out.copyRow(top.data, top.row)
		if top.row+1 < top.data.NRows() {
			h[0].row++
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	return out.finish()
}

// output accumulates merged rows in builders.
type output struct {
	groups []*array.Int32Builder
	time   *array.Float64Builder
	ant1   *array.Int32Builder
	ant2   *array.Int32Builder
	rows   *array.Int64Builder
}

func newOutput(mem memory.Allocator, ngroups int) *output {
	out := &output{
		time: array.NewFloat64Builder(mem),
		ant1: array.NewInt32Builder(mem),
		ant2: array.NewInt32Builder(mem),
		rows: array.NewInt64Builder(mem),
	}
	for i := 0; i < ngroups; i++ {
		out.groups = append(out.groups, array.NewInt32Builder(mem))
	}
	return out
}

func (o *output) copyRow(d *Data, r int) {
	for g, b := range o.groups {
		b.Append(d.groups[g].Value(r))
	}
	o.time.Append(d.time.Value(r))
	o.ant1.Append(d.ant1.Value(r))
	o.ant2.Append(d.ant2.Value(r))
	o.rows.Append(d.rows.Value(r))
}

func (o *output) finish() (*Data, error) {
	groups := make([]arrow.Array, len(o.groups))
	for i, b := range o.groups {
		groups[i] = b.NewArray()
	}
	return Make(groups, o.time.NewArray(), o.ant1.NewArray(), o.ant2.NewArray(), o.rows.NewArray())
}

func (o *output) release() {
	for _, b := range o.groups {
		b.Release()
	}
	o.time.Release()
	o.ant1.Release()
	o.ant2.Release()
	o.rows.Release()
}
