// Package dataset writes Arrow tables to disk as hive-partitioned
// parquet datasets and reads them back. Partition columns become
// KEY=value directory levels and are not duplicated inside the data
// files.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"casarrow/internal/casa"
	"casarrow/internal/convert"
)

// WriteOptions controls a partitioned dataset write.
type WriteOptions struct {
	// PartitionBy lists the partition columns, outermost first.
	PartitionBy []string
	// MaxRowsPerFile caps data rows per parquet file (0 = no cap).
	MaxRowsPerFile int64
	// MaxRowsPerGroup caps rows per parquet row group (0 = writer
	// default).
	MaxRowsPerGroup int64
	// Parallelism bounds concurrent partition writes (0 = serial).
	Parallelism int

	Logger    *slog.Logger
	Allocator memory.Allocator
}

func (o *WriteOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// partition accumulates the contiguous record slices that share one
// partition key.
type partition struct {
	dir    string // relative KEY=value/... path
	slices []arrow.Record
}

// Write writes tbl under dir as a hive-partitioned parquet dataset.
func Write(ctx context.Context, tbl arrow.Table, dir string, opts WriteOptions) error {
	if len(opts.PartitionBy) == 0 {
		return casa.ErrValidation("no partition columns given")
	}
	schema := tbl.Schema()
	partIdx := make([]int, 0, len(opts.PartitionBy))
	for _, name := range opts.PartitionBy {
		indices := schema.FieldIndices(name)
		if len(indices) == 0 {
			return casa.ErrNotFound("partition column %s does not exist", name)
		}
		partIdx = append(partIdx, indices[0])
	}

	dataSchema, dataIdx, err := projectSchema(schema, partIdx)
	if err != nil {
		return err
	}

	parts, err := splitPartitions(tbl, opts.PartitionBy, partIdx, dataSchema, dataIdx)
	if err != nil {
		return err
	}
	defer func() {
		for _, p := range parts {
			for _, s := range p.slices {
				s.Release()
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for _, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target := filepath.Join(dir, p.dir)
			opts.logger().Debug("writing partition", "dir", target, "slices", len(p.slices))
			return writePartition(p, target, dataSchema, &opts)
		})
	}
	return g.Wait()
}

// projectSchema drops the partition fields, returning the data-file
// schema and the retained column indices.
func projectSchema(schema *arrow.Schema, partIdx []int) (*arrow.Schema, []int, error) {
	drop := make(map[int]bool, len(partIdx))
	for _, i := range partIdx {
		drop[i] = true
	}
	var (
		fields []arrow.Field
		keep   []int
	)
	for i, f := range schema.Fields() {
		if drop[i] {
			continue
		}
		fields = append(fields, f)
		keep = append(keep, i)
	}
	if len(fields) == 0 {
		return nil, nil, casa.ErrValidation("partitioning would leave no data columns")
	}
	return arrow.NewSchema(fields, nil), keep, nil
}

// splitPartitions walks the table record by record, groups rows by
// partition key, and slices each contiguous run once per partition.
func splitPartitions(tbl arrow.Table, partNames []string, partIdx []int, dataSchema *arrow.Schema, dataIdx []int) ([]*partition, error) {
	parts := make(map[string]*partition)
	var order []string

	reader := array.NewTableReader(tbl, tbl.NumRows())
	defer reader.Release()

	for reader.Next() {
		rec := reader.Record()
		byKey := make(map[string][]int)
		for r := 0; r < int(rec.NumRows()); r++ {
			segs := make([]string, len(partIdx))
			for k, ci := range partIdx {
				v, err := formatPartitionValue(rec.Column(ci), r)
				if err != nil {
					return nil, fmt.Errorf("partition column %s: %w", partNames[k], err)
				}
				segs[k] = partNames[k] + "=" + v
			}
			key := filepath.Join(segs...)
			byKey[key] = append(byKey[key], r)
		}

		for key, rows := range byKey {
			p, ok := parts[key]
			if !ok {
				p = &partition{dir: key}
				parts[key] = p
				order = append(order, key)
			}
			ranges, err := convert.CoalesceRows(rows)
			if err != nil {
				return nil, err
			}
			for _, rng := range ranges {
				slice := rec.NewSlice(int64(rng.Start), int64(rng.End))
				proj, err := projectRecord(slice, dataSchema, dataIdx)
				slice.Release()
				if err != nil {
					return nil, err
				}
				p.slices = append(p.slices, proj)
			}
		}
	}

	out := make([]*partition, 0, len(order))
	for _, key := range order {
		out = append(out, parts[key])
	}
	return out, nil
}

// projectRecord retains only the data columns of a record slice.
func projectRecord(rec arrow.Record, schema *arrow.Schema, keep []int) (arrow.Record, error) {
	cols := make([]arrow.Array, len(keep))
	for i, ci := range keep {
		cols[i] = rec.Column(ci)
	}
	return array.NewRecord(schema, cols, rec.NumRows()), nil
}

// formatPartitionValue renders a partition key cell as its directory
// segment. Nulls are not valid partition keys.
func formatPartitionValue(col arrow.Array, row int) (string, error) {
	if col.IsNull(row) {
		return "", casa.ErrValidation("null value in row %d", row)
	}
	switch a := col.(type) {
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(row)), 10), nil
	case *array.Int64:
		return strconv.FormatInt(a.Value(row), 10), nil
	case *array.String:
		return a.Value(row), nil
	case *array.Boolean:
		return strconv.FormatBool(a.Value(row)), nil
	default:
		return "", casa.ErrValidation("unsupported partition key type %s", col.DataType())
	}
}

// writePartition streams a partition's slices into one or more
// parquet files, rolling to a new file when MaxRowsPerFile is hit.
func writePartition(p *partition, dir string, schema *arrow.Schema, opts *WriteOptions) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create partition dir: %w", err)
	}

	var props []parquet.WriterProperty
	if opts.MaxRowsPerGroup > 0 {
		props = append(props, parquet.WithMaxRowGroupLength(opts.MaxRowsPerGroup))
	}
	writerProps := parquet.NewWriterProperties(props...)
	arrowProps := pqarrow.DefaultWriterProps()

	var (
		fw       *pqarrow.FileWriter
		fileRows int64
		seq      int
	)
	closeFile := func() error {
		if fw == nil {
			return nil
		}
		err := fw.Close()
		fw = nil
		fileRows = 0
		return err
	}
	openFile := func() error {
		name := fmt.Sprintf("part-%d-%s.parquet", seq, uuid.New())
		seq++
		f, err := os.Create(filepath.Join(dir, name)) //nolint:gosec
		if err != nil {
			return fmt.Errorf("create parquet file: %w", err)
		}
		fw, err = pqarrow.NewFileWriter(schema, f, writerProps, arrowProps)
		if err != nil {
			f.Close() //nolint:errcheck
			return fmt.Errorf("open parquet writer: %w", err)
		}
		return nil
	}

	for _, slice := range p.slices {
		var off int64
		for off < slice.NumRows() {
			if fw == nil {
				if err := openFile(); err != nil {
					return err
				}
			}
			n := slice.NumRows() - off
			if opts.MaxRowsPerFile > 0 {
				if room := opts.MaxRowsPerFile - fileRows; n > room {
					n = room
				}
			}
			chunk := slice.NewSlice(off, off+n)
			err := fw.Write(chunk)
			chunk.Release()
			if err != nil {
				closeFile() //nolint:errcheck
				return fmt.Errorf("write parquet chunk: %w", err)
			}
			off += n
			fileRows += n
			if opts.MaxRowsPerFile > 0 && fileRows >= opts.MaxRowsPerFile {
				if err := closeFile(); err != nil {
					return fmt.Errorf("close parquet file: %w", err)
				}
			}
		}
	}
	if err := closeFile(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}
