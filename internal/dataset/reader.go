package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Files returns the parquet files under root, sorted by path.
func Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk dataset %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// PartitionValues parses the KEY=value directory levels between root
// and a data file.
func PartitionValues(root, path string) (map[string]string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, fmt.Errorf("relativize %s: %w", path, err)
	}
	values := make(map[string]string)
	dir := filepath.Dir(rel)
	if dir == "." {
		return values, nil
	}
	for _, seg := range strings.Split(dir, string(os.PathSeparator)) {
		key, val, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, fmt.Errorf("directory %q is not a KEY=value partition level", seg)
		}
		values[key] = val
	}
	return values, nil
}

// ReadFile loads one parquet file as an Arrow table.
func ReadFile(ctx context.Context, path string, mem memory.Allocator) (arrow.Table, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(raw), nil, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("decode parquet %s: %w", path, err)
	}
	return tbl, nil
}
