package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register the duckdb driver

	"casarrow/internal/casa"
)

// PartitionCount is the row count observed for one partition key.
type PartitionCount struct {
	// Values holds the partition column values in PartitionBy order.
	Values []string
	Rows   int64
}

// Report summarises a dataset as an independent reader sees it.
type Report struct {
	Rows       int64
	Partitions []PartitionCount
}

// Verify reads a hive-partitioned parquet dataset back through
// DuckDB, giving an independent check that the layout written by this
// package is readable by ordinary parquet tooling.
func Verify(ctx context.Context, root string, partitionBy []string) (*Report, error) {
	if len(partitionBy) == 0 {
		return nil, casa.ErrValidation("no partition columns given")
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck

	glob := filepath.ToSlash(filepath.Join(root, "**", "*.parquet"))
	source := fmt.Sprintf("read_parquet('%s', hive_partitioning=true)", escapeSQL(glob))

	report := &Report{}
	row := db.QueryRowContext(ctx, "SELECT count(*) FROM "+source)
	if err := row.Scan(&report.Rows); err != nil {
		return nil, fmt.Errorf("count dataset rows: %w", err)
	}

	cols := make([]string, len(partitionBy))
	for i, c := range partitionBy {
		cols[i] = quoteIdent(c)
	}
	colList := strings.Join(cols, ", ")
	q := fmt.Sprintf("SELECT %s, count(*) FROM %s GROUP BY %s ORDER BY %s",
		colList, source, colList, colList)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("group dataset partitions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		pc := PartitionCount{Values: make([]string, len(partitionBy))}
		dest := make([]interface{}, 0, len(partitionBy)+1)
		for i := range pc.Values {
			dest = append(dest, &pc.Values[i])
		}
		dest = append(dest, &pc.Rows)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan partition row: %w", err)
		}
		report.Partitions = append(report.Partitions, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partitions: %w", err)
	}
	return report, nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
