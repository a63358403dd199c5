package casagen

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"casarrow/internal/casa"
	"casarrow/internal/convert"
	"casarrow/internal/dataset"
	"casarrow/internal/fixtures"
)

func newWriteDatasetCmd(app *appContext) *cobra.Command {
	var (
		partitionBy     []string
		maxRowsPerFile  int64
		maxRowsPerGroup int64
		parallelism     int
		skipBad         bool
	)

	cmd := &cobra.Command{
		Use:   "write-dataset <table-dir> <out-dir>",
		Short: "Convert a saved table to a hive-partitioned parquet dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := casa.OpenTable(args[0])
			if err != nil {
				return err
			}

			var opts []convert.Option
			if skipBad {
				opts = append(opts, convert.SkipUnconvertible())
			}
			tbl, err := convert.TableToArrow(t, opts...)
			if err != nil {
				return err
			}
			defer tbl.Release()

			err = dataset.Write(cmd.Context(), tbl, args[1], dataset.WriteOptions{
				PartitionBy:     partitionBy,
				MaxRowsPerFile:  maxRowsPerFile,
				MaxRowsPerGroup: maxRowsPerGroup,
				Parallelism:     parallelism,
				Logger:          app.logger,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), args[1])
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&partitionBy, "partition-by",
		[]string{fixtures.PartitionFieldID, fixtures.PartitionDataDescID},
		"Partition columns")
	cmd.Flags().Int64Var(&maxRowsPerFile, "max-rows-per-file", fixtures.MaxPartitionRows,
		"Maximum rows per parquet file")
	cmd.Flags().Int64Var(&maxRowsPerGroup, "max-rows-per-group", fixtures.MaxPartitionRows,
		"Maximum rows per parquet row group")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0,
		"Concurrent partition writers (0 = serial)")
	cmd.Flags().BoolVar(&skipBad, "skip-unconvertible", false,
		"Drop columns that cannot be converted instead of failing")

	return cmd
}

func newVerifyCmd(_ *appContext) *cobra.Command {
	var partitionBy []string

	cmd := &cobra.Command{
		Use:   "verify <dataset-dir>",
		Short: "Read a parquet dataset back through DuckDB and report row counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := dataset.Verify(cmd.Context(), args[0], partitionBy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "rows: %d\n", report.Rows)
			for _, p := range report.Partitions {
				pairs := make([]string, len(partitionBy))
				for i, col := range partitionBy {
					pairs[i] = fmt.Sprintf("%s=%s", col, p.Values[i])
				}
				_, _ = fmt.Fprintf(out, "%s: %d\n", strings.Join(pairs, "/"), p.Rows)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&partitionBy, "partition-by",
		[]string{fixtures.PartitionFieldID, fixtures.PartitionDataDescID},
		"Partition columns")

	return cmd
}
