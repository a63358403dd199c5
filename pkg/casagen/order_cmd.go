package casagen

import (
	"fmt"

	"github.com/spf13/cobra"

	"casarrow/internal/casa"
	"casarrow/internal/fixtures"
)

func newSortOrderCmd(_ *appContext) *cobra.Command {
	var groupBy []string

	cmd := &cobra.Command{
		Use:   "sort-order <table-dir>",
		Short: "Print the row order of a table sorted by its group keys",
		Long: "Rows are ordered by the grouping columns, then TIME, ANTENNA1\n" +
			"and ANTENNA2, one original row number per line.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := casa.OpenTable(args[0])
			if err != nil {
				return err
			}
			rows, err := fixtures.SortedRows(t, groupBy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				_, _ = fmt.Fprintln(out, r)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&groupBy, "group-by",
		[]string{fixtures.PartitionFieldID, fixtures.PartitionDataDescID},
		"Grouping columns")

	return cmd
}
