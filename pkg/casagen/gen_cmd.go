package casagen

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"casarrow/internal/fixtures"
)

func newGenCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate synthetic tables",
	}
	cmd.AddCommand(newGenCasesCmd(app))
	cmd.AddCommand(newGenTableCmd(app))
	cmd.AddCommand(newGenMSCmd(app))
	return cmd
}

func newGenCasesCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cases <dir>",
		Short: "Generate the built-in column cases table",
		Long: "Writes a three row table with variable, fixed, scalar and\n" +
			"unconstrained columns under <dir>/test.table.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableDir, err := fixtures.WriteColumnCases(args[0])
			if err != nil {
				return err
			}
			app.logger.Info("generated column cases table", "path", tableDir)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tableDir)
			return nil
		},
	}
}

func newGenTableCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "table <spec.yaml> <dir>",
		Short: "Generate a table from a YAML spec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := fixtures.LoadTableSpec(args[0])
			if err != nil {
				return err
			}
			t, err := spec.Build()
			if err != nil {
				return err
			}
			name := spec.Name
			if name == "" {
				name = "generated"
			}
			tableDir := filepath.Join(args[1], name+".table")
			if err := t.Save(tableDir); err != nil {
				return err
			}
			app.logger.Info("generated table", "name", name, "rows", t.NRows(), "path", tableDir)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tableDir)
			return nil
		},
	}
}

func newGenMSCmd(app *appContext) *cobra.Command {
	var (
		rows   int
		fields int
		ddids  int
	)

	cmd := &cobra.Command{
		Use:   "ms <dir>",
		Short: "Generate a simulated measurement set table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := fixtures.SimulatedMS(rows, fields, ddids)
			if err != nil {
				return err
			}
			tableDir := filepath.Join(args[0], "simulated.table")
			if err := t.Save(tableDir); err != nil {
				return err
			}
			app.logger.Info("generated simulated ms", "rows", rows, "path", tableDir)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tableDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 100, "Number of rows")
	cmd.Flags().IntVar(&fields, "fields", 2, "Number of distinct FIELD_ID values")
	cmd.Flags().IntVar(&ddids, "ddids", 2, "Number of distinct DATA_DESC_ID values")

	return cmd
}
