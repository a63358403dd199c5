package casagen

import (
	"fmt"

	"github.com/spf13/cobra"

	"casarrow/internal/archive"
)

func newExtractCmd(_ *appContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract a tar archive",
		Long: "Supported compressions: xz, gzip, zstd, bzip2 and plain tar,\n" +
			"selected by file extension.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := archive.ExtractTar(args[0], out); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", ".", "Directory to extract into")

	return cmd
}
