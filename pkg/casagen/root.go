// Package casagen implements the casagen command line tool.
package casagen

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"casarrow/internal/config"
	"casarrow/internal/fetch"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// appContext carries the resolved configuration and logger into the
// subcommands.
type appContext struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	app := &appContext{}
	var (
		cacheDir string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "casagen",
		Short: "Test data tooling for CASA table to Arrow conversion",
		Long: "casagen downloads reference measurement set archives, generates\n" +
			"synthetic CASA case tables and writes hive-partitioned parquet\n" +
			"datasets from them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			// flag > env > default
			if cmd.Flags().Changed("cache-dir") {
				cfg.CacheDir = cacheDir
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			app.cfg = cfg
			app.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Artifact cache directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newFetchCmd(app))
	rootCmd.AddCommand(newExtractCmd(app))
	rootCmd.AddCommand(newGenCmd(app))
	rootCmd.AddCommand(newWriteDatasetCmd(app))
	rootCmd.AddCommand(newVerifyCmd(app))
	rootCmd.AddCommand(newSortOrderCmd(app))

	return rootCmd
}

func (a *appContext) fetcher() *fetch.Fetcher {
	opts := []fetch.Option{fetch.WithLogger(a.logger)}
	if a.cfg.S3Region != "" {
		opts = append(opts, fetch.WithS3Region(a.cfg.S3Region))
	}
	if a.cfg.S3Endpoint != "" {
		opts = append(opts, fetch.WithS3Endpoint(a.cfg.S3Endpoint))
	}
	if a.cfg.S3KeyID != "" {
		opts = append(opts, fetch.WithS3Credentials(a.cfg.S3KeyID, a.cfg.S3Secret))
	}
	return fetch.New(opts...)
}
