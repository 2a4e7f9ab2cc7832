package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/shortlink/pkg/app"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "shortlink-cli",
	Short:         "Maintenance commands for the shortlink database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return logger.Initialize(logger.Config(cfg.Log))
	},
}

// openRepository connects to the configured database; the schema is applied on open.
func openRepository(ctx context.Context) (ports.Repository, error) {
	repo, err := app.OpenRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repo, nil
}

func main() {
	rootCmd.AddCommand(migrateCmd, createCmd, statsCmd, exportCmd, importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
