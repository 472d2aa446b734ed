package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/contractdiff/internal/config"
	"github.com/nao1215/contractdiff/internal/export"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy selected diffs into a flat directory with an index",
		Long: `Export copies every diff listed in the selection file into the export
directory and writes an INDEX.md table with the reference, candidate and
changed line counts of each diff.

A file name already present in the export directory gets an "_0" suffix.
Selected diffs that no longer exist are skipped with a warning.

Examples:
  # Export to int_diffs/
  contractdiff export

  # Export to another directory
  contractdiff export -o review-2024-06`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("selection", "s", config.DefaultSelectionFile,
		"Selection file written by the review command")
	cmd.Flags().StringP("export-dir", "o", config.DefaultExportDir,
		"Directory the selected diffs are copied to")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	if cfg.SelectionFile, err = cmd.Flags().GetString("selection"); err != nil {
		return err
	}
	if cfg.ExportDir, err = cmd.Flags().GetString("export-dir"); err != nil {
		return err
	}
	if err := applyConfigFile(cmd, cfg); err != nil {
		return err
	}

	if err := cfg.ValidateExport(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runExport(ctx, cmd, cfg, logger)
}

// runExport copies the selected diffs.
func runExport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	res, err := export.New(cfg.SelectionFile, cfg.ExportDir, export.WithLogger(logger)).Run(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %d diffs to %s\n", len(res.Entries), cfg.ExportDir)
	if len(res.Missing) > 0 {
		fmt.Fprintf(out, "Skipped %d missing diffs\n", len(res.Missing))
	}
	fmt.Fprintf(out, "Index: %s\n", res.IndexPath)
	return nil
}
