package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/contractdiff/internal/config"
	"github.com/nao1215/contractdiff/internal/review"
	"github.com/spf13/cobra"
)

// NewReviewCmd creates the review command.
func NewReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review diffs interactively and select the interesting ones",
		Long: `Review shows every diff written by the crawl command, one at a time,
and asks what to do with it:

  s, y   save the diff path to the selection file
  n      go to the next diff (also Enter)
  q      quit the session

Saved paths are appended to the selection file immediately, so an
interrupted session loses nothing.

Examples:
  # Review every diff
  contractdiff review

  # Review only diffs between 1KB and 10KB
  contractdiff review --min-size 1024 --max-size 10240`,
		Args: cobra.NoArgs,
		RunE: runReviewCmd,
	}

	cmd.Flags().StringP("diff-dir", "d", config.DefaultDiffDir,
		"Directory written by the crawl command")
	cmd.Flags().StringP("selection", "s", config.DefaultSelectionFile,
		"File the selected diff paths are appended to")
	cmd.Flags().Int64("min-size", 0,
		"Smallest diff size in bytes to show (inclusive)")
	cmd.Flags().Int64("max-size", 0,
		"Largest diff size in bytes to show (exclusive, 0 means no limit)")

	return cmd
}

// runReviewCmd executes the review command.
func runReviewCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildReviewConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateReview(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runReview(ctx, cmd, cfg, logger)
}

// buildReviewConfig creates a Config from the review command flags and the
// optional configuration file.
func buildReviewConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.DiffDir, err = flags.GetString("diff-dir"); err != nil {
		return nil, err
	}
	if cfg.SelectionFile, err = flags.GetString("selection"); err != nil {
		return nil, err
	}
	if cfg.MinSize, err = flags.GetInt64("min-size"); err != nil {
		return nil, err
	}
	if cfg.MaxSize, err = flags.GetInt64("max-size"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runReview executes the review session.
func runReview(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (err error) {
	out := cmd.OutOrStdout()
	selection := review.NewSelection(cfg.SelectionFile)
	defer func() {
		if closeErr := selection.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close selection file: %w", closeErr)
		}
	}()

	r := review.New(cfg.DiffDir,
		review.NewPromptDecider(cmd.InOrStdin(), out),
		selection,
		review.WithLogger(logger),
		review.WithFilter(review.Filter{MinSize: cfg.MinSize, MaxSize: cfg.MaxSize}),
		review.WithNotices(cmd.ErrOrStderr()),
	)

	res, err := r.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "\nReview interrupted")
	case err != nil:
		return fmt.Errorf("review failed: %w", err)
	}

	if res.Total == 0 {
		fmt.Fprintf(out, "No diffs found in %s\n", cfg.DiffDir)
		return nil
	}
	fmt.Fprintf(out, "\nReviewed %d of %d diffs, selected %d", res.Reviewed, res.Total, res.Selected)
	if res.Unreadable > 0 {
		fmt.Fprintf(out, ", skipped %d unreadable", res.Unreadable)
	}
	fmt.Fprintln(out)
	if res.Selected > 0 {
		fmt.Fprintf(out, "Selected diffs were appended to %s\n", selection.Path())
	}
	return nil
}
