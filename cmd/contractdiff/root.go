package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for contractdiff.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contractdiff",
		Short: "Find near-duplicate smart contracts and review their diffs",
		Long: `contractdiff crawls a block explorer for verified contracts, groups the
contracts the explorer considers similar, and writes a line-based diff of
every similar contract against its reference under diffs/<reference>/.

The review command walks those diffs one by one and appends the ones
worth a closer look to interesting_diffs.txt. The export command copies
the selected diffs into a flat directory with a Markdown index.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .contractdiff in current or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReviewCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
