package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/contractdiff/internal/cache"
	"github.com/nao1215/contractdiff/internal/config"
	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local source cache",
		Long: `The crawl command caches fetched contract sources and similar-contract
lists in a SQLite database under the XDG cache directory.

Examples:
  # Show how many entries are cached
  contractdiff cache stats

  # Remove every cached entry
  contractdiff cache clear`,
	}

	cmd.PersistentFlags().String("cache-dir", "",
		"Cache database directory (default: XDG cache directory)")
	cmd.PersistentFlags().Duration("cache-ttl", config.DefaultCacheTTL,
		"How long cached sources stay fresh")

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openCache(cmd)
			if err != nil {
				return err
			}
			if db == nil {
				return nil
			}
			defer db.Close()

			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache: %s\n", db.Path())
			fmt.Fprintf(out, "  sources: %d\n", stats.Sources)
			fmt.Fprintf(out, "  similar: %d\n", stats.Similar)
			fmt.Fprintf(out, "  expired: %d\n", stats.Expired)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openCache(cmd)
			if err != nil {
				return err
			}
			if db == nil {
				return nil
			}
			defer db.Close()

			if err := db.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache: %s\n", db.Path())
			return nil
		},
	}
}

// openCache opens the existing cache database. It returns a nil DB and
// prints a notice when no cache has been created yet.
func openCache(cmd *cobra.Command) (*cache.DB, error) {
	setupLogger(cmd)

	cfg := config.NewConfig()
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.CacheDir = dir
	}
	if cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl"); err != nil {
		return nil, err
	}
	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	path := filepath.Join(cfg.CacheDir, cache.FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.OutOrStdout(), "No cache database at %s\n", path)
		return nil, nil
	}

	opts := cache.DefaultOptions()
	opts.CreateIfNotExists = false
	opts.TTL = cfg.CacheTTL
	db, err := cache.Open(cfg.CacheDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return db, nil
}
