package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/contractdiff/internal/cache"
	"github.com/nao1215/contractdiff/internal/config"
	"github.com/nao1215/contractdiff/internal/crawl"
	"github.com/nao1215/contractdiff/internal/explorer"
	"github.com/nao1215/contractdiff/internal/store"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the explorer and write diffs of similar contracts",
		Long: `Crawl lists every verified contract on the block explorer, asks the
explorer which contracts are similar to each one, and writes a unified diff
of every similar contract against its reference:

  diffs/<reference>/<reference>   reference source
  diffs/<reference>/<candidate>   diff of candidate against reference

Fetched sources and similarity lists are cached in a local SQLite database
so an interrupted crawl can be restarted cheaply.

Examples:
  # Crawl etherscan.io with the defaults
  contractdiff crawl

  # Process only the first 100 verified contracts, four at a time
  contractdiff crawl --end 100 --concurrency 4

  # Use a SOCKS5 proxy and an API key
  contractdiff crawl --proxy 127.0.0.1:9050 --api-key YOURKEY`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Explorer flags
	cmd.Flags().StringP("explorer", "e", config.DefaultExplorerURL,
		"Base URL of the block explorer")
	cmd.Flags().String("api-key", "", "Explorer API key (redacted from logs)")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("attempts", config.DefaultMaxAttempts,
		"Attempts per request, including the first one")
	cmd.Flags().Duration("backoff", config.DefaultBackoff,
		"Initial delay between retries (doubles on every attempt)")
	cmd.Flags().Duration("max-backoff", config.DefaultMaxBackoff,
		"Maximum delay between retries")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between requests to the explorer")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Crawl behavior flags
	cmd.Flags().StringP("diff-dir", "d", config.DefaultDiffDir,
		"Directory diffs are written under")
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency,
		"Number of reference contracts processed at once")
	cmd.Flags().Int("context", config.DefaultContextLines,
		"Lines of context around each diff hunk")
	cmd.Flags().Bool("only-verified", true,
		"Only diff candidates that are themselves verified contracts")
	cmd.Flags().Int("start", 0,
		"Index of the first verified contract to process (sorted order)")
	cmd.Flags().Int("end", 0,
		"Index after the last verified contract to process (0 means all)")

	// Cache flags
	cmd.Flags().Bool("no-cache", false, "Disable the local source cache")
	cmd.Flags().String("cache-dir", "",
		"Cache database directory (default: XDG cache directory)")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"How long cached sources stay fresh (0 keeps them forever)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateCrawl(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runCrawl(ctx, cmd, cfg, logger)
}

// buildCrawlConfig creates a Config from the crawl command flags and the
// optional configuration file.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ExplorerURL, err = flags.GetString("explorer"); err != nil {
		return nil, err
	}
	if cfg.APIKey, err = flags.GetString("api-key"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = flags.GetInt("attempts"); err != nil {
		return nil, err
	}
	if cfg.Backoff, err = flags.GetDuration("backoff"); err != nil {
		return nil, err
	}
	if cfg.MaxBackoff, err = flags.GetDuration("max-backoff"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.DiffDir, err = flags.GetString("diff-dir"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.ContextLines, err = flags.GetInt("context"); err != nil {
		return nil, err
	}
	if cfg.OnlyVerified, err = flags.GetBool("only-verified"); err != nil {
		return nil, err
	}
	if cfg.Start, err = flags.GetInt("start"); err != nil {
		return nil, err
	}
	if cfg.End, err = flags.GetInt("end"); err != nil {
		return nil, err
	}

	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	cfg.UseCache = !noCache

	cacheDir, err := flags.GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if cfg.CacheTTL, err = flags.GetDuration("cache-ttl"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSource builds the explorer client, wrapped in the local cache when
// enabled. The returned close function releases the cache.
func newSource(cfg *config.Config, logger *slog.Logger) (explorer.ContractSource, func(), error) {
	httpClient, err := explorer.NewHTTPClient(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	client, err := explorer.NewClient(cfg.ExplorerURL,
		explorer.WithHTTPClient(httpClient),
		explorer.WithAPIKey(cfg.APIKey),
		explorer.WithUserAgent(cfg.UserAgent),
		explorer.WithMaxBodySize(cfg.MaxBodySize),
		explorer.WithDelay(cfg.CrawlDelay),
		explorer.WithRetryPolicy(explorer.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
			MaxBackoff:  cfg.MaxBackoff,
		}),
		explorer.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explorer client: %w", err)
	}

	if !cfg.UseCache {
		return client, func() {}, nil
	}

	opts := cache.DefaultOptions()
	opts.TTL = cfg.CacheTTL
	db, err := cache.Open(cfg.CacheDir, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	logger.Info("cache opened", "path", db.Path())

	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}
	return explorer.NewCachedSource(client, db, logger), closeFn, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	source, closeSource, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	logger.Info("starting crawl",
		"explorer", cfg.ExplorerURL,
		"diffDir", cfg.DiffDir,
		"concurrency", cfg.Concurrency,
		"useCache", cfg.UseCache,
	)

	out := cmd.OutOrStdout()
	c := crawl.New(source, store.NewLayout(cfg.DiffDir),
		crawl.WithLogger(logger),
		crawl.WithContextLines(cfg.ContextLines),
		crawl.WithRange(cfg.Start, cfg.End),
		crawl.WithOnlyVerified(cfg.OnlyVerified),
		crawl.WithConcurrency(cfg.Concurrency),
		crawl.WithProgress(out),
	)

	startTime := time.Now()
	summary, err := c.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	fmt.Fprintf(out, "\nCrawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	fmt.Fprintf(out, "  references: %d\n", summary.References)
	fmt.Fprintf(out, "  candidates: %d\n", summary.Candidates)
	fmt.Fprintf(out, "  diffs:      %d\n", summary.DiffsWritten)
	fmt.Fprintf(out, "  identical:  %d\n", summary.Identical)
	fmt.Fprintf(out, "  skipped:    %d\n", summary.Skipped)
	return nil
}
