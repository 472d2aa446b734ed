package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "contractdiff"

	// DefaultExplorerURL is the block explorer the crawler talks to.
	DefaultExplorerURL = "https://etherscan.io"

	// DefaultDiffDir is the directory diffs are written under, one
	// subdirectory per reference contract.
	DefaultDiffDir = "diffs"

	// DefaultSelectionFile is the append-only list of diffs the operator
	// marked as interesting.
	DefaultSelectionFile = "interesting_diffs.txt"

	// DefaultExportDir is where selected diffs are copied by the export command.
	DefaultExportDir = "int_diffs"

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAttempts matches the number of attempts the explorer client
	// makes before giving up on a page. Explorer TLS endpoints drop
	// connections now and then, and a handful of retries is usually enough.
	DefaultMaxAttempts = 5

	// DefaultBackoff is the initial retry delay. It doubles on every attempt.
	DefaultBackoff = 1 * time.Second

	// DefaultMaxBackoff caps the retry delay.
	DefaultMaxBackoff = 1 * time.Minute

	// DefaultCrawlDelay is the delay between requests to the explorer.
	// Explorers rate limit aggressively; 1 second keeps us under the
	// public page limits most of the time.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultConcurrency processes one reference contract at a time.
	DefaultConcurrency = 1

	// DefaultContextLines is the number of unchanged lines around each hunk.
	DefaultContextLines = 3

	// DefaultCacheTTL is how long fetched sources stay valid in the local cache.
	// Verified source code never changes, similar-contract lists rarely do.
	DefaultCacheTTL = 7 * 24 * time.Hour

	// DefaultUserAgent identifies contractdiff in HTTP requests.
	DefaultUserAgent = "contractdiff/1.0 (+https://github.com/nao1215/contractdiff)"

	// DefaultMaxBodySize limits the response body size to read.
	// Explorer pages with large flattened sources can reach a few MB.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds all configuration options for contractdiff.
// It is populated from CLI flags and the optional YAML config file and
// passed explicitly to the crawl, review and export stages.
type Config struct {
	// ExplorerURL is the base URL of the block explorer.
	ExplorerURL string

	// APIKey is an optional explorer API key appended to requests.
	// It is redacted from logs.
	APIKey string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxAttempts is the number of attempts per request, including the first one.
	MaxAttempts int

	// Backoff is the initial delay between retries.
	Backoff time.Duration

	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration

	// CrawlDelay is the delay between requests to the explorer.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// DiffDir is the root of the diffs/<reference>/<candidate> tree.
	DiffDir string

	// SelectionFile is the append-only list of interesting diff paths.
	SelectionFile string

	// ExportDir is where the export command copies selected diffs.
	ExportDir string

	// Start is the index of the first verified contract to process
	// in the sorted list.
	Start int

	// End is the index after the last verified contract to process.
	// 0 means up to the end of the list.
	End int

	// OnlyVerified restricts candidates to contracts that are themselves
	// in the verified list.
	OnlyVerified bool

	// Concurrency is the number of reference contracts processed at once.
	Concurrency int

	// ContextLines is the number of context lines in unified diffs.
	ContextLines int

	// UseCache enables the local SQLite source cache.
	UseCache bool

	// CacheDir is the directory holding the cache database.
	CacheDir string

	// CacheTTL is how long cached entries are considered fresh.
	CacheTTL time.Duration

	// MinSize is the inclusive lower bound of diff sizes shown during review.
	MinSize int64

	// MaxSize is the exclusive upper bound of diff sizes shown during review.
	// 0 means no upper bound.
	MaxSize int64

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the YAML configuration file.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ExplorerURL:   DefaultExplorerURL,
		Timeout:       DefaultTimeout,
		MaxAttempts:   DefaultMaxAttempts,
		Backoff:       DefaultBackoff,
		MaxBackoff:    DefaultMaxBackoff,
		CrawlDelay:    DefaultCrawlDelay,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		DiffDir:       DefaultDiffDir,
		SelectionFile: DefaultSelectionFile,
		ExportDir:     DefaultExportDir,
		OnlyVerified:  true,
		Concurrency:   DefaultConcurrency,
		ContextLines:  DefaultContextLines,
		UseCache:      true,
		CacheDir:      XDGCacheDir(),
		CacheTTL:      DefaultCacheTTL,
	}
}

// XDGCacheDir returns the XDG cache directory for contractdiff.
// On Linux: ~/.cache/contractdiff
// On macOS: ~/Library/Caches/contractdiff
// On Windows: %LOCALAPPDATA%\contractdiff\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for contractdiff.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ValidateCrawl checks the options used by the crawl command.
// It returns the first problem found.
func (c *Config) ValidateCrawl() error {
	if c.ExplorerURL == "" {
		return ErrNoExplorerURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.Backoff < 0 || c.MaxBackoff < 0 {
		return ErrInvalidBackoff
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.ContextLines < 0 {
		return ErrInvalidContextLines
	}
	if c.Start < 0 || c.End < 0 || (c.End > 0 && c.End <= c.Start) {
		return ErrInvalidRange
	}
	if c.DiffDir == "" {
		return ErrNoDiffDir
	}
	return nil
}

// ValidateReview checks the options used by the review command.
func (c *Config) ValidateReview() error {
	if c.DiffDir == "" {
		return ErrNoDiffDir
	}
	if c.SelectionFile == "" {
		return ErrNoSelectionFile
	}
	if c.MinSize < 0 || c.MaxSize < 0 || (c.MaxSize > 0 && c.MaxSize <= c.MinSize) {
		return ErrInvalidSizeWindow
	}
	return nil
}

// ValidateExport checks the options used by the export command.
func (c *Config) ValidateExport() error {
	if c.SelectionFile == "" {
		return ErrNoSelectionFile
	}
	if c.ExportDir == "" {
		return ErrNoExportDir
	}
	return nil
}
