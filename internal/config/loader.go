package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".contractdiff"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .contractdiff configuration file.
// Zero values mean "not set" and leave the corresponding Config field alone.
type File struct {
	Explorer ExplorerSection `yaml:"explorer,omitempty"`
	Crawl    CrawlSection    `yaml:"crawl,omitempty"`
	Review   ReviewSection   `yaml:"review,omitempty"`
	Cache    CacheSection    `yaml:"cache,omitempty"`
}

// ExplorerSection configures the block explorer client.
type ExplorerSection struct {
	URL          string        `yaml:"url,omitempty"`
	APIKey       string        `yaml:"apiKey,omitempty"`
	Proxy        string        `yaml:"proxy,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxAttempts  int           `yaml:"maxAttempts,omitempty"`
	Backoff      time.Duration `yaml:"backoff,omitempty"`
	MaxBackoff   time.Duration `yaml:"maxBackoff,omitempty"`
	Delay        time.Duration `yaml:"delay,omitempty"`
	UserAgent    string        `yaml:"userAgent,omitempty"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes,omitempty"`
}

// CrawlSection configures the crawl stage.
type CrawlSection struct {
	DiffDir      string `yaml:"diffDir,omitempty"`
	Concurrency  int    `yaml:"concurrency,omitempty"`
	ContextLines *int   `yaml:"contextLines,omitempty"`
	OnlyVerified *bool  `yaml:"onlyVerified,omitempty"`
}

// ReviewSection configures the review and export stages.
type ReviewSection struct {
	SelectionFile string `yaml:"selectionFile,omitempty"`
	ExportDir     string `yaml:"exportDir,omitempty"`
	MinSize       int64  `yaml:"minSize,omitempty"`
	MaxSize       int64  `yaml:"maxSize,omitempty"`
}

// CacheSection configures the local source cache.
type CacheSection struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	Dir     string        `yaml:"dir,omitempty"`
	TTL     time.Duration `yaml:"ttl,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .contractdiff in the current directory
// 3. Look for .contractdiff in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply copies the values set in the file into cfg.
// isSet reports whether a flag was given on the command line; those
// values win over the file. A nil isSet applies every set file value.
func (cf *File) Apply(cfg *Config, isSet func(flag string) bool) {
	if isSet == nil {
		isSet = func(string) bool { return false }
	}
	setString := func(flag string, dst *string, v string) {
		if v != "" && !isSet(flag) {
			*dst = v
		}
	}
	setDuration := func(flag string, dst *time.Duration, v time.Duration) {
		if v != 0 && !isSet(flag) {
			*dst = v
		}
	}
	setInt := func(flag string, dst *int, v int) {
		if v != 0 && !isSet(flag) {
			*dst = v
		}
	}
	setInt64 := func(flag string, dst *int64, v int64) {
		if v != 0 && !isSet(flag) {
			*dst = v
		}
	}

	e := cf.Explorer
	setString("explorer", &cfg.ExplorerURL, e.URL)
	setString("api-key", &cfg.APIKey, e.APIKey)
	setString("proxy", &cfg.ProxyAddress, e.Proxy)
	setDuration("timeout", &cfg.Timeout, e.Timeout)
	setInt("attempts", &cfg.MaxAttempts, e.MaxAttempts)
	setDuration("backoff", &cfg.Backoff, e.Backoff)
	setDuration("max-backoff", &cfg.MaxBackoff, e.MaxBackoff)
	setDuration("delay", &cfg.CrawlDelay, e.Delay)
	setString("user-agent", &cfg.UserAgent, e.UserAgent)
	setInt64("max-body-size", &cfg.MaxBodySize, e.MaxBodyBytes)

	c := cf.Crawl
	setString("diff-dir", &cfg.DiffDir, c.DiffDir)
	setInt("concurrency", &cfg.Concurrency, c.Concurrency)
	if c.ContextLines != nil && !isSet("context") {
		cfg.ContextLines = *c.ContextLines
	}
	if c.OnlyVerified != nil && !isSet("only-verified") {
		cfg.OnlyVerified = *c.OnlyVerified
	}

	r := cf.Review
	setString("selection", &cfg.SelectionFile, r.SelectionFile)
	setString("export-dir", &cfg.ExportDir, r.ExportDir)
	setInt64("min-size", &cfg.MinSize, r.MinSize)
	setInt64("max-size", &cfg.MaxSize, r.MaxSize)

	k := cf.Cache
	if k.Enabled != nil && !isSet("no-cache") {
		cfg.UseCache = *k.Enabled
	}
	setString("cache-dir", &cfg.CacheDir, k.Dir)
	setDuration("cache-ttl", &cfg.CacheTTL, k.TTL)
}
