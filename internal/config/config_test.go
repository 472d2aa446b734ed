package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional, so each one is asserted here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default ExplorerURL is etherscan", func(t *testing.T) {
		t.Parallel()
		if cfg.ExplorerURL != "https://etherscan.io" {
			t.Errorf("expected ExplorerURL to be https://etherscan.io, got %q", cfg.ExplorerURL)
		}
	})

	t.Run("default output layout", func(t *testing.T) {
		t.Parallel()
		if cfg.DiffDir != "diffs" {
			t.Errorf("expected DiffDir to be 'diffs', got %q", cfg.DiffDir)
		}
		if cfg.SelectionFile != "interesting_diffs.txt" {
			t.Errorf("expected SelectionFile to be 'interesting_diffs.txt', got %q", cfg.SelectionFile)
		}
		if cfg.ExportDir != "int_diffs" {
			t.Errorf("expected ExportDir to be 'int_diffs', got %q", cfg.ExportDir)
		}
	})

	t.Run("default retry policy", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxAttempts != 5 {
			t.Errorf("expected MaxAttempts to be 5, got %d", cfg.MaxAttempts)
		}
		if cfg.Backoff != time.Second {
			t.Errorf("expected Backoff to be 1s, got %v", cfg.Backoff)
		}
	})

	t.Run("default crawl is sequential and verified-only", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 1 {
			t.Errorf("expected Concurrency to be 1, got %d", cfg.Concurrency)
		}
		if !cfg.OnlyVerified {
			t.Error("expected OnlyVerified to be true")
		}
		if cfg.ContextLines != 3 {
			t.Errorf("expected ContextLines to be 3, got %d", cfg.ContextLines)
		}
	})

	t.Run("cache is enabled under the XDG cache dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.UseCache {
			t.Error("expected UseCache to be true")
		}
		if cfg.CacheDir != XDGCacheDir() {
			t.Errorf("expected CacheDir %q, got %q", XDGCacheDir(), cfg.CacheDir)
		}
		if filepath.Base(cfg.CacheDir) != AppName {
			t.Errorf("expected cache dir to end with %q, got %q", AppName, cfg.CacheDir)
		}
	})
}

// TestConfigValidateCrawl tests ValidateCrawl with one broken rule per case.
func TestConfigValidateCrawl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "empty explorer URL", modify: func(c *Config) { c.ExplorerURL = "" }, wantErr: ErrNoExplorerURL},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero attempts", modify: func(c *Config) { c.MaxAttempts = 0 }, wantErr: ErrInvalidMaxAttempts},
		{name: "negative backoff", modify: func(c *Config) { c.Backoff = -time.Second }, wantErr: ErrInvalidBackoff},
		{name: "negative delay", modify: func(c *Config) { c.CrawlDelay = -time.Second }, wantErr: ErrInvalidCrawlDelay},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "negative context", modify: func(c *Config) { c.ContextLines = -1 }, wantErr: ErrInvalidContextLines},
		{name: "end before start", modify: func(c *Config) { c.Start, c.End = 10, 5 }, wantErr: ErrInvalidRange},
		{name: "negative start", modify: func(c *Config) { c.Start = -1 }, wantErr: ErrInvalidRange},
		{name: "valid window", modify: func(c *Config) { c.Start, c.End = 100, 200 }},
		{name: "empty diff dir", modify: func(c *Config) { c.DiffDir = "" }, wantErr: ErrNoDiffDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.ValidateCrawl()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConfigValidateReview tests ValidateReview and ValidateExport.
func TestConfigValidateReview(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if err := cfg.ValidateReview(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if err := cfg.ValidateExport(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty selection file", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.SelectionFile = ""
		if err := cfg.ValidateReview(); !errors.Is(err, ErrNoSelectionFile) {
			t.Errorf("expected ErrNoSelectionFile, got %v", err)
		}
		if err := cfg.ValidateExport(); !errors.Is(err, ErrNoSelectionFile) {
			t.Errorf("expected ErrNoSelectionFile, got %v", err)
		}
	})

	t.Run("max size not above min size", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.MinSize = 100
		cfg.MaxSize = 100
		if err := cfg.ValidateReview(); !errors.Is(err, ErrInvalidSizeWindow) {
			t.Errorf("expected ErrInvalidSizeWindow, got %v", err)
		}
	})

	t.Run("empty export dir", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ExportDir = ""
		if err := cfg.ValidateExport(); !errors.Is(err, ErrNoExportDir) {
			t.Errorf("expected ErrNoExportDir, got %v", err)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.contractdiff")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".contractdiff")
		content := `explorer:
  url: https://bscscan.com
  apiKey: secret
  timeout: 30s
  maxAttempts: 7
crawl:
  diffDir: out
  contextLines: 0
  onlyVerified: false
review:
  minSize: 10
cache:
  enabled: false
  ttl: 1h
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		file, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file.Explorer.URL != "https://bscscan.com" {
			t.Errorf("expected explorer url, got %q", file.Explorer.URL)
		}
		if file.Explorer.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", file.Explorer.Timeout)
		}
		if file.Crawl.ContextLines == nil || *file.Crawl.ContextLines != 0 {
			t.Errorf("expected explicit zero context lines, got %v", file.Crawl.ContextLines)
		}
		if file.Cache.TTL != time.Hour {
			t.Errorf("expected cache ttl 1h, got %v", file.Cache.TTL)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".contractdiff")
		if err := os.WriteFile(configPath, []byte("explorer: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFileApply tests that file values fill unset fields only.
func TestFileApply(t *testing.T) {
	t.Parallel()

	zero := 0
	off := false
	file := &File{
		Explorer: ExplorerSection{URL: "https://bscscan.com", MaxAttempts: 9, Delay: 2 * time.Second},
		Crawl:    CrawlSection{DiffDir: "out", ContextLines: &zero, OnlyVerified: &off},
		Review:   ReviewSection{SelectionFile: "picked.txt", MaxSize: 5000},
		Cache:    CacheSection{Enabled: &off},
	}

	t.Run("nil isSet applies every value", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		file.Apply(cfg, nil)

		if cfg.ExplorerURL != "https://bscscan.com" {
			t.Errorf("expected explorer from file, got %q", cfg.ExplorerURL)
		}
		if cfg.MaxAttempts != 9 {
			t.Errorf("expected attempts 9, got %d", cfg.MaxAttempts)
		}
		if cfg.CrawlDelay != 2*time.Second {
			t.Errorf("expected delay 2s, got %v", cfg.CrawlDelay)
		}
		if cfg.ContextLines != 0 {
			t.Errorf("expected context 0, got %d", cfg.ContextLines)
		}
		if cfg.OnlyVerified || cfg.UseCache {
			t.Error("expected booleans to be switched off by the file")
		}
		if cfg.SelectionFile != "picked.txt" || cfg.MaxSize != 5000 {
			t.Errorf("unexpected review settings: %q %d", cfg.SelectionFile, cfg.MaxSize)
		}
	})

	t.Run("flags set on the command line win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.DiffDir = "from-flag"
		file.Apply(cfg, func(flag string) bool { return flag == "diff-dir" })

		if cfg.DiffDir != "from-flag" {
			t.Errorf("expected flag value to win, got %q", cfg.DiffDir)
		}
		if cfg.ExplorerURL != "https://bscscan.com" {
			t.Errorf("expected explorer from file, got %q", cfg.ExplorerURL)
		}
	})

	t.Run("unset file values keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg, nil)
		if cfg.Timeout != DefaultTimeout || cfg.DiffDir != DefaultDiffDir || cfg.ContextLines != DefaultContextLines {
			t.Error("expected empty file to leave defaults untouched")
		}
	})
}

// TestFindConfigFile tests explicit path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}
