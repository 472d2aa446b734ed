package config

import "errors"

// Configuration validation errors.
// Validate* methods return these so callers can use errors.Is.
var (
	// ErrNoExplorerURL is returned when the explorer base URL is empty.
	ErrNoExplorerURL = errors.New("explorer URL is required")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxAttempts is returned when the attempt count is not positive.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")

	// ErrInvalidBackoff is returned when a backoff duration is negative.
	ErrInvalidBackoff = errors.New("invalid backoff: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidContextLines is returned when the diff context is negative.
	ErrInvalidContextLines = errors.New("invalid context lines: must be non-negative")

	// ErrInvalidRange is returned when --start/--end do not describe a window.
	ErrInvalidRange = errors.New("invalid range: start must be non-negative and end greater than start")

	// ErrNoDiffDir is returned when the diff directory is empty.
	ErrNoDiffDir = errors.New("diff directory is required")

	// ErrNoSelectionFile is returned when the selection file path is empty.
	ErrNoSelectionFile = errors.New("selection file is required")

	// ErrNoExportDir is returned when the export directory is empty.
	ErrNoExportDir = errors.New("export directory is required")

	// ErrInvalidSizeWindow is returned when --min-size/--max-size do not describe a window.
	ErrInvalidSizeWindow = errors.New("invalid size window: min must be non-negative and max greater than min")
)
