package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/contractdiff/internal/model"
)

// FileName is the name of the database file inside the cache directory.
const FileName = "contractdiff.db"

// timeLayout is how fetched_at is stored.
const timeLayout = "2006-01-02 15:04:05"

// DB is the SQLite-backed explorer cache. It implements explorer.Store.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// ttl is how long an entry stays fresh. Zero means forever.
	ttl time.Duration

	// now returns the current time. Replaced in tests.
	now func() time.Time
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// TTL is how long a cached entry is considered fresh. Zero disables expiry.
	TTL time.Duration
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		TTL:               7 * 24 * time.Hour,
	}
}

// Open opens or creates the cache database in dir.
func Open(dir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &DB{
		db:     db,
		dbPath: dbPath,
		ttl:    opts.TTL,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *DB) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *DB) Path() string {
	return c.dbPath
}

// createTables creates the schema if it doesn't exist.
func (c *DB) createTables() error {
	schema := `
	-- Flattened contract sources
	CREATE TABLE IF NOT EXISTS sources (
		address TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);

	-- Similar-contract lists, one JSON array per reference
	CREATE TABLE IF NOT EXISTS similar (
		address TEXT PRIMARY KEY,
		candidates TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// fresh reports whether an entry fetched at fetchedAt is still valid.
func (c *DB) fresh(fetchedAt string) bool {
	if c.ttl <= 0 {
		return true
	}
	t := parseTimestamp(fetchedAt)
	if t.IsZero() {
		return false
	}
	return c.now().UTC().Sub(t) < c.ttl
}

// timestamp returns the current time in the stored layout.
func (c *DB) timestamp() string {
	return c.now().UTC().Format(timeLayout)
}

// GetSource returns the cached source of addr.
// found is false when there is no entry or the entry has expired.
func (c *DB) GetSource(ctx context.Context, addr model.Address) (string, bool, error) {
	var source, fetchedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT source, fetched_at FROM sources WHERE address = ?`,
		addr.String(),
	).Scan(&source, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached source: %w", err)
	}
	if !c.fresh(fetchedAt) {
		return "", false, nil
	}
	return source, true, nil
}

// PutSource stores the source of addr, replacing any previous entry.
func (c *DB) PutSource(ctx context.Context, addr model.Address, source string) error {
	query := `
	INSERT INTO sources (address, source, fetched_at)
	VALUES (?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		source = excluded.source,
		fetched_at = excluded.fetched_at
	`
	if _, err := c.db.ExecContext(ctx, query, addr.String(), source, c.timestamp()); err != nil {
		return fmt.Errorf("failed to cache source: %w", err)
	}
	return nil
}

// GetSimilar returns the cached similar-contract list of addr.
// found is false when there is no entry or the entry has expired.
func (c *DB) GetSimilar(ctx context.Context, addr model.Address) ([]model.Address, bool, error) {
	var candidatesJSON, fetchedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT candidates, fetched_at FROM similar WHERE address = ?`,
		addr.String(),
	).Scan(&candidatesJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached similar contracts: %w", err)
	}
	if !c.fresh(fetchedAt) {
		return nil, false, nil
	}

	var candidates []model.Address
	if err := json.Unmarshal([]byte(candidatesJSON), &candidates); err != nil {
		return nil, false, fmt.Errorf("failed to parse cached similar contracts: %w", err)
	}
	return candidates, true, nil
}

// PutSimilar stores the similar-contract list of addr, replacing any
// previous entry.
func (c *DB) PutSimilar(ctx context.Context, addr model.Address, similar []model.Address) error {
	if similar == nil {
		similar = []model.Address{}
	}
	candidatesJSON, err := json.Marshal(similar)
	if err != nil {
		return fmt.Errorf("failed to serialize similar contracts: %w", err)
	}

	query := `
	INSERT INTO similar (address, candidates, fetched_at)
	VALUES (?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		candidates = excluded.candidates,
		fetched_at = excluded.fetched_at
	`
	if _, err := c.db.ExecContext(ctx, query, addr.String(), string(candidatesJSON), c.timestamp()); err != nil {
		return fmt.Errorf("failed to cache similar contracts: %w", err)
	}
	return nil
}

// Stats summarises the cache content.
type Stats struct {
	// Sources is the number of cached sources.
	Sources int

	// Similar is the number of cached similar-contract lists.
	Similar int

	// Expired is the number of entries older than the TTL.
	Expired int
}

// Stats counts the cached entries.
func (c *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	for _, table := range []string{"sources", "similar"} {
		rows, err := c.db.QueryContext(ctx, "SELECT fetched_at FROM "+table) //nolint:gosec // table names are constants
		if err != nil {
			return Stats{}, fmt.Errorf("failed to read %s: %w", table, err)
		}

		n := 0
		for rows.Next() {
			var fetchedAt string
			if err := rows.Scan(&fetchedAt); err != nil {
				rows.Close()
				return Stats{}, fmt.Errorf("failed to scan %s: %w", table, err)
			}
			n++
			if !c.fresh(fetchedAt) {
				s.Expired++
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return Stats{}, err
		}

		if table == "sources" {
			s.Sources = n
		} else {
			s.Similar = n
		}
	}
	return s, nil
}

// Clear removes every cached entry.
func (c *DB) Clear(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, stmt := range []string{"DELETE FROM sources", "DELETE FROM similar"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	return tx.Commit()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp. It returns the zero time when
// no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
