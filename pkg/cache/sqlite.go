package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnipath-client/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteCache keeps entries as gob blobs in a single SQLite file
type SQLiteCache struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteCache opens (creating if needed) the database at dbPath
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, domain.NewConfigError("cache", "sqlite cache requires a file path", dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	c, err := NewSQLiteCacheWithDB(db, dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteCacheWithDB wraps an already opened database and ensures the schema
func NewSQLiteCacheWithDB(db *sql.DB, dbPath string) (*SQLiteCache, error) {
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteCache{db: db, dbPath: dbPath}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the decoded entry for key
func (c *SQLiteCache) Get(ctx context.Context, key string) (any, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, "SELECT value FROM cache_entries WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry %s: %w", key, err)
	}
	return Decode(blob)
}

// Set inserts or replaces the entry for key; empty values are ignored
func (c *SQLiteCache) Set(ctx context.Context, key string, value any) error {
	if IsEmpty(value) {
		return nil
	}
	blob, err := Encode(value)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = CURRENT_TIMESTAMP`,
		key, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Contains reports whether key has an entry
func (c *SQLiteCache) Contains(ctx context.Context, key string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries WHERE key = ?", key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query cache entry %s: %w", key, err)
	}
	return n > 0, nil
}

// Clear deletes every entry
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Len returns the number of entries
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Path returns the database file
func (c *SQLiteCache) Path() string { return c.dbPath }

// Close closes the database
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
