package cache

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pgPool is the subset of *pgxpool.Pool used by PostgresCache
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCache stores gob blobs in a shared PostgreSQL table
type PostgresCache struct {
	pool pgPool
	dsn  string
	log  *logrus.Logger
}

// NewPostgresCache migrates the schema at dsn and opens a connection pool
func NewPostgresCache(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresCache, error) {
	if err := RunMigrations(dsn, logger); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	c := newPostgresCache(pool, dsn, logger)
	logger.WithField("dsn", c.Path()).Info("Postgres cache connection pool established")
	return c, nil
}

func newPostgresCache(pool pgPool, dsn string, logger *logrus.Logger) *PostgresCache {
	return &PostgresCache{pool: pool, dsn: dsn, log: logger}
}

// RunMigrations applies the embedded schema migrations to dsn
func RunMigrations(dsn string, logger *logrus.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("No pending cache migrations")
			return nil
		}
		return fmt.Errorf("running migrations up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.WithError(err).Warn("Could not get migration version after up")
	} else {
		logger.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Cache migrations completed")
	}
	return nil
}

// Get returns the decoded entry for key
func (c *PostgresCache) Get(ctx context.Context, key string) (any, error) {
	var blob []byte
	err := c.pool.QueryRow(ctx, "SELECT value FROM cache_entries WHERE key = $1", key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache entry %s: %w", key, err)
	}
	return Decode(blob)
}

// Set upserts the entry for key; empty values are ignored
func (c *PostgresCache) Set(ctx context.Context, key string, value any) error {
	if IsEmpty(value) {
		return nil
	}
	blob, err := Encode(value)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, created_at = NOW()`,
		key, blob,
	)
	if err != nil {
		return fmt.Errorf("storing cache entry %s: %w", key, err)
	}
	return nil
}

// Contains reports whether key has an entry
func (c *PostgresCache) Contains(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := c.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM cache_entries WHERE key = $1)", key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying cache entry %s: %w", key, err)
	}
	return exists, nil
}

// Clear deletes every entry
func (c *PostgresCache) Clear(ctx context.Context) error {
	tag, err := c.pool.Exec(ctx, "DELETE FROM cache_entries")
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	c.log.WithField("removed", tag.RowsAffected()).Info("Postgres cache cleared")
	return nil
}

// Len returns the number of entries
func (c *PostgresCache) Len(ctx context.Context) (int, error) {
	var n int64
	if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return int(n), nil
}

// Path returns the DSN with its password redacted
func (c *PostgresCache) Path() string {
	u, err := url.Parse(c.dsn)
	if err != nil {
		return "postgres"
	}
	return u.Redacted()
}

// Close closes the connection pool
func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}
