package cache

import (
	"context"
	"strings"

	"github.com/omnipath-client/internal/logging"
	"github.com/sirupsen/logrus"
)

// Backend names accepted by Open besides URLs and directories
const (
	BackendNone   = "none"
	BackendMemory = "memory"
)

// Open builds the backend named by selector:
//
//	"" or "none"              caching disabled
//	"memory"                  in-process LRU holding size entries
//	sqlite://path             SQLite file
//	redis://...               Redis server
//	postgres://...            PostgreSQL database
//	anything else             directory of gob files
func Open(ctx context.Context, selector string, size int, logger *logrus.Logger) (Cache, error) {
	logger = logging.OrDiscard(logger)
	selector = strings.TrimSpace(selector)

	var (
		c   Cache
		err error
	)
	switch {
	case selector == "" || strings.EqualFold(selector, BackendNone):
		c = NewNoopCache()
	case strings.EqualFold(selector, BackendMemory):
		c, err = NewMemoryCache(size)
	case strings.HasPrefix(selector, "sqlite://"):
		c, err = NewSQLiteCache(strings.TrimPrefix(selector, "sqlite://"))
	case strings.HasPrefix(selector, "redis://"), strings.HasPrefix(selector, "rediss://"):
		c, err = NewRedisCache(ctx, selector)
	case strings.HasPrefix(selector, "postgres://"), strings.HasPrefix(selector, "postgresql://"):
		c, err = NewPostgresCache(ctx, selector, logger)
	default:
		c, err = NewFileCache(selector)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField(logging.FieldCachePath, c.Path()).Debug("Cache backend ready")
	return c, nil
}

// Close releases the backend's connections if it holds any
func Close(c Cache) error {
	if closer, ok := c.(Closer); ok {
		return closer.Close()
	}
	return nil
}
