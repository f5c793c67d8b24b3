package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/omnipath-client/internal/domain"
)

// MemoryCache keeps decoded values in process memory, evicting the least
// recently used entry once Size entries are held
type MemoryCache struct {
	entries *lru.Cache[string, any]
	size    int
}

// NewMemoryCache creates an in-memory cache. size <= 0 selects the default capacity.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = domain.DefaultCacheSize
	}
	entries, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries, size: size}, nil
}

// Get returns a shallow copy of the cached value
func (c *MemoryCache) Get(_ context.Context, key string) (any, error) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return ShallowCopy(v), nil
}

// Set stores a shallow copy of value; empty values are ignored
func (c *MemoryCache) Set(_ context.Context, key string, value any) error {
	if IsEmpty(value) {
		return nil
	}
	c.entries.Add(key, ShallowCopy(value))
	return nil
}

// Contains reports whether key is cached without touching its recency
func (c *MemoryCache) Contains(_ context.Context, key string) (bool, error) {
	return c.entries.Contains(key), nil
}

// Clear removes every entry
func (c *MemoryCache) Clear(_ context.Context) error {
	c.entries.Purge()
	return nil
}

// Len returns the number of entries
func (c *MemoryCache) Len(_ context.Context) (int, error) {
	return c.entries.Len(), nil
}

// Path returns "memory"
func (c *MemoryCache) Path() string { return "memory" }
