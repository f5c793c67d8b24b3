package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnipath-client/internal/domain"
)

const fileSuffix = ".gob"

// FileCache stores one gob blob per key under a directory
type FileCache struct {
	dir string
}

// NewFileCache creates a durable cache rooted at dir. The directory is created
// lazily on the first Set.
func NewFileCache(dir string) (*FileCache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, domain.NewConfigError("cache", "durable cache requires a directory", dir)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) entryPath(key string) string {
	return filepath.Join(c.dir, key+fileSuffix)
}

// Get reads and decodes the entry for key
func (c *FileCache) Get(_ context.Context, key string) (any, error) {
	data, err := os.ReadFile(c.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return Decode(data)
}

// Set encodes value and writes it atomically; empty values are ignored
func (c *FileCache) Set(_ context.Context, key string, value any) error {
	if IsEmpty(value) {
		return nil
	}
	data, err := Encode(value)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache entry %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(key)); err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Contains reports whether an entry file exists for key
func (c *FileCache) Contains(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(c.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat cache entry %s: %w", key, err)
	}
	return true, nil
}

// Clear removes the cache directory and everything in it
func (c *FileCache) Clear(_ context.Context) error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to clear cache directory: %w", err)
	}
	return nil
}

// Len counts the entries on disk
func (c *FileCache) Len(_ context.Context) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileSuffix) {
			n++
		}
	}
	return n, nil
}

// Path returns the cache directory
func (c *FileCache) Path() string { return c.dir }
