package cache

import "context"

// NoopCache never stores anything
type NoopCache struct{}

// NewNoopCache creates a cache that disables caching
func NewNoopCache() *NoopCache { return &NoopCache{} }

// Get always misses
func (NoopCache) Get(context.Context, string) (any, error) { return nil, ErrNotFound }

// Set discards the value
func (NoopCache) Set(context.Context, string, any) error { return nil }

// Contains is always false
func (NoopCache) Contains(context.Context, string) (bool, error) { return false, nil }

// Clear does nothing
func (NoopCache) Clear(context.Context) error { return nil }

// Len is always 0
func (NoopCache) Len(context.Context) (int, error) { return 0, nil }

// Path returns "none"
func (NoopCache) Path() string { return "none" }
