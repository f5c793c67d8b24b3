// Package cache stores decoded download results under their request
// fingerprint. Every backend shares the same contract: empty values are never
// stored, a missing key is ErrNotFound, and entries are only ever inserted or
// cleared in bulk.
package cache

import (
	"context"
	"errors"
	"reflect"
)

// ErrNotFound is returned by Get when the key is not cached
var ErrNotFound = errors.New("cache: key not found")

// Cache maps request fingerprints to decoded results
type Cache interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
	Contains(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	// Path identifies where entries live (a directory, a DSN or "memory")
	Path() string
}

// Copier is implemented by values that know how to shallow-copy themselves
type Copier interface {
	ShallowCopy() any
}

// Closer is implemented by backends holding connections
type Closer interface {
	Close() error
}

type lengther interface {
	Len() int
}

// IsEmpty reports whether v must not be cached: nil, a nil pointer, a value
// whose Len() is 0, or an empty map, slice, array or string.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
	}
	if l, ok := v.(lengther); ok {
		return l.Len() == 0
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len() == 0
	}
	return false
}

// ShallowCopy returns a copy of v whose structure can be mutated without touching v
func ShallowCopy(v any) any {
	if c, ok := v.(Copier); ok {
		return c.ShallowCopy()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	}
	return v
}
