package cache

import (
	"context"
	"testing"

	"github.com/omnipath-client/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(0)
	require.NoError(t, err)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "value"))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	ok, err := c.Contains(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_IgnoresEmptyValues(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(10)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "nil", nil))
	require.NoError(t, c.Set(ctx, "table", table.MustNew()))
	require.NoError(t, c.Set(ctx, "map", map[string]any{}))

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryCache_Evicts(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", "1"))
	require.NoError(t, c.Set(ctx, "b", "2"))
	require.NoError(t, c.Set(ctx, "c", "3"))

	ok, _ := c.Contains(ctx, "a")
	assert.False(t, ok)
	n, _ := c.Len(ctx)
	assert.Equal(t, 2, n)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(10)
	require.NoError(t, err)

	original := table.MustNew(&table.Column{Name: "source", Values: []any{"P1", "P2"}})
	require.NoError(t, c.Set(ctx, "k", original))
	original.Drop("source")

	first, err := c.Get(ctx, "k")
	require.NoError(t, err)
	first.(*table.Table).Column("source").Values[0] = "changed"

	second, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "P1", second.(*table.Table).Value(0, "source"))
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(10)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", "v"))

	require.NoError(t, c.Clear(ctx))
	n, _ := c.Len(ctx)
	assert.Zero(t, n)
}
