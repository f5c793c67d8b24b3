package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	var nilTable *table.Table
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"nil pointer", nilTable, true},
		{"empty table", table.MustNew(), true},
		{"table with rows", table.MustNew(&table.Column{Name: "a", Values: []any{"x"}}), false},
		{"empty map", map[string]any{}, true},
		{"map", map[string]any{"a": 1}, false},
		{"empty slice", []string{}, true},
		{"empty string", "", true},
		{"string", "x", false},
		{"zero int", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.value))
		})
	}
}

func TestShallowCopy_IsolatesStructure(t *testing.T) {
	m := map[string]any{"a": 1}
	mc := ShallowCopy(m).(map[string]any)
	mc["b"] = 2
	assert.NotContains(t, m, "b")

	s := []string{"x", "y"}
	sc := ShallowCopy(s).([]string)
	sc[0] = "changed"
	assert.Equal(t, "x", s[0])

	tbl := table.MustNew(&table.Column{Name: "a", Values: []any{"x"}})
	tc := ShallowCopy(tbl).(*table.Table)
	tc.Drop("a")
	assert.True(t, tbl.Has("a"))
}

func TestCodec_RoundTrip(t *testing.T) {
	values := []any{
		"about",
		map[string]any{"queries": []any{"interactions"}},
		table.MustNew(&table.Column{Name: "a", Kind: table.KindInt, Values: []any{int64(1), nil}}),
	}
	for _, v := range values {
		blob, err := Encode(v)
		require.NoError(t, err)
		got, err := Decode(blob)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not gob"))
	assert.Error(t, err)
}

func TestOpen_Selectors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		selector string
		want     any
		path     string
	}{
		{"", &NoopCache{}, "none"},
		{"none", &NoopCache{}, "none"},
		{"memory", &MemoryCache{}, "memory"},
		{"sqlite://" + filepath.Join(dir, "cache.db"), &SQLiteCache{}, filepath.Join(dir, "cache.db")},
		{filepath.Join(dir, "files"), &FileCache{}, filepath.Join(dir, "files")},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			c, err := Open(ctx, tt.selector, 0, nil)
			require.NoError(t, err)
			defer Close(c)
			assert.IsType(t, tt.want, c)
			assert.Equal(t, tt.path, c.Path())
		})
	}
}

func TestOpen_EmptySQLitePath(t *testing.T) {
	_, err := Open(context.Background(), "sqlite://", 0, nil)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopCache()
	require.NoError(t, c.Set(ctx, "k", "v"))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
