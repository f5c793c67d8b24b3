package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/omnipath-client/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	c, err := NewSQLiteCache(path)
	require.NoError(t, err)
	defer c.Close()

	tbl := table.MustNew(&table.Column{Name: "uniprot", Kind: table.KindString, Values: []any{"P00533"}})
	require.NoError(t, c.Set(ctx, "k1", tbl))
	require.NoError(t, c.Set(ctx, "k2", "about"))
	require.NoError(t, c.Set(ctx, "k2", "replaced"))
	require.NoError(t, c.Set(ctx, "empty", map[string]any{}))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, tbl, got)

	got, err = c.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got)

	_, err = c.Get(ctx, "empty")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := c.Contains(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Clear(ctx))
	n, err = c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteCache_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT value FROM cache_entries").
		WithArgs("k").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cache_entries`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	c, err := NewSQLiteCacheWithDB(db, "mock.db")
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "disk I/O error")

	n, err := c.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteCache_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only database"))

	_, err = NewSQLiteCacheWithDB(db, "mock.db")
	assert.ErrorContains(t, err, "failed to create schema")
}
