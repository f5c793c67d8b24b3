package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client)

	blob, err := Encode("about")
	require.NoError(t, err)

	mock.ExpectGet("omnipath:k").RedisNil()
	mock.ExpectSet("omnipath:k", blob, 0).SetVal("OK")
	mock.ExpectGet("omnipath:k").SetVal(string(blob))
	mock.ExpectExists("omnipath:k").SetVal(1)

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "about"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "about", got)

	ok, err := c.Contains(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_SetSkipsEmpty(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client)

	require.NoError(t, c.Set(context.Background(), "k", []string{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_ClearAndLenScanPrefix(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client)

	mock.ExpectScan(0, "omnipath:*", 100).SetVal([]string{"omnipath:a", "omnipath:b"}, 7)
	mock.ExpectScan(7, "omnipath:*", 100).SetVal([]string{"omnipath:c"}, 0)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mock.ExpectScan(0, "omnipath:*", 100).SetVal([]string{"omnipath:a", "omnipath:b"}, 0)
	mock.ExpectDel("omnipath:a", "omnipath:b").SetVal(2)

	require.NoError(t, c.Clear(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client)

	mock.ExpectGet("omnipath:k").SetErr(errors.New("connection refused"))

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
