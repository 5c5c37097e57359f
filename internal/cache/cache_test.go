package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	c := New(Options{Host: srv.Host(), Port: port})
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestCacheSetGetDelete(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "greeting", "hello"))
	value, ok, err := c.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", value)

	require.NoError(t, c.Delete(ctx, "greeting"))
	_, ok, err = c.Get(ctx, "greeting")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheSetWithExpire(t *testing.T) {
	t.Parallel()

	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetWithExpire(ctx, "otp", "123456", 5*time.Minute))
	require.Equal(t, 5*time.Minute, srv.TTL("otp"))

	srv.FastForward(6 * time.Minute)
	_, ok, err := c.Get(ctx, "otp")
	require.NoError(t, err)
	require.False(t, ok)

	require.ErrorIs(t, c.SetWithExpire(ctx, "otp", "1", 0), ErrCache)
}

func TestCacheHealthAndFailures(t *testing.T) {
	t.Parallel()

	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	srv.Close()
	require.ErrorIs(t, c.Health(ctx), ErrCache)
	_, _, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCache)
	require.ErrorIs(t, c.Set(ctx, "k", "v"), ErrCache)
	require.ErrorIs(t, c.Delete(ctx, "k"), ErrCache)
}

func TestOptionsAddr(t *testing.T) {
	t.Parallel()

	require.Equal(t, "localhost:6379", Options{Host: "localhost", Port: 6379}.Addr())
}
