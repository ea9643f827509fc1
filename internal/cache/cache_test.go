package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientIsEmptyCache(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}

func TestNilClientLeaseAlwaysGranted(t *testing.T) {
	var c *Client
	ctx := context.Background()

	ok, err := c.Acquire(ctx, "lease", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, c.Release(ctx, "lease", "a"))
}

// An unreachable redis degrades reads and writes to misses but reports lease errors.
func TestUnreachableRedis(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)

	ok, err := c.Acquire(ctx, "lease", "a", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}

func newMiniredisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetUnless(t *testing.T) {
	c, mr := newMiniredisClient(t)
	ctx := context.Background()

	ok, err := c.SetUnless(ctx, "k", "guard", []byte("v"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, c.Set(ctx, "guard", []byte("1"), time.Minute))
	ok, err = c.SetUnless(ctx, "k", "guard", []byte("other"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := c.Exists(ctx, "guard")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLease(t *testing.T) {
	c, mr := newMiniredisClient(t)
	ctx := context.Background()

	ok, err := c.Acquire(ctx, "lease", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Acquire(ctx, "lease", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the holder can release.
	require.NoError(t, c.Release(ctx, "lease", "b"))
	assert.True(t, mr.Exists("lease"))
	require.NoError(t, c.Release(ctx, "lease", "a"))
	assert.False(t, mr.Exists("lease"))

	ok, err = c.Acquire(ctx, "lease", "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
