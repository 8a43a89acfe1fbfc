package pagecache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, "https://example.com/a")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "https://example.com/a", "<html>a</html>"))
	body, ok := c.Get(ctx, "https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, "<html>a</html>", body)

	// A second Put for the same URL replaces the body.
	require.NoError(t, c.Put(ctx, "https://example.com/a", "<html>b</html>"))
	body, ok = c.Get(ctx, "https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, "<html>b</html>", body)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	base := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Put(ctx, "u", "fresh"))

	_, ok := c.Get(ctx, "u")
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	_, ok = c.Get(ctx, "u")
	assert.False(t, ok)
}

func TestCache_Prune(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	base := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Put(ctx, "old", "x"))

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	require.NoError(t, c.Put(ctx, "new", "y"))
	require.NoError(t, c.Prune(ctx))

	_, ok := c.Get(ctx, "old")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "new")
	assert.True(t, ok)
}

func TestCache_NilReceiver(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	_, ok := c.Get(ctx, "u")
	assert.False(t, ok)
	assert.NoError(t, c.Put(ctx, "u", "b"))
	assert.NoError(t, c.Prune(ctx))
	assert.NoError(t, c.Close())
}
