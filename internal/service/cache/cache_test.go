package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ BytesCache = (*TTLCache)(nil)
var _ BytesCache = (*RedisCache)(nil)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "cny|grams|5m", []byte(`{"a":1}`), 15*time.Second))
	b, ok, err := c.GetBytes(ctx, "cny|grams|5m")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(b))

	now = now.Add(16 * time.Second)
	_, ok, err = c.GetBytes(ctx, "cny|grams|5m")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache().WithClock(func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * time.Hour)
	_, ok, _ := c.GetBytes(ctx, "k")
	assert.True(t, ok)
}

func TestTTLCachePurge(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache().WithClock(func() time.Time { return now })
	ctx := context.Background()
	_ = c.SetBytes(ctx, "a", []byte("1"), time.Second)
	_ = c.SetBytes(ctx, "b", []byte("2"), time.Minute)
	now = now.Add(2 * time.Second)
	c.Purge()
	assert.Len(t, c.m, 1)
}

func TestTTLCacheMiss(t *testing.T) {
	b, ok, err := NewTTLCache().GetBytes(context.Background(), "absent")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}
