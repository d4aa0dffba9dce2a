package localcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := New(1)

	val, err := c.Get(ctx, "waitlist:count")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, c.Set(ctx, "waitlist:count", "42", 0))

	val, err = c.Get(ctx, "waitlist:count")
	require.NoError(t, err)
	assert.Equal(t, "42", val)

	require.NoError(t, c.Delete(ctx, "waitlist:count"))
	val, err = c.Get(ctx, "waitlist:count")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCache_ZeroSizeUsesFloor(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Set(context.Background(), "k", "v", 0))

	entries, _ := c.Stats()
	assert.Equal(t, int64(1), entries)
	assert.NoError(t, c.Ping(context.Background()))
}
