package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCachePutGet(t *testing.T) {
	c := NewMemoryCache(16, Options{TTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "t1", "u1", []string{"workspace.read"}, []string{"r1"}))

	keys, ok, err := c.Get(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"workspace.read"}, keys)
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	c := NewMemoryCache(16, Options{TTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "t1", "u1", []string{"workspace.read"}, nil))
	require.NoError(t, c.InvalidateUser(ctx, "t1", "u1"))

	_, ok, err := c.Get(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheInvalidateRoleFansOut(t *testing.T) {
	c := NewMemoryCache(16, Options{TTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "t1", "u1", []string{"workspace.read"}, []string{"r1"}))
	require.NoError(t, c.Put(ctx, "t1", "u2", []string{"workspace.read"}, []string{"r1"}))
	require.NoError(t, c.Put(ctx, "t1", "u3", []string{"member.read"}, []string{"r2"}))

	require.NoError(t, c.InvalidateRole(ctx, "t1", "r1"))

	_, ok, _ := c.Get(ctx, "t1", "u1")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "t1", "u2")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "t1", "u3")
	assert.True(t, ok)
}

func TestMemoryCacheRemoveRoleMember(t *testing.T) {
	c := NewMemoryCache(16, Options{TTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "t1", "u1", []string{"workspace.read"}, []string{"r1"}))
	require.NoError(t, c.RemoveRoleMember(ctx, "t1", "r1", "u1"))

	// u1 left the role before the invalidation: their entry stays until
	// it is individually invalidated or expires.
	require.NoError(t, c.InvalidateRole(ctx, "t1", "r1"))
	_, ok, _ := c.Get(ctx, "t1", "u1")
	assert.True(t, ok)
}

func TestMemoryCacheDebouncedRoleInvalidation(t *testing.T) {
	c := NewMemoryCache(16, Options{TTL: time.Minute, DebounceInterval: 20 * time.Millisecond})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "t1", "u1", []string{"workspace.read"}, []string{"r1"}))

	c.ScheduleRoleInvalidation("t1", "r1")
	c.ScheduleRoleInvalidation("t1", "r1")

	assert.Eventually(t, func() bool {
		_, ok, err := c.Get(ctx, "t1", "u1")
		return err == nil && !ok
	}, time.Second, 10*time.Millisecond)
}
