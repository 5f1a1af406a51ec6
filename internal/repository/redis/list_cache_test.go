package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestListCache_GetSetInvalidate(t *testing.T) {
	mr, rdb := setupMiniRedis(t)
	cache := NewListCache(rdb)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "members")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "members", []byte(`[{"id":"m1"}]`)))
	b, ok, err := cache.Get(ctx, "members")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"m1"}]`, string(b))
	assert.Equal(t, ListTTL, mr.TTL(ListKeyPrefix+"members"))

	mr.FastForward(ListTTL)
	_, ok, err = cache.Get(ctx, "members")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "members", []byte(`[]`)))
	require.NoError(t, cache.Invalidate(ctx, "members"))
	assert.False(t, mr.Exists(ListKeyPrefix+"members"))

	// 删除后、延迟删除前被回填的旧值也会被清掉
	require.NoError(t, cache.Set(ctx, "members", []byte(`["stale"]`)))
	assert.Eventually(t, func() bool {
		return !mr.Exists(ListKeyPrefix + "members")
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, cache.Invalidate(ctx, "never-set"))
}

func TestListCache_ServerDown(t *testing.T) {
	mr, rdb := setupMiniRedis(t)
	cache := NewListCache(rdb)
	mr.Close()

	_, ok, err := cache.Get(context.Background(), "members")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDistLock(t *testing.T) {
	mr, rdb := setupMiniRedis(t)
	lock := &DistLock{RDB: rdb}
	ctx := context.Background()
	key := LockKeyPrefix + "members"

	got, err := lock.Acquire(ctx, "members", "tok-a")
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, LockTTL, mr.TTL(key))

	got, err = lock.Acquire(ctx, "members", "tok-b")
	require.NoError(t, err)
	assert.False(t, got)

	// 别人的 token 删不掉锁
	require.NoError(t, lock.Release(ctx, "members", "tok-b"))
	v, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "tok-a", v)

	require.NoError(t, lock.Release(ctx, "members", "tok-a"))
	assert.False(t, mr.Exists(key))

	got, err = lock.Acquire(ctx, "members", "tok-b")
	require.NoError(t, err)
	assert.True(t, got)

	// 持有者崩溃时锁按 TTL 过期
	mr.FastForward(LockTTL)
	got, err = lock.Acquire(ctx, "members", "tok-c")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	_ = rdb.Close()

	mr.Close()
	_, err = NewClient(mr.Addr(), "", 0)
	assert.Error(t, err)
}
