package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ListTTL       = 10 * time.Minute
	LockTTL       = 300 * time.Millisecond
	ListKeyPrefix = "registry:list:"
	LockKeyPrefix = "registry:lock:list:"
	secondDelete  = 500 * time.Millisecond
)

// ListCache 缓存整张列表的 JSON，写路径只负责删 key，读侧回填
type ListCache struct {
	RDB *redis.Client
	ttl time.Duration
}

func NewListCache(rdb *redis.Client) *ListCache {
	return &ListCache{RDB: rdb, ttl: ListTTL}
}

func listKey(name string) string {
	return ListKeyPrefix + name
}

// Get 未命中或 Redis 出错都返回 ok=false
func (c *ListCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	b, err := c.RDB.Get(ctx, listKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *ListCache) Set(ctx context.Context, name string, payload []byte) error {
	return c.RDB.Set(ctx, listKey(name), payload, c.ttl).Err()
}

// Invalidate 立即删除，再延迟删一次，挡住并发读在删除前回填的旧数据
func (c *ListCache) Invalidate(ctx context.Context, name string) error {
	key := listKey(name)
	if err := c.RDB.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	go func() {
		t := time.NewTimer(secondDelete)
		defer t.Stop()
		<-t.C
		_ = c.RDB.Del(context.Background(), key).Err()
	}()
	return nil
}

// DistLock 回源重建列表时的互斥锁
type DistLock struct {
	RDB *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

func (l *DistLock) Acquire(ctx context.Context, name, token string) (bool, error) {
	return l.RDB.SetNX(ctx, LockKeyPrefix+name, token, LockTTL).Result()
}

// Release 用 lua 保证只删自己的锁
func (l *DistLock) Release(ctx context.Context, name, token string) error {
	_, err := releaseScript.Run(ctx, l.RDB, []string{LockKeyPrefix + name}, token).Result()
	return err
}
