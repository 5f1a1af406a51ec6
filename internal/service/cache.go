package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ListCache 整张列表的读缓存，写路径只负责失效
type ListCache interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, payload []byte) error
	Invalidate(ctx context.Context, name string) error
}

// ListLock 缓存未命中时回源的互斥锁
type ListLock interface {
	Acquire(ctx context.Context, name, token string) (bool, error)
	Release(ctx context.Context, name, token string) error
}

const lockBackoff = 50 * time.Millisecond

// readThrough 先读缓存；未命中时抢锁、二次检查、回源并回填。
// 抢不到锁的请求短暂退避后再读一次缓存，仍未命中就直接回源。
func readThrough(ctx context.Context, cache ListCache, lock ListLock, name string,
	load func(context.Context) ([]byte, error)) ([]byte, error) {
	if cache == nil {
		return load(ctx)
	}
	if b, ok, err := cache.Get(ctx, name); err == nil && ok {
		return b, nil
	}
	if lock == nil {
		return fill(ctx, cache, name, load)
	}

	token := fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	got, err := lock.Acquire(ctx, name, token)
	if err != nil {
		slog.Warn("list lock acquire failed", "list", name, "error", err)
		return load(ctx)
	}
	if got {
		defer func() {
			if err := lock.Release(ctx, name, token); err != nil {
				slog.Warn("list lock release failed", "list", name, "error", err)
			}
		}()
		if b, ok, err := cache.Get(ctx, name); err == nil && ok {
			return b, nil
		}
		return fill(ctx, cache, name, load)
	}

	time.Sleep(lockBackoff)
	if b, ok, err := cache.Get(ctx, name); err == nil && ok {
		return b, nil
	}
	return load(ctx)
}

func fill(ctx context.Context, cache ListCache, name string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, name, b); err != nil {
		slog.Warn("list cache set failed", "list", name, "error", err)
	}
	return b, nil
}

func invalidate(ctx context.Context, cache ListCache, name string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, name); err != nil {
		slog.Warn("list cache invalidate failed", "list", name, "error", err)
	}
}
