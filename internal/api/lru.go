package api

import (
	"context"
	"time"

	"github.com/bluele/gcache"
)

// 文档注释：进程内 LRU 响应缓存
// 背景：未配置 Redis 时替代 RedisCache；热点框在短周期内重复查询。
// 约束：按条目数淘汰，每条带独立 TTL；过期条目读取时视为未命中。
type LRU struct {
	gc gcache.Cache
}

func NewLRU(capacity int) *LRU {
	return newLRU(capacity, gcache.NewRealClock())
}

func newLRU(capacity int, clock gcache.Clock) *LRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRU{gc: gcache.New(capacity).LRU().Clock(clock).Build()}
}

func (c *LRU) Get(_ context.Context, k string) ([]byte, bool) {
	v, err := c.gc.Get(k)
	if err != nil {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (c *LRU) Set(_ context.Context, k string, v []byte, ttl time.Duration) {
	if ttl <= 0 {
		_ = c.gc.Set(k, v)
		return
	}
	_ = c.gc.SetWithExpire(k, v, ttl)
}
