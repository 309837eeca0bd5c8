package api

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"

	"qtree-api/internal/logger"
)

// ResultCache：get_values 响应缓存；Get 出错按未命中处理
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// RedisCache：以 Redis 字符串保存响应体
type RedisCache struct {
	rc *redis.Client
}

func NewRedisCache(rc *redis.Client) *RedisCache { return &RedisCache{rc: rc} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("redis_get_error", "key", key, "err", err)
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := c.rc.Set(ctx, key, val, ttl).Err(); err != nil {
		logger.L().Debug("redis_set_error", "key", key, "err", err)
	}
}

// cacheKey：分区键 + 全部包围盒的 FNV64a 摘要；框顺序不同视为不同请求
func cacheKey(q query) string {
	h := fnv.New64a()
	for _, b := range q.Boxes {
		fmt.Fprintf(h, "%g,%g,%g,%g;", b.MaxLat, b.MaxLon, b.MinLat, b.MinLon)
	}
	return fmt.Sprintf("qt:values:%s:%s:%s:%016x", q.Year, q.Month, q.Res, h.Sum64())
}
