package middleware

import (
	"net/http"
	"sync"
	"time"

	"qtree-api/internal/logger"
)

// 文档注释：令牌桶限流（每秒）
// 背景：在流量峰值时对入口进行限速，避免大范围查询同时触发叶子加载把磁盘与内存打满。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
	now      func() time.Time
}

func NewTokenBucket(qps int) *TokenBucket {
	tb := &TokenBucket{capacity: qps, tokens: qps, now: time.Now}
	tb.lastSec = tb.now().Unix()
	return tb
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wrap：注入 CDN 地理上下文；enabled 时在最外层做限流
func Wrap(next http.Handler, enabled bool, qps int) http.Handler {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g, ok := parseEdgeGeo(r); ok {
			r = r.WithContext(withGeo(r.Context(), g))
		}
		next.ServeHTTP(w, r)
	})
	if !enabled {
		return h
	}
	if qps <= 0 {
		qps = 200
	}
	tb := NewTokenBucket(qps)
	logger.L().Info("rate_limit_enabled", "qps", qps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.Allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}
