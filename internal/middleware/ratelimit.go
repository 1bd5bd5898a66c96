// 包 middleware：HTTP 限流中间件
// 背景：解析与融合都是整层重算，单个请求即可占满一核；对外入口需要限流
// 兜底，避免重复提交把服务打挂
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter：按来源 IP 的令牌桶限流
// 约束：桶容量等于每秒补充量；不做分布式协同，单实例内存状态
type RateLimiter struct {
	l       *slog.Logger
	qps     float64
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewFromEnv：按环境变量构建限流器
// RATE_LIMIT_ENABLED=true   是否启用
// RATE_LIMIT_QPS=10         每 IP 每秒请求数上限（默认 10）
func NewFromEnv(l *slog.Logger) *RateLimiter {
	qps := 10.0
	if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			qps = f
		}
	}
	return &RateLimiter{l: l, qps: qps, buckets: map[string]*bucket{}}
}

// Wrap：生成 http.Handler 中间件
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	if os.Getenv("RATE_LIMIT_ENABLED") != "true" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientHost(r)
		if !rl.allow(ip) {
			rl.l.Debug("rate_limit_block", "ip", ip)
			w.Header().Set("retry-after", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow：补充令牌后尝试扣减
func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.qps, last: now}
		rl.buckets[ip] = b
	}
	b.tokens += now.Sub(b.last).Seconds() * rl.qps
	if b.tokens > rl.qps {
		b.tokens = rl.qps
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientHost：取 RemoteAddr 的主机部分
func clientHost(r *http.Request) string {
	host := r.RemoteAddr
	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(host); err == nil {
			return h
		}
	}
	return host
}
