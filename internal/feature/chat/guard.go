package chat

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Guard 聊天转发的调用间隔闸，按调用者身份（用户主键或游客 IP）限流。
// 注入式抽象：单机部署用 LocalGuard，多实例用 cache.IntervalGuard（redis）。
type Guard interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalGuard 进程内令牌桶，每个 key 一个桶，桶容量 1
type LocalGuard struct {
	mu       sync.Mutex
	interval time.Duration
	buckets  map[string]*rate.Limiter
}

func NewLocalGuard(minInterval time.Duration) *LocalGuard {
	return &LocalGuard{
		interval: minInterval,
		buckets:  make(map[string]*rate.Limiter),
	}
}

func (g *LocalGuard) Allow(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	lim, ok := g.buckets[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(g.interval), 1)
		g.buckets[key] = lim
	}
	g.mu.Unlock()
	return lim.Allow(), nil
}
