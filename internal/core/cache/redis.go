package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// IntervalGuard 基于 redis SET NX 的调用间隔闸：多实例之间行为一致。
// key 是调用者身份（用户主键或游客 IP）。
type IntervalGuard struct {
	C        *Cache
	Prefix   string
	Interval time.Duration
}

func (g *IntervalGuard) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := g.C.RDB.SetNX(ctx, g.Prefix+key, 1, g.Interval).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
