package app

import (
	"context"
	"errors"
	"time"

	"github.com/fiffu/fplwatch/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *Cache {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return &Cache{client, log}
}

// Cache implements fpl.Cache on redis. It is best effort only: read and
// write failures count as misses, never as errors.
type Cache struct {
	client *redis.Client
	log    *zap.Logger
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Sugar().Warnw("Cache read failed", "key", key, "err", err)
		return nil, false
	}
	return raw, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Sugar().Warnw("Cache write failed", "key", key, "err", err)
	}
}
