package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "cartai:idempotency:"

// cache is best effort: every failure is logged and treated as a miss.
type cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func newCache(rdb redis.Cmdable, ttl time.Duration) *cache {
	return &cache{rdb: rdb, ttl: ttl}
}

func (c *cache) get(ctx context.Context, key string) *Record {
	if c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("idempotency cache get failed", zap.Error(err))
		}
		return nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		zap.L().Warn("idempotency cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil
	}
	rec.ServedBy = SourceRedis
	return &rec
}

func (c *cache) put(ctx context.Context, rec *Record) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		zap.L().Warn("idempotency cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+rec.Key, raw, c.ttl).Err(); err != nil {
		zap.L().Warn("idempotency cache set failed", zap.Error(err))
	}
}
