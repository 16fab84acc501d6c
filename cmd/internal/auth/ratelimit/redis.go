package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter over Redis counters, shared by every process
// that uses the same Redis and prefix.
type Redis struct {
	rdb    redis.UniversalClient
	cfg    Config
	prefix string
}

// NewRedis returns a Redis limiter. Keys are stored as prefix + key.
func NewRedis(rdb redis.UniversalClient, cfg Config, prefix string) *Redis {
	if prefix == "" {
		prefix = "filefly:login:"
	}
	return &Redis{rdb: rdb, cfg: cfg, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if r.cfg.MaxFailures <= 0 {
		return true, 0, nil
	}
	k := r.prefix + key

	count, err := r.rdb.Get(ctx, k).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, 0, nil
		}
		return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count < int64(r.cfg.MaxFailures) {
		return true, 0, nil
	}

	ttl, err := r.rdb.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl < 0 {
		ttl = r.cfg.Window
	}
	return false, ttl, nil
}

func (r *Redis) Fail(ctx context.Context, key string) error {
	if r.cfg.MaxFailures <= 0 {
		return nil
	}
	k := r.prefix + key

	count, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Fixed-window semantics: the first failure in a window sets the expiry.
	if count == 1 {
		if err := r.rdb.Expire(ctx, k, r.cfg.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
