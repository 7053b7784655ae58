package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisLimiter shares windows between server instances: one counter per
// key and window, expiring with the window.
type RedisLimiter struct {
	client rueidis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client rueidis.Client, prefix string, limit int, window time.Duration) (*RedisLimiter, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}, nil
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := time.Now().Truncate(r.window).Unix()
	redisKey := fmt.Sprintf("%s:%s:%d", r.prefix, key, windowStart)

	count, err := r.client.Do(ctx, r.client.B().Incr().Key(redisKey).Build()).AsInt64()
	if err != nil {
		return false, err
	}

	if count == 1 {
		seconds := int64(r.window / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		cmd := r.client.B().Expire().Key(redisKey).Seconds(seconds).Build()
		if err := r.client.Do(ctx, cmd).Error(); err != nil {
			return false, err
		}
	}

	return count <= int64(r.limit), nil
}
