package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "tangobot:ratelimit:"

// RedisLimiter shares rate limit state between bot replicas.
// A user is admitted when no marker key exists; the marker expires after interval.
type RedisLimiter struct {
	client redis.UniversalClient
}

// NewRedisLimiter wraps an existing client.
func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// DialRedis parses url and verifies the server answers PING.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Allow sets the marker key with SET NX PX.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64, interval time.Duration) (bool, error) {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	key := rateLimitKeyPrefix + strconv.FormatInt(userID, 10)
	ok, err := l.client.SetNX(ctx, key, 1, interval).Result()
	if err != nil {
		return true, fmt.Errorf("redis rate limit: %w", err)
	}
	return ok, nil
}
