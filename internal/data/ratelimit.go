package data

import (
	"context"
	"fmt"
	"time"

	"RankGate/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// rateLimitRepo implements biz.RateLimitRepo on Redis fixed-window
// counters. Following the Kratos DDD layout, the interface is defined in
// the biz layer.
type rateLimitRepo struct {
	rdb    *redis.Client
	logger *log.Helper
}

// NewRateLimitRepo creates a new rate limit repository.
func NewRateLimitRepo(data *Data, logger log.Logger) biz.RateLimitRepo {
	return &rateLimitRepo{
		rdb:    data.redisClient,
		logger: log.NewHelper(logger),
	}
}

// IncrementHits increments the fixed-window counter for ip. The key
// expires with the window, set on the first increment.
func (r *rateLimitRepo) IncrementHits(ctx context.Context, ip string, window time.Duration) (int64, error) {
	if r.rdb == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	key := rateLimitKey(ip)

	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment hit counter: %w", err)
	}

	if count == 1 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			r.logger.Warnf("Failed to set rate limit expiration for %s: %v", ip, err)
			// Counter is still incremented, don't fail the check.
		}
	}

	return count, nil
}

// rateLimitKey generates the Redis key for an IP's window counter.
// Format: rate:{ip}
func rateLimitKey(ip string) string {
	return fmt.Sprintf("rate:%s", ip)
}
