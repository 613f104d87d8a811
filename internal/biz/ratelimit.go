package biz

import (
	"context"
	"time"

	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// RateLimitRepo counts requests per caller in a fixed window. Following the
// Kratos DDD layout, the interface lives here and the Redis implementation
// in the data layer.
type RateLimitRepo interface {
	// IncrementHits bumps the window counter for ip and returns the new
	// count. The counter expires with the window.
	IncrementHits(ctx context.Context, ip string, window time.Duration) (int64, error)
}

// RateLimiterUseCase enforces a per-IP fixed-window request limit in front
// of the privileged endpoints. When the backing store is unavailable the
// request is allowed (graceful degradation): losing rate limiting briefly
// is better than refusing all operators.
type RateLimiterUseCase struct {
	repo   RateLimitRepo
	window time.Duration
	max    int

	logger *log.Helper
}

// NewRateLimiterUseCase creates the rate limiter from configuration.
func NewRateLimiterUseCase(c *conf.RateLimit, repo RateLimitRepo, logger log.Logger) *RateLimiterUseCase {
	return &RateLimiterUseCase{
		repo:   repo,
		window: c.Window,
		max:    c.Max,
		logger: log.NewHelper(logger),
	}
}

// Check counts this request against ip's window and rejects once the
// configured maximum is exceeded.
func (uc *RateLimiterUseCase) Check(ctx context.Context, ip string) error {
	if uc.max <= 0 || uc.repo == nil {
		return nil
	}

	count, err := uc.repo.IncrementHits(ctx, ip, uc.window)
	if err != nil {
		uc.logger.Warnf("rate limit check failed for %s: %v (request allowed)", ip, err)
		return nil
	}

	if count > int64(uc.max) {
		uc.logger.Warnw("rate limit exceeded",
			"ip", ip,
			"current", count,
			"limit", uc.max)
		return newRateLimitedError(int64(uc.window.Seconds()))
	}

	return nil
}
