// Package data provides data access implementations: the optional Redis
// connection, the rate-limit counters, and the outbound HTTP clients for
// the webhook sink and the upstream group API.
package data

import (
	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewRateLimitRepo,
	NewWebhookSender,
	NewGroupClient,
	NewSessionProbe,
)

// Data holds shared data layer dependencies.
type Data struct {
	redisClient *redis.Client
}

// NewData creates a new Data instance. Redis being unavailable does not
// prevent startup; the rate limiter degrades open without it.
func NewData(_ *conf.Data, logger log.Logger, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Warn("Redis client is nil, rate limiting will degrade open")
	}

	d := &Data{
		redisClient: rdb,
	}

	cleanup := func() {
		helper.Info("closing the data resources")
	}

	return d, cleanup, nil
}
