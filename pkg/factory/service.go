package factory

import (
	"time"

	"github.com/akeren/clawsec-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	CreateRateLimiter(requests int, window time.Duration, keyPrefix string) ratelimit.RateLimiter
}

// DefaultRateLimiterFactory builds Redis-backed limiters when a client is available and
// in-memory ones otherwise.
type DefaultRateLimiterFactory struct {
	redis  *redis.Client
	logger ratelimit.Logger
}

// NewDefaultRateLimiterFactory extracts a Redis client from cache when it exposes one. cache may be nil.
func NewDefaultRateLimiterFactory(cache any, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	var client *redis.Client
	if provider, ok := cache.(RedisClientProvider); ok {
		client = provider.GetClient()
	}

	return &DefaultRateLimiterFactory{redis: client, logger: logger}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter(requests int, window time.Duration, keyPrefix string) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests:  requests,
		Window:    window,
		Redis:     f.redis,
		KeyPrefix: keyPrefix,
		Logger:    f.logger,
	})
}

// Distributed reports whether limiters share state through Redis.
func (f *DefaultRateLimiterFactory) Distributed() bool {
	return f.redis != nil
}

// WithoutRedis drops the Redis client, used when the initial ping fails.
func (f *DefaultRateLimiterFactory) WithoutRedis() *DefaultRateLimiterFactory {
	return &DefaultRateLimiterFactory{logger: f.logger}
}
