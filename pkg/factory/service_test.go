package factory

import (
	"testing"
	"time"

	"github.com/akeren/clawsec-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

type clientCache struct{ client *redis.Client }

func (c clientCache) GetClient() *redis.Client { return c.client }

func TestDefaultRateLimiterFactory_InMemoryWithoutRedis(t *testing.T) {
	f := NewDefaultRateLimiterFactory(nil, nil)
	assert.False(t, f.Distributed())

	limiter := f.CreateRateLimiter(30, time.Minute, "waitlist:signup:")
	assert.IsType(t, &ratelimit.InMemoryRateLimiter{}, limiter)

	requests, window := limiter.GetLimitDetails()
	assert.Equal(t, 30, requests)
	assert.Equal(t, time.Minute, window)
}

func TestDefaultRateLimiterFactory_UsesRedisClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	f := NewDefaultRateLimiterFactory(clientCache{client: client}, nil)
	assert.True(t, f.Distributed())
	assert.IsType(t, &ratelimit.RedisRateLimiter{}, f.CreateRateLimiter(5, time.Second, ""))

	assert.False(t, f.WithoutRedis().Distributed())
}
