package config

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/pkg/localcache"
	pkgredis "github.com/akeren/clawsec-waitlist/pkg/redis"
	"github.com/akeren/clawsec-waitlist/pkg/utils"
)

type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host        string
	Port        string
	Password    string
	LocalSizeMB int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:        utils.GetEnvTrimmed("REDIS_HOST"),
		Port:        utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password:    GetValueFromEnvironmentVariable("REDIS_PASSWORD", ""),
		LocalSizeMB: utils.GetEnvInt("LOCAL_CACHE_SIZE_MB", 8),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
	})
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		return nil, err
	}

	logger.Info("Cache (Redis) connected", "host", cc.Host, "port", cc.Port)
	return cache, nil
}

// NewCacheOrFallback prefers Redis, then an in-process cache, then nothing when
// LOCAL_CACHE_SIZE_MB=0.
func (cc *CacheConfig) NewCacheOrFallback(logger *log.Logger) Cache {
	if cc.IsConfigured() {
		if cache, err := cc.NewCache(logger); err == nil {
			return cache
		}
		logger.Warn("Falling back from Redis to the in-process cache")
	}

	if cc.LocalSizeMB <= 0 {
		logger.Info("No cache configured")
		return nil
	}

	logger.Info("Using in-process cache", "size_mb", cc.LocalSizeMB)
	return localcache.New(cc.LocalSizeMB)
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache closed")
	return nil
}
