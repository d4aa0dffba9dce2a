// Package localcache is an in-process fallback for deployments without Redis.
package localcache

import (
	"context"
	"errors"
	"time"

	"github.com/coocood/freecache"
)

const minSizeBytes = 512 * 1024

type Cache struct {
	store *freecache.Cache
}

// New allocates a cache of roughly sizeMB megabytes. freecache enforces a 512KB floor.
func New(sizeMB int) *Cache {
	size := sizeMB * 1024 * 1024
	if size < minSizeBytes {
		size = minSizeBytes
	}
	return &Cache{store: freecache.NewCache(size)}
}

// Get returns ("", nil) for missing or expired keys.
func (c *Cache) Get(_ context.Context, key string) (string, error) {
	val, err := c.store.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	seconds := 0
	if ttl > 0 {
		seconds = int(ttl / time.Second)
		if seconds == 0 {
			seconds = 1
		}
	}
	return c.store.Set([]byte(key), []byte(value), seconds)
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Del([]byte(key))
	return nil
}

func (c *Cache) Ping(context.Context) error {
	return nil
}

func (c *Cache) Close() error {
	c.store.Clear()
	return nil
}

// Stats reports the entry count and hit rate.
func (c *Cache) Stats() (entries int64, hitRate float64) {
	return c.store.EntryCount(), c.store.HitRate()
}
