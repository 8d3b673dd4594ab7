// Package cache is a bounded in-process cache with per-entry expiry.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New returns a cache holding roughly maxItems entries, each living ttl.
func New(maxItems int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{client: c, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	return c.client.Get(key)
}

// Set stores value with a cost of one. Writes are buffered; the value may
// not be visible to Get until Wait returns.
func (c *Cache) Set(key string, value any) bool {
	return c.client.SetWithTTL(key, value, 1, c.ttl)
}

func (c *Cache) Delete(key string) {
	c.client.Del(key)
}

func (c *Cache) Wait() {
	c.client.Wait()
}

func (c *Cache) Close() {
	c.client.Close()
}
