// Package cache provides the process-wide session key cache.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxItems bounds the number of distinct credential sets cached.
const DefaultMaxItems = 256

type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// TokenCache is a thread-safe, size-bounded cache of Splunk session keys.
// Entries expire after the cache-wide TTL or the per-entry TTL given to Set,
// whichever comes first.
type TokenCache struct {
	cache *expirable.LRU[string, tokenEntry]
	now   func() time.Time
}

// NewTokenCache creates a cache holding at most maxItems keys for at most ttl.
func NewTokenCache(maxItems int, ttl time.Duration) *TokenCache {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &TokenCache{
		cache: expirable.NewLRU[string, tokenEntry](maxItems, nil, ttl),
		now:   time.Now,
	}
}

// Get returns the token stored under key, if it has not expired.
func (c *TokenCache) Get(key string) (string, bool) {
	e, ok := c.cache.Get(key)
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.cache.Remove(key)
		return "", false
	}
	return e.token, true
}

// Set stores token under key. ttl <= 0 relies on the cache-wide TTL only.
func (c *TokenCache) Set(key, token string, ttl time.Duration) {
	e := tokenEntry{token: token}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, e)
}

// Delete removes key.
func (c *TokenCache) Delete(key string) {
	c.cache.Remove(key)
}

// Len returns the current number of items in the cache.
func (c *TokenCache) Len() int {
	return c.cache.Len()
}
