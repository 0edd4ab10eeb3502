package cache

import "time"

// Cache is a small read-through cache for source credibility lookups.
// Implementations must tolerate concurrent use; a miss is ("", nil).
type Cache interface {
	Get(key string) (string, error)
	Set(key, value string, ttl time.Duration) error
	Delete(key string) error
}

var _ Cache = (*RedisCache)(nil)
var _ Cache = (*NoopCache)(nil)

// NoopCache is used when no Redis address is configured: every read
// misses, every write succeeds.
type NoopCache struct{}

func (NoopCache) Get(key string) (string, error)                 { return "", nil }
func (NoopCache) Set(key, value string, ttl time.Duration) error { return nil }
func (NoopCache) Delete(key string) error                        { return nil }
