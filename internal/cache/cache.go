// ABOUTME: In-memory caching of code embeddings to reduce inference sidecar calls.
// ABOUTME: Uses TTL-based expiration keyed by a content hash of the submitted code.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type entry struct {
	Embedding []float64
	ExpiresAt time.Time
}

// EmbeddingCache caches embedding vectors by code content hash.
type EmbeddingCache struct {
	cache  map[string]*entry
	mutex  sync.RWMutex
	ttl    time.Duration
	logger *logrus.Logger
}

// NewEmbeddingCache creates a cache with a 30 minute TTL and starts its
// background cleanup loop.
func NewEmbeddingCache(logger *logrus.Logger) *EmbeddingCache {
	c := &EmbeddingCache{
		cache:  make(map[string]*entry),
		ttl:    30 * time.Minute,
		logger: logger,
	}

	go c.startCleanup()

	return c
}

// Key derives the cache key for a piece of source code.
func Key(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached embedding for the key, or nil on miss/expiry.
func (c *EmbeddingCache) Get(key string) []float64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.cache[key]
	if !exists {
		return nil
	}

	// Expired entries are left for the cleanup loop; taking the write
	// lock here would serialize readers.
	if time.Now().After(e.ExpiresAt) {
		return nil
	}

	c.logger.WithField("key", key[:12]).Debug("Embedding cache hit")
	return e.Embedding
}

// Set stores an embedding under the key.
func (c *EmbeddingCache) Set(key string, embedding []float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &entry{
		Embedding: embedding,
		ExpiresAt: time.Now().Add(c.ttl),
	}

	c.logger.WithField("key", key[:12]).Debug("Cached embedding")
}

func (c *EmbeddingCache) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *EmbeddingCache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, e := range c.cache {
		if now.After(e.ExpiresAt) {
			delete(c.cache, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.WithFields(logrus.Fields{
			"expired_entries":   expiredCount,
			"remaining_entries": len(c.cache),
		}).Debug("Cache cleanup completed")
	}
}

// Stats returns the total and expired entry counts.
func (c *EmbeddingCache) Stats() (total int, expired int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	total = len(c.cache)

	for _, e := range c.cache {
		if now.After(e.ExpiresAt) {
			expired++
		}
	}

	return total, expired
}
