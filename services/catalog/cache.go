package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ResponseCache memoizes query results for a fixed TTL measured from
// insertion. Unbounded by entry count: keys are finite in practice and the
// TTL keeps the working set small.
type ResponseCache[V any] struct {
	lru *expirable.LRU[string, V]
}

func NewResponseCache[V any](ttl time.Duration) *ResponseCache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache[V]{lru: expirable.NewLRU[string, V](0, nil, ttl)}
}

func (c *ResponseCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *ResponseCache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// cacheKey derives a stable key from every parameter that affects a query's
// result, so differently-parameterized queries never collide.
func cacheKey(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
