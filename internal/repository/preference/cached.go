package preference

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/relevex/internal/domain/preference"
)

// Cache defaults.
const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = 30 * time.Minute
)

// reader is the decorated preference source.
type reader interface {
	Get(ctx context.Context, userID, sessionID string) (preference.Preferences, error)
}

// Cached keeps recently read preferences in process memory. Lookups that
// carry a session id bypass the cache in both directions so session
// personalization always sees fresh data.
type Cached struct {
	inner      reader
	cache      *expirable.LRU[string, preference.Preferences]
	cacheTotal *prometheus.CounterVec
}

// NewCached creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"bypass"), passed explicitly.
func NewCached(inner reader, size int, ttl time.Duration, cacheTotal *prometheus.CounterVec) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		inner:      inner,
		cache:      expirable.NewLRU[string, preference.Preferences](size, nil, ttl),
		cacheTotal: cacheTotal,
	}
}

// Get returns cached preferences or reads them from the inner source.
// Failed reads are not cached.
func (c *Cached) Get(ctx context.Context, userID, sessionID string) (preference.Preferences, error) {
	if sessionID != "" {
		c.inc("bypass")
		return c.inner.Get(ctx, userID, sessionID)
	}

	if p, ok := c.cache.Get(userID); ok {
		c.inc("hit")
		return p, nil
	}
	c.inc("miss")

	p, err := c.inner.Get(ctx, userID, "")
	if err != nil {
		return preference.Preferences{}, err
	}
	c.cache.Add(userID, p)
	return p, nil
}

// Len returns the number of cached users.
func (c *Cached) Len() int { return c.cache.Len() }

func (c *Cached) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
