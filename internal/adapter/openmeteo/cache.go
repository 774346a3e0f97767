package openmeteo

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	"github.com/couchcryptid/complaint-forecast-service/internal/observability"
)

// CachedSource wraps a TemperatureSource with an in-memory LRU cache keyed by
// calendar date. Failures are not cached.
type CachedSource struct {
	inner   domain.TemperatureSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a temperature source.
func NewCachedSource(inner domain.TemperatureSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) DailyMeanTemperature(ctx context.Context, date time.Time) (float64, error) {
	key := date.Format(time.DateOnly)
	if temp, ok := c.cache.get(key); ok {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return temp, nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	temp, err := c.inner.DailyMeanTemperature(ctx, date)
	if err != nil {
		return 0, err
	}
	c.cache.put(key, temp)
	return temp, nil
}

// lruCache is a thread-safe LRU of temperatures keyed by ISO date.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type entry struct {
	key   string
	value float64
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(1, maxEntries),
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *lruCache) put(key string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
