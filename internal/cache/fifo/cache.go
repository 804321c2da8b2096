// Package fifo implements a bounded, time-expiring result cache with
// first-in-first-out eviction.
package fifo

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/slopscan/internal/fingerprint"
	"goflare.io/slopscan/internal/utils"
	"goflare.io/slopscan/models"
)

const (
	DefaultCapacity = 1000
	DefaultTTL      = time.Hour
)

var (
	ErrInvalidCapacity = errors.New("cache capacity must be at least 1")
	ErrInvalidTTL      = errors.New("cache ttl must be positive")
)

// Option 快取選項
type Option func(*Cache)

// WithHasher 設置鍵的雜湊函數
func WithHasher(h fingerprint.Hasher) Option {
	return func(c *Cache) {
		if h != nil {
			c.hasher = h
		}
	}
}

// WithClock 設置時鐘
func WithClock(clock utils.Clock) Option {
	return func(c *Cache) {
		c.now = utils.ClockOrDefault(clock)
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache maps text fingerprints to classification results. All methods are safe
// for concurrent use.
type Cache struct {
	capacity int
	ttl      time.Duration
	hasher   fingerprint.Hasher
	now      utils.Clock
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is the earliest insertion
	filter  *keyFilter

	metrics Metrics
}

// New creates a Cache holding at most capacity entries for ttl each.
func New(capacity int, ttl time.Duration, opts ...Option) (*Cache, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	c := &Cache{
		capacity: capacity,
		ttl:      ttl,
		hasher:   fingerprint.Rolling32{},
		now:      time.Now,
		logger:   zap.NewNop(),
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		filter:   newKeyFilter(capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the stored result for text. Expired entries are removed and
// reported as a miss, as is an entry whose key collides with a different text.
func (c *Cache) Get(text string) (models.Result, bool) {
	key := c.hasher.Sum(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.filter.mayContain(key) {
		c.metrics.Misses.Inc()
		return models.Result{}, false
	}

	elem, ok := c.entries[key]
	if !ok {
		c.metrics.Misses.Inc()
		return models.Result{}, false
	}

	entry := elem.Value.(*Entry)
	if entry.expired(c.now(), c.ttl) {
		c.removeElement(elem)
		c.metrics.Expirations.Inc()
		c.metrics.Misses.Inc()
		c.logger.Debug("Cache entry expired", zap.String("key", key))
		return models.Result{}, false
	}

	if entry.Text != text {
		c.metrics.Collisions.Inc()
		c.metrics.Misses.Inc()
		c.logger.Warn("Fingerprint collision, treating as miss", zap.String("key", key))
		return models.Result{}, false
	}

	c.metrics.Hits.Inc()
	return entry.Result, true
}

// Put stores result for text. Inserting a new key into a full cache evicts the
// earliest inserted entry; overwriting an existing key evicts nothing.
func (c *Cache) Put(text string, result models.Result) {
	key := c.hasher.Sum(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(&Entry{
		Key:        key,
		Text:       text,
		Result:     result,
		InsertedAt: c.now(),
	})
}

// insert places entry at the back of the insertion order. Callers hold c.mu.
func (c *Cache) insert(entry *Entry) {
	if elem, ok := c.entries[entry.Key]; ok {
		c.order.Remove(elem)
	} else if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.logger.Debug("Evicting oldest cache entry", zap.String("key", oldest.Value.(*Entry).Key))
			c.removeElement(oldest)
			c.metrics.Evictions.Inc()
		}
	}

	c.entries[entry.Key] = c.order.PushBack(entry)
	c.filter.add(entry.Key)
}

// removeElement drops elem from both indexes. Callers hold c.mu.
func (c *Cache) removeElement(elem *list.Element) {
	entry := c.order.Remove(elem).(*Entry)
	delete(c.entries, entry.Key)
	if c.filter.evicted() {
		c.filter.rebuild(c.eachKey)
	}
}

func (c *Cache) eachKey(yield func(string)) {
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		yield(elem.Value.(*Entry).Key)
	}
}

// Purge removes every expired entry and returns how many were dropped.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*Entry).expired(now, c.ttl) {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}
	c.metrics.Expirations.Add(int64(removed))
	return removed
}

// Clear removes all entries and resets the hit and miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	c.filter.rebuild(c.eachKey)
	c.metrics.resetLookups()
}

// Len 返回當前項目數
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// HitRate returns the hit percentage rounded to an integer.
func (c *Cache) HitRate() int {
	return c.metrics.HitRate()
}

// Metrics 返回累計指標快照
func (c *Cache) Metrics() models.CacheMetrics {
	return c.metrics.Snapshot()
}

// Capacity 返回最大容量
func (c *Cache) Capacity() int {
	return c.capacity
}

// TTL 返回項目存活時間
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
