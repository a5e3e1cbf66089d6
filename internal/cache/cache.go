package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultSize = 1000
	DefaultTTL  = 15 * time.Minute
)

// Entry is a cached value together with its lifetime.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
	TTL       time.Duration
}

func (e Entry[V]) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > e.TTL
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a TTL cache bounded by entry count. When full, the entry inserted
// first is dropped: lookups never refresh an entry's position, so eviction
// follows insertion order rather than access order.
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	size int
	ttl  time.Duration
	now  func() time.Time
	lru  *simplelru.LRU[K, Entry[V]]
}

func New[K comparable, V any](size int, ttl time.Duration, opts ...Option) (*Cache[K, V], error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	l, err := simplelru.NewLRU[K, Entry[V]](size, nil)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{
		size: size,
		ttl:  ttl,
		now:  o.now,
		lru:  l,
	}, nil
}

// Get returns a live value. An expired entry is removed on the spot.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Peek(key)
	if !ok {
		return zero, false
	}
	if e.Expired(c.now()) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.Value, true
}

// Set stores v under key and reports whether the oldest entry had to be
// evicted to make room. Re-setting a key moves it to the newest position.
func (c *Cache[K, V]) Set(key K, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	return c.lru.Add(key, Entry[V]{Value: v, CreatedAt: c.now(), TTL: c.ttl})
}

func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// DeleteFunc removes every key matching pred and returns how many were removed.
func (c *Cache[K, V]) DeleteFunc(pred func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, k := range c.lru.Keys() {
		if pred(k) {
			c.lru.Remove(k)
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}

// Cleanup drops all expired entries.
func (c *Cache[K, V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, k := range c.lru.Keys() {
		if e, ok := c.lru.Peek(k); ok && e.Expired(now) {
			c.lru.Remove(k)
			n++
		}
	}
	return n
}

// Keys returns live keys from oldest to newest insertion.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := c.lru.Keys()
	out := keys[:0]
	for _, k := range keys {
		if e, ok := c.lru.Peek(k); ok && !e.Expired(now) {
			out = append(out, k)
		}
	}
	return out
}

// Len counts live entries.
func (c *Cache[K, V]) Len() int {
	return len(c.Keys())
}

func (c *Cache[K, V]) Cap() int { return c.size }
