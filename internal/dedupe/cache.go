// ABOUTME: Thread-safe TTL cache that replays the first response for a request key
// ABOUTME: Concurrent callers with the same key share one execution via singleflight

package dedupe

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cacheEntry stores the recorded response and its position in the eviction list.
type cacheEntry struct {
	timestamp time.Time
	element   *list.Element
	value     []byte
}

// Cache remembers the response produced for each key for ttl, holding at most
// maxSize keys. Oldest keys are evicted first.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*cacheEntry
	order   *list.List // keys in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	flight  singleflight.Group
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum size.
// A background goroutine periodically drops expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Lookup returns the recorded response for key if it has not expired.
func (c *Cache) Lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.seen[key]
	if !ok || c.now().Sub(entry.timestamp) >= c.ttl {
		return nil, false
	}
	return entry.value, true
}

// Do returns the recorded response for key, or runs fn and records its
// result. Callers arriving while fn is running wait for it and receive the
// same bytes. replayed is false only for the caller whose fn produced the
// value. Errors are never recorded, so a failed attempt can be retried.
func (c *Cache) Do(key string, fn func() ([]byte, error)) (value []byte, replayed bool, err error) {
	if v, ok := c.Lookup(key); ok {
		return v, true, nil
	}

	ran := false
	result, err, _ := c.flight.Do(key, func() (any, error) {
		// A previous flight may have finished between Lookup and here
		if v, ok := c.Lookup(key); ok {
			return v, nil
		}
		ran = true
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.record(key, v)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	v, _ := result.([]byte)
	return v, !ran, nil
}

// record stores value for key, evicting the oldest key at capacity.
func (c *Cache) record(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, exists := c.seen[key]; exists {
		entry.timestamp = now
		entry.value = value
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.seen[key] = &cacheEntry{
		timestamp: now,
		element:   elem,
		value:     value,
	}
}

// Len reports how many keys are held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// evictOldest removes the oldest entry. Caller holds mu.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, key)
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.seen {
		if now.Sub(entry.timestamp) >= c.ttl {
			c.order.Remove(entry.element)
			delete(c.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
