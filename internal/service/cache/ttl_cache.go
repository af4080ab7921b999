package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	data []byte
	exp  time.Time
}

func (e entry) expired() bool { return time.Now().After(e.exp) }

type call struct {
	wg   sync.WaitGroup
	data []byte
	err  error
}

// Metrics receives lookup outcomes. The prometheus recorder
// satisfies it.
type Metrics interface {
	RecordCacheHit(hit bool)
}

type Option func(*TTLCache)

func WithMetrics(m Metrics) Option {
	return func(c *TTLCache) { c.metrics = m }
}

// TTLCache stores producer results as serialized bytes keyed by
// request key, so heterogeneous result types can share one instance.
// Expiry is lazy: entries are checked on access only, and a key that
// is never revisited stays resident until process exit. Concurrent
// misses for the same key are de-duplicated per key, so the producer
// runs once per expiry window.
type TTLCache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	inflight map[string]*call
	metrics  Metrics
}

func NewTTLCache(opts ...Option) *TTLCache {
	c := &TTLCache{
		entries:  make(map[string]entry),
		inflight: make(map[string]*call),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TTLCache) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheHit(hit)
	}
}

// Execute returns the cached bytes for key when present and
// unexpired; otherwise it runs producer, stores the result with
// expires_at = now + ttl, and returns it.
func (c *TTLCache) Execute(ctx context.Context, key string, ttl time.Duration, producer func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	if e, ok := c.entries[key]; ok && !e.expired() {
		c.mu.RUnlock()
		c.record(true)
		return e.data, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	// another miss may have landed while upgrading the lock
	if e, ok := c.entries[key]; ok && !e.expired() {
		c.mu.Unlock()
		c.record(true)
		return e.data, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.record(true)
		cl.wg.Wait()
		return cl.data, cl.err
	}
	cl := &call{}
	cl.wg.Add(1)
	c.inflight[key] = cl
	c.mu.Unlock()
	c.record(false)

	data, err := producer(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		c.entries[key] = entry{data: data, exp: time.Now().Add(ttl)}
	}
	c.mu.Unlock()

	cl.data, cl.err = data, err
	cl.wg.Done()
	return data, err
}

// Len reports resident entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Execute is the typed wrapper around TTLCache.Execute: results are
// JSON-serialized into the type-erased store and decoded on hits.
func Execute[T any](ctx context.Context, c *TTLCache, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	data, err := c.Execute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, err
	}
	return out, nil
}
