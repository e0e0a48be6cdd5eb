// Package infra provides the response memo stores shared by the fetcher:
// an in-process map and a Redis-backed store.
package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/supertypeai/sectors-kb/internal/logger"
)

// ErrStoreUnavailable is returned when a backing store cannot be reached.
var ErrStoreUnavailable = errors.New("infra: memo store unavailable")

// Store memoizes response bodies keyed by request URL.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored body and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores body under key.
	Set(ctx context.Context, key string, body []byte) error

	// Name identifies the backend in logs and status output.
	Name() string
}

// --- In-memory store ---

// entry holds a cached value with expiration. A zero expiresAt never expires.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store with an optional TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl, or forever when ttl is zero.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryStore) Name() string { return "memory" }

// Get retrieves a value. Expired entries are reported as misses.
func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.expired(e) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value with the store's TTL.
func (c *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	e := entry{value: append([]byte(nil), value...)}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries. Can be called periodically.
func (c *MemoryStore) Cleanup() {
	c.mu.Lock()
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// StartJanitor runs Cleanup every interval until the returned stop func is
// called. A non-positive interval starts nothing.
func (c *MemoryStore) StartJanitor(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.Cleanup()
				logger.L().Debug().Int("entries", c.Len()).Msg("memo store cleanup")
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (c *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}
