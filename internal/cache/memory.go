package cache

import (
	"context"
	"sync"
	"time"

	"titlesearch/internal/connector/models"
)

// InMemory is the default single-process cache backend.
//
// Expiry is lazy: an aged entry is deleted on the read that discovers it.
// There is no eviction thread, so memory is bounded only by distinct
// fingerprints seen; operators monitor that. The single mutex makes each key's
// get-then-maybe-delete sequence atomic with respect to concurrent writers,
// which closes the lost-update race during expiry.
type InMemory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry

	// now is swappable for expiry tests.
	now func() time.Time
}

type entry struct {
	docs     []models.Document
	cachedAt time.Time
}

// NewInMemory creates a memory cache. A non-positive ttl falls back to
// DefaultTTL.
func NewInMemory(ttl time.Duration) *InMemory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemory{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *InMemory) Get(_ context.Context, fingerprint string) ([]models.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(e.cachedAt) >= c.ttl {
		delete(c.entries, fingerprint)
		return nil, false, nil
	}
	return append([]models.Document(nil), e.docs...), true, nil
}

func (c *InMemory) Put(_ context.Context, fingerprint string, docs []models.Document) error {
	cp := append([]models.Document(nil), docs...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = entry{docs: cp, cachedAt: c.now()}
	return nil
}

// Len reports the number of live entries, expired or not. Exposed for
// operator visibility and tests.
func (c *InMemory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
