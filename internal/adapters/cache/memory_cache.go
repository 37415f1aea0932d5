package cache

import (
	"context"
	"sync"
	"time"

	"coinvest-api/internal/core/domain"
)

type memoryEntry struct {
	principal domain.Principal
	expiresAt time.Time
}

// MemoryPrincipalCache is an in-process principal cache with per-entry expiry.
// Invalidation is local to the process, so multi-instance deployments should use Redis.
type MemoryPrincipalCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryPrincipalCache creates an in-process principal cache
func NewMemoryPrincipalCache() *MemoryPrincipalCache {
	return &MemoryPrincipalCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached principal if it has not expired
func (c *MemoryPrincipalCache) Get(_ context.Context, userID string) (*domain.Principal, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return nil, false, nil
	}

	p := entry.principal
	return &p, true, nil
}

// Set stores a principal for ttl
func (c *MemoryPrincipalCache) Set(_ context.Context, p *domain.Principal, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = memoryEntry{principal: *p, expiresAt: c.now().Add(ttl)}
	return nil
}

// Invalidate removes a principal
func (c *MemoryPrincipalCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryPrincipalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
