// Package cache holds recomputed group balances between reads.
//
// Only balances recomputed from the store are cached. Live ledger values are
// never written here, so a cache entry is always a pure function of persisted
// history and is dropped whenever that history changes.
package cache

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// BalanceCache stores a group's net balance vector.
type BalanceCache interface {
	// Get returns the cached balances. ok is false on a miss.
	Get(ctx context.Context, groupID string) (balances map[string]decimal.Decimal, ok bool, err error)
	Set(ctx context.Context, groupID string, balances map[string]decimal.Decimal) error
	Invalidate(ctx context.Context, groupID string) error
}

// MemoryCache implements BalanceCache in process memory. Entries never expire.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]decimal.Decimal
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]map[string]decimal.Decimal)}
}

// Get returns a copy of the cached balances for groupID.
func (c *MemoryCache) Get(_ context.Context, groupID string) (map[string]decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	balances, ok := c.entries[groupID]
	if !ok {
		return nil, false, nil
	}
	return copyBalances(balances), true, nil
}

// Set stores a copy of balances for groupID.
func (c *MemoryCache) Set(_ context.Context, groupID string, balances map[string]decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[groupID] = copyBalances(balances)
	return nil
}

// Invalidate drops the entry for groupID.
func (c *MemoryCache) Invalidate(_ context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, groupID)
	return nil
}

func copyBalances(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
