// Package cache provides read-through caching for the reference catalogs.
package cache

import (
	"context"
	"sync"
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/catalogs/item"
)

// ItemCache is a TTL read-through cache over the item catalog. Item masters
// change rarely; every receipt and return hits the catalog for unit of
// measure and batch policy, so even a short TTL removes most reads.
type ItemCache struct {
	source item.Reader
	ttl    time.Duration

	mu     sync.RWMutex
	byID   map[id.ID]*cachedItem
	byCode map[string]*cachedItem
}

type cachedItem struct {
	item      *item.Item
	expiresAt time.Time
}

// NewItemCache wraps an item reader with a TTL cache.
func NewItemCache(source item.Reader, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ItemCache{
		source: source,
		ttl:    ttl,
		byID:   make(map[id.ID]*cachedItem),
		byCode: make(map[string]*cachedItem),
	}
}

var _ item.Reader = (*ItemCache)(nil)

// GetByID returns the item, from cache when fresh.
func (c *ItemCache) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	c.mu.RLock()
	entry := c.byID[itemID]
	c.mu.RUnlock()

	if entry != nil && time.Now().Before(entry.expiresAt) {
		return entry.item, nil
	}

	itm, err := c.source.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	c.store(itm)
	return itm, nil
}

// GetByCode returns the item by code, from cache when fresh.
func (c *ItemCache) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	c.mu.RLock()
	entry := c.byCode[code]
	c.mu.RUnlock()

	if entry != nil && time.Now().Before(entry.expiresAt) {
		return entry.item, nil
	}

	itm, err := c.source.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	c.store(itm)
	return itm, nil
}

// Invalidate drops one item from the cache.
func (c *ItemCache) Invalidate(itemID id.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry := c.byID[itemID]; entry != nil {
		delete(c.byCode, entry.item.Code)
	}
	delete(c.byID, itemID)
}

func (c *ItemCache) store(itm *item.Item) {
	entry := &cachedItem{
		item:      itm,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Lock()
	c.byID[itm.ID] = entry
	c.byCode[itm.Code] = entry
	c.mu.Unlock()
}
