package services

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache keys for listing responses
const (
	AllInventoryKey = "all_inventory"
)

// DefaultListingTTL is how long a cached listing stays valid
const DefaultListingTTL = 10 * time.Minute

// ListingCache holds rendered listing responses keyed by a coarse cache
// key. Any mutation of the underlying entity kind invalidates the whole
// key; the next list read recomputes.
type ListingCache struct {
	store *gocache.Cache
}

// NewListingCache creates a listing cache with the given TTL
func NewListingCache(ttl time.Duration) *ListingCache {
	return &ListingCache{
		store: gocache.New(ttl, 2*ttl),
	}
}

// Get returns the cached payload for key, if present and unexpired
func (c *ListingCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores a payload under key with the cache's default TTL
func (c *ListingCache) Set(key string, payload interface{}) {
	c.store.SetDefault(key, payload)
}

// Invalidate removes the given keys so the next read recomputes
func (c *ListingCache) Invalidate(keys ...string) {
	for _, key := range keys {
		c.store.Delete(key)
	}
}
