package restriction

import (
	"sync"
	"time"

	"srcds-admin/internal/models"
)

// ActiveFilter narrows GetActive results. The zero value matches every
// cached record.
type ActiveFilter struct {
	// IssuedBy matches the canonical issuer key; empty matches all.
	IssuedBy string
	// Reviewed, when non-nil, matches only records in that review state.
	Reviewed *bool
}

// Cache holds the active restriction per canonical identifier. It is read
// on every connection/chat/voice event and mutated both from the request
// path (optimistic create) and from background completion goroutines, so
// every access goes through the mutex.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*models.Restriction

	now func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*models.Restriction),
		now:     time.Now,
	}
}

// Refresh replaces the whole cache with the active subset of the given
// store rows. Lifted and already-expired rows are dropped. Any entry not
// reproduced by this call is unrestricted from this moment on.
func (c *Cache) Refresh(records []*models.Restriction) {
	now := c.now()
	fresh := make(map[string]*models.Restriction, len(records))
	for _, rec := range records {
		if !rec.ActiveAt(now) {
			continue
		}
		fresh[rec.Identifier] = rec.Clone()
	}

	c.mu.Lock()
	c.entries = fresh
	c.mu.Unlock()
}

// IsRestricted reports whether the canonical key is actively restricted.
// An entry found expired is evicted as a side effect (lazy expiry), so a
// write lock is taken up front; the critical section stays O(1).
func (c *Cache) IsRestricted(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key]
	if !ok {
		return false
	}

	if rec.ExpiredAt(c.now()) {
		delete(c.entries, key)
		return false
	}

	return true
}

// GetActive returns copies of all cached records matching the filter.
// Expired entries are excluded but not evicted; eviction stays with
// IsRestricted and Refresh.
func (c *Cache) GetActive(filter ActiveFilter) []*models.Restriction {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*models.Restriction, 0, len(c.entries))
	for _, rec := range c.entries {
		if rec.ExpiredAt(now) {
			continue
		}
		if filter.IssuedBy != "" && rec.IssuedBy != filter.IssuedBy {
			continue
		}
		if filter.Reviewed != nil && rec.Reviewed != *filter.Reviewed {
			continue
		}
		result = append(result, rec.Clone())
	}

	return result
}

// Insert adds or overwrites the entry for the record's identifier.
func (c *Cache) Insert(rec *models.Restriction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rec.Identifier] = rec.Clone()
}

// Remove evicts the entry for the canonical key.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// UpdateByID overwrites the cached entry carrying the record's store id,
// if one is still present. Returns false when the id is no longer cached
// (lifted or evicted concurrently).
func (c *Cache) UpdateByID(rec *models.Restriction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.ID != rec.ID {
			continue
		}
		c.entries[key] = rec.Clone()
		return true
	}
	return false
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
