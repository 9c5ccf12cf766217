package dashboard

import (
	"sync"
	"time"
)

// Cache holds materialized snapshots keyed by recruiter user id. All
// access is serialized behind one mutex; callers only ever see clones,
// so a returned snapshot can be read without further locking.
type Cache struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

// NewCache returns an empty snapshot cache.
func NewCache() *Cache {
	return &Cache{snapshots: make(map[string]Snapshot)}
}

// Read returns a clone of the cached snapshot for a recruiter.
func (c *Cache) Read(userID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[userID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshot.Clone(), true
}

// Replace swaps in a whole new snapshot. Replace wins over any
// concurrent patch that has not yet committed; there is no merging.
func (c *Cache) Replace(userID string, snapshot Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[userID] = snapshot.Clone()
}

// Patch applies an in-place edit to the cached snapshot under the
// cache lock. The patch function sees live cache state; it must not
// retain references past its return.
func (c *Cache) Patch(userID string, patch func(*Snapshot)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[userID]
	if !ok {
		return false
	}
	patch(&snapshot)
	c.snapshots[userID] = snapshot
	return true
}

// Stale reports whether the cached snapshot is older than the
// freshness window, or missing entirely.
func (c *Cache) Stale(userID string, window time.Duration, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[userID]
	if !ok {
		return true
	}
	return now.Sub(snapshot.FetchedAt) > window
}

// Drop evicts one recruiter's snapshot.
func (c *Cache) Drop(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, userID)
}
