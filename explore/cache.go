package explore

import (
	"sync"

	"github.com/gridlume/electromap/scenario"
)

// Snapshot is the rendered sidebar content for one scenario: summary markup
// and legend markup, captured together after a successful run. The zero
// Snapshot renders blank.
type Snapshot struct {
	Summary string
	Legend  string
}

// Empty reports whether the snapshot has never been populated.
func (s Snapshot) Empty() bool {
	return s.Summary == "" && s.Legend == ""
}

// PresentationCache memoizes rendered snapshots per scenario key so that
// switching modes or scopes re-shows the last result instantly. Snapshots
// are keyed by scenario only, not by country: after a country switch the old
// snapshot stays visible until the next run replaces it.
type PresentationCache struct {
	mu        sync.RWMutex
	snapshots map[scenario.Key]Snapshot
}

// NewPresentationCache returns an empty cache.
func NewPresentationCache() *PresentationCache {
	return &PresentationCache{snapshots: make(map[scenario.Key]Snapshot)}
}

// Put replaces the snapshot for a key atomically. Readers either see the
// previous snapshot or the new one, never a partial write.
func (c *PresentationCache) Put(key scenario.Key, s Snapshot) {
	c.mu.Lock()
	c.snapshots[key] = s
	c.mu.Unlock()
}

// Get returns the snapshot for a key. A key never populated yields the
// explicit empty snapshot, not an error.
func (c *PresentationCache) Get(key scenario.Key) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshots[key]
}
