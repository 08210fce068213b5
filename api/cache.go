/*
cache.go - Cached reconciliation view

PURPOSE:
  Assignment queries replay the whole event log. The log only changes when
  a seat-allocation ticket is approved, so the derived view is cached and
  invalidated on approval rather than recomputed per request.

CONSISTENCY:
  Invalidation happens inside the approval path after the event is
  appended, so a read following an approval always sees the new event
  (it finds the cache empty and replays).

SEE ALSO:
  - seating/reconciler.go: The replay this caches
*/
package api

import (
	"sync"

	"github.com/gamalielACN/SMTDraft/seating"
)

// viewCache holds the last reconciliation result until invalidated.
type viewCache struct {
	mu     sync.RWMutex
	result *seating.Result
}

func (c *viewCache) get() *seating.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

func (c *viewCache) set(r *seating.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = r
}

func (c *viewCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
}
