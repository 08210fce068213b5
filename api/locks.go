/*
locks.go - Per-project write serialization

PURPOSE:
  Sequence numbers make replay deterministic only if approvals for a
  project cannot interleave: obtain sequence, parse, append must be one
  atomic step per project. A keyed mutex gives that without serializing
  unrelated projects against each other.

USAGE:
  unlock := h.locks.Lock(projectID)
  defer unlock()

SEE ALSO:
  - seating/store.go: The ordering contract this enforces
  - handlers.go: ApproveTicket takes the lock
*/
package api

import "sync"

// projectLocks hands out one mutex per project id. Locks are never removed;
// the set of projects is small and long-lived.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the project's mutex and returns its unlock function.
func (p *projectLocks) Lock(projectID string) func() {
	p.mu.Lock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[projectID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
