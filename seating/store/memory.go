// Package store provides in-memory implementations of the seating
// persistence contracts, for tests and dev mode.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gamalielACN/SMTDraft/seating"
)

// =============================================================================
// MEMORY EVENT LOG
// =============================================================================

type MemoryLog struct {
	mu     sync.RWMutex
	events []seating.AllocationEvent
	seq    int64
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append adds an event. Append-only: events are never edited or removed.
func (m *MemoryLog) Append(_ context.Context, ev seating.AllocationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Insert keeping Sequence order so reads need no re-sort.
	i := sort.Search(len(m.events), func(i int) bool {
		return m.events[i].Sequence > ev.Sequence
	})
	m.events = append(m.events, seating.AllocationEvent{})
	copy(m.events[i+1:], m.events[i:])
	m.events[i] = ev
	return nil
}

func (m *MemoryLog) Events(_ context.Context) ([]seating.AllocationEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]seating.AllocationEvent, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *MemoryLog) EventsForProject(_ context.Context, projectID string) ([]seating.AllocationEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []seating.AllocationEvent
	for _, ev := range m.events {
		if ev.ProjectID == projectID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *MemoryLog) NextSequence(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}
