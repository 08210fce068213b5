/*
store.go - Persistence contract for the approved event log

PURPOSE:
  The event log is the system of record for seat allocation. Everything
  else (assignments, invoice segments) is derived from it, so the log
  carries the ledger discipline: append-only, immutable, totally ordered
  by Sequence.

APPEND-ONLY CONTRACT:
  - Append() is the only write
  - No Update or Delete methods exist; an allocation is corrected by
    approving a superseding event, never by editing history

ORDERING:
  NextSequence hands out strictly increasing numbers. Callers must call it
  and Append under the per-project write lock so concurrent approvals
  cannot interleave (see api/locks.go).

IMPLEMENTATIONS:
  - store/sqlite: durable store
  - seating/store: in-memory, for tests and dev mode
*/
package seating

import "context"

// EventLog stores approved allocation events. Append-only.
type EventLog interface {
	// Append persists an approved event. The event's Sequence must have
	// been obtained from NextSequence under the project's write lock.
	Append(ctx context.Context, ev AllocationEvent) error

	// Events returns the full log ordered by Sequence ascending.
	Events(ctx context.Context) ([]AllocationEvent, error)

	// EventsForProject returns one project's slice of the log, ordered by
	// Sequence ascending.
	EventsForProject(ctx context.Context, projectID string) ([]AllocationEvent, error)

	// NextSequence returns the next monotonic sequence number.
	NextSequence(ctx context.Context) (int64, error)
}
