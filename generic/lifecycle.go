package generic

import (
	"context"
	"log/slog"
)

// =============================================================================
// STATE MACHINE
// =============================================================================
//
//   PENDING ──(date passed)──> OVERDUE
//      │                          │
//      ├──────> CONFIRMED <───────┤
//      └──────> SKIPPED   <───────┘
//
// CONFIRMED and SKIPPED are terminal.

var transitions = map[EventStatus][]EventStatus{
	StatusPending: {StatusOverdue, StatusConfirmed, StatusSkipped},
	StatusOverdue: {StatusConfirmed, StatusSkipped},
}

// CanTransition reports whether an event may move from one status to another.
func CanTransition(from, to EventStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// =============================================================================
// LIFECYCLE MANAGER - automatic PENDING -> OVERDUE promotion
// =============================================================================

// Lifecycle ages pending events whose expected date has passed. It is a
// best-effort bulk update run on every read; it never touches events that
// are already overdue, confirmed or skipped.
type Lifecycle struct {
	Store  EventStore
	Clock  Clock
	Logger *slog.Logger
}

func NewLifecycle(store EventStore, clock Clock, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{Store: store, Clock: clock, Logger: logger}
}

// Sweep promotes the owner's PENDING events dated strictly before today.
func (l *Lifecycle) Sweep(ctx context.Context, ownerID OwnerID) (int, error) {
	today := l.Clock.Today()
	n, err := l.Store.MarkOverdue(ctx, ownerID, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		l.Logger.Info("events overdue", "owner", ownerID, "count", n, "today", today.String())
	}
	return n, nil
}

// SweepAll promotes overdue events for every owner.
func (l *Lifecycle) SweepAll(ctx context.Context) (int, error) {
	return l.Sweep(ctx, "")
}
