/*
store.go - Persistence interfaces for rules, events, transactions and accounts

PURPOSE:
  Defines the boundary between the scheduling engine and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  RuleStore:        Recurrence rule persistence (upsert, soft-disable)
  EventStore:       Pending events with atomic create-if-absent and
                    status-guarded transitions
  TransactionStore: Append-only ledger transactions
  AccountStore:     Minimal account directory
  TxStore:          All of the above plus WithTx for atomic multi-writes

UNIQUENESS CONTRACT:
  CreateEventIfAbsent must be atomic at the storage boundary: two replicas
  materializing the same (rule, day) concurrently produce exactly one row.
  In SQL this is a UNIQUE(rule_id, event_day) constraint plus
  ON CONFLICT DO NOTHING. In-process locking is not sufficient on its own.

GUARDED TRANSITIONS:
  TransitionEvent only updates a row whose current status is in From.
  When no row matches it returns ErrStaleStatus, which is how a confirm and a
  skip racing on the same event end with exactly one winner.

APPEND-ONLY LEDGER:
  AppendTransaction never updates. A second transaction for the same event
  is rejected with ErrDuplicateTransaction.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, migrations via golang-migrate
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Ledger interface on top of TransactionStore
  - resolution.go: Uses WithTx for confirm
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// RULE STORE
// =============================================================================

// RuleFilter narrows ListRules. Zero values mean "any".
type RuleFilter struct {
	OwnerID    OwnerID
	Kind       RuleKind
	ActiveOnly bool
}

type RuleStore interface {
	// SaveRule inserts or replaces a rule by ID. An owner has at most one
	// active income rule; saving a second returns ErrDuplicateIncomeRule.
	SaveRule(ctx context.Context, rule RecurrenceRule) error

	// GetRule returns the owner's rule or a *NotFoundError.
	GetRule(ctx context.Context, ownerID OwnerID, id RuleID) (*RecurrenceRule, error)

	// ListRules returns rules ordered by creation time.
	ListRules(ctx context.Context, filter RuleFilter) ([]RecurrenceRule, error)
}

// =============================================================================
// EVENT STORE
// =============================================================================

// EventFilter narrows ListEvents. Zero values mean "any".
type EventFilter struct {
	OwnerID  OwnerID
	RuleID   RuleID
	Kind     RuleKind
	Statuses []EventStatus
	From     *TimePoint // inclusive
	To       *TimePoint // inclusive
	Limit    int
}

// EventTransition is a status-guarded update of one event.
type EventTransition struct {
	EventID       EventID
	From          []EventStatus
	To            EventStatus
	ResolvedAt    time.Time
	TransactionID *TransactionID
}

type EventStore interface {
	// CreateEventIfAbsent inserts the event unless one already exists for
	// the same rule and calendar day. Reports whether a row was created.
	CreateEventIfAbsent(ctx context.Context, event PendingEvent) (bool, error)

	// GetEvent returns the owner's event or a *NotFoundError. Events owned by
	// someone else are reported as not found.
	GetEvent(ctx context.Context, ownerID OwnerID, id EventID) (*PendingEvent, error)

	// ListEvents returns events ordered by ExpectedDate ascending.
	ListEvents(ctx context.Context, filter EventFilter) ([]PendingEvent, error)

	// MarkOverdue moves PENDING events dated strictly before today to OVERDUE.
	// An empty ownerID sweeps every owner. Returns the number promoted.
	MarkOverdue(ctx context.Context, ownerID OwnerID, today TimePoint) (int, error)

	// TransitionEvent applies t if the event's status is in t.From, else
	// returns ErrStaleStatus.
	TransitionEvent(ctx context.Context, t EventTransition) error
}

// =============================================================================
// TRANSACTION STORE
// =============================================================================

type TransactionStore interface {
	// AppendTransaction persists a ledger transaction. Append-only.
	AppendTransaction(ctx context.Context, tx LedgerTransaction) error

	// ListTransactions returns the owner's transactions, oldest first.
	ListTransactions(ctx context.Context, ownerID OwnerID) ([]LedgerTransaction, error)

	// TransactionForEvent returns the transaction created for an event, or nil.
	TransactionForEvent(ctx context.Context, eventID EventID) (*LedgerTransaction, error)
}

// =============================================================================
// ACCOUNT DIRECTORY
// =============================================================================

// AccountDirectory answers ownership questions for rule configuration.
type AccountDirectory interface {
	OwnsAccount(ctx context.Context, ownerID OwnerID, accountID AccountID) (bool, error)
}

type AccountStore interface {
	AccountDirectory
	SaveAccount(ctx context.Context, account Account) error
	ListAccounts(ctx context.Context, ownerID OwnerID) ([]Account, error)
}

// =============================================================================
// AGGREGATES
// =============================================================================

// Store is everything the engine persists.
type Store interface {
	RuleStore
	EventStore
	TransactionStore
	AccountStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
