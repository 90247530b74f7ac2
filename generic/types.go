/*
Package generic provides the recurring cash-flow scheduling engine.

PURPOSE:
  This package contains the domain types and algorithms shared by every
  recurring money flow. Whether the rule describes a salary paid on the
  5th business day or a rent bill due on the 10th, the same engine computes
  occurrence dates, materializes pending events, ages them to overdue and
  resolves them into ledger transactions.

KEY CONCEPTS IN THIS FILE (types.go):
  - RecurrenceRule: a configured pattern (when + how much + which account)
  - PendingEvent: one materialized occurrence of a rule on one calendar day
  - LedgerTransaction: the immutable record created when an event is confirmed
  - Account: minimal account directory entry used for ownership checks

DESIGN PRINCIPLES:
  1. Precision: amounts are decimal.Decimal, never float64
  2. Snapshotting: events copy amount/label/account from the rule when they
     are materialized, so editing a rule never rewrites history
  3. Type Safety: distinct ID types for owners, rules, events, transactions

SEE ALSO:
  - time.go: TimePoint, calendar utilities, Clock
  - schedule.go: Schedule implementations (the tagged frequency union)
  - recurrence.go: NextOccurrences
  - materializer.go, lifecycle.go, resolution.go: the event lifecycle
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type RuleID string
type EventID string
type TransactionID string
type AccountID string

// =============================================================================
// AMOUNTS
// =============================================================================

// MustParseDecimal parses s or panics. Intended for fixtures and presets.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// RULE KIND - Direction of the money flow
// =============================================================================

// RuleKind says whether a rule brings money in or takes it out. It becomes
// the Direction of the ledger transaction created on confirmation.
type RuleKind string

const (
	KindIncome  RuleKind = "income"
	KindExpense RuleKind = "expense"
)

func (k RuleKind) Valid() bool { return k == KindIncome || k == KindExpense }

// Direction is the sign of a ledger transaction.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

func (k RuleKind) Direction() Direction {
	if k == KindIncome {
		return DirectionIncome
	}
	return DirectionExpense
}

// =============================================================================
// RECURRENCE RULE
// =============================================================================

// RecurrenceRule is a user-configured recurring cash flow. Rules are never
// hard-deleted; clearing IsActive stops future materialization while events
// that already reference the rule stay intact.
type RecurrenceRule struct {
	ID        RuleID
	OwnerID   OwnerID
	Kind      RuleKind
	Label     string
	Category  string
	Amount    decimal.Decimal
	AccountID AccountID
	Schedule  Schedule
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Frequency is the rule's frequency tag, taken from its schedule.
func (r RecurrenceRule) Frequency() Frequency {
	if r.Schedule == nil {
		return ""
	}
	return r.Schedule.Frequency()
}

// =============================================================================
// PENDING EVENT
// =============================================================================

type EventStatus string

const (
	StatusPending   EventStatus = "pending"
	StatusOverdue   EventStatus = "overdue"
	StatusConfirmed EventStatus = "confirmed"
	StatusSkipped   EventStatus = "skipped"
)

// IsTerminal reports whether no further transition is allowed.
// Overdue is not terminal: it still accepts confirm and skip.
func (s EventStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusSkipped
}

// OpenStatuses are the statuses shown on the upcoming view.
var OpenStatuses = []EventStatus{StatusPending, StatusOverdue}

// PendingEvent is one materialized occurrence of a rule. At most one exists
// per (RuleID, ExpectedDate) pair.
type PendingEvent struct {
	ID            EventID
	RuleID        RuleID
	OwnerID       OwnerID
	Kind          RuleKind
	Label         string
	Category      string
	AccountID     AccountID
	Amount        decimal.Decimal
	ExpectedDate  TimePoint
	Status        EventStatus
	ResolvedAt    *time.Time
	TransactionID *TransactionID
	CreatedAt     time.Time
}

// =============================================================================
// LEDGER TRANSACTION
// =============================================================================

// LedgerTransaction is the immutable financial record produced exactly once
// per confirmed event.
type LedgerTransaction struct {
	ID          TransactionID
	OwnerID     OwnerID
	AccountID   AccountID
	EventID     EventID
	Direction   Direction
	Amount      decimal.Decimal
	Description string
	Category    string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// =============================================================================
// ACCOUNT
// =============================================================================

type Account struct {
	ID        AccountID
	OwnerID   OwnerID
	Name      string
	CreatedAt time.Time
}
