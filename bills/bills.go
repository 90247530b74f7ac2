/*
Package bills provides the fixed-expense flow.

PURPOSE:
  An owner registers recurring bills (rent on the 10th, internet on the
  last business day). Each bill is an expense rule. Creating one
  materializes the next occurrences immediately; paying an occurrence
  records an expense transaction in the ledger.

LIFECYCLE:
  pending -> overdue (due date passed) -> paid | skipped

  "Paid" is the bills vocabulary for the engine's confirmed status.

SOFT DELETE:
  Remove deactivates the rule. Bills already materialized stay visible
  until they are paid or skipped.

SEE ALSO:
  - income/: the income side, same engine
  - generic/period.go: month window used by Summary
*/
package bills

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/generic"
)

// NextBillsLimit is how many upcoming bills Summary lists.
const NextBillsLimit = 5

// Bill is the user-editable part of a fixed expense.
type Bill struct {
	Label     string
	Category  string
	Amount    decimal.Decimal
	AccountID generic.AccountID
	Schedule  generic.Schedule
}

// DueOn is the usual bill schedule: a fixed day of every month, clamped to
// short months.
func DueOn(day int) generic.Schedule {
	return generic.MonthlyFixedDay{Day: day}
}

// StatusLabel renders an event status in bills vocabulary.
func StatusLabel(s generic.EventStatus) string {
	if s == generic.StatusConfirmed {
		return "paid"
	}
	return string(s)
}

// Summary is the dashboard view of the current month's bills.
type Summary struct {
	Month        generic.Period
	TotalPending decimal.Decimal // pending and overdue bills due this month
	TotalOverdue decimal.Decimal
	BillsCount   int
	OverdueCount int
	NextBills    []generic.PendingEvent
}

// Service implements the bills flow on top of the generic engine.
type Service struct {
	engine *generic.Engine
}

func NewService(engine *generic.Engine) *Service {
	return &Service{engine: engine}
}

func (b Bill) input() generic.RuleInput {
	return generic.RuleInput{
		Kind:      generic.KindExpense,
		Label:     b.Label,
		Category:  b.Category,
		Amount:    b.Amount,
		AccountID: b.AccountID,
		Schedule:  b.Schedule,
	}
}

// Create registers a bill and materializes its upcoming occurrences.
func (s *Service) Create(ctx context.Context, ownerID generic.OwnerID, b Bill) (generic.RecurrenceRule, error) {
	return s.engine.CreateRule(ctx, ownerID, b.input())
}

// Update replaces a bill's fields. Occurrences already materialized keep
// their original amount and due date.
func (s *Service) Update(ctx context.Context, ownerID generic.OwnerID, id generic.RuleID, b Bill) (generic.RecurrenceRule, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return generic.RecurrenceRule{}, err
	}
	return s.engine.UpdateRule(ctx, ownerID, id, b.input())
}

// Remove soft-deletes a bill.
func (s *Service) Remove(ctx context.Context, ownerID generic.OwnerID, id generic.RuleID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.engine.Rules.Deactivate(ctx, ownerID, id)
}

// Get returns one bill. Income rules are reported as not found.
func (s *Service) Get(ctx context.Context, ownerID generic.OwnerID, id generic.RuleID) (*generic.RecurrenceRule, error) {
	rule, err := s.engine.Rules.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if rule.Kind != generic.KindExpense {
		return nil, &generic.NotFoundError{Kind: "bill", ID: string(id)}
	}
	return rule, nil
}

// List returns the owner's active bills.
func (s *Service) List(ctx context.Context, ownerID generic.OwnerID) ([]generic.RecurrenceRule, error) {
	return s.engine.Rules.List(ctx, ownerID, generic.KindExpense)
}

// Pending returns unpaid bills, earliest due first.
func (s *Service) Pending(ctx context.Context, ownerID generic.OwnerID) ([]generic.PendingEvent, error) {
	return s.engine.Scheduler.Upcoming(ctx, ownerID, generic.UpcomingQuery{Kind: generic.KindExpense, Limit: generic.NoLimit})
}

// Pay confirms a bill occurrence and records the expense.
func (s *Service) Pay(ctx context.Context, ownerID generic.OwnerID, id generic.EventID) (generic.LedgerTransaction, error) {
	if _, err := s.engine.EventOfKind(ctx, ownerID, id, generic.KindExpense); err != nil {
		return generic.LedgerTransaction{}, err
	}
	return s.engine.Resolver.Confirm(ctx, ownerID, id)
}

// Skip marks a bill occurrence as not due this time.
func (s *Service) Skip(ctx context.Context, ownerID generic.OwnerID, id generic.EventID) error {
	if _, err := s.engine.EventOfKind(ctx, ownerID, id, generic.KindExpense); err != nil {
		return err
	}
	return s.engine.Resolver.Skip(ctx, ownerID, id)
}

// Summary totals this month's unpaid bills and lists the next few.
func (s *Service) Summary(ctx context.Context, ownerID generic.OwnerID) (*Summary, error) {
	pending, err := s.Pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	month := generic.MonthPeriod(s.engine.Clock.Today())
	summary := &Summary{
		Month:        month,
		TotalPending: decimal.Zero,
		TotalOverdue: decimal.Zero,
	}
	for _, bill := range month.Filter(pending) {
		summary.TotalPending = summary.TotalPending.Add(bill.Amount)
		summary.BillsCount++
		if bill.Status == generic.StatusOverdue {
			summary.TotalOverdue = summary.TotalOverdue.Add(bill.Amount)
			summary.OverdueCount++
		}
	}

	summary.NextBills = pending
	if len(pending) > NextBillsLimit {
		summary.NextBills = pending[:NextBillsLimit]
	}
	return summary, nil
}
