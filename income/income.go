/*
Package income provides the recurring income flow.

PURPOSE:
  An owner configures how they are paid (amount, account and a schedule
  such as "5th business day" or "advance on the 20th, salary on the 5th
  business day"). The engine materializes the next payments, and the owner
  confirms each one when the money lands, which records an income
  transaction in the ledger.

ONE RULE PER OWNER:
  Configure is an upsert. The first call creates the income rule; later
  calls replace its amount, account and schedule. Events that were already
  materialized keep the values they were created with. The store rejects a
  second active income rule, so two concurrent first calls end with one
  rule: the loser updates the winner's.

STATUSES:
  pending -> overdue (expected date passed) -> confirmed | skipped

SEE ALSO:
  - bills/: the expense side, same engine
  - generic/scheduler.go: read path
*/
package income

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/generic"
)

// DefaultLabel is used when Configure is called without a label.
const DefaultLabel = "Income"

// Config is the user-editable income setup.
type Config struct {
	Label     string
	Category  string
	Amount    decimal.Decimal
	AccountID generic.AccountID
	Schedule  generic.Schedule
}

// Summary is the dashboard view of an owner's income.
type Summary struct {
	RuleID            generic.RuleID
	Amount            decimal.Decimal
	MonthlyIncome     decimal.Decimal
	ReceivedThisMonth decimal.Decimal
	Frequency         generic.Frequency
	NextPaymentDate   *generic.TimePoint
	Pending           []generic.PendingEvent
}

// Service implements the income flow on top of the generic engine.
type Service struct {
	engine *generic.Engine
}

func NewService(engine *generic.Engine) *Service {
	return &Service{engine: engine}
}

// Configure creates or replaces the owner's income rule.
func (s *Service) Configure(ctx context.Context, ownerID generic.OwnerID, cfg Config) (generic.RecurrenceRule, error) {
	label := cfg.Label
	if label == "" {
		label = DefaultLabel
	}
	in := generic.RuleInput{
		Kind:      generic.KindIncome,
		Label:     label,
		Category:  cfg.Category,
		Amount:    cfg.Amount,
		AccountID: cfg.AccountID,
		Schedule:  cfg.Schedule,
	}

	existing, err := s.engine.Rules.List(ctx, ownerID, generic.KindIncome)
	if err != nil {
		return generic.RecurrenceRule{}, err
	}
	if len(existing) == 0 {
		rule, err := s.engine.CreateRule(ctx, ownerID, in)
		if !errors.Is(err, generic.ErrDuplicateIncomeRule) {
			return rule, err
		}
		// A concurrent Configure created the rule first; update that one.
		if existing, err = s.engine.Rules.List(ctx, ownerID, generic.KindIncome); err != nil {
			return generic.RecurrenceRule{}, err
		}
		if len(existing) == 0 {
			return generic.RecurrenceRule{}, generic.ErrDuplicateIncomeRule
		}
	}
	return s.engine.UpdateRule(ctx, ownerID, existing[0].ID, in)
}

// Rule returns the owner's active income rule.
func (s *Service) Rule(ctx context.Context, ownerID generic.OwnerID) (*generic.RecurrenceRule, error) {
	rules, err := s.engine.Rules.List(ctx, ownerID, generic.KindIncome)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, &generic.NotFoundError{Kind: "income rule", ID: string(ownerID)}
	}
	return &rules[0], nil
}

// Disable soft-deletes the owner's income rule.
func (s *Service) Disable(ctx context.Context, ownerID generic.OwnerID) error {
	rule, err := s.Rule(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.engine.Rules.Deactivate(ctx, ownerID, rule.ID)
}

// Pending returns open income events, earliest first.
func (s *Service) Pending(ctx context.Context, ownerID generic.OwnerID) ([]generic.PendingEvent, error) {
	return s.engine.Scheduler.Upcoming(ctx, ownerID, generic.UpcomingQuery{Kind: generic.KindIncome, Limit: generic.NoLimit})
}

// Confirm records that an expected payment was received.
func (s *Service) Confirm(ctx context.Context, ownerID generic.OwnerID, id generic.EventID) (generic.LedgerTransaction, error) {
	if _, err := s.engine.EventOfKind(ctx, ownerID, id, generic.KindIncome); err != nil {
		return generic.LedgerTransaction{}, err
	}
	return s.engine.Resolver.Confirm(ctx, ownerID, id)
}

// Skip records that an expected payment will not arrive.
func (s *Service) Skip(ctx context.Context, ownerID generic.OwnerID, id generic.EventID) error {
	if _, err := s.engine.EventOfKind(ctx, ownerID, id, generic.KindIncome); err != nil {
		return err
	}
	return s.engine.Resolver.Skip(ctx, ownerID, id)
}

// Summary returns the income rule with its next payment date and the open
// income events. Returns a *NotFoundError when no income is configured.
func (s *Service) Summary(ctx context.Context, ownerID generic.OwnerID) (*Summary, error) {
	rule, err := s.Rule(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	pending, err := s.Pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	received, err := s.ReceivedIn(ctx, ownerID, s.engine.Clock.Now())
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RuleID:            rule.ID,
		Amount:            rule.Amount,
		MonthlyIncome:     MonthlyEstimate(*rule),
		ReceivedThisMonth: received,
		Frequency:         rule.Frequency(),
		Pending:           pending,
	}
	next, err := generic.NextOccurrencesForRule(*rule, s.engine.Clock.Today(), 3)
	if err != nil {
		return nil, err
	}
	if len(next) > 0 {
		summary.NextPaymentDate = &next[0]
	}
	return summary, nil
}

// MonthlyEstimate approximates the amount received per month under rule.
// Biweekly schedules pay twice a month, weekly ones 52/12 times and daily
// ones once per business day (about 21.67).
func MonthlyEstimate(rule generic.RecurrenceRule) decimal.Decimal {
	switch rule.Frequency() {
	case generic.FreqBiweekly:
		return rule.Amount.Mul(decimal.NewFromInt(2))
	case generic.FreqWeekly:
		return rule.Amount.Mul(decimal.NewFromInt(52)).Div(decimal.NewFromInt(12)).Round(2)
	case generic.FreqDaily:
		return rule.Amount.Mul(decimal.NewFromInt(260)).Div(decimal.NewFromInt(12)).Round(2)
	default:
		return rule.Amount
	}
}

// ReceivedIn sums the owner's income transactions that occurred in the
// month containing at. Occurrence times are compared in at's location.
func (s *Service) ReceivedIn(ctx context.Context, ownerID generic.OwnerID, at time.Time) (decimal.Decimal, error) {
	txs, err := s.engine.Store.ListTransactions(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	month := generic.MonthPeriod(generic.DateOf(at))
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Direction == generic.DirectionIncome && month.Contains(generic.DateOf(tx.OccurredAt.In(at.Location()))) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}
