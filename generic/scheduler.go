package generic

import (
	"context"
	"errors"
	"log/slog"
)

// =============================================================================
// HORIZONS
// =============================================================================

// Horizons is how many future occurrences are kept materialized per kind.
type Horizons struct {
	Income  int
	Expense int
}

// DefaultHorizons keeps six months of income and three of bills visible.
func DefaultHorizons() Horizons {
	return Horizons{Income: 6, Expense: 3}
}

func (h Horizons) For(kind RuleKind) int {
	if kind == KindIncome {
		return h.Income
	}
	return h.Expense
}

// =============================================================================
// SCHEDULER - read path: materialize, age, list
// =============================================================================

// NoLimit asks Upcoming for every open event.
const NoLimit = -1

// UpcomingQuery narrows the upcoming view. Zero values mean "any kind" and
// "default limit".
type UpcomingQuery struct {
	Kind  RuleKind
	Limit int
}

// Scheduler is the read-side facade. Every read first brings the owner's
// events up to date (materialize, then sweep), so no background job is
// required for correctness.
type Scheduler struct {
	Store        Store
	Materializer *Materializer
	Lifecycle    *Lifecycle
	Horizons     Horizons
	DefaultLimit int
	Logger       *slog.Logger
}

func NewScheduler(store Store, clock Clock, logger *slog.Logger, horizons Horizons) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Store:        store,
		Materializer: NewMaterializer(store, clock, logger),
		Lifecycle:    NewLifecycle(store, clock, logger),
		Horizons:     horizons,
		DefaultLimit: 20,
		Logger:       logger,
	}
}

// Refresh materializes the owner's active rules of the given kind ("" for
// all kinds) and sweeps overdue events.
func (s *Scheduler) Refresh(ctx context.Context, ownerID OwnerID, kind RuleKind) error {
	rules, err := s.Store.ListRules(ctx, RuleFilter{OwnerID: ownerID, Kind: kind, ActiveOnly: true})
	if err != nil {
		return err
	}
	if _, err := s.materializeAll(ctx, rules); err != nil {
		return err
	}
	_, err = s.Lifecycle.Sweep(ctx, ownerID)
	return err
}

// Upcoming returns the owner's PENDING and OVERDUE events, earliest first.
func (s *Scheduler) Upcoming(ctx context.Context, ownerID OwnerID, q UpcomingQuery) ([]PendingEvent, error) {
	if err := s.Refresh(ctx, ownerID, q.Kind); err != nil {
		return nil, err
	}

	limit := q.Limit
	switch {
	case limit == NoLimit:
		limit = 0
	case limit <= 0:
		limit = s.DefaultLimit
	}
	return s.Store.ListEvents(ctx, EventFilter{
		OwnerID:  ownerID,
		Kind:     q.Kind,
		Statuses: OpenStatuses,
		Limit:    limit,
	})
}

// RefreshAll materializes every active rule and sweeps every owner.
// Used by the periodic sweeper.
func (s *Scheduler) RefreshAll(ctx context.Context) (created, overdue int, err error) {
	rules, err := s.Store.ListRules(ctx, RuleFilter{ActiveOnly: true})
	if err != nil {
		return 0, 0, err
	}
	created, err = s.materializeAll(ctx, rules)
	if err != nil {
		return created, 0, err
	}
	overdue, err = s.Lifecycle.SweepAll(ctx)
	return created, overdue, err
}

// materializeAll tops up every rule's horizon. A stored rule whose schedule
// no longer validates is logged and skipped so it cannot hide the owner's
// other events.
func (s *Scheduler) materializeAll(ctx context.Context, rules []RecurrenceRule) (int, error) {
	total := 0
	for _, rule := range rules {
		n, err := s.Materializer.Materialize(ctx, rule, s.Horizons.For(rule.Kind))
		total += n
		if errors.Is(err, ErrConfiguration) {
			s.Logger.Warn("skipping misconfigured rule", "rule", rule.ID, "owner", rule.OwnerID, "error", err)
			continue
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
