package generic

import (
	"context"
	"log/slog"
)

// Engine bundles the services that share one store and clock. Domain
// packages (income, bills) and the HTTP layer are built on top of it.
type Engine struct {
	Store     TxStore
	Clock     Clock
	Logger    *slog.Logger
	Rules     *RuleManager
	Scheduler *Scheduler
	Resolver  *Resolver
}

func NewEngine(store TxStore, clock Clock, logger *slog.Logger, horizons Horizons) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Store:     store,
		Clock:     clock,
		Logger:    logger,
		Rules:     NewRuleManager(store, store, clock, logger),
		Scheduler: NewScheduler(store, clock, logger, horizons),
		Resolver:  NewResolver(store, clock, logger),
	}
}

// EventOfKind returns the owner's event if it has the given kind. Events of
// another kind are reported as not found, so an income endpoint cannot
// resolve a bill and vice versa.
func (e *Engine) EventOfKind(ctx context.Context, ownerID OwnerID, id EventID, kind RuleKind) (*PendingEvent, error) {
	event, err := e.Store.GetEvent(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if event.Kind != kind {
		return nil, &NotFoundError{Kind: string(kind) + " event", ID: string(id)}
	}
	return event, nil
}

// CreateRule creates a rule and materializes its horizon right away, so
// the first occurrences are visible without waiting for a read.
func (e *Engine) CreateRule(ctx context.Context, ownerID OwnerID, in RuleInput) (RecurrenceRule, error) {
	rule, err := e.Rules.Create(ctx, ownerID, in)
	if err != nil {
		return RecurrenceRule{}, err
	}
	if _, err := e.Scheduler.Materializer.Materialize(ctx, rule, e.Scheduler.Horizons.For(rule.Kind)); err != nil {
		return rule, err
	}
	return rule, nil
}

// UpdateRule updates a rule and materializes any newly covered dates.
func (e *Engine) UpdateRule(ctx context.Context, ownerID OwnerID, id RuleID, in RuleInput) (RecurrenceRule, error) {
	rule, err := e.Rules.Update(ctx, ownerID, id, in)
	if err != nil {
		return RecurrenceRule{}, err
	}
	if _, err := e.Scheduler.Materializer.Materialize(ctx, rule, e.Scheduler.Horizons.For(rule.Kind)); err != nil {
		return rule, err
	}
	return rule, nil
}
