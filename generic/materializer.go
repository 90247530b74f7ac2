package generic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// =============================================================================
// EVENT MATERIALIZER
// =============================================================================

// Materializer makes sure a PendingEvent exists for each of a rule's next
// occurrences. It is safe to call on every read: the store's atomic
// create-if-absent keeps one event per (rule, calendar day), even when
// several replicas materialize the same rule at once.
type Materializer struct {
	Store  EventStore
	Clock  Clock
	Logger *slog.Logger
}

func NewMaterializer(store EventStore, clock Clock, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{Store: store, Clock: clock, Logger: logger}
}

// Materialize creates the missing events among the rule's next horizon
// occurrences from today. Inactive rules are ignored. Returns how many
// events were created by this call.
func (m *Materializer) Materialize(ctx context.Context, rule RecurrenceRule, horizon int) (int, error) {
	if !rule.IsActive || horizon <= 0 {
		return 0, nil
	}

	dates, err := NextOccurrencesForRule(rule, m.Clock.Today(), horizon)
	if err != nil {
		return 0, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	now := m.Clock.Now()
	created := 0
	for _, date := range dates {
		// Copy, don't reference: later rule edits must not alter this event.
		event := PendingEvent{
			ID:           EventID(uuid.NewString()),
			RuleID:       rule.ID,
			OwnerID:      rule.OwnerID,
			Kind:         rule.Kind,
			Label:        rule.Label,
			Category:     rule.Category,
			AccountID:    rule.AccountID,
			Amount:       rule.Amount,
			ExpectedDate: date,
			Status:       StatusPending,
			CreatedAt:    now,
		}
		ok, err := m.Store.CreateEventIfAbsent(ctx, event)
		if err != nil {
			return created, fmt.Errorf("materialize %s on %s: %w", rule.ID, date, err)
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		m.Logger.Debug("events materialized", "rule", rule.ID, "owner", rule.OwnerID, "created", created, "horizon", horizon)
	}
	return created, nil
}
