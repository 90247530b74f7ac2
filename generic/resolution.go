/*
resolution.go - Confirming and skipping pending events

PURPOSE:
  Resolves an open event (PENDING or OVERDUE) into a terminal state.
  Confirm records exactly one ledger transaction; Skip records nothing.

ATOMICITY:
  Confirm runs inside TxStore.WithTx. The ledger append and the guarded
  status update commit together or not at all. The status update only
  matches rows still in an open status, so when a confirm and a skip race
  on the same event exactly one of them wins and the loser gets an
  *InvalidStateError. The ledger's one-transaction-per-event constraint is
  a second line of defence against a double confirm.

OWNERSHIP:
  Events that belong to a different owner are reported as not found, so a
  caller cannot discover other owners' event identifiers.

SEE ALSO:
  - lifecycle.go: CanTransition
  - ledger.go: Ledger contract
*/
package generic

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Resolver confirms and skips events.
type Resolver struct {
	Store  TxStore
	Clock  Clock
	Logger *slog.Logger

	// NewLedger builds the ledger used inside a transaction. Defaults to
	// DefaultLedger over the transactional store.
	NewLedger func(TransactionStore) Ledger
}

func NewResolver(store TxStore, clock Clock, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Store:  store,
		Clock:  clock,
		Logger: logger,
		NewLedger: func(s TransactionStore) Ledger {
			return &DefaultLedger{Store: s, Clock: clock}
		},
	}
}

// Confirm marks the event CONFIRMED and appends its ledger transaction.
// Returns the recorded transaction.
func (r *Resolver) Confirm(ctx context.Context, ownerID OwnerID, eventID EventID) (LedgerTransaction, error) {
	var recorded LedgerTransaction

	err := r.Store.WithTx(ctx, func(s Store) error {
		event, err := r.openEvent(ctx, s, ownerID, eventID, StatusConfirmed)
		if err != nil {
			return err
		}

		now := r.Clock.Now()
		tx := LedgerTransaction{
			OwnerID:     event.OwnerID,
			AccountID:   event.AccountID,
			EventID:     event.ID,
			Direction:   event.Kind.Direction(),
			Amount:      event.Amount,
			Description: event.Label,
			Category:    event.Category,
			OccurredAt:  now,
			CreatedAt:   now,
		}

		txID, err := r.NewLedger(s).Append(ctx, tx)
		if errors.Is(err, ErrDuplicateTransaction) {
			return &InvalidStateError{EventID: eventID, From: StatusConfirmed, To: StatusConfirmed}
		}
		if err != nil {
			return err
		}
		tx.ID = txID

		if err := r.transition(ctx, s, event, StatusConfirmed, now, &txID); err != nil {
			return err
		}
		recorded = tx
		return nil
	})
	if err != nil {
		return LedgerTransaction{}, err
	}

	r.Logger.Info("event confirmed",
		"owner", ownerID, "event", eventID, "transaction", recorded.ID,
		"direction", recorded.Direction, "amount", recorded.Amount.String())
	return recorded, nil
}

// Skip marks the event SKIPPED. No transaction is created.
func (r *Resolver) Skip(ctx context.Context, ownerID OwnerID, eventID EventID) error {
	err := r.Store.WithTx(ctx, func(s Store) error {
		event, err := r.openEvent(ctx, s, ownerID, eventID, StatusSkipped)
		if err != nil {
			return err
		}
		return r.transition(ctx, s, event, StatusSkipped, r.Clock.Now(), nil)
	})
	if err != nil {
		return err
	}

	r.Logger.Info("event skipped", "owner", ownerID, "event", eventID)
	return nil
}

func (r *Resolver) openEvent(ctx context.Context, s Store, ownerID OwnerID, eventID EventID, to EventStatus) (*PendingEvent, error) {
	event, err := s.GetEvent(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(event.Status, to) {
		return nil, &InvalidStateError{EventID: eventID, From: event.Status, To: to}
	}
	return event, nil
}

func (r *Resolver) transition(ctx context.Context, s Store, event *PendingEvent, to EventStatus, at time.Time, txID *TransactionID) error {
	err := s.TransitionEvent(ctx, EventTransition{
		EventID:       event.ID,
		From:          OpenStatuses,
		To:            to,
		ResolvedAt:    at,
		TransactionID: txID,
	})
	if errors.Is(err, ErrStaleStatus) {
		// Someone else resolved it between our read and our write.
		return &InvalidStateError{EventID: event.ID, From: event.Status, To: to}
	}
	return err
}
