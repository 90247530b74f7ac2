/*
ledger.go - Append-only transaction log

PURPOSE:
  The Ledger is the external collaborator that records money movements.
  The scheduler only needs "append a transaction, get its identifier"; it
  never reads ledger internals. DefaultLedger implements that contract on
  top of a TransactionStore.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. ONE PER EVENT: a pending event produces at most one transaction. The
     store rejects a second one with ErrDuplicateTransaction.
  3. POSITIVE AMOUNTS: the sign lives in Direction, not in Amount.

SEE ALSO:
  - store.go: TransactionStore
  - resolution.go: the only writer
*/
package generic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Ledger appends immutable transactions.
type Ledger interface {
	Append(ctx context.Context, tx LedgerTransaction) (TransactionID, error)
}

// DefaultLedger is a Ledger backed by a TransactionStore.
type DefaultLedger struct {
	Store TransactionStore
	Clock Clock
}

func NewLedger(store TransactionStore) *DefaultLedger {
	return &DefaultLedger{Store: store, Clock: SystemClock{}}
}

func (l *DefaultLedger) Append(ctx context.Context, tx LedgerTransaction) (TransactionID, error) {
	if !tx.Amount.IsPositive() {
		return "", fmt.Errorf("ledger transaction amount must be positive, got %s", tx.Amount)
	}
	if tx.Direction != DirectionIncome && tx.Direction != DirectionExpense {
		return "", fmt.Errorf("ledger transaction has unknown direction %q", tx.Direction)
	}
	if tx.ID == "" {
		tx.ID = TransactionID(uuid.NewString())
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.Clock.Now()
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = tx.CreatedAt
	}
	if err := l.Store.AppendTransaction(ctx, tx); err != nil {
		return "", err
	}
	return tx.ID, nil
}
