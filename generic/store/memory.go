// Package store provides Store implementations.
package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/warp/cashflow-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	rules        map[generic.RuleID]generic.RecurrenceRule
	events       map[generic.EventID]generic.PendingEvent
	eventDays    map[dayKey]generic.EventID
	transactions []generic.LedgerTransaction
	txByEvent    map[generic.EventID]int
	accounts     map[generic.AccountID]generic.Account
}

type dayKey struct {
	RuleID generic.RuleID
	Day    string
}

func NewMemory() *Memory {
	return &Memory{
		rules:     make(map[generic.RuleID]generic.RecurrenceRule),
		events:    make(map[generic.EventID]generic.PendingEvent),
		eventDays: make(map[dayKey]generic.EventID),
		txByEvent: make(map[generic.EventID]int),
		accounts:  make(map[generic.AccountID]generic.Account),
	}
}

// =============================================================================
// RULES
// =============================================================================

func (m *Memory) SaveRule(_ context.Context, rule generic.RecurrenceRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRuleLocked(rule)
}

func (m *Memory) saveRuleLocked(rule generic.RecurrenceRule) error {
	if rule.Kind == generic.KindIncome && rule.IsActive {
		for _, other := range m.rules {
			if other.ID != rule.ID && other.OwnerID == rule.OwnerID &&
				other.Kind == generic.KindIncome && other.IsActive {
				return generic.ErrDuplicateIncomeRule
			}
		}
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *Memory) GetRule(_ context.Context, ownerID generic.OwnerID, id generic.RuleID) (*generic.RecurrenceRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRuleLocked(ownerID, id)
}

func (m *Memory) getRuleLocked(ownerID generic.OwnerID, id generic.RuleID) (*generic.RecurrenceRule, error) {
	rule, ok := m.rules[id]
	if !ok || rule.OwnerID != ownerID {
		return nil, &generic.NotFoundError{Kind: "rule", ID: string(id)}
	}
	return &rule, nil
}

func (m *Memory) ListRules(_ context.Context, filter generic.RuleFilter) ([]generic.RecurrenceRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRulesLocked(filter), nil
}

func (m *Memory) listRulesLocked(filter generic.RuleFilter) []generic.RecurrenceRule {
	var result []generic.RecurrenceRule
	for _, r := range m.rules {
		if filter.OwnerID != "" && r.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if filter.ActiveOnly && !r.IsActive {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// =============================================================================
// EVENTS
// =============================================================================

func (m *Memory) CreateEventIfAbsent(_ context.Context, event generic.PendingEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createEventLocked(event), nil
}

func (m *Memory) createEventLocked(event generic.PendingEvent) bool {
	k := dayKey{RuleID: event.RuleID, Day: event.ExpectedDate.String()}
	if _, exists := m.eventDays[k]; exists {
		return false
	}
	m.eventDays[k] = event.ID
	m.events[event.ID] = event
	return true
}

func (m *Memory) GetEvent(_ context.Context, ownerID generic.OwnerID, id generic.EventID) (*generic.PendingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEventLocked(ownerID, id)
}

func (m *Memory) getEventLocked(ownerID generic.OwnerID, id generic.EventID) (*generic.PendingEvent, error) {
	event, ok := m.events[id]
	if !ok || event.OwnerID != ownerID {
		return nil, &generic.NotFoundError{Kind: "event", ID: string(id)}
	}
	return &event, nil
}

func (m *Memory) ListEvents(_ context.Context, filter generic.EventFilter) ([]generic.PendingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEventsLocked(filter), nil
}

func (m *Memory) listEventsLocked(filter generic.EventFilter) []generic.PendingEvent {
	var result []generic.PendingEvent
	for _, e := range m.events {
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		if filter.RuleID != "" && e.RuleID != filter.RuleID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, e.Status) {
			continue
		}
		if filter.From != nil && e.ExpectedDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.ExpectedDate.After(*filter.To) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.ExpectedDate.Equal(b.ExpectedDate) {
			return a.ExpectedDate.Before(b.ExpectedDate)
		}
		return a.ID < b.ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result
}

func (m *Memory) MarkOverdue(_ context.Context, ownerID generic.OwnerID, today generic.TimePoint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markOverdueLocked(ownerID, today), nil
}

func (m *Memory) markOverdueLocked(ownerID generic.OwnerID, today generic.TimePoint) int {
	n := 0
	for id, e := range m.events {
		if ownerID != "" && e.OwnerID != ownerID {
			continue
		}
		if e.Status == generic.StatusPending && e.ExpectedDate.Before(today) {
			e.Status = generic.StatusOverdue
			m.events[id] = e
			n++
		}
	}
	return n
}

func (m *Memory) TransitionEvent(_ context.Context, t generic.EventTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(t)
}

func (m *Memory) transitionLocked(t generic.EventTransition) error {
	e, ok := m.events[t.EventID]
	if !ok || !slices.Contains(t.From, e.Status) {
		return generic.ErrStaleStatus
	}
	resolvedAt := t.ResolvedAt
	e.Status = t.To
	e.ResolvedAt = &resolvedAt
	e.TransactionID = t.TransactionID
	m.events[t.EventID] = e
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// AppendTransaction adds a single transaction. Append-only.
func (m *Memory) AppendTransaction(_ context.Context, tx generic.LedgerTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(tx)
}

func (m *Memory) appendLocked(tx generic.LedgerTransaction) error {
	if _, exists := m.txByEvent[tx.EventID]; exists && tx.EventID != "" {
		return generic.ErrDuplicateTransaction
	}
	m.transactions = append(m.transactions, tx)
	if tx.EventID != "" {
		m.txByEvent[tx.EventID] = len(m.transactions) - 1
	}
	return nil
}

func (m *Memory) ListTransactions(_ context.Context, ownerID generic.OwnerID) ([]generic.LedgerTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTransactionsLocked(ownerID), nil
}

func (m *Memory) listTransactionsLocked(ownerID generic.OwnerID) []generic.LedgerTransaction {
	var result []generic.LedgerTransaction
	for _, tx := range m.transactions {
		if tx.OwnerID == ownerID {
			result = append(result, tx)
		}
	}
	return result
}

func (m *Memory) TransactionForEvent(_ context.Context, eventID generic.EventID) (*generic.LedgerTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transactionForEventLocked(eventID), nil
}

func (m *Memory) transactionForEventLocked(eventID generic.EventID) *generic.LedgerTransaction {
	i, ok := m.txByEvent[eventID]
	if !ok {
		return nil
	}
	tx := m.transactions[i]
	return &tx
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, account generic.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *Memory) ListAccounts(_ context.Context, ownerID generic.OwnerID) ([]generic.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAccountsLocked(ownerID), nil
}

func (m *Memory) listAccountsLocked(ownerID generic.OwnerID) []generic.Account {
	var result []generic.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Memory) OwnsAccount(_ context.Context, ownerID generic.OwnerID, accountID generic.AccountID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[accountID]
	return ok && a.OwnerID == ownerID, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(_ context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm.Memory}

	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

// Reset clears all data.
func (tm *TxMemory) Reset(_ context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.Memory.clearLocked()
	return nil
}

func (m *Memory) clearLocked() {
	m.rules = make(map[generic.RuleID]generic.RecurrenceRule)
	m.events = make(map[generic.EventID]generic.PendingEvent)
	m.eventDays = make(map[dayKey]generic.EventID)
	m.transactions = nil
	m.txByEvent = make(map[generic.EventID]int)
	m.accounts = make(map[generic.AccountID]generic.Account)
}

type memorySnapshot struct {
	rules        map[generic.RuleID]generic.RecurrenceRule
	events       map[generic.EventID]generic.PendingEvent
	eventDays    map[dayKey]generic.EventID
	transactions []generic.LedgerTransaction
	txByEvent    map[generic.EventID]int
	accounts     map[generic.AccountID]generic.Account
}

func (tm *TxMemory) snapshot() memorySnapshot {
	return memorySnapshot{
		rules:        cloneMap(tm.rules),
		events:       cloneMap(tm.events),
		eventDays:    cloneMap(tm.eventDays),
		transactions: slices.Clone(tm.transactions),
		txByEvent:    cloneMap(tm.txByEvent),
		accounts:     cloneMap(tm.accounts),
	}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.rules = s.rules
	tm.events = s.events
	tm.eventDays = s.eventDays
	tm.transactions = s.transactions
	tm.txByEvent = s.txByEvent
	tm.accounts = s.accounts
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// txMemoryView runs against the parent's maps while WithTx holds the lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveRule(_ context.Context, rule generic.RecurrenceRule) error {
	return tv.parent.saveRuleLocked(rule)
}

func (tv *txMemoryView) GetRule(_ context.Context, ownerID generic.OwnerID, id generic.RuleID) (*generic.RecurrenceRule, error) {
	return tv.parent.getRuleLocked(ownerID, id)
}

func (tv *txMemoryView) ListRules(_ context.Context, filter generic.RuleFilter) ([]generic.RecurrenceRule, error) {
	return tv.parent.listRulesLocked(filter), nil
}

func (tv *txMemoryView) CreateEventIfAbsent(_ context.Context, event generic.PendingEvent) (bool, error) {
	return tv.parent.createEventLocked(event), nil
}

func (tv *txMemoryView) GetEvent(_ context.Context, ownerID generic.OwnerID, id generic.EventID) (*generic.PendingEvent, error) {
	return tv.parent.getEventLocked(ownerID, id)
}

func (tv *txMemoryView) ListEvents(_ context.Context, filter generic.EventFilter) ([]generic.PendingEvent, error) {
	return tv.parent.listEventsLocked(filter), nil
}

func (tv *txMemoryView) MarkOverdue(_ context.Context, ownerID generic.OwnerID, today generic.TimePoint) (int, error) {
	return tv.parent.markOverdueLocked(ownerID, today), nil
}

func (tv *txMemoryView) TransitionEvent(_ context.Context, t generic.EventTransition) error {
	return tv.parent.transitionLocked(t)
}

func (tv *txMemoryView) AppendTransaction(_ context.Context, tx generic.LedgerTransaction) error {
	return tv.parent.appendLocked(tx)
}

func (tv *txMemoryView) ListTransactions(_ context.Context, ownerID generic.OwnerID) ([]generic.LedgerTransaction, error) {
	return tv.parent.listTransactionsLocked(ownerID), nil
}

func (tv *txMemoryView) TransactionForEvent(_ context.Context, eventID generic.EventID) (*generic.LedgerTransaction, error) {
	return tv.parent.transactionForEventLocked(eventID), nil
}

func (tv *txMemoryView) SaveAccount(_ context.Context, account generic.Account) error {
	tv.parent.accounts[account.ID] = account
	return nil
}

func (tv *txMemoryView) ListAccounts(_ context.Context, ownerID generic.OwnerID) ([]generic.Account, error) {
	return tv.parent.listAccountsLocked(ownerID), nil
}

func (tv *txMemoryView) OwnsAccount(_ context.Context, ownerID generic.OwnerID, accountID generic.AccountID) (bool, error) {
	a, ok := tv.parent.accounts[accountID]
	return ok && a.OwnerID == ownerID, nil
}

var (
	_ generic.TxStore = (*TxMemory)(nil)
	_ generic.Store   = (*txMemoryView)(nil)
)
