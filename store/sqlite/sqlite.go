/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore (rules, pending events, ledger transactions,
  accounts) using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  recurrence_rules:    Rule definitions, schedule stored as JSON, at most one
                       active income rule per owner (partial unique index)
  pending_events:      Materialized occurrences, UNIQUE(rule_id, event_day)
  ledger_transactions: Append-only, UNIQUE(event_id)
  accounts:            Minimal account directory

UNIQUENESS:
  CreateEventIfAbsent is INSERT ... ON CONFLICT(rule_id, event_day) DO
  NOTHING. The constraint lives in the database, so two processes sharing
  the same file cannot create duplicate events even though each has its
  own in-process mutex.

GUARDED TRANSITIONS:
  TransitionEvent is UPDATE ... WHERE id = ? AND status IN (...). Zero rows
  affected means the event was resolved concurrently (ErrStaleStatus).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single open connection so that
  ":memory:" databases are shared by every query. Inside WithTx every
  operation goes through the *sql.Tx.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is migrated on New() with golang-migrate from the embedded
  migrations/ directory (see migrate.go).

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/generic"
)

const timeLayout = time.RFC3339Nano

// Store implements all storage interfaces using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	version uint
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	version, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, version: version}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion is the migration version applied by New.
func (s *Store) SchemaVersion() uint {
	return s.version
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"ledger_transactions", "pending_events", "recurrence_rules", "accounts"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// LOCKED ENTRY POINTS (generic.Store interface)
// =============================================================================

func (s *Store) q() queries { return queries{q: s.db} }

func (s *Store) SaveRule(ctx context.Context, rule generic.RecurrenceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().SaveRule(ctx, rule)
}

func (s *Store) GetRule(ctx context.Context, ownerID generic.OwnerID, id generic.RuleID) (*generic.RecurrenceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().GetRule(ctx, ownerID, id)
}

func (s *Store) ListRules(ctx context.Context, filter generic.RuleFilter) ([]generic.RecurrenceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().ListRules(ctx, filter)
}

func (s *Store) CreateEventIfAbsent(ctx context.Context, event generic.PendingEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().CreateEventIfAbsent(ctx, event)
}

func (s *Store) GetEvent(ctx context.Context, ownerID generic.OwnerID, id generic.EventID) (*generic.PendingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().GetEvent(ctx, ownerID, id)
}

func (s *Store) ListEvents(ctx context.Context, filter generic.EventFilter) ([]generic.PendingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().ListEvents(ctx, filter)
}

func (s *Store) MarkOverdue(ctx context.Context, ownerID generic.OwnerID, today generic.TimePoint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().MarkOverdue(ctx, ownerID, today)
}

func (s *Store) TransitionEvent(ctx context.Context, t generic.EventTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().TransitionEvent(ctx, t)
}

func (s *Store) AppendTransaction(ctx context.Context, tx generic.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().AppendTransaction(ctx, tx)
}

func (s *Store) ListTransactions(ctx context.Context, ownerID generic.OwnerID) ([]generic.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().ListTransactions(ctx, ownerID)
}

func (s *Store) TransactionForEvent(ctx context.Context, eventID generic.EventID) (*generic.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().TransactionForEvent(ctx, eventID)
}

func (s *Store) SaveAccount(ctx context.Context, account generic.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q().SaveAccount(ctx, account)
}

func (s *Store) ListAccounts(ctx context.Context, ownerID generic.OwnerID) ([]generic.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().ListAccounts(ctx, ownerID)
}

func (s *Store) OwnsAccount(ctx context.Context, ownerID generic.OwnerID, accountID generic.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q().OwnsAccount(ctx, ownerID, accountID)
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(queries{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// QUERIES - shared by *sql.DB and *sql.Tx
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements generic.Store without locking. Callers hold the lock.
type queries struct {
	q querier
}

// -----------------------------------------------------------------------------
// Rules
// -----------------------------------------------------------------------------

const ruleColumns = `id, owner_id, kind, label, category, amount, account_id,
	schedule_json, is_active, created_at, updated_at`

func (qs queries) SaveRule(ctx context.Context, rule generic.RecurrenceRule) error {
	if rule.Schedule == nil {
		return qs.saveRuleKeepingSchedule(ctx, rule)
	}
	if err := rule.Schedule.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	scheduleJSON, err := factory.MarshalSchedule(rule.Schedule)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}

	query := `
		INSERT INTO recurrence_rules
		(id, owner_id, kind, label, category, amount, account_id, frequency,
		 schedule_json, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			label = excluded.label,
			category = excluded.category,
			amount = excluded.amount,
			account_id = excluded.account_id,
			frequency = excluded.frequency,
			schedule_json = excluded.schedule_json,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	_, err = qs.q.ExecContext(ctx, query,
		rule.ID, rule.OwnerID, rule.Kind, rule.Label, rule.Category,
		rule.Amount.String(), rule.AccountID, string(rule.Frequency()),
		string(scheduleJSON), rule.IsActive,
		formatTime(rule.CreatedAt), formatTime(rule.UpdatedAt),
	)
	return ruleSaveError(err)
}

// saveRuleKeepingSchedule updates a stored rule whose schedule could not be
// read back (see scanRule), leaving its schedule columns untouched. This is
// how such a rule is still deactivated or relabeled.
func (qs queries) saveRuleKeepingSchedule(ctx context.Context, rule generic.RecurrenceRule) error {
	res, err := qs.q.ExecContext(ctx, `
		UPDATE recurrence_rules SET
			kind = ?, label = ?, category = ?, amount = ?, account_id = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		rule.Kind, rule.Label, rule.Category, rule.Amount.String(), rule.AccountID,
		rule.IsActive, formatTime(rule.UpdatedAt), rule.ID,
	)
	if err := ruleSaveError(err); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return &generic.ConfigurationError{Field: "schedule", Reason: "is required"}
	}
	return nil
}

// ruleSaveError maps the one-active-income index to its sentinel. Conflicts
// on id are handled by the upsert, so any other unique failure is that index.
func ruleSaveError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraintError(err) {
		return generic.ErrDuplicateIncomeRule
	}
	return fmt.Errorf("failed to save rule: %w", err)
}

func (qs queries) GetRule(ctx context.Context, ownerID generic.OwnerID, id generic.RuleID) (*generic.RecurrenceRule, error) {
	row := qs.q.QueryRowContext(ctx,
		"SELECT "+ruleColumns+" FROM recurrence_rules WHERE id = ? AND owner_id = ?", id, ownerID)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.NotFoundError{Kind: "rule", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (qs queries) ListRules(ctx context.Context, filter generic.RuleFilter) ([]generic.RecurrenceRule, error) {
	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = 1")
	}

	query := "SELECT " + ruleColumns + " FROM recurrence_rules" + whereClause(where) +
		" ORDER BY created_at ASC, id ASC"

	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []generic.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (generic.RecurrenceRule, error) {
	var (
		rule         generic.RecurrenceRule
		amount       string
		scheduleJSON string
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(
		&rule.ID, &rule.OwnerID, &rule.Kind, &rule.Label, &rule.Category,
		&amount, &rule.AccountID, &scheduleJSON, &rule.IsActive,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rule, err
	}
	if err != nil {
		return rule, fmt.Errorf("failed to scan rule: %w", err)
	}

	if rule.Amount, err = decimal.NewFromString(amount); err != nil {
		return rule, fmt.Errorf("rule %s: bad amount %q: %w", rule.ID, amount, err)
	}
	// A stored schedule that no longer parses leaves Schedule nil. The rule
	// still lists, and the materializer skips it as misconfigured.
	if rule.Schedule, err = factory.ParseSchedule([]byte(scheduleJSON)); err != nil {
		rule.Schedule = nil
	}
	rule.CreatedAt = parseTime(createdAt)
	rule.UpdatedAt = parseTime(updatedAt)
	return rule, nil
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

const eventColumns = `id, rule_id, owner_id, kind, label, category, account_id, amount,
	event_day, status, resolved_at, transaction_id, created_at`

func (qs queries) CreateEventIfAbsent(ctx context.Context, event generic.PendingEvent) (bool, error) {
	query := `
		INSERT INTO pending_events
		(id, rule_id, owner_id, kind, label, category, account_id, amount,
		 event_day, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_id, event_day) DO NOTHING
	`
	res, err := qs.q.ExecContext(ctx, query,
		event.ID, event.RuleID, event.OwnerID, event.Kind, event.Label, event.Category,
		event.AccountID, event.Amount.String(), event.ExpectedDate.String(),
		event.Status, formatTime(event.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n == 1, nil
}

func (qs queries) GetEvent(ctx context.Context, ownerID generic.OwnerID, id generic.EventID) (*generic.PendingEvent, error) {
	row := qs.q.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM pending_events WHERE id = ? AND owner_id = ?", id, ownerID)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &generic.NotFoundError{Kind: "event", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (qs queries) ListEvents(ctx context.Context, filter generic.EventFilter) ([]generic.PendingEvent, error) {
	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.RuleID != "" {
		where = append(where, "rule_id = ?")
		args = append(args, filter.RuleID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if filter.From != nil {
		where = append(where, "event_day >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		where = append(where, "event_day <= ?")
		args = append(args, filter.To.String())
	}

	query := "SELECT " + eventColumns + " FROM pending_events" + whereClause(where) +
		" ORDER BY event_day ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := qs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []generic.PendingEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (qs queries) MarkOverdue(ctx context.Context, ownerID generic.OwnerID, today generic.TimePoint) (int, error) {
	query := `UPDATE pending_events SET status = 'overdue' WHERE status = 'pending' AND event_day < ?`
	args := []any{today.String()}
	if ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}

	res, err := qs.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read update result: %w", err)
	}
	return int(n), nil
}

func (qs queries) TransitionEvent(ctx context.Context, t generic.EventTransition) error {
	if len(t.From) == 0 {
		return generic.ErrStaleStatus
	}

	query := `UPDATE pending_events SET status = ?, resolved_at = ?, transaction_id = ?
		WHERE id = ? AND status IN (` + placeholders(len(t.From)) + `)`
	args := []any{t.To, formatTime(t.ResolvedAt), nullTransactionID(t.TransactionID), t.EventID}
	for _, st := range t.From {
		args = append(args, st)
	}

	res, err := qs.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", t.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return generic.ErrStaleStatus
	}
	return nil
}

func scanEvent(row scanner) (generic.PendingEvent, error) {
	var (
		event      generic.PendingEvent
		amount     string
		eventDay   string
		resolvedAt sql.NullString
		txID       sql.NullString
		createdAt  string
	)
	err := row.Scan(
		&event.ID, &event.RuleID, &event.OwnerID, &event.Kind, &event.Label, &event.Category,
		&event.AccountID, &amount, &eventDay, &event.Status, &resolvedAt, &txID, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return event, err
	}
	if err != nil {
		return event, fmt.Errorf("failed to scan event: %w", err)
	}

	if event.Amount, err = decimal.NewFromString(amount); err != nil {
		return event, fmt.Errorf("event %s: bad amount %q: %w", event.ID, amount, err)
	}
	if event.ExpectedDate, err = generic.ParseDate(eventDay); err != nil {
		return event, fmt.Errorf("event %s: %w", event.ID, err)
	}
	if resolvedAt.Valid {
		t := parseTime(resolvedAt.String)
		event.ResolvedAt = &t
	}
	if txID.Valid {
		id := generic.TransactionID(txID.String)
		event.TransactionID = &id
	}
	event.CreatedAt = parseTime(createdAt)
	return event, nil
}

// -----------------------------------------------------------------------------
// Ledger transactions (append-only: no UPDATE, no DELETE)
// -----------------------------------------------------------------------------

const transactionColumns = `id, owner_id, account_id, event_id, direction, amount,
	description, category, occurred_at, created_at`

func (qs queries) AppendTransaction(ctx context.Context, tx generic.LedgerTransaction) error {
	query := `
		INSERT INTO ledger_transactions
		(id, owner_id, account_id, event_id, direction, amount, description,
		 category, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := qs.q.ExecContext(ctx, query,
		tx.ID, tx.OwnerID, tx.AccountID, nullString(string(tx.EventID)), tx.Direction,
		tx.Amount.String(), tx.Description, tx.Category,
		formatTime(tx.OccurredAt), formatTime(tx.CreatedAt),
	)
	if isUniqueConstraintError(err) && strings.Contains(err.Error(), "event_id") {
		return generic.ErrDuplicateTransaction
	}
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (qs queries) ListTransactions(ctx context.Context, ownerID generic.OwnerID) ([]generic.LedgerTransaction, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM ledger_transactions WHERE owner_id = ? ORDER BY created_at ASC, id ASC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []generic.LedgerTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (qs queries) TransactionForEvent(ctx context.Context, eventID generic.EventID) (*generic.LedgerTransaction, error) {
	row := qs.q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM ledger_transactions WHERE event_id = ?", eventID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func scanTransaction(row scanner) (generic.LedgerTransaction, error) {
	var (
		tx         generic.LedgerTransaction
		eventID    sql.NullString
		amount     string
		occurredAt string
		createdAt  string
	)
	err := row.Scan(
		&tx.ID, &tx.OwnerID, &tx.AccountID, &eventID, &tx.Direction, &amount,
		&tx.Description, &tx.Category, &occurredAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return tx, err
	}
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.EventID = generic.EventID(eventID.String)
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return tx, fmt.Errorf("transaction %s: bad amount %q: %w", tx.ID, amount, err)
	}
	tx.OccurredAt = parseTime(occurredAt)
	tx.CreatedAt = parseTime(createdAt)
	return tx, nil
}

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

func (qs queries) SaveAccount(ctx context.Context, account generic.Account) error {
	_, err := qs.q.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, account.ID, account.OwnerID, account.Name, formatTime(account.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (qs queries) ListAccounts(ctx context.Context, ownerID generic.OwnerID) ([]generic.Account, error) {
	rows, err := qs.q.QueryContext(ctx,
		"SELECT id, owner_id, name, created_at FROM accounts WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []generic.Account
	for rows.Next() {
		var (
			a         generic.Account
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (qs queries) OwnsAccount(ctx context.Context, ownerID generic.OwnerID, accountID generic.AccountID) (bool, error) {
	var count int
	err := qs.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE id = ? AND owner_id = ?", accountID, ownerID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check account ownership: %w", err)
	}
	return count > 0, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTransactionID(id *generic.TransactionID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullString(string(*id))
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

var (
	_ generic.TxStore = (*Store)(nil)
	_ generic.Store   = queries{}
)
