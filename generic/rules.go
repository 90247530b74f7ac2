package generic

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE MANAGER - configuration side of recurrence rules
// =============================================================================

// RuleInput is the user-editable part of a rule.
type RuleInput struct {
	Kind      RuleKind
	Label     string
	Category  string
	Amount    decimal.Decimal
	AccountID AccountID
	Schedule  Schedule
}

// Validate checks everything that does not need storage.
func (in RuleInput) Validate() error {
	if !in.Kind.Valid() {
		return configErr("kind", "must be %q or %q, got %q", KindIncome, KindExpense, in.Kind)
	}
	if in.Label == "" {
		return configErr("label", "is required")
	}
	if !in.Amount.IsPositive() {
		return configErr("amount", "must be positive, got %s", in.Amount)
	}
	if in.AccountID == "" {
		return configErr("account_id", "is required")
	}
	if in.Schedule == nil {
		return configErr("schedule", "is required")
	}
	return in.Schedule.Validate()
}

// RuleManager creates, edits and deactivates recurrence rules. Rules are
// never deleted: Deactivate stops future materialization and leaves already
// materialized events untouched.
type RuleManager struct {
	Rules    RuleStore
	Accounts AccountDirectory
	Clock    Clock
	Logger   *slog.Logger
}

func NewRuleManager(rules RuleStore, accounts AccountDirectory, clock Clock, logger *slog.Logger) *RuleManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleManager{Rules: rules, Accounts: accounts, Clock: clock, Logger: logger}
}

func (m *RuleManager) Create(ctx context.Context, ownerID OwnerID, in RuleInput) (RecurrenceRule, error) {
	if err := m.check(ctx, ownerID, in); err != nil {
		return RecurrenceRule{}, err
	}

	now := m.Clock.Now()
	rule := RecurrenceRule{
		ID:        RuleID(uuid.NewString()),
		OwnerID:   ownerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&rule, in)

	if err := m.Rules.SaveRule(ctx, rule); err != nil {
		return RecurrenceRule{}, err
	}
	m.Logger.Info("rule created", "owner", ownerID, "rule", rule.ID, "kind", rule.Kind, "frequency", rule.Frequency())
	return rule, nil
}

// Update replaces the rule's editable fields. Existing events keep the
// values they were materialized with.
func (m *RuleManager) Update(ctx context.Context, ownerID OwnerID, id RuleID, in RuleInput) (RecurrenceRule, error) {
	rule, err := m.Rules.GetRule(ctx, ownerID, id)
	if err != nil {
		return RecurrenceRule{}, err
	}
	if err := m.check(ctx, ownerID, in); err != nil {
		return RecurrenceRule{}, err
	}

	apply(rule, in)
	rule.UpdatedAt = m.Clock.Now()

	if err := m.Rules.SaveRule(ctx, *rule); err != nil {
		return RecurrenceRule{}, err
	}
	m.Logger.Info("rule updated", "owner", ownerID, "rule", id)
	return *rule, nil
}

// Deactivate soft-deletes the rule.
func (m *RuleManager) Deactivate(ctx context.Context, ownerID OwnerID, id RuleID) error {
	rule, err := m.Rules.GetRule(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !rule.IsActive {
		return nil
	}
	rule.IsActive = false
	rule.UpdatedAt = m.Clock.Now()
	if err := m.Rules.SaveRule(ctx, *rule); err != nil {
		return err
	}
	m.Logger.Info("rule deactivated", "owner", ownerID, "rule", id)
	return nil
}

func (m *RuleManager) Get(ctx context.Context, ownerID OwnerID, id RuleID) (*RecurrenceRule, error) {
	return m.Rules.GetRule(ctx, ownerID, id)
}

// List returns the owner's active rules, optionally of one kind.
func (m *RuleManager) List(ctx context.Context, ownerID OwnerID, kind RuleKind) ([]RecurrenceRule, error) {
	return m.Rules.ListRules(ctx, RuleFilter{OwnerID: ownerID, Kind: kind, ActiveOnly: true})
}

func (m *RuleManager) check(ctx context.Context, ownerID OwnerID, in RuleInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	owns, err := m.Accounts.OwnsAccount(ctx, ownerID, in.AccountID)
	if err != nil {
		return err
	}
	if !owns {
		return &NotFoundError{Kind: "account", ID: string(in.AccountID)}
	}
	return nil
}

func apply(rule *RecurrenceRule, in RuleInput) {
	rule.Kind = in.Kind
	rule.Label = in.Label
	rule.Category = in.Category
	rule.Amount = in.Amount
	rule.AccountID = in.AccountID
	rule.Schedule = in.Schedule
}
