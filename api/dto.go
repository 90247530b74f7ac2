/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS AND DATES:
  Amounts are decimal strings ("1250.00"), never JSON numbers, so no
  precision is lost. Expected dates are "YYYY-MM-DD"; timestamps are RFC3339.

TYPES:
  Events:       EventDTO
  Rules:        RuleDTO (request body is factory.RuleJSON)
  Income:       IncomeRequest, IncomeSummaryDTO
  Bills:        BillsSummaryDTO
  Ledger:       TransactionDTO
  Accounts:     AccountDTO, CreateAccountRequest
  Scenarios:    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the factory, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rule.go: RuleJSON and ScheduleJSON
*/
package api

import (
	"time"

	"github.com/warp/cashflow-engine/bills"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/income"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EventDTO represents a pending event in API responses.
type EventDTO struct {
	ID            string  `json:"id"`
	RuleID        string  `json:"rule_id"`
	Kind          string  `json:"kind"`
	Label         string  `json:"label"`
	Category      string  `json:"category,omitempty"`
	AccountID     string  `json:"account_id"`
	Amount        string  `json:"amount"`
	ExpectedDate  string  `json:"expected_date"`
	Status        string  `json:"status"`
	StatusLabel   string  `json:"status_label"`
	ResolvedAt    *string `json:"resolved_at,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
}

// RuleDTO represents a recurrence rule in API responses.
type RuleDTO struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	Label     string               `json:"label"`
	Category  string               `json:"category,omitempty"`
	Amount    string               `json:"amount"`
	AccountID string               `json:"account_id"`
	Frequency string               `json:"frequency"`
	Schedule  factory.ScheduleJSON `json:"schedule"`
	IsActive  bool                 `json:"is_active"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// TransactionDTO represents a ledger transaction in API responses.
type TransactionDTO struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	EventID     string `json:"event_id,omitempty"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	OccurredAt  string `json:"occurred_at"`
	CreatedAt   string `json:"created_at"`
}

// IncomeRequest configures the owner's single income rule.
type IncomeRequest struct {
	Label     string               `json:"label,omitempty"`
	Category  string               `json:"category,omitempty"`
	Amount    string               `json:"amount"`
	AccountID string               `json:"account_id"`
	Schedule  factory.ScheduleJSON `json:"schedule"`
}

// IncomeSummaryDTO is the income dashboard card.
type IncomeSummaryDTO struct {
	RuleID            string     `json:"rule_id"`
	Amount            string     `json:"amount"`
	MonthlyIncome     string     `json:"monthly_income"`
	ReceivedThisMonth string     `json:"received_this_month"`
	Frequency         string     `json:"frequency"`
	NextPaymentDate   *string    `json:"next_payment_date"`
	Pending           []EventDTO `json:"pending"`
}

// BillsSummaryDTO is the bills dashboard card for the current month.
type BillsSummaryDTO struct {
	MonthStart   string     `json:"month_start"`
	MonthEnd     string     `json:"month_end"`
	TotalPending string     `json:"total_pending"`
	TotalOverdue string     `json:"total_overdue"`
	BillsCount   int        `json:"bills_count"`
	OverdueCount int        `json:"overdue_count"`
	NextBills    []EventDTO `json:"next_bills"`
}

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// CreateAccountRequest registers an account for the owner. ID is
// generated when omitted.
type CreateAccountRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEventDTO(e generic.PendingEvent) EventDTO {
	dto := EventDTO{
		ID:           string(e.ID),
		RuleID:       string(e.RuleID),
		Kind:         string(e.Kind),
		Label:        e.Label,
		Category:     e.Category,
		AccountID:    string(e.AccountID),
		Amount:       e.Amount.StringFixed(2),
		ExpectedDate: e.ExpectedDate.String(),
		Status:       string(e.Status),
		StatusLabel:  string(e.Status),
	}
	if e.Kind == generic.KindExpense {
		dto.StatusLabel = bills.StatusLabel(e.Status)
	}
	if e.ResolvedAt != nil {
		s := e.ResolvedAt.Format(time.RFC3339)
		dto.ResolvedAt = &s
	}
	if e.TransactionID != nil {
		s := string(*e.TransactionID)
		dto.TransactionID = &s
	}
	return dto
}

func toEventDTOs(events []generic.PendingEvent) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	return dtos
}

func toRuleDTO(r generic.RecurrenceRule) RuleDTO {
	rj := factory.RuleToJSON(r)
	return RuleDTO{
		ID:        string(r.ID),
		Kind:      rj.Kind,
		Label:     rj.Label,
		Category:  rj.Category,
		Amount:    rj.Amount,
		AccountID: rj.AccountID,
		Frequency: string(r.Frequency()),
		Schedule:  rj.Schedule,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

func toRuleDTOs(rules []generic.RecurrenceRule) []RuleDTO {
	dtos := make([]RuleDTO, len(rules))
	for i, r := range rules {
		dtos[i] = toRuleDTO(r)
	}
	return dtos
}

func toTransactionDTO(tx generic.LedgerTransaction) TransactionDTO {
	return TransactionDTO{
		ID:          string(tx.ID),
		AccountID:   string(tx.AccountID),
		EventID:     string(tx.EventID),
		Direction:   string(tx.Direction),
		Amount:      tx.Amount.StringFixed(2),
		Description: tx.Description,
		Category:    tx.Category,
		OccurredAt:  tx.OccurredAt.Format(time.RFC3339),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

func toAccountDTO(a generic.Account) AccountDTO {
	return AccountDTO{ID: string(a.ID), Name: a.Name, CreatedAt: a.CreatedAt.Format(time.RFC3339)}
}

func toIncomeSummaryDTO(s *income.Summary) IncomeSummaryDTO {
	dto := IncomeSummaryDTO{
		RuleID:            string(s.RuleID),
		Amount:            s.Amount.StringFixed(2),
		MonthlyIncome:     s.MonthlyIncome.StringFixed(2),
		ReceivedThisMonth: s.ReceivedThisMonth.StringFixed(2),
		Frequency:         string(s.Frequency),
		Pending:           toEventDTOs(s.Pending),
	}
	if s.NextPaymentDate != nil {
		d := s.NextPaymentDate.String()
		dto.NextPaymentDate = &d
	}
	return dto
}

func toBillsSummaryDTO(s *bills.Summary) BillsSummaryDTO {
	return BillsSummaryDTO{
		MonthStart:   s.Month.Start.String(),
		MonthEnd:     s.Month.End.String(),
		TotalPending: s.TotalPending.StringFixed(2),
		TotalOverdue: s.TotalOverdue.StringFixed(2),
		BillsCount:   s.BillsCount,
		OverdueCount: s.OverdueCount,
		NextBills:    toEventDTOs(s.NextBills),
	}
}
