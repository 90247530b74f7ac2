/*
handlers.go - HTTP API handlers for the cash-flow scheduler

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the income, bills and generic
  services.

ENDPOINTS (all under /api/owners/{ownerID}):
  Events:
    GET    /events/upcoming              Open events, earliest first (?limit=)
    POST   /events/{eventID}/confirm     Confirm, records a ledger transaction
    POST   /events/{eventID}/skip        Skip, no transaction

  Rules:
    GET    /rules                        Active rules (?kind=income|expense)
    POST   /rules                        Create rule (materializes immediately)
    GET    /rules/{ruleID}               Get rule
    PUT    /rules/{ruleID}               Replace rule fields
    DELETE /rules/{ruleID}               Deactivate (soft delete)

  Income:
    PUT    /income                       Configure the single income rule
    GET    /income                       Current income rule
    GET    /income/pending               Open income events
    GET    /income/summary               Income dashboard card
    POST   /income/events/{eventID}/confirm
    POST   /income/events/{eventID}/skip

  Bills:
    GET    /bills                        Active bills
    POST   /bills                        Create bill
    PUT    /bills/{ruleID}               Update bill
    DELETE /bills/{ruleID}               Remove bill (soft delete)
    GET    /bills/pending                Unpaid bills
    GET    /bills/summary                Bills dashboard card
    POST   /bills/events/{eventID}/pay
    POST   /bills/events/{eventID}/skip

  Accounts and ledger:
    GET    /accounts, POST /accounts, GET /transactions

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: ConfigurationError, malformed body or query
  - 404: NotFoundError (missing or owned by someone else)
  - 409: InvalidStateError (already confirmed or skipped, lost race),
         ErrDuplicateIncomeRule (a second active income rule)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The owner comes from the
  URL path.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/cashflow-engine/bills"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/income"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the HTTP layer needs: the engine's store plus a
// reset for demo scenarios.
type Store interface {
	generic.TxStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Engine    *generic.Engine
	Income    *income.Service
	Bills     *bills.Service
	ListLimit int
	Logger    *slog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given store and engine.
func NewHandler(store Store, engine *generic.Engine) *Handler {
	return &Handler{
		Store:     store,
		Engine:    engine,
		Income:    income.NewService(engine),
		Bills:     bills.NewService(engine),
		ListLimit: engine.Scheduler.DefaultLimit,
		Logger:    engine.Logger,
	}
}

func ownerParam(r *http.Request) generic.OwnerID {
	return generic.OwnerID(chi.URLParam(r, "ownerID"))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// Upcoming runs the read path: materialize, sweep, list open events.
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit := h.ListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}
	kind := generic.RuleKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid kind", nil)
		return
	}

	events, err := h.Engine.Scheduler.Upcoming(r.Context(), ownerParam(r), generic.UpcomingQuery{Kind: kind, Limit: limit})
	if err != nil {
		h.writeDomainError(w, "Failed to list upcoming events", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// ConfirmEvent confirms any open event of the owner.
func (h *Handler) ConfirmEvent(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Engine.Resolver.Confirm(r.Context(), ownerParam(r), generic.EventID(chi.URLParam(r, "eventID")))
	if err != nil {
		h.writeDomainError(w, "Failed to confirm event", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// SkipEvent skips any open event of the owner.
func (h *Handler) SkipEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Resolver.Skip(r.Context(), ownerParam(r), generic.EventID(chi.URLParam(r, "eventID"))); err != nil {
		h.writeDomainError(w, "Failed to skip event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(generic.StatusSkipped)})
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ListRules returns the owner's active rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	kind := generic.RuleKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid kind", nil)
		return
	}
	rules, err := h.Engine.Rules.List(r.Context(), ownerParam(r), kind)
	if err != nil {
		h.writeDomainError(w, "Failed to list rules", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTOs(rules))
}

// CreateRule creates a rule from factory.RuleJSON.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRule(w, r)
	if !ok {
		return
	}
	rule, err := h.Engine.CreateRule(r.Context(), ownerParam(r), in)
	if err != nil {
		h.writeDomainError(w, "Failed to create rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleDTO(rule))
}

// GetRule returns one rule.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Engine.Rules.Get(r.Context(), ownerParam(r), generic.RuleID(chi.URLParam(r, "ruleID")))
	if err != nil {
		h.writeDomainError(w, "Failed to get rule", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(*rule))
}

// UpdateRule replaces a rule's fields.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRule(w, r)
	if !ok {
		return
	}
	rule, err := h.Engine.UpdateRule(r.Context(), ownerParam(r), generic.RuleID(chi.URLParam(r, "ruleID")), in)
	if err != nil {
		h.writeDomainError(w, "Failed to update rule", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

// DeleteRule deactivates a rule.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Rules.Deactivate(r.Context(), ownerParam(r), generic.RuleID(chi.URLParam(r, "ruleID"))); err != nil {
		h.writeDomainError(w, "Failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeRule(w http.ResponseWriter, r *http.Request) (generic.RuleInput, bool) {
	var rj factory.RuleJSON
	if err := json.NewDecoder(r.Body).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return generic.RuleInput{}, false
	}
	in, err := rj.Input()
	if err != nil {
		writeError(w, statusFor(err), "Invalid rule", err)
		return generic.RuleInput{}, false
	}
	return in, true
}

// =============================================================================
// INCOME HANDLERS
// =============================================================================

// ConfigureIncome creates or replaces the owner's income rule.
func (h *Handler) ConfigureIncome(w http.ResponseWriter, r *http.Request) {
	var req IncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := factory.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	schedule, err := req.Schedule.Schedule()
	if err != nil {
		writeError(w, statusFor(err), "Invalid schedule", err)
		return
	}

	rule, err := h.Income.Configure(r.Context(), ownerParam(r), income.Config{
		Label:     req.Label,
		Category:  req.Category,
		Amount:    amount,
		AccountID: generic.AccountID(req.AccountID),
		Schedule:  schedule,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to configure income", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

// GetIncome returns the owner's income rule.
func (h *Handler) GetIncome(w http.ResponseWriter, r *http.Request) {
	rule, err := h.Income.Rule(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to get income", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(*rule))
}

// IncomePending lists open income events.
func (h *Handler) IncomePending(w http.ResponseWriter, r *http.Request) {
	events, err := h.Income.Pending(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list pending income", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// IncomeSummary returns the income dashboard card.
func (h *Handler) IncomeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Income.Summary(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to summarize income", err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeSummaryDTO(summary))
}

// ConfirmIncome confirms an income event.
func (h *Handler) ConfirmIncome(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Income.Confirm(r.Context(), ownerParam(r), generic.EventID(chi.URLParam(r, "eventID")))
	if err != nil {
		h.writeDomainError(w, "Failed to confirm income", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// SkipIncome skips an income event.
func (h *Handler) SkipIncome(w http.ResponseWriter, r *http.Request) {
	if err := h.Income.Skip(r.Context(), ownerParam(r), generic.EventID(chi.URLParam(r, "eventID"))); err != nil {
		h.writeDomainError(w, "Failed to skip income", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(generic.StatusSkipped)})
}

// =============================================================================
// BILL HANDLERS
// =============================================================================

// ListBills returns the owner's active bills.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Bills.List(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list bills", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTOs(rules))
}

// CreateBill registers a bill. The kind in the body is ignored.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	b, ok := decodeBill(w, r)
	if !ok {
		return
	}
	rule, err := h.Bills.Create(r.Context(), ownerParam(r), b)
	if err != nil {
		h.writeDomainError(w, "Failed to create bill", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleDTO(rule))
}

// UpdateBill replaces a bill's fields.
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	b, ok := decodeBill(w, r)
	if !ok {
		return
	}
	rule, err := h.Bills.Update(r.Context(), ownerParam(r), generic.RuleID(chi.URLParam(r, "ruleID")), b)
	if err != nil {
		h.writeDomainError(w, "Failed to update bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

// RemoveBill soft-deletes a bill.
func (h *Handler) RemoveBill(w http.ResponseWriter, r *http.Request) {
	if err := h.Bills.Remove(r.Context(), ownerParam(r), generic.RuleID(chi.URLParam(r, "ruleID"))); err != nil {
		h.writeDomainError(w, "Failed to remove bill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BillsPending lists unpaid bills.
func (h *Handler) BillsPending(w http.ResponseWriter, r *http.Request) {
	events, err := h.Bills.Pending(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list pending bills", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// BillsSummary returns the bills dashboard card.
func (h *Handler) BillsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Bills.Summary(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to summarize bills", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillsSummaryDTO(summary))
}

// PayBill confirms a bill occurrence.
func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Bills.Pay(r.Context(), ownerParam(r), generic.EventID(chi.URLParam(r, "eventID")))
	if err != nil {
		h.writeDomainError(w, "Failed to pay bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// SkipBill skips a bill occurrence.
func (h *Handler) SkipBill(w http.ResponseWriter, r *http.Request) {
	if err := h.Bills.Skip(r.Context(), ownerParam(r), generic.EventID(chi.URLParam(r, "eventID"))); err != nil {
		h.writeDomainError(w, "Failed to skip bill", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(generic.StatusSkipped)})
}

func decodeBill(w http.ResponseWriter, r *http.Request) (bills.Bill, bool) {
	var rj factory.RuleJSON
	if err := json.NewDecoder(r.Body).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return bills.Bill{}, false
	}
	rj.Kind = string(generic.KindExpense)
	in, err := rj.Input()
	if err != nil {
		writeError(w, statusFor(err), "Invalid bill", err)
		return bills.Bill{}, false
	}
	return bills.Bill{
		Label:     in.Label,
		Category:  in.Category,
		Amount:    in.Amount,
		AccountID: in.AccountID,
		Schedule:  in.Schedule,
	}, true
}

// =============================================================================
// ACCOUNT AND LEDGER HANDLERS
// =============================================================================

// ListAccounts returns the owner's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list accounts", err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount registers an account for the owner.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	account := generic.Account{
		ID:        generic.AccountID(req.ID),
		OwnerID:   ownerParam(r),
		Name:      req.Name,
		CreatedAt: h.Engine.Clock.Now(),
	}
	if err := h.Store.SaveAccount(r.Context(), account); err != nil {
		h.writeDomainError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// ListTransactions returns the owner's ledger history.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListTransactions(r.Context(), ownerParam(r))
	if err != nil {
		h.writeDomainError(w, "Failed to list transactions", err)
		return
	}
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrInvalidState), errors.Is(err, generic.ErrDuplicateIncomeRule):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "error", err)
	}
	writeError(w, status, message, err)
}
