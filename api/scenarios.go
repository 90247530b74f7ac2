/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates one owner's accounts, an income
	rule and a handful of bills, then materializes their upcoming events.

AVAILABLE SCENARIOS (scenarios.yaml):

	salaried-renter:  Monthly salary on a business day, fixed-day bills
	advance-salary:   Biweekly advance + salary, business-day bill
	freelancer:       Weekly income, twice-monthly and daily expenses

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create accounts
 3. Configure the income rule via the income service
 4. Create bills via the bills service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "freelancer"}

ADDING NEW SCENARIOS:

	Append an entry to scenarios.yaml. Rules use the same schema as the
	POST /rules body.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler context
  - factory/rule.go: Rule and schedule definitions
*/
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/warp/cashflow-engine/bills"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/income"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

//go:embed scenarios.yaml
var scenariosYAML []byte

// Scenario is one demo data set.
type Scenario struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	OwnerID     string             `yaml:"owner_id"`
	Accounts    []ScenarioAccount  `yaml:"accounts"`
	Rules       []factory.RuleJSON `yaml:"rules"`
}

// ScenarioAccount is an account created by a scenario.
type ScenarioAccount struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Scenarios parses the embedded scenario catalog.
func Scenarios() ([]Scenario, error) {
	var doc struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(scenariosYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	return doc.Scenarios, nil
}

func (s Scenario) dto() ScenarioDTO {
	return ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description, OwnerID: s.OwnerID}
}

func findScenario(id string) (*Scenario, error) {
	all, err := Scenarios()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, &generic.NotFoundError{Kind: "scenario", ID: id}
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := Scenarios()
	if err != nil {
		h.writeDomainError(w, "Failed to list scenarios", err)
		return
	}
	dtos := make([]ScenarioDTO, len(all))
	for i, s := range all {
		dtos[i] = s.dto()
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, err := findScenario(current)
	if err != nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.dto())
}

// LoadScenario resets the database and loads the selected scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := findScenario(req.ScenarioID)
	if err != nil {
		h.writeDomainError(w, "Unknown scenario", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadScenario(r.Context(), s); err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}
	h.currentScenario = s.ID
	h.Logger.Info("scenario loaded", "scenario", s.ID, "owner", s.OwnerID)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": s.ID,
		"owner_id": s.OwnerID,
	})
}

func (h *Handler) loadScenario(ctx context.Context, s *Scenario) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	owner := generic.OwnerID(s.OwnerID)
	now := h.Engine.Clock.Now()
	for _, a := range s.Accounts {
		account := generic.Account{ID: generic.AccountID(a.ID), OwnerID: owner, Name: a.Name, CreatedAt: now}
		if err := h.Store.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("create account %s: %w", a.ID, err)
		}
	}

	for _, rj := range s.Rules {
		in, err := rj.Input()
		if err != nil {
			return fmt.Errorf("rule %q: %w", rj.Label, err)
		}
		switch in.Kind {
		case generic.KindIncome:
			_, err = h.Income.Configure(ctx, owner, income.Config{
				Label:     in.Label,
				Category:  in.Category,
				Amount:    in.Amount,
				AccountID: in.AccountID,
				Schedule:  in.Schedule,
			})
		default:
			_, err = h.Bills.Create(ctx, owner, bills.Bill{
				Label:     in.Label,
				Category:  in.Category,
				Amount:    in.Amount,
				AccountID: in.AccountID,
				Schedule:  in.Schedule,
			})
		}
		if err != nil {
			return fmt.Errorf("rule %q: %w", rj.Label, err)
		}
	}
	return nil
}
