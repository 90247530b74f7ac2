package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router  http.Handler
	handler *api.Handler
	store   *sqlite.Store
}

// newTestServer wires the full router over an in-memory SQLite database.
// Today is Monday 2025-03-10.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := generic.NewEngine(store, generic.NewFixedClock(2025, time.March, 10), logger, generic.DefaultHorizons())
	h := api.NewHandler(store, engine)
	return &testServer{router: api.NewRouter(h, []string{"*"}), handler: h, store: store}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createAccount(t *testing.T, owner, id string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/owners/"+owner+"/accounts", `{"id":"`+id+`","name":"Checking"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

const rentBody = `{
	"kind": "expense",
	"label": "Rent",
	"category": "housing",
	"amount": "1500.00",
	"account_id": "acc-1",
	"schedule": {"frequency": "monthly", "mode": "fixed_day", "fixed_day": 10}
}`

// =============================================================================
// TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateAccount(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/owners/owner-1/accounts", `{"name":"Savings"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[api.AccountDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Savings", created.Name)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/accounts", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/accounts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.AccountDTO](t, rec), 1)
}

func TestRuleToUpcomingToConfirm(t *testing.T) {
	// GIVEN: An owner with an account
	// WHEN: A rent rule is created and its first occurrence confirmed twice
	// THEN: The first confirm records a transaction; the second conflicts

	ts := newTestServer(t)
	ts.createAccount(t, "owner-1", "acc-1")

	rec := ts.do(t, http.MethodPost, "/api/owners/owner-1/rules", rentBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rule := decode[api.RuleDTO](t, rec)
	assert.Equal(t, "monthly", rule.Frequency)
	assert.Equal(t, "1500.00", rule.Amount)
	assert.True(t, rule.IsActive)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/events/upcoming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]api.EventDTO](t, rec)
	require.Len(t, events, 3)
	assert.Equal(t, "2025-03-10", events[0].ExpectedDate)
	assert.Equal(t, "1500.00", events[0].Amount)
	assert.Equal(t, "pending", events[0].Status)

	confirmPath := "/api/owners/owner-1/events/" + events[0].ID + "/confirm"

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-2/events/"+events[0].ID+"/confirm", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "another owner cannot see the event")

	rec = ts.do(t, http.MethodPost, confirmPath, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx := decode[api.TransactionDTO](t, rec)
	assert.Equal(t, "expense", tx.Direction)
	assert.Equal(t, "1500.00", tx.Amount)
	assert.Equal(t, events[0].ID, tx.EventID)

	rec = ts.do(t, http.MethodPost, confirmPath, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/events/"+events[0].ID+"/skip", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.TransactionDTO](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/events/upcoming?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	remaining := decode[[]api.EventDTO](t, rec)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2025-04-10", remaining[0].ExpectedDate)
}

func TestRules_ClientErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.createAccount(t, "owner-1", "acc-1")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed body", http.MethodPost, "/api/owners/owner-1/rules", `{`, http.StatusBadRequest},
		{"missing mode", http.MethodPost, "/api/owners/owner-1/rules",
			`{"kind":"expense","label":"x","amount":"1","account_id":"acc-1","schedule":{"frequency":"monthly"}}`, http.StatusBadRequest},
		{"out of range day", http.MethodPost, "/api/owners/owner-1/rules",
			`{"kind":"expense","label":"x","amount":"1","account_id":"acc-1","schedule":{"frequency":"monthly","mode":"fixed_day","fixed_day":40}}`, http.StatusBadRequest},
		{"foreign account", http.MethodPost, "/api/owners/owner-2/rules", rentBody, http.StatusNotFound},
		{"unknown rule", http.MethodGet, "/api/owners/owner-1/rules/nope", "", http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/owners/owner-1/events/upcoming?limit=zero", "", http.StatusBadRequest},
		{"bad kind", http.MethodGet, "/api/owners/owner-1/events/upcoming?kind=transfer", "", http.StatusBadRequest},
		{"unknown event", http.MethodPost, "/api/owners/owner-1/events/nope/skip", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[api.ErrorResponse](t, rec).Error)
		})
	}
}

func TestRules_UpdateAndDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.createAccount(t, "owner-1", "acc-1")

	rule := decode[api.RuleDTO](t, ts.do(t, http.MethodPost, "/api/owners/owner-1/rules", rentBody))

	updated := strings.Replace(rentBody, `"1500.00"`, `"1600.00"`, 1)
	rec := ts.do(t, http.MethodPut, "/api/owners/owner-1/rules/"+rule.ID, updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1600.00", decode[api.RuleDTO](t, rec).Amount)

	rec = ts.do(t, http.MethodDelete, "/api/owners/owner-1/rules/"+rule.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/rules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.RuleDTO](t, rec))

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/rules/"+rule.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[api.RuleDTO](t, rec).IsActive)
}

func TestIncomeEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createAccount(t, "owner-1", "acc-1")

	rec := ts.do(t, http.MethodGet, "/api/owners/owner-1/income/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := `{"amount":"4200.00","account_id":"acc-1","schedule":{"frequency":"monthly","mode":"business_day","business_day":5}}`
	rec = ts.do(t, http.MethodPut, "/api/owners/owner-1/income", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[api.RuleDTO](t, rec)
	assert.Equal(t, "income", first.Kind)

	rec = ts.do(t, http.MethodPut, "/api/owners/owner-1/income", strings.Replace(body, "4200.00", "4400.00", 1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[api.RuleDTO](t, rec).ID, "income is configured in place")

	// A second active income rule cannot be created through the generic rules API.
	second := strings.Replace(strings.Replace(rentBody, `"expense"`, `"income"`, 1), `"Rent"`, `"Bonus"`, 1)
	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/rules", second)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/income/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[api.IncomeSummaryDTO](t, rec)
	require.NotNil(t, summary.NextPaymentDate)
	assert.Equal(t, "2025-04-07", *summary.NextPaymentDate)
	assert.Equal(t, "4400.00", summary.MonthlyIncome)
	assert.Equal(t, "0.00", summary.ReceivedThisMonth)
	require.NotEmpty(t, summary.Pending)

	// A bill cannot be confirmed through the income endpoints.
	ts.do(t, http.MethodPost, "/api/owners/owner-1/bills", rentBody)
	bills := decode[[]api.EventDTO](t, ts.do(t, http.MethodGet, "/api/owners/owner-1/bills/pending", ""))
	require.NotEmpty(t, bills)
	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/income/events/"+bills[0].ID+"/confirm", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/income/events/"+summary.Pending[0].ID+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tx := decode[api.TransactionDTO](t, rec)
	assert.Equal(t, "income", tx.Direction)
	// The event keeps the amount it was materialized with, before the raise.
	assert.Equal(t, "4200.00", tx.Amount)

	summary = decode[api.IncomeSummaryDTO](t, ts.do(t, http.MethodGet, "/api/owners/owner-1/income/summary", ""))
	assert.Equal(t, "4200.00", summary.ReceivedThisMonth)
	assert.Equal(t, "4400.00", summary.MonthlyIncome)
}

func TestBillsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createAccount(t, "owner-1", "acc-1")

	// The kind in the body is ignored: bills are always expenses.
	rec := ts.do(t, http.MethodPost, "/api/owners/owner-1/bills", strings.Replace(rentBody, `"expense"`, `"income"`, 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bill := decode[api.RuleDTO](t, rec)
	assert.Equal(t, "expense", bill.Kind)

	pending := decode[[]api.EventDTO](t, ts.do(t, http.MethodGet, "/api/owners/owner-1/bills/pending", ""))
	require.Len(t, pending, 3)

	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/bills/events/"+pending[0].ID+"/pay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/owners/owner-1/bills/events/"+pending[1].ID+"/skip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"skipped"}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/owners/owner-1/bills/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[api.BillsSummaryDTO](t, rec)
	assert.Equal(t, "2025-03-01", summary.MonthStart)
	assert.Equal(t, 0, summary.BillsCount, "March rent is paid")
	assert.Equal(t, "0.00", summary.TotalPending)
	require.Len(t, summary.NextBills, 1)
	assert.Equal(t, "2025-05-10", summary.NextBills[0].ExpectedDate)

	rec = ts.do(t, http.MethodPut, "/api/owners/owner-1/bills/"+bill.ID, strings.Replace(rentBody, `"Rent"`, `"Rent (new lease)"`, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rent (new lease)", decode[api.RuleDTO](t, rec).Label)

	rec = ts.do(t, http.MethodDelete, "/api/owners/owner-1/bills/"+bill.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, decode[[]api.RuleDTO](t, ts.do(t, http.MethodGet, "/api/owners/owner-1/bills", "")))
}

func TestPaidBillCarriesStatusLabel(t *testing.T) {
	ts := newTestServer(t)
	ts.createAccount(t, "owner-1", "acc-1")
	ts.do(t, http.MethodPost, "/api/owners/owner-1/bills", rentBody)

	pending := decode[[]api.EventDTO](t, ts.do(t, http.MethodGet, "/api/owners/owner-1/bills/pending", ""))
	require.NotEmpty(t, pending)
	assert.Equal(t, "pending", pending[0].StatusLabel)

	ts.do(t, http.MethodPost, "/api/owners/owner-1/bills/events/"+pending[0].ID+"/pay", "")

	event, err := ts.store.GetEvent(context.Background(), "owner-1", generic.EventID(pending[0].ID))
	require.NoError(t, err)
	assert.Equal(t, generic.StatusConfirmed, event.Status)
	require.NotNil(t, event.TransactionID)
}
