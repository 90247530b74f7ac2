package bills_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/bills"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/generic/store"
)

const (
	owner   generic.OwnerID   = "owner-1"
	account generic.AccountID = "acc-1"
)

func newMemory(t *testing.T) *store.TxMemory {
	t.Helper()
	mem := store.NewTxMemory()
	require.NoError(t, mem.SaveAccount(context.Background(), generic.Account{ID: account, OwnerID: owner, Name: "Checking"}))
	return mem
}

func serviceAt(mem *store.TxMemory, day int) *bills.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := generic.NewEngine(mem, generic.NewFixedClock(2025, time.March, day), logger, generic.DefaultHorizons())
	return bills.NewService(engine)
}

func bill(label, amount string, day int) bills.Bill {
	return bills.Bill{
		Label:     label,
		Category:  "home",
		Amount:    generic.MustParseDecimal(amount),
		AccountID: account,
		Schedule:  bills.DueOn(day),
	}
}

func TestCreate_MaterializesNextThreeOccurrences(t *testing.T) {
	mem := newMemory(t)
	svc := serviceAt(mem, 3)
	ctx := context.Background()

	rule, err := svc.Create(ctx, owner, bill("Rent", "1500", 10))
	require.NoError(t, err)
	assert.Equal(t, generic.KindExpense, rule.Kind)

	pending, err := svc.Pending(ctx, owner)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "2025-03-10", pending[0].ExpectedDate.String())
	assert.Equal(t, "2025-05-10", pending[2].ExpectedDate.String())
}

func TestUpdateAndRemove(t *testing.T) {
	mem := newMemory(t)
	svc := serviceAt(mem, 3)
	ctx := context.Background()

	rule, err := svc.Create(ctx, owner, bill("Internet", "90", 15))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, rule.ID, bill("Fiber", "110", 15))
	require.NoError(t, err)
	assert.Equal(t, rule.ID, updated.ID)
	assert.Equal(t, "Fiber", updated.Label)

	// Already materialized occurrences keep the old amount.
	pending, err := svc.Pending(ctx, owner)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	assert.Equal(t, "90", pending[0].Amount.String())

	require.NoError(t, svc.Remove(ctx, owner, rule.ID))
	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	pending, err = svc.Pending(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, pending, 3, "removed bills keep their open occurrences")
}

func TestGet_IncomeRuleIsNotABill(t *testing.T) {
	mem := newMemory(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := generic.NewEngine(mem, generic.NewFixedClock(2025, time.March, 3), logger, generic.DefaultHorizons())
	svc := bills.NewService(engine)
	ctx := context.Background()

	salary, err := engine.CreateRule(ctx, owner, generic.RuleInput{
		Kind: generic.KindIncome, Label: "Salary", Amount: generic.MustParseDecimal("4000"),
		AccountID: account, Schedule: generic.MonthlyBusinessDay{N: 5},
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, owner, salary.ID)
	assert.True(t, generic.IsNotFound(err))
	assert.True(t, generic.IsNotFound(svc.Remove(ctx, owner, salary.ID)))

	_, err = svc.Update(ctx, owner, salary.ID, bill("Rent", "1500", 10))
	assert.True(t, generic.IsNotFound(err))

	events, err := mem.ListEvents(ctx, generic.EventFilter{RuleID: salary.ID})
	require.NoError(t, err)
	_, err = svc.Pay(ctx, owner, events[0].ID)
	assert.True(t, generic.IsNotFound(err))
}

func TestSummary_CurrentMonthTotals(t *testing.T) {
	// GIVEN: Three bills registered on March 3rd
	// WHEN: The summary is read on March 20th
	// THEN: The 5th and 10th are overdue, the 25th is still pending

	mem := newMemory(t)
	ctx := context.Background()
	early := serviceAt(mem, 3)
	for _, b := range []bills.Bill{bill("Internet", "90", 5), bill("Rent", "1500", 10), bill("Phone", "40", 25)} {
		_, err := early.Create(ctx, owner, b)
		require.NoError(t, err)
	}

	svc := serviceAt(mem, 20)
	summary, err := svc.Summary(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", summary.Month.Start.String())
	assert.Equal(t, "2025-03-31", summary.Month.End.String())
	assert.Equal(t, "1630.00", summary.TotalPending.StringFixed(2))
	assert.Equal(t, "1590.00", summary.TotalOverdue.StringFixed(2))
	assert.Equal(t, 3, summary.BillsCount)
	assert.Equal(t, 2, summary.OverdueCount)
	require.Len(t, summary.NextBills, bills.NextBillsLimit)
	assert.Equal(t, "2025-03-05", summary.NextBills[0].ExpectedDate.String())
	assert.Equal(t, generic.StatusOverdue, summary.NextBills[0].Status)

	// Paying the overdue rent removes it from the totals.
	tx, err := svc.Pay(ctx, owner, summary.NextBills[1].ID)
	require.NoError(t, err)
	assert.Equal(t, generic.DirectionExpense, tx.Direction)

	summary, err = svc.Summary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "130.00", summary.TotalPending.StringFixed(2))
	assert.Equal(t, 1, summary.OverdueCount)
}

func TestPayAndSkip_AreTerminal(t *testing.T) {
	mem := newMemory(t)
	svc := serviceAt(mem, 3)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, bill("Gym", "45", 28))
	require.NoError(t, err)
	pending, err := svc.Pending(ctx, owner)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	_, err = svc.Pay(ctx, owner, pending[0].ID)
	require.NoError(t, err)
	require.NoError(t, svc.Skip(ctx, owner, pending[1].ID))

	_, err = svc.Pay(ctx, owner, pending[0].ID)
	assert.True(t, generic.IsConflict(err))
	assert.True(t, generic.IsConflict(svc.Skip(ctx, owner, pending[0].ID)))
	_, err = svc.Pay(ctx, owner, pending[1].ID)
	assert.True(t, generic.IsConflict(err))

	paid, err := mem.GetEvent(ctx, owner, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", bills.StatusLabel(paid.Status))
	assert.Equal(t, "skipped", bills.StatusLabel(generic.StatusSkipped))
	assert.Equal(t, "overdue", bills.StatusLabel(generic.StatusOverdue))
}

func TestCreate_ForeignAccount(t *testing.T) {
	mem := newMemory(t)
	svc := serviceAt(mem, 3)

	b := bill("Rent", "1500", 10)
	b.AccountID = "someone-elses"
	_, err := svc.Create(context.Background(), owner, b)
	assert.True(t, generic.IsNotFound(err))
}
