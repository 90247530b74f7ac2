package generic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/generic/store"
)

func TestMaterialize_Idempotent(t *testing.T) {
	// GIVEN: A rule already materialized once
	// WHEN: Materializing again with the same clock
	// THEN: No new events are created

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	rule, err := engine.CreateRule(ctx, testOwner, rentInput())
	require.NoError(t, err)

	n, err := engine.Scheduler.Materializer.Materialize(ctx, rule, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, eventsOf(t, mem, rule.ID), 3)
}

func TestMaterialize_ExtendsWhenClockAdvances(t *testing.T) {
	ctx := context.Background()
	mem := store.NewTxMemory()
	require.NoError(t, mem.SaveAccount(ctx, generic.Account{ID: testAccount, OwnerID: testOwner}))

	rule := generic.RecurrenceRule{
		ID: "rule-rent", OwnerID: testOwner, Kind: generic.KindExpense, Label: "Rent",
		Amount: generic.MustParseDecimal("900"), AccountID: testAccount,
		Schedule: generic.MonthlyFixedDay{Day: 10}, IsActive: true,
	}

	march := generic.NewMaterializer(mem, generic.NewFixedClock(2025, time.March, 1), quietLogger())
	n, err := march.Materialize(ctx, rule, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// A month later one new date enters the window; the older ones stay.
	april := generic.NewMaterializer(mem, generic.NewFixedClock(2025, time.April, 1), quietLogger())
	n, err = april.Materialize(ctx, rule, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events := eventsOf(t, mem, rule.ID)
	assert.Equal(t, []string{"2025-03-10", "2025-04-10", "2025-05-10", "2025-06-10"},
		[]string{events[0].ExpectedDate.String(), events[1].ExpectedDate.String(), events[2].ExpectedDate.String(), events[3].ExpectedDate.String()})
}

func TestMaterialize_InactiveRuleOrEmptyHorizon(t *testing.T) {
	mem := store.NewTxMemory()
	m := generic.NewMaterializer(mem, generic.NewFixedClock(2025, time.March, 1), quietLogger())
	rule := generic.RecurrenceRule{ID: "r", OwnerID: testOwner, Kind: generic.KindExpense, Schedule: generic.Daily{}}

	n, err := m.Materialize(context.Background(), rule, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	rule.IsActive = true
	n, err = m.Materialize(context.Background(), rule, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaterialize_MisconfiguredRule(t *testing.T) {
	mem := store.NewTxMemory()
	m := generic.NewMaterializer(mem, generic.NewFixedClock(2025, time.March, 1), quietLogger())
	rule := generic.RecurrenceRule{ID: "r", OwnerID: testOwner, Schedule: generic.MonthlyFixedDay{}, IsActive: true}

	_, err := m.Materialize(context.Background(), rule, 3)
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func TestMaterialize_EventsSnapshotRule(t *testing.T) {
	// GIVEN: Rent materialized at 1500
	// WHEN: The rule amount is raised to 1650
	// THEN: Existing events keep 1500

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	rule, err := engine.CreateRule(ctx, testOwner, rentInput())
	require.NoError(t, err)

	in := rentInput()
	in.Amount = generic.MustParseDecimal("1650.00")
	in.Label = "Rent (new lease)"
	_, err = engine.UpdateRule(ctx, testOwner, rule.ID, in)
	require.NoError(t, err)

	for _, e := range eventsOf(t, mem, rule.ID) {
		assert.Equal(t, "1500", e.Amount.String())
		assert.Equal(t, "Rent", e.Label)
	}
}

func TestMaterialize_ScheduleChangeAddsNewDates(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	rule, err := engine.CreateRule(ctx, testOwner, rentInput())
	require.NoError(t, err)

	in := rentInput()
	in.Schedule = generic.MonthlyFixedDay{Day: 20}
	_, err = engine.UpdateRule(ctx, testOwner, rule.ID, in)
	require.NoError(t, err)

	// Old dates are kept, the new ones are added next to them.
	assert.Len(t, eventsOf(t, mem, rule.ID), 6)
}
