package api_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/generic"
	"github.com/warp/cashflow-engine/generic/store"
)

func seededScheduler(t *testing.T) (*generic.Scheduler, *store.TxMemory, generic.RecurrenceRule) {
	t.Helper()
	mem := store.NewTxMemory()
	ctx := context.Background()
	require.NoError(t, mem.SaveAccount(ctx, generic.Account{ID: "acc-1", OwnerID: "owner-1", Name: "Checking"}))

	// Saved directly so nothing is materialized until the sweeper runs.
	rule := generic.RecurrenceRule{
		ID: "rule-1", OwnerID: "owner-1", Kind: generic.KindExpense, Label: "Rent",
		Amount: generic.MustParseDecimal("1500"), AccountID: "acc-1",
		Schedule: generic.MonthlyFixedDay{Day: 10}, IsActive: true,
	}
	require.NoError(t, mem.SaveRule(ctx, rule))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return generic.NewScheduler(mem, generic.NewFixedClock(2025, time.March, 3), logger, generic.DefaultHorizons()), mem, rule
}

func TestSweepScheduler_RunOnce(t *testing.T) {
	scheduler, mem, rule := seededScheduler(t)
	sweeper := api.NewSweepScheduler(scheduler, time.Hour, scheduler.Logger)

	sweeper.RunOnce(context.Background())

	events, err := mem.ListEvents(context.Background(), generic.EventFilter{RuleID: rule.ID})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestSweepScheduler_StartRunsImmediately(t *testing.T) {
	scheduler, mem, rule := seededScheduler(t)
	sweeper := api.NewSweepScheduler(scheduler, time.Hour, scheduler.Logger)
	require.True(t, sweeper.Enabled)

	sweeper.Start()
	sweeper.Start() // no second goroutine
	sweeper.Stop()

	events, err := mem.ListEvents(context.Background(), generic.EventFilter{RuleID: rule.ID})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	// Restart after stop is allowed.
	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}

func TestSweepScheduler_DisabledWithZeroInterval(t *testing.T) {
	scheduler, mem, rule := seededScheduler(t)
	sweeper := api.NewSweepScheduler(scheduler, 0, scheduler.Logger)
	assert.False(t, sweeper.Enabled)

	sweeper.Start()
	sweeper.Stop()

	events, err := mem.ListEvents(context.Background(), generic.EventFilter{RuleID: rule.ID})
	require.NoError(t, err)
	assert.Empty(t, events)
}
