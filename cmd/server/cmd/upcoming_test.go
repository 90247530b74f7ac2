package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/cashflow-engine/generic"
)

func TestRenderEvents(t *testing.T) {
	events := []generic.PendingEvent{
		{
			Label: "Salary", Kind: generic.KindIncome, Amount: generic.MustParseDecimal("4200"),
			ExpectedDate: generic.NewTimePoint(2025, time.April, 7), Status: generic.StatusPending,
		},
		{
			Label: "Rent for the apartment downtown", Kind: generic.KindExpense, Amount: generic.MustParseDecimal("1500.5"),
			ExpectedDate: generic.NewTimePoint(2025, time.March, 10), Status: generic.StatusOverdue,
		},
	}

	var buf bytes.Buffer
	renderEvents(&buf, events)
	out := buf.String()

	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "2025-04-07")
	assert.Contains(t, out, "4200.00")
	assert.Contains(t, out, "1500.50")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "Rent for the apartmen…")
	assert.NotContains(t, out, "downtown")
}

func TestRenderEvents_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderEvents(&buf, nil)
	assert.Contains(t, buf.String(), "no open events")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 22))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
