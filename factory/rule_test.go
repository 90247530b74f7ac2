package factory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/generic"
)

func TestParseSchedule_AllModes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want generic.Schedule
	}{
		{"monthly business day", `{"frequency":"monthly","mode":"business_day","business_day":5}`, generic.MonthlyBusinessDay{N: 5}},
		{"monthly last business day", `{"frequency":"monthly","mode":"business_day","business_day":-1}`, generic.MonthlyBusinessDay{N: -1}},
		{"monthly fixed day", `{"frequency":"monthly","mode":"fixed_day","fixed_day":31}`, generic.MonthlyFixedDay{Day: 31}},
		{"biweekly advance salary", `{"frequency":"biweekly","mode":"advance_salary","advance_day":20,"salary_business_day":5}`, generic.BiweeklyAdvanceSalary{AdvanceDay: 20, SalaryBusinessDay: 5}},
		{"biweekly fixed days", `{"frequency":"biweekly","mode":"fixed_days","day1":5,"day2":20}`, generic.BiweeklyFixedDays{Day1: 5, Day2: 20}},
		{"weekly by number", `{"frequency":"weekly","weekday":5}`, generic.Weekly{Weekday: time.Friday}},
		{"weekly by name", `{"frequency":"weekly","weekday":"Monday"}`, generic.Weekly{Weekday: time.Monday}},
		{"weekly by short name", `{"frequency":"weekly","weekday":"sun"}`, generic.Weekly{Weekday: time.Sunday}},
		{"daily", `{"frequency":"daily"}`, generic.Daily{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := factory.ParseSchedule([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSchedule_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"missing frequency", `{}`, "frequency"},
		{"unknown frequency", `{"frequency":"yearly"}`, "frequency"},
		{"missing mode", `{"frequency":"monthly","fixed_day":10}`, "mode"},
		{"unknown mode", `{"frequency":"biweekly","mode":"alternate"}`, "mode"},
		{"missing business day", `{"frequency":"monthly","mode":"business_day"}`, "business_day"},
		{"fixed day out of range", `{"frequency":"monthly","mode":"fixed_day","fixed_day":32}`, "fixed_day"},
		{"equal fixed days", `{"frequency":"biweekly","mode":"fixed_days","day1":15,"day2":15}`, "day2"},
		{"missing weekday", `{"frequency":"weekly"}`, "weekday"},
		{"weekday out of range", `{"frequency":"weekly","weekday":7}`, "weekday"},
		{"unknown weekday name", `{"frequency":"weekly","weekday":"someday"}`, "weekday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseSchedule([]byte(tt.json))
			require.Error(t, err)
			assert.True(t, generic.IsClientError(err), "expected configuration error, got %v", err)

			var cfgErr *generic.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseSchedule_MalformedJSON(t *testing.T) {
	_, err := factory.ParseSchedule([]byte(`{"frequency":`))
	require.Error(t, err)
	assert.False(t, generic.IsClientError(err))
}

func TestParseRule(t *testing.T) {
	body := `{
		"kind": "income",
		"label": "Salary",
		"category": "salary",
		"amount": "4200.00",
		"account_id": "acc-checking",
		"schedule": {"frequency": "biweekly", "mode": "advance_salary", "advance_day": 20, "salary_business_day": 5}
	}`

	in, err := factory.ParseRule([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, generic.KindIncome, in.Kind)
	assert.Equal(t, "Salary", in.Label)
	assert.Equal(t, generic.AccountID("acc-checking"), in.AccountID)
	assert.True(t, in.Amount.Equal(generic.MustParseDecimal("4200")))
	assert.Equal(t, generic.BiweeklyAdvanceSalary{AdvanceDay: 20, SalaryBusinessDay: 5}, in.Schedule)
}

func TestParseRule_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad kind", `{"kind":"transfer","label":"x","amount":"1","account_id":"a","schedule":{"frequency":"daily"}}`, "kind"},
		{"missing amount", `{"kind":"expense","label":"x","account_id":"a","schedule":{"frequency":"daily"}}`, "amount"},
		{"non-decimal amount", `{"kind":"expense","label":"x","amount":"ten","account_id":"a","schedule":{"frequency":"daily"}}`, "amount"},
		{"zero amount", `{"kind":"expense","label":"x","amount":"0","account_id":"a","schedule":{"frequency":"daily"}}`, "amount"},
		{"missing account", `{"kind":"expense","label":"x","amount":"1","schedule":{"frequency":"daily"}}`, "account_id"},
		{"missing schedule", `{"kind":"expense","label":"x","amount":"1","account_id":"a"}`, "frequency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseRule([]byte(tt.body))
			var cfgErr *generic.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected configuration error, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRuleToJSON_ReparsesToSameInput(t *testing.T) {
	rule := generic.RecurrenceRule{
		ID: "r1", OwnerID: "o1", Kind: generic.KindExpense, Label: "Gym",
		Amount: generic.MustParseDecimal("45.5"), AccountID: "acc-1",
		Schedule: generic.Weekly{Weekday: time.Tuesday}, IsActive: true,
	}

	rj := factory.RuleToJSON(rule)
	assert.Equal(t, "45.50", rj.Amount)
	assert.Equal(t, "weekly", rj.Schedule.Frequency)

	in, err := rj.Input()
	require.NoError(t, err)
	assert.Equal(t, rule.Schedule, in.Schedule)
	assert.True(t, rule.Amount.Equal(in.Amount))
	assert.Equal(t, rule.Kind, in.Kind)
}

func TestRuleJSON_FromYAML(t *testing.T) {
	doc := `
kind: expense
label: Transit
amount: "8.80"
account_id: business
schedule:
  frequency: weekly
  weekday: friday
`
	var rj factory.RuleJSON
	require.NoError(t, yaml.Unmarshal([]byte(doc), &rj))

	in, err := rj.Input()
	require.NoError(t, err)
	assert.Equal(t, generic.Weekly{Weekday: time.Friday}, in.Schedule)
	assert.Equal(t, "8.8", in.Amount.String())
}

func TestMarshalSchedule(t *testing.T) {
	data, err := factory.MarshalSchedule(generic.BiweeklyFixedDays{Day1: 1, Day2: 15})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"biweekly","mode":"fixed_days","day1":1,"day2":15}`, string(data))

	data, err = factory.MarshalSchedule(generic.Weekly{Weekday: time.Sunday})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"weekly","weekday":0}`, string(data))
}
