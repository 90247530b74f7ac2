/*
Package factory provides JSON to Go recurrence rule conversion.

PURPOSE:
  Converts JSON (and YAML) schedule and rule definitions into
  generic.Schedule and generic.RuleInput values. The HTTP layer, the demo
  scenarios and the SQLite store all go through this package, so a
  schedule has exactly one serialized shape everywhere.

JSON SCHEMA:
  {
    "kind": "income",
    "label": "Salary",
    "category": "salary",
    "amount": "4200.00",
    "account_id": "acc-checking",
    "schedule": {
      "frequency": "biweekly",
      "mode": "advance_salary",
      "advance_day": 20,
      "salary_business_day": 5
    }
  }

  Schedule shapes:
    {"frequency": "monthly",  "mode": "business_day", "business_day": 5}
    {"frequency": "monthly",  "mode": "fixed_day",    "fixed_day": 10}
    {"frequency": "biweekly", "mode": "advance_salary",
                              "advance_day": 20, "salary_business_day": -1}
    {"frequency": "biweekly", "mode": "fixed_days",   "day1": 5, "day2": 20}
    {"frequency": "weekly",   "weekday": 5}           (or "weekday": "friday")
    {"frequency": "daily"}

VALIDATION:
  Unknown frequency or mode tags and missing or out-of-range parameters
  return *generic.ConfigurationError. Nothing is defaulted.

USAGE:
  schedule, err := factory.ParseSchedule([]byte(`{"frequency":"daily"}`))

  in, err := factory.ParseRule(body)
  rule, err := rules.Create(ctx, ownerID, in)

SEE ALSO:
  - generic/schedule.go: Schedule implementations
  - store/sqlite/sqlite.go: persists schedules with MarshalSchedule
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/cashflow-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the serialized form of a generic.Schedule.
type ScheduleJSON struct {
	Frequency         string   `json:"frequency" yaml:"frequency"`
	Mode              string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	BusinessDay       int      `json:"business_day,omitempty" yaml:"business_day,omitempty"`
	FixedDay          int      `json:"fixed_day,omitempty" yaml:"fixed_day,omitempty"`
	AdvanceDay        int      `json:"advance_day,omitempty" yaml:"advance_day,omitempty"`
	SalaryBusinessDay int      `json:"salary_business_day,omitempty" yaml:"salary_business_day,omitempty"`
	Day1              int      `json:"day1,omitempty" yaml:"day1,omitempty"`
	Day2              int      `json:"day2,omitempty" yaml:"day2,omitempty"`
	Weekday           *Weekday `json:"weekday,omitempty" yaml:"weekday,omitempty"`
}

// RuleJSON is the serialized form of a generic.RuleInput.
type RuleJSON struct {
	Kind      string       `json:"kind" yaml:"kind"`
	Label     string       `json:"label" yaml:"label"`
	Category  string       `json:"category,omitempty" yaml:"category,omitempty"`
	Amount    string       `json:"amount" yaml:"amount"`
	AccountID string       `json:"account_id" yaml:"account_id"`
	Schedule  ScheduleJSON `json:"schedule" yaml:"schedule"`
}

// Weekday accepts either 0-6 (Sunday = 0) or an English day name.
type Weekday int

func (w *Weekday) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*w = Weekday(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &generic.ConfigurationError{Field: "weekday", Reason: "must be a number 0-6 or a day name"}
	}
	return w.parse(s)
}

func (w *Weekday) UnmarshalYAML(node *yaml.Node) error {
	return w.parse(node.Value)
}

func (w *Weekday) parse(s string) error {
	if n, err := strconv.Atoi(s); err == nil {
		*w = Weekday(n)
		return nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) || strings.EqualFold(s, d.String()[:3]) {
			*w = Weekday(d)
			return nil
		}
	}
	return &generic.ConfigurationError{Field: "weekday", Reason: fmt.Sprintf("unknown day %q", s)}
}

// =============================================================================
// SCHEDULE CONVERSION
// =============================================================================

// ParseSchedule parses a JSON schedule and validates it.
func ParseSchedule(data []byte) (generic.Schedule, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return sj.Schedule()
}

// Schedule builds and validates the generic.Schedule described by sj.
func (sj ScheduleJSON) Schedule() (generic.Schedule, error) {
	var s generic.Schedule

	switch generic.Frequency(sj.Frequency) {
	case generic.FreqMonthly:
		switch sj.Mode {
		case generic.ModeBusinessDay:
			s = generic.MonthlyBusinessDay{N: sj.BusinessDay}
		case generic.ModeFixedDay:
			s = generic.MonthlyFixedDay{Day: sj.FixedDay}
		default:
			return nil, unknownMode(sj)
		}

	case generic.FreqBiweekly:
		switch sj.Mode {
		case generic.ModeAdvanceSalary:
			s = generic.BiweeklyAdvanceSalary{AdvanceDay: sj.AdvanceDay, SalaryBusinessDay: sj.SalaryBusinessDay}
		case generic.ModeFixedDays:
			s = generic.BiweeklyFixedDays{Day1: sj.Day1, Day2: sj.Day2}
		default:
			return nil, unknownMode(sj)
		}

	case generic.FreqWeekly:
		if sj.Weekday == nil {
			return nil, &generic.ConfigurationError{Field: "weekday", Reason: "is required"}
		}
		s = generic.Weekly{Weekday: time.Weekday(*sj.Weekday)}

	case generic.FreqDaily:
		s = generic.Daily{}

	case "":
		return nil, &generic.ConfigurationError{Field: "frequency", Reason: "is required"}

	default:
		return nil, &generic.ConfigurationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", sj.Frequency)}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func unknownMode(sj ScheduleJSON) error {
	if sj.Mode == "" {
		return &generic.ConfigurationError{Field: "mode", Reason: fmt.Sprintf("is required for %s", sj.Frequency)}
	}
	return &generic.ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown %s mode %q", sj.Frequency, sj.Mode)}
}

// ScheduleToJSON converts a Schedule to its serialized form.
func ScheduleToJSON(s generic.Schedule) ScheduleJSON {
	sj := ScheduleJSON{Frequency: string(s.Frequency()), Mode: s.Mode()}
	switch v := s.(type) {
	case generic.MonthlyBusinessDay:
		sj.BusinessDay = v.N
	case generic.MonthlyFixedDay:
		sj.FixedDay = v.Day
	case generic.BiweeklyAdvanceSalary:
		sj.AdvanceDay = v.AdvanceDay
		sj.SalaryBusinessDay = v.SalaryBusinessDay
	case generic.BiweeklyFixedDays:
		sj.Day1 = v.Day1
		sj.Day2 = v.Day2
	case generic.Weekly:
		wd := Weekday(v.Weekday)
		sj.Weekday = &wd
	}
	return sj
}

// MarshalSchedule encodes a Schedule as JSON.
func MarshalSchedule(s generic.Schedule) ([]byte, error) {
	return json.Marshal(ScheduleToJSON(s))
}

// =============================================================================
// RULE CONVERSION
// =============================================================================

// ParseRule parses a JSON rule definition.
func ParseRule(data []byte) (generic.RuleInput, error) {
	var rj RuleJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return generic.RuleInput{}, fmt.Errorf("failed to parse rule JSON: %w", err)
	}
	return rj.Input()
}

// Input converts rj to a validated generic.RuleInput.
func (rj RuleJSON) Input() (generic.RuleInput, error) {
	amount, err := ParseAmount(rj.Amount)
	if err != nil {
		return generic.RuleInput{}, err
	}
	schedule, err := rj.Schedule.Schedule()
	if err != nil {
		return generic.RuleInput{}, err
	}
	in := generic.RuleInput{
		Kind:      generic.RuleKind(rj.Kind),
		Label:     rj.Label,
		Category:  rj.Category,
		Amount:    amount,
		AccountID: generic.AccountID(rj.AccountID),
		Schedule:  schedule,
	}
	if err := in.Validate(); err != nil {
		return generic.RuleInput{}, err
	}
	return in, nil
}

// RuleToJSON converts a stored rule back to its serialized form.
func RuleToJSON(rule generic.RecurrenceRule) RuleJSON {
	rj := RuleJSON{
		Kind:      string(rule.Kind),
		Label:     rule.Label,
		Category:  rule.Category,
		Amount:    rule.Amount.StringFixed(2),
		AccountID: string(rule.AccountID),
	}
	if rule.Schedule != nil {
		rj.Schedule = ScheduleToJSON(rule.Schedule)
	}
	return rj
}

// ParseAmount parses a decimal amount string.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, &generic.ConfigurationError{Field: "amount", Reason: "is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &generic.ConfigurationError{Field: "amount", Reason: fmt.Sprintf("not a decimal: %q", s)}
	}
	return d, nil
}
