package generic

import (
	"time"
)

// =============================================================================
// SCHEDULE - Tagged union over frequency
// =============================================================================

// Frequency is the top-level recurrence tag of a rule.
type Frequency string

const (
	FreqMonthly  Frequency = "monthly"
	FreqBiweekly Frequency = "biweekly"
	FreqWeekly   Frequency = "weekly"
	FreqDaily    Frequency = "daily"
)

// Mode tags select the sub-rule of the monthly and biweekly frequencies.
const (
	ModeBusinessDay   = "business_day"
	ModeFixedDay      = "fixed_day"
	ModeAdvanceSalary = "advance_salary"
	ModeFixedDays     = "fixed_days"
)

// LastBusinessDayOrdinal selects the last business day of the month.
const LastBusinessDayOrdinal = -1

// MaxBusinessDayOrdinal is the largest business-day ordinal any month can hold.
const MaxBusinessDayOrdinal = 23

// Schedule generates candidate occurrence dates for one frequency policy.
// Implementations may over-generate or return candidates out of order;
// NextOccurrences filters, sorts, deduplicates and truncates.
type Schedule interface {
	Frequency() Frequency

	// Mode returns the sub-rule tag, or "" for frequencies without modes.
	Mode() string

	// Validate returns a *ConfigurationError when a parameter is missing or
	// out of range.
	Validate() error

	// Candidates returns at least count dates on/after from when that many
	// exist, in any order.
	Candidates(from TimePoint, count int) []TimePoint
}

// =============================================================================
// MONTHLY
// =============================================================================

// MonthlyBusinessDay occurs on the N-th business day of each month
// (N = -1 for the last business day).
type MonthlyBusinessDay struct {
	N int
}

func (s MonthlyBusinessDay) Frequency() Frequency { return FreqMonthly }
func (s MonthlyBusinessDay) Mode() string         { return ModeBusinessDay }

func (s MonthlyBusinessDay) Validate() error {
	return validateOrdinal("business_day", s.N)
}

func (s MonthlyBusinessDay) Candidates(from TimePoint, count int) []TimePoint {
	return walkMonths(from, count, func(year int, month time.Month) []TimePoint {
		return []TimePoint{NthBusinessDay(year, month, s.N)}
	})
}

// MonthlyFixedDay occurs on a fixed day of each month, clamped to the
// month's length.
type MonthlyFixedDay struct {
	Day int
}

func (s MonthlyFixedDay) Frequency() Frequency { return FreqMonthly }
func (s MonthlyFixedDay) Mode() string         { return ModeFixedDay }

func (s MonthlyFixedDay) Validate() error {
	return validateDay("fixed_day", s.Day)
}

func (s MonthlyFixedDay) Candidates(from TimePoint, count int) []TimePoint {
	return walkMonths(from, count, func(year int, month time.Month) []TimePoint {
		return []TimePoint{ClampDay(year, month, s.Day)}
	})
}

// =============================================================================
// BIWEEKLY - two occurrences per month
// =============================================================================

// BiweeklyAdvanceSalary pays an advance on a fixed day and the salary on a
// business-day ordinal, every month.
type BiweeklyAdvanceSalary struct {
	AdvanceDay        int
	SalaryBusinessDay int
}

func (s BiweeklyAdvanceSalary) Frequency() Frequency { return FreqBiweekly }
func (s BiweeklyAdvanceSalary) Mode() string         { return ModeAdvanceSalary }

func (s BiweeklyAdvanceSalary) Validate() error {
	if err := validateDay("advance_day", s.AdvanceDay); err != nil {
		return err
	}
	return validateOrdinal("salary_business_day", s.SalaryBusinessDay)
}

func (s BiweeklyAdvanceSalary) Candidates(from TimePoint, count int) []TimePoint {
	return walkMonths(from, count, func(year int, month time.Month) []TimePoint {
		return []TimePoint{
			ClampDay(year, month, s.AdvanceDay),
			NthBusinessDay(year, month, s.SalaryBusinessDay),
		}
	})
}

// BiweeklyFixedDays occurs on two fixed days of each month, each clamped
// independently.
type BiweeklyFixedDays struct {
	Day1 int
	Day2 int
}

func (s BiweeklyFixedDays) Frequency() Frequency { return FreqBiweekly }
func (s BiweeklyFixedDays) Mode() string         { return ModeFixedDays }

func (s BiweeklyFixedDays) Validate() error {
	if err := validateDay("day1", s.Day1); err != nil {
		return err
	}
	if err := validateDay("day2", s.Day2); err != nil {
		return err
	}
	if s.Day1 == s.Day2 {
		return configErr("day2", "must differ from day1 (%d)", s.Day1)
	}
	return nil
}

func (s BiweeklyFixedDays) Candidates(from TimePoint, count int) []TimePoint {
	return walkMonths(from, count, func(year int, month time.Month) []TimePoint {
		return []TimePoint{
			ClampDay(year, month, s.Day1),
			ClampDay(year, month, s.Day2),
		}
	})
}

// =============================================================================
// WEEKLY / DAILY
// =============================================================================

// Weekly occurs every 7 days on the given weekday.
type Weekly struct {
	Weekday time.Weekday
}

func (s Weekly) Frequency() Frequency { return FreqWeekly }
func (s Weekly) Mode() string         { return "" }

func (s Weekly) Validate() error {
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return configErr("weekday", "must be between 0 (Sunday) and 6 (Saturday), got %d", s.Weekday)
	}
	return nil
}

func (s Weekly) Candidates(from TimePoint, count int) []TimePoint {
	offset := (int(s.Weekday) - int(from.Weekday()) + 7) % 7
	first := from.AddDays(offset)

	dates := make([]TimePoint, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, first.AddDays(7*i))
	}
	return dates
}

// Daily occurs on every business day.
type Daily struct{}

func (s Daily) Frequency() Frequency { return FreqDaily }
func (s Daily) Mode() string         { return "" }
func (s Daily) Validate() error      { return nil }

func (s Daily) Candidates(from TimePoint, count int) []TimePoint {
	dates := make([]TimePoint, 0, count)
	for d := from; len(dates) < count; d = d.AddDays(1) {
		if d.IsBusinessDay() {
			dates = append(dates, d)
		}
	}
	return dates
}

// =============================================================================
// HELPERS
// =============================================================================

// walkMonths collects per-month candidates on/after from, starting at from's
// month, until at least count have been gathered. A month's candidates all
// precede the next month's, so stopping at a month boundary is enough for a
// later sort-and-truncate to be exact.
func walkMonths(from TimePoint, count int, perMonth func(year int, month time.Month) []TimePoint) []TimePoint {
	var dates []TimePoint
	seen := make(map[string]bool)
	// The first month may yield nothing; every later month yields at least one
	// distinct date.
	for i := 0; len(dates) < count && i <= count+1; i++ {
		first := time.Date(from.Year(), from.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		for _, d := range perMonth(first.Year(), first.Month()) {
			if d.Before(from) || seen[d.String()] {
				continue
			}
			seen[d.String()] = true
			dates = append(dates, d)
		}
	}
	return dates
}

func validateDay(field string, day int) error {
	if day == 0 {
		return configErr(field, "is required")
	}
	if day < 1 || day > 31 {
		return configErr(field, "must be between 1 and 31, got %d", day)
	}
	return nil
}

func validateOrdinal(field string, n int) error {
	if n == 0 {
		return configErr(field, "is required")
	}
	if n == LastBusinessDayOrdinal {
		return nil
	}
	if n < 1 || n > MaxBusinessDayOrdinal {
		return configErr(field, "must be -1 (last) or between 1 and %d, got %d", MaxBusinessDayOrdinal, n)
	}
	return nil
}
