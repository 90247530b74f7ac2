package generic

import "time"

// =============================================================================
// PERIOD - Date window used by summaries
// =============================================================================

// Period is a closed date range [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthPeriod returns the calendar month containing date.
func MonthPeriod(date TimePoint) Period {
	return Period{
		Start: StartOfMonth(date.Year(), date.Month()),
		End:   EndOfMonth(date.Year(), date.Month()),
	}
}

// MonthOf returns the calendar month of the given year.
func MonthOf(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Filter returns the events whose expected date falls inside the period.
func (p Period) Filter(events []PendingEvent) []PendingEvent {
	var out []PendingEvent
	for _, e := range events {
		if p.Contains(e.ExpectedDate) {
			out = append(out, e)
		}
	}
	return out
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
