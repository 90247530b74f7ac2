package generic

import (
	"sort"
)

// NextOccurrences returns up to count occurrence dates of the schedule on or
// after from, strictly increasing and without duplicates.
//
// Schedules only guarantee local ordering (within a month for the biweekly
// variants), so the candidates are globally sorted before truncation.
func NextOccurrences(s Schedule, from TimePoint, count int) []TimePoint {
	if s == nil || count <= 0 {
		return nil
	}

	var dates []TimePoint
	for _, d := range s.Candidates(from, count) {
		if d.AfterOrEqual(from) {
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]TimePoint, 0, count)
	for _, d := range dates {
		if n := len(out); n > 0 && out[n-1].Equal(d) {
			continue
		}
		out = append(out, d)
		if len(out) == count {
			break
		}
	}
	return out
}

// NextOccurrencesForRule validates the rule's schedule and evaluates it.
func NextOccurrencesForRule(rule RecurrenceRule, from TimePoint, count int) ([]TimePoint, error) {
	if rule.Schedule == nil {
		return nil, configErr("frequency", "is required")
	}
	if err := rule.Schedule.Validate(); err != nil {
		return nil, err
	}
	return NextOccurrences(rule.Schedule, from, count), nil
}
