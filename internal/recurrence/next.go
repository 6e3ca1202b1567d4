package recurrence

import "time"

const (
	// maxIntervalSteps bounds the daily scan to roughly ten years.
	maxIntervalSteps = 3650
	// maxWeeklyDays bounds the weekly scan to eight weeks.
	maxWeeklyDays = 56
)

// StartOfDay returns the calendar date of t in loc as a UTC midnight.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wallClock re-expresses t's local wall time in loc as if it were UTC, which puts
// it on the same axis as the day starts produced by StartOfDay.
func wallClock(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	y, m, d := lt.Date()
	return time.Date(y, m, d, lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), time.UTC)
}

// ComputeNextDue returns the next due day start after the anchor, measuring
// calendar days in UTC. ok is false when the rule has no further occurrence.
func ComputeNextDue(rule *Rule, after time.Time, completedCount int) (next time.Time, ok bool) {
	return ComputeNextDueIn(rule, after, completedCount, time.UTC)
}

// ComputeNextDueIn is ComputeNextDue with calendar days taken in loc.
func ComputeNextDueIn(rule *Rule, after time.Time, completedCount int, loc *time.Location) (time.Time, bool) {
	if rule == nil || rule.Kind == KindOneTime {
		return time.Time{}, false
	}
	if rule.MaxOccurrences > 0 && completedCount >= rule.MaxOccurrences {
		return time.Time{}, false
	}

	anchor := wallClock(after, loc)
	base := StartOfDay(after, loc)

	switch rule.Kind {
	case KindDaily, KindEveryNDays:
		step := rule.interval()
		for k := 1; k <= maxIntervalSteps; k++ {
			candidate := base.AddDate(0, 0, k*step)
			if candidate.After(anchor) {
				return candidate, true
			}
		}
	case KindWeekly:
		if len(rule.Weekdays) == 0 {
			return time.Time{}, false
		}
		for d := 1; d <= maxWeeklyDays; d++ {
			candidate := base.AddDate(0, 0, d)
			if rule.hasWeekday(candidate.Weekday()) && candidate.After(anchor) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

// FirstDueIn returns the initial due day for a newly created recurring task:
// today for interval rules, otherwise the first matching weekday from today on.
func FirstDueIn(rule *Rule, from time.Time, loc *time.Location) (time.Time, bool) {
	today := StartOfDay(from, loc)
	if rule == nil || rule.Kind == KindOneTime {
		return today, true
	}
	if rule.Kind != KindWeekly {
		return today, true
	}
	for d := 0; d < maxWeeklyDays; d++ {
		candidate := today.AddDate(0, 0, d)
		if rule.hasWeekday(candidate.Weekday()) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// IsDueOnDate reports whether nextDue falls on date's calendar day. nextDue is
// read by its UTC components, date by its own.
func IsDueOnDate(nextDue *time.Time, date time.Time) bool {
	if nextDue == nil {
		return false
	}
	ny, nm, nd := nextDue.UTC().Date()
	y, m, d := date.Date()
	return ny == y && nm == m && nd == d
}

// IsOverdue reports whether nextDue is before the calendar day of now in loc.
func IsOverdue(nextDue *time.Time, now time.Time, loc *time.Location) bool {
	if nextDue == nil {
		return false
	}
	return nextDue.UTC().Before(StartOfDay(now, loc))
}
