package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"focusquest/internal/recurrence"
)

// ParseDifficulty parses user input to a Difficulty.
// Supported: 1-4, easy, medium/normal, hard, epic. Empty input is easy.
func ParseDifficulty(input string) (Difficulty, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "", "easy", "e":
		return DifficultyEasy, nil
	case "medium", "normal", "m":
		return DifficultyMedium, nil
	case "hard", "h":
		return DifficultyHard, nil
	case "epic":
		return DifficultyEpic, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Difficulty(n).IsValid() {
		return 0, fmt.Errorf("invalid difficulty: %q", input)
	}
	return Difficulty(n), nil
}

// ParseRecurrence builds a rule from CLI-style parts. kind accepts once,
// daily, every_n_days (or "every") and weekly; days is a comma list of weekday
// names or numbers 0-6. A once rule returns nil.
func ParseRecurrence(kind string, interval int, days string, count int) (*recurrence.Rule, error) {
	var r recurrence.Rule
	switch strings.TrimSpace(strings.ToLower(kind)) {
	case "", "once", "one-time", "none":
		return nil, nil
	case "daily", "day":
		r = recurrence.Daily(interval)
	case "every_n_days", "every", "interval":
		r = recurrence.EveryNDays(interval)
	case "weekly", "week":
		wd, err := ParseWeekdays(days)
		if err != nil {
			return nil, err
		}
		r = recurrence.Weekly(wd...)
	default:
		return nil, recurrence.InvalidRuleError{Reason: fmt.Sprintf("unknown repeat %q", kind)}
	}
	if count > 0 {
		r = r.WithMaxOccurrences(count)
	}
	if err := recurrence.Validate(r); err != nil {
		return nil, err
	}
	return &r, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func ParseWeekdays(input string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(input, ",") {
		p := strings.TrimSpace(strings.ToLower(part))
		if p == "" {
			continue
		}
		if d, ok := weekdayNames[p]; ok {
			out = append(out, d)
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 6 {
			return nil, recurrence.InvalidRuleError{Reason: fmt.Sprintf("unknown weekday %q", part)}
		}
		out = append(out, time.Weekday(n))
	}
	if len(out) == 0 {
		return nil, recurrence.InvalidRuleError{Reason: "weekly rule needs at least one weekday"}
	}
	return out, nil
}
