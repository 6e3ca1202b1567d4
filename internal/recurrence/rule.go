// Package recurrence resolves when a repeating task is next due.
//
// Every instant produced here is the start of a calendar day expressed as UTC
// midnight, so the UTC date of a stored due instant is the task's local due date.
package recurrence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type Kind string

const (
	KindOneTime    Kind = "one-time"
	KindDaily      Kind = "daily"
	KindEveryNDays Kind = "every_n_days"
	KindWeekly     Kind = "weekly"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindOneTime, KindDaily, KindEveryNDays, KindWeekly:
		return true
	default:
		return false
	}
}

// Rule is a tagged recurrence variant. Interval applies to Daily and EveryNDays
// (0 means 1), Weekdays to Weekly. MaxOccurrences of 0 means unbounded.
type Rule struct {
	Kind           Kind
	Interval       int
	Weekdays       []time.Weekday
	MaxOccurrences int
}

func OneTime() Rule { return Rule{Kind: KindOneTime} }

func Daily(interval int) Rule { return Rule{Kind: KindDaily, Interval: interval} }

func EveryNDays(interval int) Rule { return Rule{Kind: KindEveryNDays, Interval: interval} }

func Weekly(days ...time.Weekday) Rule {
	return Rule{Kind: KindWeekly, Weekdays: normalizeWeekdays(days)}
}

// WithMaxOccurrences returns a copy of r limited to n completions.
func (r Rule) WithMaxOccurrences(n int) Rule {
	r.MaxOccurrences = n
	return r
}

func (r Rule) IsRecurring() bool {
	return r.Kind != KindOneTime
}

func (r Rule) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

func (r Rule) hasWeekday(d time.Weekday) bool {
	for _, w := range r.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	var s string
	switch r.Kind {
	case KindOneTime:
		return "once"
	case KindDaily, KindEveryNDays:
		if r.interval() == 1 {
			s = "daily"
		} else {
			s = fmt.Sprintf("every %d days", r.interval())
		}
	case KindWeekly:
		names := make([]string, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			names = append(names, d.String()[:3])
		}
		s = "weekly on " + strings.Join(names, ",")
	default:
		return string(r.Kind)
	}
	if r.MaxOccurrences > 0 {
		s += fmt.Sprintf(" (x%d)", r.MaxOccurrences)
	}
	return s
}

// wireRule is the tagged JSON object shared with other clients of the task store.
type wireRule struct {
	Type      Kind  `json:"type"`
	Interval  *int  `json:"interval,omitempty"`
	ByWeekday []int `json:"byweekday,omitempty"`
	Count     *int  `json:"count,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	w := wireRule{Type: r.Kind}
	switch r.Kind {
	case KindDaily, KindEveryNDays:
		if r.Interval > 0 {
			v := r.Interval
			w.Interval = &v
		}
	case KindWeekly:
		w.ByWeekday = make([]int, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			w.ByWeekday = append(w.ByWeekday, int(d))
		}
	}
	if r.MaxOccurrences > 0 {
		v := r.MaxOccurrences
		w.Count = &v
	}
	return json.Marshal(w)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode recurrence: %w", err)
	}
	out := Rule{Kind: w.Type}
	if w.Interval != nil {
		out.Interval = *w.Interval
	}
	if w.Count != nil {
		out.MaxOccurrences = *w.Count
	}
	if len(w.ByWeekday) > 0 {
		days := make([]time.Weekday, 0, len(w.ByWeekday))
		for _, d := range w.ByWeekday {
			days = append(days, time.Weekday(d))
		}
		out.Weekdays = normalizeWeekdays(days)
	}
	*r = out
	return nil
}

func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	seen := map[time.Weekday]bool{}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
