package recurrence

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var epoch2020 = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

func ruleFrom(kind, interval, mask, count int) *Rule {
	var r Rule
	switch kind {
	case 0:
		r = OneTime()
	case 1:
		r = Daily(interval)
	case 2:
		r = EveryNDays(interval)
	default:
		var days []time.Weekday
		for d := 0; d < 7; d++ {
			if mask&(1<<d) != 0 {
				days = append(days, time.Weekday(d))
			}
		}
		r = Weekly(days...)
	}
	return &r
}

func TestNextDueStrictlyAfterAnchor(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("next due is strictly after the anchor", prop.ForAll(
		func(kind, interval, mask int, offset int64) bool {
			after := epoch2020.Add(time.Duration(offset) * time.Second)
			next, ok := ComputeNextDue(ruleFrom(kind, interval, mask, 0), after, 0)
			if !ok {
				return true
			}
			return next.After(after) && next.Equal(StartOfDay(next, time.UTC))
		},
		gen.IntRange(0, 3),
		gen.IntRange(1, 30),
		gen.IntRange(1, 127),
		gen.Int64Range(0, 10*365*24*3600),
	))

	properties.Property("exhausted rules have no next occurrence", prop.ForAll(
		func(kind, max, extra int) bool {
			r := ruleFrom(kind, 2, 0x2a, 0).WithMaxOccurrences(max)
			_, ok := ComputeNextDue(&r, epoch2020, max+extra)
			return !ok
		},
		gen.IntRange(0, 3),
		gen.IntRange(1, 50),
		gen.IntRange(0, 50),
	))

	properties.Property("interval rules land exactly one interval later", prop.ForAll(
		func(interval, days int) bool {
			after := epoch2020.AddDate(0, 0, days)
			next, ok := ComputeNextDue(ruleFrom(2, interval, 0, 0), after, 0)
			return ok && next.Equal(after.AddDate(0, 0, interval))
		},
		gen.IntRange(1, 60),
		gen.IntRange(0, 3000),
	))

	properties.TestingRun(t)
}
