// Package recurring computes the next occurrence of recurring tasks and
// decides which completed tasks are due to roll into a new occurrence.
package recurring

import (
	"time"

	"github.com/nhle/novatasks/internal/model"
)

// NextDueDate advances last by one step of rule using calendar arithmetic
// in last's location. ok is false when rule is nil.
//
// Monthly and yearly steps clamp the day of month to the last day of the
// target month, so Jan 31 plus one month is Feb 28 (Feb 29 in leap years).
// An unrecognized frequency leaves last unchanged.
func NextDueDate(last time.Time, rule *model.Recurrence) (next time.Time, ok bool) {
	if rule == nil {
		return time.Time{}, false
	}

	n := rule.Step()
	switch rule.Frequency {
	case model.FrequencyDaily:
		return last.AddDate(0, 0, n), true
	case model.FrequencyWeekly:
		return last.AddDate(0, 0, 7*n), true
	case model.FrequencyMonthly:
		return addMonthsClamped(last, n), true
	case model.FrequencyYearly:
		return addMonthsClamped(last, 12*n), true
	default:
		return last, true
	}
}

// addMonthsClamped moves t forward by months, keeping the wall clock and
// clamping the day to the length of the target month.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	total := int(m) - 1 + months
	year := y + total/12
	month := time.Month(total%12 + 1)

	if last := daysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
