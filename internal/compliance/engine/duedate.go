package engine

import (
	"time"

	"saathi/internal/compliance/models"
)

// Fallbacks when a rule omits its deadline fields.
const (
	defaultDeadlineDay = 7
	annualDefaultMonth = time.July
	annualDefaultDay   = 31
)

// NextDueDate computes the due date for a fresh obligation instance of the
// rule, relative to the reference instant. Pure and deterministic: the same
// rule and reference always yield the same date.
//
// Policy by frequency:
//   - monthly: one month after the reference, on DeadlineDay (default 7)
//   - quarterly: three months after the reference, on DeadlineDay (default 7)
//   - annual: one year after the reference, on DeadlineMonth/DeadlineDay;
//     when DeadlineDay is absent the date falls back to July 31
//   - anything else behaves like monthly
//
// Day values that exceed the target month's length roll into the following
// month through ordinary calendar normalization (day 31 in a 30-day month
// lands on the 1st of the next). Rule data is expected to carry valid days
// for its month; the rollover is a documented quirk, not something to fix
// here.
func NextDueDate(rule *models.Rule, ref time.Time) time.Time {
	switch rule.Frequency {
	case models.FrequencyQuarterly:
		return withDay(ref.AddDate(0, 3, 0), deadlineDayOrDefault(rule))
	case models.FrequencyAnnual:
		due := ref.AddDate(1, 0, 0)
		if rule.DeadlineMonth != nil {
			due = withMonth(due, time.Month(*rule.DeadlineMonth))
		}
		if rule.DeadlineDay != nil {
			return withDay(due, *rule.DeadlineDay)
		}
		return withDay(withMonth(due, annualDefaultMonth), annualDefaultDay)
	default:
		// Monthly, and the fallback for unrecognized frequencies.
		return withDay(ref.AddDate(0, 1, 0), deadlineDayOrDefault(rule))
	}
}

func deadlineDayOrDefault(rule *models.Rule) int {
	if rule.DeadlineDay != nil {
		return *rule.DeadlineDay
	}
	return defaultDeadlineDay
}

// withDay rebuilds t with the given day of month, preserving the time of day.
// time.Date normalizes out-of-range days into the following month.
func withDay(t time.Time, day int) time.Time {
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// withMonth rebuilds t with the given month, preserving day and time of day.
func withMonth(t time.Time, month time.Month) time.Time {
	return time.Date(t.Year(), month, t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
