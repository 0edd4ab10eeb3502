package aggregator

import (
	"time"

	"github.com/credo-news/credo/app/database"
)

// allTimeStart is the fixed period_start for all_time rows, keeping the
// (source, period type, period start) upsert key stable across runs.
var allTimeStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// PeriodBounds returns the [start, end) window containing now for the
// given period type. Weekly windows start on Monday; monthly on the first.
func PeriodBounds(periodType database.PeriodType, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch periodType {
	case database.PeriodDaily:
		return day, day.AddDate(0, 0, 1)
	case database.PeriodWeekly:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week started the prior Monday
		}
		start := day.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7)
	case database.PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		return allTimeStart, day.AddDate(0, 0, 1)
	}
}

// PriorPeriodStart returns the period_start of the window immediately
// preceding the one containing now. all_time has no prior window.
func PriorPeriodStart(periodType database.PeriodType, now time.Time) (time.Time, bool) {
	start, _ := PeriodBounds(periodType, now)

	switch periodType {
	case database.PeriodDaily:
		return start.AddDate(0, 0, -1), true
	case database.PeriodWeekly:
		return start.AddDate(0, 0, -7), true
	case database.PeriodMonthly:
		return start.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
