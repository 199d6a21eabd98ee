// Package rollup is the computational core: it normalizes report rows into
// per-app activity facts and maintains the daily, weekly, monthly, and
// all-time aggregates, including streak counters.
package rollup

import (
	"fmt"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

// WeekStart returns the Monday of the ISO week containing date.
// Sunday maps to the Monday six days earlier.
func WeekStart(date time.Time) time.Time {
	daysBack := int(date.Weekday()) - 1
	if date.Weekday() == time.Sunday {
		daysBack = 6
	}
	return date.AddDate(0, 0, -daysBack)
}

// MonthStart returns the first day of date's calendar month.
func MonthStart(date time.Time) time.Time {
	return date.AddDate(0, 0, -date.Day()+1)
}

// PeriodStart derives the bucket start date string for a period.
// All-time buckets have no start; daily buckets start on the date itself.
func PeriodStart(period model.Period, date time.Time) string {
	switch period {
	case model.PeriodWeekly:
		return WeekStart(date).Format(model.DateFormat)
	case model.PeriodMonthly:
		return MonthStart(date).Format(model.DateFormat)
	case model.PeriodDaily:
		return date.Format(model.DateFormat)
	default:
		return ""
	}
}

// ParseReportDate parses a calendar date as reported by the source,
// surfacing ErrMalformedRow on bad input.
func ParseReportDate(s string) (time.Time, error) {
	return parseDate(s)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedRow, s)
	}
	return t, nil
}
