package rollup

import (
	"testing"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2025, time.March, 3), date(2025, time.March, 3)},  // Monday
		{date(2025, time.March, 5), date(2025, time.March, 3)},  // Wednesday
		{date(2025, time.March, 8), date(2025, time.March, 3)},  // Saturday
		{date(2025, time.March, 9), date(2025, time.March, 3)},  // Sunday belongs to the week before
		{date(2025, time.March, 10), date(2025, time.March, 10)},
	}
	for _, c := range cases {
		if got := WeekStart(c.in); !got.Equal(c.want) {
			t.Errorf("WeekStart(%s) = %s, want %s",
				c.in.Format(model.DateFormat), got.Format(model.DateFormat), c.want.Format(model.DateFormat))
		}
	}
}

func TestMonthStart(t *testing.T) {
	if got := MonthStart(date(2025, time.February, 28)); !got.Equal(date(2025, time.February, 1)) {
		t.Errorf("MonthStart = %s, want 2025-02-01", got.Format(model.DateFormat))
	}
	if got := MonthStart(date(2025, time.July, 1)); !got.Equal(date(2025, time.July, 1)) {
		t.Errorf("MonthStart = %s, want 2025-07-01", got.Format(model.DateFormat))
	}
}

func TestPeriodStart(t *testing.T) {
	d := date(2025, time.March, 5)

	if got := PeriodStart(model.PeriodDaily, d); got != "2025-03-05" {
		t.Errorf("daily start = %q, want 2025-03-05", got)
	}
	if got := PeriodStart(model.PeriodWeekly, d); got != "2025-03-03" {
		t.Errorf("weekly start = %q, want 2025-03-03", got)
	}
	if got := PeriodStart(model.PeriodMonthly, d); got != "2025-03-01" {
		t.Errorf("monthly start = %q, want 2025-03-01", got)
	}
	if got := PeriodStart(model.PeriodAllTime, d); got != "" {
		t.Errorf("alltime start = %q, want empty", got)
	}
}
