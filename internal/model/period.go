package model

import (
	"fmt"
	"strings"
)

// Period is an aggregation granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "alltime"
)

// RollupPeriods are the granularities maintained per ingested fact.
// Daily snapshots are written separately.
var RollupPeriods = []Period{PeriodAllTime, PeriodMonthly, PeriodWeekly}

// MarkerPeriods are the granularities that carry a refresh marker.
var MarkerPeriods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}

// ParsePeriod validates a user-supplied period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	case PeriodAllTime:
		return PeriodAllTime, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

func (p Period) String() string {
	return string(p)
}
