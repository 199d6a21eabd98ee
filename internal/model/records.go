package model

import "time"

// DateFormat is the calendar-date layout used throughout the store: report
// dates, period starts, and inactivity row keys are all plain dates.
const DateFormat = "2006-01-02"

// UsageRow is one user's line from the daily usage report, as delivered by
// the reporting source.
type UsageRow struct {
	UserKey           string             `json:"userPrincipalName"`
	DisplayName       string             `json:"displayName"`
	ReportRefreshDate string             `json:"reportRefreshDate"`
	LastActivityDates map[AppType]string `json:"lastActivityDates"`
	InteractionCounts map[AppType]int    `json:"interactionCounts"`
}

// UsageFact is the normalized per-app activity derived from one UsageRow for
// one calendar date. Ephemeral: consumed by the rollup engine and the
// inactivity tracker, never persisted as-is.
type UsageFact struct {
	Date         time.Time
	UserKey      string
	DisplayName  string
	Used         map[AppType]bool
	Interactions map[AppType]int
}

// UsedAny reports the synthetic all-up activity flag.
func (f UsageFact) UsedAny() bool {
	return f.Used[AppAll]
}

// RollupRecord is one persisted aggregate for (period bucket, user, app).
// PeriodStart is empty for all-time records.
type RollupRecord struct {
	PeriodStart             string  `json:"periodStart,omitempty"`
	UserKey                 string  `json:"userKey"`
	App                     AppType `json:"app"`
	DisplayName             string  `json:"displayName,omitempty"`
	TotalDailyActivityCount int     `json:"totalDailyActivityCount"`
	CurrentDailyStreak      int     `json:"currentDailyStreak"`
	BestDailyStreak         int     `json:"bestDailyStreak"`
	TotalInteractionCount   int     `json:"totalInteractionCount"`
}

// DailySnapshot is the per-user daily activity record. Its existence for a
// (reportDate, user) pair also marks that day's facts as already applied to
// the period rollups, which is what makes re-ingestion idempotent.
type DailySnapshot struct {
	ReportDate   string             `json:"reportDate"`
	UserKey      string             `json:"userKey"`
	DisplayName  string             `json:"displayName,omitempty"`
	Used         map[AppType]bool   `json:"used"`
	Interactions map[AppType]int    `json:"interactions,omitempty"`
}

// RefreshMarker records the last ingested source date per period, together
// with the period start derived from it.
type RefreshMarker struct {
	LastSourceDate string `json:"reportRefreshDate"`
	PeriodStart    string `json:"startDate"`
}

// InactivityRecord tracks a user whose last activity predates the report date
// by at least the configured threshold. Keyed by (user, lastActivityDate) so a
// fresh activity date produces a new row and the stale one can be purged.
type InactivityRecord struct {
	UserKey                   string  `json:"userKey"`
	LastActivityDate          string  `json:"lastActivityDate"`
	ReportDateObserved        string  `json:"reportRefreshDate"`
	DaysSinceLastActivity     float64 `json:"daysSinceLastActivity"`
	DisplayName               string  `json:"displayName,omitempty"`
	LastNotificationDate      string  `json:"lastNotificationDate,omitempty"`
	DaysSinceLastNotification float64 `json:"daysSinceLastNotification"`
	NotificationCount         int     `json:"notificationCount"`
}

// ReminderItem is one queued reminder for an inactive user. The user key may
// have passed through the configured identifier transform.
type ReminderItem struct {
	UserKey               string  `json:"userKey"`
	DisplayName           string  `json:"displayName,omitempty"`
	LastActivityDate      string  `json:"lastActivityDate"`
	DaysSinceLastActivity float64 `json:"daysSinceLastActivity"`
	NotificationCount     int     `json:"notificationCount"`
}
