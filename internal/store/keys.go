package store

import "strings"

// Logical table names. These match the tables used by existing deployments,
// so data written by either side stays interoperable.
const (
	TableDaily      = "CopilotUsageDailySnapshots"
	TableWeekly     = "CopilotUsageWeeklySnapshots"
	TableMonthly    = "CopilotUsageMonthlySnapshots"
	TableAllTime    = "CopilotUsageAllTimeRecord"
	TableInactivity = "UsersLastUsageTracker"
	TableMarkers    = "ReportRefreshRecord"
	TableReminders  = "ReminderQueue"
)

// Addressing scheme:
//
//	daily:          partition = reportDate,              row key = userKey
//	weekly/monthly: partition = periodStart-userKey,     row key = app tag
//	alltime:        partition = AllTime-userKey,         row key = app tag
//	markers:        partition = "ReportRefreshDate",     row key = period name
//	inactivity:     partition = userKey,                 row key = lastActivityDate

const (
	allTimePrefix   = "AllTime-"
	markerPartition = "ReportRefreshDate"
)

// DailyKeys addresses one user's daily snapshot.
func DailyKeys(reportDate, userKey string) (partitionKey, rowKey string) {
	return reportDate, userKey
}

// PeriodKeys addresses one weekly or monthly rollup record.
func PeriodKeys(periodStart, userKey, app string) (partitionKey, rowKey string) {
	return periodStart + "-" + userKey, app
}

// AllTimeKeys addresses one all-time rollup record.
func AllTimeKeys(userKey, app string) (partitionKey, rowKey string) {
	return allTimePrefix + userKey, app
}

// AllTimePartitionPrefix is the scan prefix covering every all-time record.
func AllTimePartitionPrefix() string {
	return allTimePrefix
}

// MarkerKeys addresses the refresh marker for one period.
func MarkerKeys(period string) (partitionKey, rowKey string) {
	return markerPartition, period
}

// InactivityKeys addresses one inactivity record.
func InactivityKeys(userKey, lastActivityDate string) (partitionKey, rowKey string) {
	return userKey, lastActivityDate
}

// UserFromPeriodPartition recovers the user key from a weekly/monthly
// partition key. The period start is a fixed-width date, so everything past
// the eleventh byte is the user key.
func UserFromPeriodPartition(partitionKey string) string {
	const dateLen = len("2006-01-02")
	if len(partitionKey) <= dateLen+1 {
		return ""
	}
	return partitionKey[dateLen+1:]
}

// UserFromAllTimePartition recovers the user key from an all-time partition key.
func UserFromAllTimePartition(partitionKey string) string {
	return strings.TrimPrefix(partitionKey, allTimePrefix)
}
