// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatStreak renders a streak length with a flame for active streaks.
// e.g., 0 -> "-", 5 -> "5d 🔥"
func FormatStreak(days int) string {
	if days <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dd 🔥", days)
}

// FormatDaysSince formats a day count as a rough age.
// e.g., 12 -> "12d", 45 -> "6w", 400 -> "13mo"
func FormatDaysSince(days float64) string {
	d := int(days)
	switch {
	case d >= 60:
		return fmt.Sprintf("%dmo", d/30)
	case d >= 14:
		return fmt.Sprintf("%dw", d/7)
	default:
		return fmt.Sprintf("%dd", d)
	}
}

// FormatDate shortens a calendar date for table cells, dropping the year
// when it is the current one. e.g., "2025-03-05" -> "Mar 05" (in 2025).
func FormatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	if t.Year() == time.Now().Year() {
		return t.Format("Jan 02")
	}
	return t.Format("Jan 02 2006")
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// TruncateUser shortens a user principal name for narrow table columns,
// keeping the mailbox part intact.
func TruncateUser(upn string, max int) string {
	if len(upn) <= max {
		return upn
	}
	if at := strings.IndexByte(upn, '@'); at > 0 && at <= max-1 {
		return upn[:at] + "@…"
	}
	return upn[:max-1] + "…"
}
