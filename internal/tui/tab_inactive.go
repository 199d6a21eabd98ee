package tui

import (
	"fmt"
	"strings"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/tui/components"
	"github.com/groveale/copilot-usage-scraper/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderInactiveTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	if len(a.data.inactive) == 0 {
		hint := lipgloss.NewStyle().Foreground(t.Green)
		b.WriteString(hint.Render("  Nobody is on the inactivity tracker."))
		b.WriteString("\n")
		return b.String()
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	b.WriteString(" " + headerStyle.Render(fmt.Sprintf("%-32s %-12s %6s %10s",
		"User", "Last Active", "Idle", "Reminders")))
	b.WriteString("\n")

	visible := a.visibleBoardRows()
	start, end := scrollWindow(a.inactiveCursor, len(a.data.inactive), visible)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	for i := start; i < end; i++ {
		r := a.data.inactive[i]

		lastSeen := cli.FormatDate(r.LastActivityDate)
		if r.LastActivityDate == "1970-01-01" {
			lastSeen = "never"
		}
		reminders := "-"
		if r.NotificationCount > 0 {
			reminders = fmt.Sprintf("%d", r.NotificationCount)
		}

		line := fmt.Sprintf("%-32s %-12s %6s %10s",
			cli.TruncateUser(r.UserKey, 32),
			lastSeen,
			cli.FormatDaysSince(r.DaysSinceLastActivity),
			reminders,
		)
		if i == a.inactiveCursor {
			line = components.SelectedRow(line)
		} else {
			line = rowStyle.Render(line)
		}
		b.WriteString(" " + line + "\n")
	}

	if end < len(a.data.inactive) {
		more := lipgloss.NewStyle().Foreground(t.TextDim)
		b.WriteString(" " + more.Render(fmt.Sprintf("... %d more", len(a.data.inactive)-end)) + "\n")
	}

	return b.String()
}
