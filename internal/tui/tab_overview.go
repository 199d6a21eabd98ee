package tui

import (
	"fmt"
	"strings"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/tui/components"
	"github.com/groveale/copilot-usage-scraper/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	if a.data.reportDate == "" {
		hint := lipgloss.NewStyle().Foreground(t.TextMuted)
		b.WriteString(hint.Render("  No data ingested yet. Run `copusage ingest` first."))
		b.WriteString("\n")
		return b.String()
	}

	streaks := 0
	for _, e := range a.data.board {
		if e.CurrentStreak > 0 {
			streaks++
		}
	}

	cards := []struct{ Label, Value, Detail string }{
		{"Users", cli.FormatNumber(int64(len(a.data.board))), "with any activity"},
		{"On a streak", cli.FormatNumber(int64(streaks)), "active yesterday"},
		{"Inactive", cli.FormatNumber(int64(len(a.data.inactive))), "past threshold"},
		{"Last report", cli.FormatDate(a.data.reportDate), "daily refresh"},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Period buckets currently being filled.
	periodBody := fmt.Sprintf("Week starting   %s\nMonth starting  %s",
		orDash(a.data.weekStart), orDash(a.data.monthStart))
	b.WriteString(components.ContentCard("Current Buckets", periodBody, cw))
	b.WriteString("\n")

	// Top five all-time, mirrored from the leaderboard tab.
	if len(a.data.board) > 0 {
		top := a.data.board
		if len(top) > 5 {
			top = top[:5]
		}
		nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
		countStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

		var rows []string
		for i, e := range top {
			rows = append(rows, fmt.Sprintf("%d. %s %s %s",
				i+1,
				nameStyle.Render(padRight(cli.TruncateUser(e.UserKey, 28), 28)),
				countStyle.Render(fmt.Sprintf("%4d days", e.ActivityCount)),
				cli.FormatStreak(e.CurrentStreak),
			))
		}
		b.WriteString(components.ContentCard("Top Users (all time)", strings.Join(rows, "\n"), cw))
		b.WriteString("\n")
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
