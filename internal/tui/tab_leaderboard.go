package tui

import (
	"fmt"
	"strings"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"
	"github.com/groveale/copilot-usage-scraper/internal/tui/components"
	"github.com/groveale/copilot-usage-scraper/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const boardBarWidth = 20

func (a App) renderLeaderboardTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	if len(a.data.board) == 0 {
		hint := lipgloss.NewStyle().Foreground(t.TextMuted)
		b.WriteString(hint.Render("  No activity recorded yet."))
		b.WriteString("\n")
		return b.String()
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	b.WriteString(" " + headerStyle.Render(fmt.Sprintf("%-4s %-32s %11s %-*s %7s %6s",
		"#", "User", "Active Days", boardBarWidth, " Bar", "Streak", "Best")))
	b.WriteString("\n")

	leader := a.data.board[0].ActivityCount
	visible := a.visibleBoardRows()
	start, end := scrollWindow(a.boardCursor, len(a.data.board), visible)

	for i := start; i < end; i++ {
		e := a.data.board[i]
		line := boardLine(i, e, leader)
		if i == a.boardCursor {
			line = components.SelectedRow(line)
		}
		b.WriteString(" " + line + "\n")
	}

	if end < len(a.data.board) {
		more := lipgloss.NewStyle().Foreground(t.TextDim)
		b.WriteString(" " + more.Render(fmt.Sprintf("... %d more", len(a.data.board)-end)) + "\n")
	}

	// This week's leader alongside the all-time board.
	if len(a.data.weekBoard) > 0 {
		wk := a.data.weekBoard[0]
		note := lipgloss.NewStyle().Foreground(t.TextMuted)
		b.WriteString("\n " + note.Render(fmt.Sprintf("Week of %s leader: %s (%d days)",
			a.data.weekStart, cli.TruncateUser(wk.UserKey, 32), wk.ActivityCount)) + "\n")
	}

	return b.String()
}

func boardLine(rank int, e rollup.LeaderboardEntry, leader int) string {
	pct := 0.0
	if leader > 0 {
		pct = float64(e.ActivityCount) / float64(leader)
	}
	return fmt.Sprintf("%-4d %-32s %11s %s %7s %6s",
		rank+1,
		cli.TruncateUser(e.UserKey, 32),
		cli.FormatNumber(int64(e.ActivityCount)),
		components.ActivityBar(pct, boardBarWidth),
		cli.FormatStreak(e.CurrentStreak),
		cli.FormatStreak(e.BestStreak),
	)
}

// visibleBoardRows leaves room for the header, week note, and status bar.
func (a App) visibleBoardRows() int {
	rows := a.height - 8
	if rows < 5 {
		rows = 5
	}
	return rows
}

// scrollWindow keeps cursor inside a [start, end) window of size visible.
func scrollWindow(cursor, total, visible int) (int, int) {
	if total <= visible {
		return 0, total
	}
	start := cursor - visible/2
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > total {
		end = total
		start = end - visible
	}
	return start, end
}
