package components

import (
	"github.com/groveale/copilot-usage-scraper/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForPct returns green/yellow/orange/red based on how far behind the
// leader a value is: high ratios render green, trailing ratios cool off.
func ColorForPct(pct float64) string {
	t := theme.Active
	switch {
	case pct >= 0.8:
		return string(t.Green)
	case pct >= 0.5:
		return string(t.Yellow)
	case pct >= 0.25:
		return string(t.Orange)
	default:
		return string(t.Red)
	}
}

// ActivityBar renders a horizontal bar scaled against the leader's count.
func ActivityBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	t := theme.Active
	bar := progress.New(
		progress.WithSolidFill(ColorForPct(pct)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	return bar.ViewAs(pct)
}

// SelectedRow highlights one line of a list the way the active tab is
// highlighted.
func SelectedRow(s string) string {
	t := theme.Active
	return lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(true).
		Render(s)
}
