package tui

import (
	"testing"

	"github.com/groveale/copilot-usage-scraper/internal/rollup"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTabShortcutKeys(t *testing.T) {
	a := NewApp(nil)
	a.loaded = true

	m, _ := a.Update(keyMsg('l'))
	a = m.(App)
	if a.activeTab != tabLeaderboard {
		t.Errorf("after 'l': activeTab = %d, want %d", a.activeTab, tabLeaderboard)
	}

	m, _ = a.Update(keyMsg('i'))
	a = m.(App)
	if a.activeTab != tabInactive {
		t.Errorf("after 'i': activeTab = %d, want %d", a.activeTab, tabInactive)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if a.activeTab != tabOverview {
		t.Errorf("tab should wrap to overview, got %d", a.activeTab)
	}
}

func TestCursorClampsToData(t *testing.T) {
	a := NewApp(nil)
	a.loaded = true
	a.activeTab = tabLeaderboard
	a.data.board = []rollup.LeaderboardEntry{{UserKey: "alice@contoso.com"}}

	m, _ := a.Update(keyMsg('j'))
	a = m.(App)
	if a.boardCursor != 0 {
		t.Errorf("cursor moved below empty list: %d", a.boardCursor)
	}
}

func TestScrollWindow(t *testing.T) {
	cases := []struct {
		cursor, total, visible int
		wantStart, wantEnd     int
	}{
		{0, 3, 10, 0, 3},
		{0, 100, 10, 0, 10},
		{50, 100, 10, 45, 55},
		{99, 100, 10, 90, 100},
	}
	for _, c := range cases {
		start, end := scrollWindow(c.cursor, c.total, c.visible)
		if start != c.wantStart || end != c.wantEnd {
			t.Errorf("scrollWindow(%d, %d, %d) = [%d, %d), want [%d, %d)",
				c.cursor, c.total, c.visible, start, end, c.wantStart, c.wantEnd)
		}
	}
}
