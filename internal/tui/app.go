// Package tui provides the interactive Bubble Tea dashboard for copusage.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"
	"github.com/groveale/copilot-usage-scraper/internal/store"
	"github.com/groveale/copilot-usage-scraper/internal/tui/components"
	"github.com/groveale/copilot-usage-scraper/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// dashboardData holds everything the tabs render, loaded in one pass.
type dashboardData struct {
	reportDate string
	weekStart  string
	monthStart string
	board      []rollup.LeaderboardEntry // all-time, all-up activity
	weekBoard  []rollup.LeaderboardEntry // current week
	inactive   []model.InactivityRecord
	loadedAt   time.Time
}

// DataLoadedMsg is sent when the dashboard queries finish.
type DataLoadedMsg struct {
	Data dashboardData
	Err  error
}

// App is the root Bubble Tea model.
type App struct {
	db   store.Store
	data dashboardData

	loaded bool
	err    error

	width     int
	height    int
	activeTab int

	// Per-tab cursors
	boardCursor    int
	inactiveCursor int

	spinner spinner.Model
}

const (
	tabOverview = iota
	tabLeaderboard
	tabInactive
)

const maxBoardRows = 100

// NewApp creates a new TUI app model over an open store.
func NewApp(db store.Store) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		db:      db,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		loadDataCmd(a.db),
	)
}

// loadDataCmd runs the dashboard queries off the UI loop.
func loadDataCmd(db store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		query := rollup.NewQuery(db)
		var data dashboardData
		var err error

		if data.reportDate, err = query.StartDate(ctx, model.PeriodDaily); err != nil {
			return DataLoadedMsg{Err: err}
		}
		if data.weekStart, err = query.StartDate(ctx, model.PeriodWeekly); err != nil {
			return DataLoadedMsg{Err: err}
		}
		if data.monthStart, err = query.StartDate(ctx, model.PeriodMonthly); err != nil {
			return DataLoadedMsg{Err: err}
		}

		data.board, err = query.Leaderboard(ctx, model.AppAll, model.PeriodAllTime, "", maxBoardRows)
		if err != nil {
			return DataLoadedMsg{Err: err}
		}
		if data.weekStart != "" {
			data.weekBoard, err = query.Leaderboard(ctx, model.AppAll, model.PeriodWeekly, data.weekStart, maxBoardRows)
			if err != nil {
				return DataLoadedMsg{Err: err}
			}
		}
		data.inactive, err = query.Inactive(ctx)
		if err != nil {
			return DataLoadedMsg{Err: err}
		}

		data.loadedAt = time.Now()
		return DataLoadedMsg{Data: data}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case DataLoadedMsg:
		a.loaded = true
		a.err = msg.Err
		if msg.Err == nil {
			a.data = msg.Data
			a.clampCursors()
		}
		return a, nil

	case spinner.TickMsg:
		if a.loaded {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "r":
		a.loaded = false
		return a, tea.Batch(a.spinner.Tick, loadDataCmd(a.db))
	case "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "shift+tab":
		a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		return a, nil
	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	case "g":
		a.setCursor(0)
		return a, nil
	case "G":
		a.setCursor(1 << 30)
		return a, nil
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
	}

	return a, nil
}

func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabLeaderboard:
		a.boardCursor += delta
	case tabInactive:
		a.inactiveCursor += delta
	}
	a.clampCursors()
}

func (a *App) setCursor(pos int) {
	switch a.activeTab {
	case tabLeaderboard:
		a.boardCursor = pos
	case tabInactive:
		a.inactiveCursor = pos
	}
	a.clampCursors()
}

func (a *App) clampCursors() {
	a.boardCursor = clamp(a.boardCursor, len(a.data.board))
	a.inactiveCursor = clamp(a.inactiveCursor, len(a.data.inactive))
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// View implements tea.Model.
func (a App) View() string {
	t := theme.Active

	if a.width == 0 {
		return ""
	}

	if !a.loaded {
		return "\n  " + a.spinner.View() + " Loading usage data...\n"
	}

	if a.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Red)
		return "\n  " + errStyle.Render("Error: "+a.err.Error()) + "\n\n  Press [r] to retry or [q] to quit.\n"
	}

	cw := a.width - 2
	if cw < 40 {
		cw = 40
	}

	var b strings.Builder
	b.WriteString(components.RenderTabBar(a.activeTab, a.width))
	b.WriteString("\n\n")

	switch a.activeTab {
	case tabOverview:
		b.WriteString(a.renderOverviewTab(cw))
	case tabLeaderboard:
		b.WriteString(a.renderLeaderboardTab(cw))
	case tabInactive:
		b.WriteString(a.renderInactiveTab(cw))
	}

	content := b.String()

	// Pin the status bar to the bottom of the terminal.
	contentHeight := lipgloss.Height(content)
	gap := a.height - contentHeight - 1
	if gap > 0 {
		content += strings.Repeat("\n", gap)
	}
	content += components.RenderStatusBar(a.width, a.data.reportDate)

	return content
}
