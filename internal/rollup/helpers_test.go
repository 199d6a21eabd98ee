package rollup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// newTestStore opens a throwaway store in a temp dir.
func newTestStore(t *testing.T) *store.DB {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// activeRow builds a report row where the named date apps were active on the
// report date and everything else was idle.
func activeRow(user, date string, used ...model.AppType) model.UsageRow {
	row := model.UsageRow{
		UserKey:           user,
		DisplayName:       "Test User",
		ReportRefreshDate: date,
		LastActivityDates: map[model.AppType]string{},
		InteractionCounts: map[model.AppType]int{},
	}
	for _, app := range used {
		if app.CountOnly() {
			row.InteractionCounts[app] = 1
		} else {
			row.LastActivityDates[app] = date
		}
	}
	return row
}

// applyRow normalizes and applies one row as the batch for its own date.
func applyRow(t *testing.T, eng *Engine, row model.UsageRow) ApplyResult {
	t.Helper()
	fact, err := Normalize(row, row.ReportRefreshDate)
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Apply(context.Background(), fact)
	if err != nil {
		t.Fatal(err)
	}
	return res
}
