package rollup

import (
	"fmt"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

// Normalize turns one report row into the per-app fact set for the batch's
// report date. Pure: no store access, no side effects.
//
// A row only contributes activity when its own refresh date matches the batch
// date; a row whose freshness has lapsed yields an all-false fact set. A stale
// per-app last-activity date is likewise never treated as activity — only an
// exact match against the refresh date counts. Apps that report no
// last-activity date are considered used when their interaction count is
// positive.
func Normalize(row model.UsageRow, batchDate string) (model.UsageFact, error) {
	date, err := time.Parse(model.DateFormat, row.ReportRefreshDate)
	if err != nil {
		return model.UsageFact{}, fmt.Errorf("%w: report refresh date %q for %s",
			ErrMalformedRow, row.ReportRefreshDate, row.UserKey)
	}

	fact := model.UsageFact{
		Date:         date,
		UserKey:      row.UserKey,
		DisplayName:  row.DisplayName,
		Used:         make(map[model.AppType]bool, len(model.TrackedApps())+1),
		Interactions: make(map[model.AppType]int, len(model.TrackedApps())+1),
	}

	for _, app := range model.TrackedApps() {
		fact.Used[app] = false
		fact.Interactions[app] = 0
	}
	fact.Used[model.AppAll] = false

	if row.ReportRefreshDate != batchDate {
		return fact, nil
	}

	any := false
	allInteractions := 0
	for _, app := range model.TrackedApps() {
		count := row.InteractionCounts[app]
		fact.Interactions[app] = count
		allInteractions += count

		var used bool
		if app.CountOnly() {
			used = count > 0
		} else {
			used = row.LastActivityDates[app] == row.ReportRefreshDate
		}
		fact.Used[app] = used
		if used {
			any = true
		}
	}

	fact.Used[model.AppAll] = any
	fact.Interactions[model.AppAll] = allInteractions
	return fact, nil
}
