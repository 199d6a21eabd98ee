package rollup

import (
	"context"
	"errors"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// Engine applies one user's daily fact set to the persisted aggregates.
type Engine struct {
	store store.Store
}

// NewEngine returns an engine writing through the given store.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

// ApplyResult summarizes one fact application.
type ApplyResult struct {
	// SnapshotCreated is false when the user's daily snapshot already existed
	// for the report date, in which case the period rollups were left alone:
	// applying the same day twice must not double-count.
	SnapshotCreated bool
	// RecordsWritten counts rollup records created or updated.
	RecordsWritten int
}

// Apply writes the user's daily snapshot and, when the snapshot is new, folds
// the fact into the all-time, monthly, and weekly aggregates for every
// tracked app plus the synthetic All tag.
//
// Per-record conflicts that outlive the retry budget are joined into the
// returned error but do not stop the remaining records; the caller decides
// whether to log and continue.
func (e *Engine) Apply(ctx context.Context, fact model.UsageFact) (ApplyResult, error) {
	var res ApplyResult

	reportDate := fact.Date.Format(model.DateFormat)
	pk, rk := store.DailyKeys(reportDate, fact.UserKey)
	_, created, err := upsertJSON(ctx, e.store, store.TableDaily, pk, rk,
		func(existing *model.DailySnapshot) *model.DailySnapshot {
			return &model.DailySnapshot{
				ReportDate:   reportDate,
				UserKey:      fact.UserKey,
				DisplayName:  fact.DisplayName,
				Used:         fact.Used,
				Interactions: fact.Interactions,
			}
		})
	if err != nil {
		return res, err
	}

	res.SnapshotCreated = created
	if !created {
		return res, nil
	}

	var errs []error
	tags := append(model.TrackedApps(), model.AppAll)

	for _, period := range model.RollupPeriods {
		periodStart := PeriodStart(period, fact.Date)
		for _, app := range tags {
			written, err := e.applyOne(ctx, period, periodStart, fact, app)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if written {
				res.RecordsWritten++
			}
		}
	}

	return res, errors.Join(errs...)
}

func (e *Engine) applyOne(ctx context.Context, period model.Period, periodStart string,
	fact model.UsageFact, app model.AppType) (bool, error) {

	var table, pk, rk string
	switch period {
	case model.PeriodAllTime:
		table = store.TableAllTime
		pk, rk = store.AllTimeKeys(fact.UserKey, app.String())
	case model.PeriodWeekly:
		table = store.TableWeekly
		pk, rk = store.PeriodKeys(periodStart, fact.UserKey, app.String())
	case model.PeriodMonthly:
		table = store.TableMonthly
		pk, rk = store.PeriodKeys(periodStart, fact.UserKey, app.String())
	}

	used := fact.Used[app]
	interactions := fact.Interactions[app]

	rec, _, err := upsertJSON(ctx, e.store, table, pk, rk,
		func(existing *model.RollupRecord) *model.RollupRecord {
			return mutateRollup(existing, periodStart, fact, app, used, interactions)
		})
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// mutateRollup is the single update function shared by every period.
// Returning nil means no write: a day with no activity neither creates a
// record nor touches one whose streak is already zero.
func mutateRollup(existing *model.RollupRecord, periodStart string, fact model.UsageFact,
	app model.AppType, used bool, interactions int) *model.RollupRecord {

	if existing == nil {
		if !used {
			return nil
		}
		return &model.RollupRecord{
			PeriodStart:             periodStart,
			UserKey:                 fact.UserKey,
			App:                     app,
			DisplayName:             fact.DisplayName,
			TotalDailyActivityCount: 1,
			CurrentDailyStreak:      1,
			BestDailyStreak:         1,
			TotalInteractionCount:   interactions,
		}
	}

	if !used {
		if existing.CurrentDailyStreak == 0 {
			return nil
		}
		existing.CurrentDailyStreak = 0
		return existing
	}

	existing.TotalDailyActivityCount++
	existing.CurrentDailyStreak++
	if existing.CurrentDailyStreak > existing.BestDailyStreak {
		existing.BestDailyStreak = existing.CurrentDailyStreak
	}
	existing.TotalInteractionCount += interactions
	if fact.DisplayName != "" {
		existing.DisplayName = fact.DisplayName
	}
	return existing
}

// AdvanceMarkers records the batch's source date, and the period start
// derived from it, for each marker period. Called once per batch after every
// row has been attempted.
func (e *Engine) AdvanceMarkers(ctx context.Context, batchDate string) error {
	date, err := parseDate(batchDate)
	if err != nil {
		return err
	}

	var errs []error
	for _, period := range model.MarkerPeriods {
		marker := model.RefreshMarker{
			LastSourceDate: batchDate,
			PeriodStart:    PeriodStart(period, date),
		}
		pk, rk := store.MarkerKeys(period.String())
		_, _, err := upsertJSON(ctx, e.store, store.TableMarkers, pk, rk,
			func(*model.RefreshMarker) *model.RefreshMarker { return &marker })
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
