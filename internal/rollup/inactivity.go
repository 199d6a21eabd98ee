package rollup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// epochDate stands in for a user who has never shown any activity.
const epochDate = "1970-01-01"

// TrackerConfig carries the inactivity thresholds. Passed in explicitly at
// construction; the tracker never reads process-wide state.
type TrackerConfig struct {
	// ThresholdDays is how many days without activity qualify a user for
	// reminder tracking.
	ThresholdDays int
	// ReminderIntervalDays is the minimum gap between reminders to one user.
	ReminderIntervalDays int
	// ReminderMaxCount caps reminders per inactivity stretch. Zero means
	// no cap.
	ReminderMaxCount int
}

// Tracker maintains the inactivity table: users whose most recent activity
// predates the report date by at least the configured threshold.
type Tracker struct {
	store store.Store
	cfg   TrackerConfig
	now   func() time.Time
}

// NewTracker returns a tracker writing through the given store.
func NewTracker(st store.Store, cfg TrackerConfig) *Tracker {
	return &Tracker{store: st, cfg: cfg, now: time.Now}
}

// Observe records or refreshes the inactivity entry for one row whose
// normalized fact shows no activity on the report date. Active users and
// users still under the threshold are ignored.
func (t *Tracker) Observe(ctx context.Context, row model.UsageRow, fact model.UsageFact) error {
	if fact.UsedAny() {
		return nil
	}

	reportDate, err := parseDate(row.ReportRefreshDate)
	if err != nil {
		return err
	}

	lastActivity := lastActivityDate(row)
	lastDate, err := parseDate(lastActivity)
	if err != nil {
		return err
	}

	days := reportDate.Sub(lastDate).Hours() / 24
	if days < float64(t.cfg.ThresholdDays) {
		return nil
	}

	today := t.now().UTC().Format(model.DateFormat)
	pk, rk := store.InactivityKeys(row.UserKey, lastActivity)
	_, _, err = upsertJSON(ctx, t.store, store.TableInactivity, pk, rk,
		func(existing *model.InactivityRecord) *model.InactivityRecord {
			rec := model.InactivityRecord{
				UserKey:               row.UserKey,
				LastActivityDate:      lastActivity,
				ReportDateObserved:    row.ReportRefreshDate,
				DaysSinceLastActivity: days,
				DisplayName:           row.DisplayName,
			}
			if existing == nil {
				// Never reminded: make the entry immediately eligible.
				rec.LastNotificationDate = today
				rec.DaysSinceLastNotification = 999
				return &rec
			}
			rec.LastNotificationDate = existing.LastNotificationDate
			rec.NotificationCount = existing.NotificationCount
			rec.DaysSinceLastNotification = daysBetween(existing.LastNotificationDate, today)
			if existing.NotificationCount == 0 {
				rec.DaysSinceLastNotification = 999
			}
			return &rec
		})
	return err
}

// Purge deletes every inactivity entry whose observed report date differs
// from the current batch's: those users produced a fresh activity date and
// have recovered. Returns the number of deleted entries.
func (t *Tracker) Purge(ctx context.Context, batchDate string) (int, error) {
	ents, err := t.store.QueryPrefix(ctx, store.TableInactivity, "")
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, ent := range ents {
		var rec model.InactivityRecord
		if err := json.Unmarshal(ent.Payload, &rec); err != nil {
			continue
		}
		if rec.ReportDateObserved == batchDate {
			continue
		}
		if err := t.store.Delete(ctx, store.TableInactivity, ent.PartitionKey, ent.RowKey); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

// Eligible returns the inactivity entries due for a reminder: the reminder
// interval has elapsed since the last one, and the per-stretch cap has not
// been reached.
func (t *Tracker) Eligible(ctx context.Context) ([]model.InactivityRecord, error) {
	ents, err := t.store.QueryPrefix(ctx, store.TableInactivity, "")
	if err != nil {
		return nil, err
	}

	var out []model.InactivityRecord
	for _, ent := range ents {
		var rec model.InactivityRecord
		if err := json.Unmarshal(ent.Payload, &rec); err != nil {
			continue
		}
		if rec.DaysSinceLastNotification <= float64(t.cfg.ReminderIntervalDays) && rec.NotificationCount != 0 {
			continue
		}
		if t.cfg.ReminderMaxCount > 0 && rec.NotificationCount >= t.cfg.ReminderMaxCount {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// MarkReminded bumps the notification bookkeeping after a reminder was
// queued for the given entry.
func (t *Tracker) MarkReminded(ctx context.Context, rec model.InactivityRecord) error {
	today := t.now().UTC().Format(model.DateFormat)
	pk, rk := store.InactivityKeys(rec.UserKey, rec.LastActivityDate)
	_, _, err := upsertJSON(ctx, t.store, store.TableInactivity, pk, rk,
		func(existing *model.InactivityRecord) *model.InactivityRecord {
			if existing == nil {
				// Purged between read and mark: nothing to update.
				return nil
			}
			existing.NotificationCount++
			existing.LastNotificationDate = today
			existing.DaysSinceLastNotification = 0
			return existing
		})
	return err
}

// lastActivityDate picks the most recent parseable per-app activity date.
// A user with no usable date at all is treated as inactive since the epoch.
func lastActivityDate(row model.UsageRow) string {
	latest := ""
	for _, d := range row.LastActivityDates {
		if d == "" {
			continue
		}
		if _, err := time.Parse(model.DateFormat, d); err != nil {
			continue
		}
		if d > latest {
			latest = d
		}
	}
	if latest == "" {
		return epochDate
	}
	return latest
}

func daysBetween(from, to string) float64 {
	a, errA := time.Parse(model.DateFormat, from)
	b, errB := time.Parse(model.DateFormat, to)
	if errA != nil || errB != nil {
		return 0
	}
	return b.Sub(a).Hours() / 24
}
