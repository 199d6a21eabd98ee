package rollup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// Query reads the aggregate tables. It never writes.
type Query struct {
	store store.Store
}

// NewQuery returns a query engine over the given store.
func NewQuery(st store.Store) *Query {
	return &Query{store: st}
}

// StartDate returns the stored period start for a period, or "" when no
// batch has been ingested yet.
func (q *Query) StartDate(ctx context.Context, period model.Period) (string, error) {
	pk, rk := store.MarkerKeys(period.String())
	ent, err := q.store.Get(ctx, store.TableMarkers, pk, rk)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var marker model.RefreshMarker
	if err := json.Unmarshal(ent.Payload, &marker); err != nil {
		return "", fmt.Errorf("decoding refresh marker %s: %w", period, err)
	}
	return marker.PeriodStart, nil
}

// StartDateStatus classifies a requested period key against the current one.
const (
	StartDateActive  = "Active"
	StartDateExpired = "Expired"
	StartDateFuture  = "Future"
)

// StartDateStatus reports whether a requested period start is the current
// bucket, an already-rolled-over one, or not yet reached.
func StartDateStatus(requested, current string) string {
	if requested == current || current == "" {
		return StartDateActive
	}
	if requested < current {
		return StartDateExpired
	}
	return StartDateFuture
}

// CompletedActivity returns the users who satisfy the activity predicate for
// every app in apps: used on the period key date (daily), or an activity
// count of at least threshold (weekly, monthly, all-time). Results are
// sorted by user key.
func (q *Query) CompletedActivity(ctx context.Context, apps []model.AppType, threshold int,
	period model.Period, periodKey string) ([]string, error) {

	if err := validateQuery(apps, period, periodKey); err != nil {
		return nil, err
	}
	apps = dedupeApps(apps)

	switch period {
	case model.PeriodDaily:
		return q.dailyCompleted(ctx, apps, periodKey)
	case model.PeriodWeekly:
		return q.periodCompleted(ctx, store.TableWeekly, apps, threshold, periodKey)
	case model.PeriodMonthly:
		return q.periodCompleted(ctx, store.TableMonthly, apps, threshold, periodKey)
	case model.PeriodAllTime:
		return q.allTimeMatching(ctx, apps, func(rec model.RollupRecord) bool {
			return rec.TotalDailyActivityCount >= threshold
		})
	}
	return nil, fmt.Errorf("%w: period %q", ErrInvalidQuery, period)
}

// UsersWithStreak returns the users whose current daily streak is at least
// minStreak for every app in apps. Streaks live on the all-time records.
func (q *Query) UsersWithStreak(ctx context.Context, apps []model.AppType, minStreak int) ([]string, error) {
	if len(apps) == 0 {
		return nil, fmt.Errorf("%w: empty app set", ErrInvalidQuery)
	}
	return q.allTimeMatching(ctx, dedupeApps(apps), func(rec model.RollupRecord) bool {
		return rec.CurrentDailyStreak >= minStreak
	})
}

// LeaderboardEntry is one user's standing for a single app and period bucket.
type LeaderboardEntry struct {
	UserKey       string `json:"userKey"`
	DisplayName   string `json:"displayName,omitempty"`
	ActivityCount int    `json:"activityCount"`
	CurrentStreak int    `json:"currentStreak"`
	BestStreak    int    `json:"bestStreak"`
	Interactions  int    `json:"interactions"`
}

// Leaderboard ranks users by activity count for one app, descending, with
// user key as the tiebreak. Daily has no counts to rank; use a rollup period.
func (q *Query) Leaderboard(ctx context.Context, app model.AppType, period model.Period,
	periodKey string, limit int) ([]LeaderboardEntry, error) {

	var ents []store.Entity
	var err error
	switch period {
	case model.PeriodWeekly:
		if err := validatePeriodKey(periodKey); err != nil {
			return nil, err
		}
		ents, err = q.store.QueryPrefix(ctx, store.TableWeekly, periodKey+"-")
	case model.PeriodMonthly:
		if err := validatePeriodKey(periodKey); err != nil {
			return nil, err
		}
		ents, err = q.store.QueryPrefix(ctx, store.TableMonthly, periodKey+"-")
	case model.PeriodAllTime:
		ents, err = q.store.QueryPrefix(ctx, store.TableAllTime, store.AllTimePartitionPrefix())
	default:
		return nil, fmt.Errorf("%w: leaderboard period %q", ErrInvalidQuery, period)
	}
	if err != nil {
		return nil, err
	}

	var board []LeaderboardEntry
	for _, ent := range ents {
		if ent.RowKey != app.String() {
			continue
		}
		var rec model.RollupRecord
		if err := json.Unmarshal(ent.Payload, &rec); err != nil {
			continue
		}
		board = append(board, LeaderboardEntry{
			UserKey:       rec.UserKey,
			DisplayName:   rec.DisplayName,
			ActivityCount: rec.TotalDailyActivityCount,
			CurrentStreak: rec.CurrentDailyStreak,
			BestStreak:    rec.BestDailyStreak,
			Interactions:  rec.TotalInteractionCount,
		})
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].ActivityCount != board[j].ActivityCount {
			return board[i].ActivityCount > board[j].ActivityCount
		}
		return board[i].UserKey < board[j].UserKey
	})

	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// Inactive returns every current inactivity entry, sorted by user key.
func (q *Query) Inactive(ctx context.Context) ([]model.InactivityRecord, error) {
	ents, err := q.store.QueryPrefix(ctx, store.TableInactivity, "")
	if err != nil {
		return nil, err
	}

	var out []model.InactivityRecord
	for _, ent := range ents {
		var rec model.InactivityRecord
		if err := json.Unmarshal(ent.Payload, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserKey < out[j].UserKey })
	return out, nil
}

func (q *Query) dailyCompleted(ctx context.Context, apps []model.AppType, reportDate string) ([]string, error) {
	ents, err := q.store.QueryPartition(ctx, store.TableDaily, reportDate)
	if err != nil {
		return nil, err
	}

	var users []string
	for _, ent := range ents {
		var snap model.DailySnapshot
		if err := json.Unmarshal(ent.Payload, &snap); err != nil {
			continue
		}
		if allUsed(snap.Used, apps) {
			users = append(users, snap.UserKey)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (q *Query) periodCompleted(ctx context.Context, table string, apps []model.AppType,
	threshold int, periodStart string) ([]string, error) {

	ents, err := q.store.QueryPrefix(ctx, table, periodStart+"-")
	if err != nil {
		return nil, err
	}

	matched := make(map[string]int)
	for _, ent := range ents {
		if !appInSet(ent.RowKey, apps) {
			continue
		}
		var rec model.RollupRecord
		if err := json.Unmarshal(ent.Payload, &rec); err != nil {
			continue
		}
		if rec.TotalDailyActivityCount >= threshold {
			matched[store.UserFromPeriodPartition(ent.PartitionKey)]++
		}
	}
	return usersMatchingAll(matched, len(apps)), nil
}

// allTimeMatching runs the positive-intersection reduction over the per-app
// all-time records: a user qualifies when every requested app has a record
// satisfying the predicate.
func (q *Query) allTimeMatching(ctx context.Context, apps []model.AppType,
	match func(model.RollupRecord) bool) ([]string, error) {

	ents, err := q.store.QueryPrefix(ctx, store.TableAllTime, store.AllTimePartitionPrefix())
	if err != nil {
		return nil, err
	}

	matched := make(map[string]int)
	for _, ent := range ents {
		if !appInSet(ent.RowKey, apps) {
			continue
		}
		var rec model.RollupRecord
		if err := json.Unmarshal(ent.Payload, &rec); err != nil {
			continue
		}
		if match(rec) {
			matched[store.UserFromAllTimePartition(ent.PartitionKey)]++
		}
	}
	return usersMatchingAll(matched, len(apps)), nil
}

func validateQuery(apps []model.AppType, period model.Period, periodKey string) error {
	if len(apps) == 0 {
		return fmt.Errorf("%w: empty app set", ErrInvalidQuery)
	}
	if period == model.PeriodAllTime {
		return nil
	}
	return validatePeriodKey(periodKey)
}

func validatePeriodKey(periodKey string) error {
	if _, err := time.Parse(model.DateFormat, periodKey); err != nil {
		return fmt.Errorf("%w: period key %q", ErrInvalidQuery, periodKey)
	}
	return nil
}

func allUsed(used map[model.AppType]bool, apps []model.AppType) bool {
	for _, a := range apps {
		if !used[a] {
			return false
		}
	}
	return true
}

// dedupeApps drops repeated apps so the every-app intersection target stays
// one per distinct app. First occurrence order is preserved.
func dedupeApps(apps []model.AppType) []model.AppType {
	seen := make(map[model.AppType]bool, len(apps))
	out := make([]model.AppType, 0, len(apps))
	for _, a := range apps {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func appInSet(rowKey string, apps []model.AppType) bool {
	for _, a := range apps {
		if rowKey == a.String() {
			return true
		}
	}
	return false
}

func usersMatchingAll(matched map[string]int, want int) []string {
	var users []string
	for user, n := range matched {
		if n == want {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users
}
