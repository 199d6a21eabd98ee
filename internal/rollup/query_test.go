package rollup

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// seedWeek applies a small population across one week:
//
//	alice: Teams on Mon+Tue+Wed, Word on Mon
//	bob:   Teams on Mon, Word on Mon+Tue
//	carol: idle every day
func seedWeek(t *testing.T, eng *Engine) {
	t.Helper()
	applyRow(t, eng, activeRow("alice@contoso.com", "2025-03-03", model.AppTeams, model.AppWord))
	applyRow(t, eng, activeRow("alice@contoso.com", "2025-03-04", model.AppTeams))
	applyRow(t, eng, activeRow("alice@contoso.com", "2025-03-05", model.AppTeams))
	applyRow(t, eng, activeRow("bob@contoso.com", "2025-03-03", model.AppTeams, model.AppWord))
	applyRow(t, eng, activeRow("bob@contoso.com", "2025-03-04", model.AppWord))
	applyRow(t, eng, activeRow("carol@contoso.com", "2025-03-03"))
	applyRow(t, eng, activeRow("carol@contoso.com", "2025-03-04"))
}

func TestCompletedActivity_Daily(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	users, err := q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppTeams, model.AppWord}, 1, model.PeriodDaily, "2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice@contoso.com", "bob@contoso.com"}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("users = %v, want %v", users, want)
	}

	users, err = q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppTeams}, 1, model.PeriodDaily, "2025-03-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice@contoso.com"}) {
		t.Errorf("users = %v, want only alice", users)
	}
}

func TestCompletedActivity_WeeklyThreshold(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	// Teams at least twice this week: only alice (3); bob has 1.
	users, err := q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppTeams}, 2, model.PeriodWeekly, "2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice@contoso.com"}) {
		t.Errorf("users = %v, want only alice", users)
	}

	// Teams once AND Word once: alice and bob both qualify.
	users, err = q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppTeams, model.AppWord}, 1, model.PeriodWeekly, "2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice@contoso.com", "bob@contoso.com"}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("users = %v, want %v", users, want)
	}
}

func TestCompletedActivity_DuplicateApps(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	// Repeating an app must not raise the intersection target: each user has
	// one record per app, so Word twice means the same as Word once.
	users, err := q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppWord, model.AppWord}, 1, model.PeriodWeekly, "2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice@contoso.com", "bob@contoso.com"}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("users = %v, want %v", users, want)
	}
}

func TestUsersWithStreak_DuplicateApps(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	users, err := q.UsersWithStreak(context.Background(),
		[]model.AppType{model.AppTeams, model.AppTeams}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice@contoso.com"}) {
		t.Errorf("users = %v, want only alice", users)
	}
}

func TestCompletedActivity_UserKeyFromPartition(t *testing.T) {
	st := newTestStore(t)
	q := NewQuery(st)

	// The partition key is authoritative for the user identity, even when
	// the payload carries no userKey of its own.
	pk, rk := store.PeriodKeys("2025-03-03", "dana@contoso.com", model.AppWord.String())
	if _, err := st.Insert(context.Background(), store.Entity{
		Table:        store.TableWeekly,
		PartitionKey: pk,
		RowKey:       rk,
		Payload:      []byte(`{"totalDailyActivityCount":2}`),
	}); err != nil {
		t.Fatal(err)
	}

	users, err := q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppWord}, 1, model.PeriodWeekly, "2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"dana@contoso.com"}) {
		t.Errorf("users = %v, want only dana", users)
	}
}

func TestCompletedActivity_AllTime(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	users, err := q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppAll}, 3, model.PeriodAllTime, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice@contoso.com"}) {
		t.Errorf("users = %v, want only alice", users)
	}
}

func TestCompletedActivity_Invalid(t *testing.T) {
	q := NewQuery(newTestStore(t))

	if _, err := q.CompletedActivity(context.Background(),
		nil, 1, model.PeriodWeekly, "2025-03-03"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("empty app set: err = %v, want ErrInvalidQuery", err)
	}
	if _, err := q.CompletedActivity(context.Background(),
		[]model.AppType{model.AppTeams}, 1, model.PeriodWeekly, "bad-key"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("bad period key: err = %v, want ErrInvalidQuery", err)
	}
}

func TestUsersWithStreak(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	// alice is on a 3-day Teams streak; bob's broke on Tuesday.
	users, err := q.UsersWithStreak(context.Background(), []model.AppType{model.AppTeams}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice@contoso.com"}) {
		t.Errorf("users = %v, want only alice", users)
	}

	// bob switched to Word on Tuesday, so his all-up streak is still alive.
	users, err = q.UsersWithStreak(context.Background(), []model.AppType{model.AppAll}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice@contoso.com", "bob@contoso.com"}
	if !reflect.DeepEqual(users, want) {
		t.Errorf("users = %v, want %v", users, want)
	}
}

func TestLeaderboard(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, NewEngine(st))
	q := NewQuery(st)

	board, err := q.Leaderboard(context.Background(), model.AppAll, model.PeriodAllTime, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("board size = %d, want 2", len(board))
	}
	if board[0].UserKey != "alice@contoso.com" || board[0].ActivityCount != 3 {
		t.Errorf("board[0] = %+v, want alice with 3", board[0])
	}
	if board[1].UserKey != "bob@contoso.com" || board[1].ActivityCount != 2 {
		t.Errorf("board[1] = %+v, want bob with 2", board[1])
	}

	board, err = q.Leaderboard(context.Background(), model.AppTeams, model.PeriodWeekly, "2025-03-03", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board) != 1 || board[0].UserKey != "alice@contoso.com" {
		t.Errorf("board = %+v, want alice only", board)
	}
}

func TestLeaderboard_DailyRejected(t *testing.T) {
	q := NewQuery(newTestStore(t))

	if _, err := q.Leaderboard(context.Background(),
		model.AppTeams, model.PeriodDaily, "2025-03-03", 10); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestStartDate(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(st)
	q := NewQuery(st)

	start, err := q.StartDate(context.Background(), model.PeriodWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "" {
		t.Errorf("start before any batch = %q, want empty", start)
	}

	if err := eng.AdvanceMarkers(context.Background(), "2025-03-05"); err != nil {
		t.Fatal(err)
	}

	start, err = q.StartDate(context.Background(), model.PeriodWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2025-03-03" {
		t.Errorf("weekly start = %q, want 2025-03-03", start)
	}
}

func TestStartDateStatus(t *testing.T) {
	if got := StartDateStatus("2025-03-03", "2025-03-03"); got != StartDateActive {
		t.Errorf("same key = %q, want Active", got)
	}
	if got := StartDateStatus("2025-02-24", "2025-03-03"); got != StartDateExpired {
		t.Errorf("old key = %q, want Expired", got)
	}
	if got := StartDateStatus("2025-03-10", "2025-03-03"); got != StartDateFuture {
		t.Errorf("future key = %q, want Future", got)
	}
}
