package queue

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

func newTestOutbox(t *testing.T, transform IDTransform) *Outbox {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	o := NewOutbox(st, transform)
	o.now = func() time.Time { return time.Date(2025, 3, 5, 4, 0, 0, 0, time.UTC) }
	return o
}

func TestEnqueueAndPending(t *testing.T) {
	o := newTestOutbox(t, nil)
	ctx := context.Background()

	items := []model.ReminderItem{
		{UserKey: "bob@contoso.com", LastActivityDate: "2025-01-15", DaysSinceLastActivity: 49},
		{UserKey: "alice@contoso.com", LastActivityDate: "2025-01-01", DaysSinceLastActivity: 63},
	}
	for _, item := range items {
		if err := o.Enqueue(ctx, item); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	pending, err := o.Pending(ctx, "2025-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].UserKey != "alice@contoso.com" {
		t.Errorf("pending[0] = %q, want alice first (key order)", pending[0].UserKey)
	}
}

func TestEnqueueSameUserSameDayOverwrites(t *testing.T) {
	o := newTestOutbox(t, nil)
	ctx := context.Background()

	if err := o.Enqueue(ctx, model.ReminderItem{UserKey: "alice@contoso.com", DaysSinceLastActivity: 63}); err != nil {
		t.Fatal(err)
	}
	if err := o.Enqueue(ctx, model.ReminderItem{UserKey: "alice@contoso.com", DaysSinceLastActivity: 64}); err != nil {
		t.Fatal(err)
	}

	pending, err := o.Pending(ctx, "2025-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1 (no duplicate)", len(pending))
	}
	if pending[0].DaysSinceLastActivity != 64 {
		t.Errorf("DaysSinceLastActivity = %v, want latest value 64", pending[0].DaysSinceLastActivity)
	}
}

type upperTransform struct{}

func (upperTransform) Transform(userKey string) (string, error) {
	return strings.ToUpper(userKey), nil
}

func TestEnqueueAppliesTransform(t *testing.T) {
	o := newTestOutbox(t, upperTransform{})
	ctx := context.Background()

	if err := o.Enqueue(ctx, model.ReminderItem{UserKey: "alice@contoso.com"}); err != nil {
		t.Fatal(err)
	}

	pending, err := o.Pending(ctx, "2025-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].UserKey != "ALICE@CONTOSO.COM" {
		t.Fatalf("pending = %+v, want transformed key", pending)
	}
}

func TestAck(t *testing.T) {
	o := newTestOutbox(t, nil)
	ctx := context.Background()

	if err := o.Enqueue(ctx, model.ReminderItem{UserKey: "alice@contoso.com"}); err != nil {
		t.Fatal(err)
	}
	if err := o.Ack(ctx, "2025-03-05", "alice@contoso.com"); err != nil {
		t.Fatal(err)
	}

	pending, err := o.Pending(ctx, "2025-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0 after ack", len(pending))
	}
}
