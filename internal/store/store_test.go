package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertGetRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e, err := db.Insert(ctx, Entity{
		Table:        "t",
		PartitionKey: "pk",
		RowKey:       "rk",
		Payload:      []byte(`{"n":1}`),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if e.ETag != 1 {
		t.Errorf("etag after insert = %d, want 1", e.ETag)
	}

	got, err := db.Get(ctx, "t", "pk", "rk")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Payload) != `{"n":1}` {
		t.Errorf("payload = %s", got.Payload)
	}
}

func TestInsertDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := Entity{Table: "t", PartitionKey: "pk", RowKey: "rk", Payload: []byte(`{}`)}
	if _, err := db.Insert(ctx, e); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Insert(ctx, e); !errors.Is(err, ErrEntityExists) {
		t.Fatalf("second insert: err = %v, want ErrEntityExists", err)
	}
}

func TestGetMissing(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Get(context.Background(), "t", "pk", "rk"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateConditional(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e, err := db.Insert(ctx, Entity{Table: "t", PartitionKey: "pk", RowKey: "rk", Payload: []byte(`{"n":1}`)})
	if err != nil {
		t.Fatal(err)
	}

	e.Payload = []byte(`{"n":2}`)
	updated, err := db.Update(ctx, e)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ETag != 2 {
		t.Errorf("etag after update = %d, want 2", updated.ETag)
	}

	// Replay with the stale etag: must be rejected.
	e.Payload = []byte(`{"n":3}`)
	if _, err := db.Update(ctx, e); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("stale update: err = %v, want ErrPreconditionFailed", err)
	}

	got, err := db.Get(ctx, "t", "pk", "rk")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Payload) != `{"n":2}` {
		t.Errorf("payload = %s, want the first update's", got.Payload)
	}
}

func TestUpdateMissing(t *testing.T) {
	db := newTestDB(t)

	e := Entity{Table: "t", PartitionKey: "pk", RowKey: "rk", ETag: 1, Payload: []byte(`{}`)}
	if _, err := db.Update(context.Background(), e); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Insert(ctx, Entity{Table: "t", PartitionKey: "pk", RowKey: "rk", Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(ctx, "t", "pk", "rk"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Delete(ctx, "t", "pk", "rk"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := db.Get(ctx, "t", "pk", "rk"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestQueryPartition(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, rk := range []string{"b", "a", "c"} {
		if _, err := db.Insert(ctx, Entity{Table: "t", PartitionKey: "pk", RowKey: rk, Payload: []byte(`{}`)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Insert(ctx, Entity{Table: "t", PartitionKey: "other", RowKey: "a", Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Insert(ctx, Entity{Table: "t2", PartitionKey: "pk", RowKey: "a", Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}

	ents, err := db.QueryPartition(ctx, "t", "pk")
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 3 {
		t.Fatalf("len = %d, want 3", len(ents))
	}
	for i, want := range []string{"a", "b", "c"} {
		if ents[i].RowKey != want {
			t.Errorf("ents[%d].RowKey = %q, want %q", i, ents[i].RowKey, want)
		}
	}
}

func TestQueryPrefix(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	keys := []string{"2025-03-03-alice", "2025-03-03-bob", "2025-03-10-alice", "AllTime-alice"}
	for _, pk := range keys {
		if _, err := db.Insert(ctx, Entity{Table: "t", PartitionKey: pk, RowKey: "Teams", Payload: []byte(`{}`)}); err != nil {
			t.Fatal(err)
		}
	}

	ents, err := db.QueryPrefix(ctx, "t", "2025-03-03-")
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 2 {
		t.Fatalf("len = %d, want 2", len(ents))
	}
	if ents[0].PartitionKey != "2025-03-03-alice" || ents[1].PartitionKey != "2025-03-03-bob" {
		t.Errorf("partitions = %q, %q", ents[0].PartitionKey, ents[1].PartitionKey)
	}
}

func TestQueryPrefixEscapesLikeMetachars(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Underscore in the prefix is a LIKE wildcard unless escaped.
	for _, pk := range []string{"a_b", "axb"} {
		if _, err := db.Insert(ctx, Entity{Table: "t", PartitionKey: pk, RowKey: "rk", Payload: []byte(`{}`)}); err != nil {
			t.Fatal(err)
		}
	}

	ents, err := db.QueryPrefix(ctx, "t", "a_")
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 1 || ents[0].PartitionKey != "a_b" {
		t.Fatalf("ents = %+v, want only a_b", ents)
	}
}

func TestKeyHelpers(t *testing.T) {
	pk, rk := PeriodKeys("2025-03-03", "alice@contoso.com", "Teams")
	if pk != "2025-03-03-alice@contoso.com" || rk != "Teams" {
		t.Errorf("PeriodKeys = (%q, %q)", pk, rk)
	}
	if got := UserFromPeriodPartition(pk); got != "alice@contoso.com" {
		t.Errorf("UserFromPeriodPartition = %q", got)
	}

	pk, rk = AllTimeKeys("alice@contoso.com", "Teams")
	if pk != "AllTime-alice@contoso.com" || rk != "Teams" {
		t.Errorf("AllTimeKeys = (%q, %q)", pk, rk)
	}
	if got := UserFromAllTimePartition(pk); got != "alice@contoso.com" {
		t.Errorf("UserFromAllTimePartition = %q", got)
	}
}
