// Package store provides the partitioned key-value store backing the usage
// rollup tables: logical tables of (partition key, row key) entities with
// JSON payloads and an etag for optimistic-concurrency writes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
    tbl            TEXT NOT NULL,
    partition_key  TEXT NOT NULL,
    row_key        TEXT NOT NULL,
    etag           INTEGER NOT NULL DEFAULT 1,
    payload        TEXT NOT NULL,
    updated_at     TEXT NOT NULL,
    PRIMARY KEY (tbl, partition_key, row_key)
);

CREATE INDEX IF NOT EXISTS idx_entities_row_key ON entities(tbl, row_key);
`

// Entity is one stored record. ETag starts at 1 on insert and increments on
// every successful update; conditional updates must present the current value.
type Entity struct {
	Table        string
	PartitionKey string
	RowKey       string
	ETag         int64
	Payload      []byte
}

// Store is the access contract the rollup engine, queries, and the reminder
// queue require from the partitioned store.
type Store interface {
	Get(ctx context.Context, table, partitionKey, rowKey string) (Entity, error)
	// Insert creates the entity, failing with ErrEntityExists if the key is taken.
	Insert(ctx context.Context, e Entity) (Entity, error)
	// Update replaces the payload if the stored etag still matches e.ETag,
	// failing with ErrPreconditionFailed otherwise.
	Update(ctx context.Context, e Entity) (Entity, error)
	Delete(ctx context.Context, table, partitionKey, rowKey string) error
	QueryPartition(ctx context.Context, table, partitionKey string) ([]Entity, error)
	// QueryPrefix returns all entities whose partition key starts with the
	// given prefix, in (partition key, row key) order.
	QueryPrefix(ctx context.Context, table, partitionKeyPrefix string) ([]Entity, error)
}

// DB is the SQLite-backed Store implementation.
type DB struct {
	db *sql.DB
}

// Open opens or creates the store database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the store database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Get fetches a single entity by key.
func (d *DB) Get(ctx context.Context, table, partitionKey, rowKey string) (Entity, error) {
	e := Entity{Table: table, PartitionKey: partitionKey, RowKey: rowKey}

	var payload string
	err := d.db.QueryRowContext(ctx,
		`SELECT etag, payload FROM entities WHERE tbl = ? AND partition_key = ? AND row_key = ?`,
		table, partitionKey, rowKey,
	).Scan(&e.ETag, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entity{}, ErrNotFound
	}
	if err != nil {
		return Entity{}, fmt.Errorf("store get %s(%s,%s): %w", table, partitionKey, rowKey, err)
	}

	e.Payload = []byte(payload)
	return e, nil
}

// Insert creates a new entity with etag 1.
func (d *DB) Insert(ctx context.Context, e Entity) (Entity, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO entities (tbl, partition_key, row_key, etag, payload, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		e.Table, e.PartitionKey, e.RowKey, string(e.Payload), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Entity{}, ErrEntityExists
		}
		return Entity{}, fmt.Errorf("store insert %s(%s,%s): %w", e.Table, e.PartitionKey, e.RowKey, err)
	}

	e.ETag = 1
	return e, nil
}

// Update conditionally replaces the payload, keyed on the presented etag.
func (d *DB) Update(ctx context.Context, e Entity) (Entity, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := d.db.ExecContext(ctx,
		`UPDATE entities SET payload = ?, etag = etag + 1, updated_at = ?
		 WHERE tbl = ? AND partition_key = ? AND row_key = ? AND etag = ?`,
		string(e.Payload), now, e.Table, e.PartitionKey, e.RowKey, e.ETag,
	)
	if err != nil {
		return Entity{}, fmt.Errorf("store update %s(%s,%s): %w", e.Table, e.PartitionKey, e.RowKey, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Entity{}, err
	}
	if affected == 0 {
		// Distinguish a lost race from a deleted row.
		var exists int
		err := d.db.QueryRowContext(ctx,
			`SELECT 1 FROM entities WHERE tbl = ? AND partition_key = ? AND row_key = ?`,
			e.Table, e.PartitionKey, e.RowKey,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return Entity{}, ErrNotFound
		}
		if err != nil {
			return Entity{}, err
		}
		return Entity{}, ErrPreconditionFailed
	}

	e.ETag++
	return e, nil
}

// Delete removes an entity. Deleting a missing entity is not an error.
func (d *DB) Delete(ctx context.Context, table, partitionKey, rowKey string) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM entities WHERE tbl = ? AND partition_key = ? AND row_key = ?`,
		table, partitionKey, rowKey,
	)
	if err != nil {
		return fmt.Errorf("store delete %s(%s,%s): %w", table, partitionKey, rowKey, err)
	}
	return nil
}

// QueryPartition returns all entities in one partition, ordered by row key.
func (d *DB) QueryPartition(ctx context.Context, table, partitionKey string) ([]Entity, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT partition_key, row_key, etag, payload FROM entities
		 WHERE tbl = ? AND partition_key = ? ORDER BY row_key`,
		table, partitionKey,
	)
	if err != nil {
		return nil, fmt.Errorf("store query %s(%s): %w", table, partitionKey, err)
	}
	return collectEntities(table, rows)
}

// QueryPrefix returns all entities whose partition key starts with the prefix.
func (d *DB) QueryPrefix(ctx context.Context, table, partitionKeyPrefix string) ([]Entity, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT partition_key, row_key, etag, payload FROM entities
		 WHERE tbl = ? AND partition_key LIKE ? ESCAPE '\'
		 ORDER BY partition_key, row_key`,
		table, likePrefix(partitionKeyPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("store query %s(%s*): %w", table, partitionKeyPrefix, err)
	}
	return collectEntities(table, rows)
}

func collectEntities(table string, rows *sql.Rows) ([]Entity, error) {
	defer func() { _ = rows.Close() }()

	var out []Entity
	for rows.Next() {
		e := Entity{Table: table}
		var payload string
		if err := rows.Scan(&e.PartitionKey, &e.RowKey, &e.ETag, &payload); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// likePrefix escapes LIKE metacharacters so the prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
