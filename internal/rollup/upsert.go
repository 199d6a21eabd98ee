package rollup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// casRetries bounds how often a read-mutate-write cycle is replayed after a
// lost race before the update is abandoned.
const casRetries = 3

// upsertJSON implements the create-or-merge protocol against one entity.
//
// The mutate callback receives the decoded existing record, or nil when none
// exists, and returns the record to write; returning nil means no write is
// needed. A create that races with a concurrent create is replayed as an
// update; a conditional update that loses its etag check is replayed from a
// fresh read, up to casRetries times, after which ErrConcurrentModification
// is surfaced.
//
// The returned bool reports whether the entity was newly created.
func upsertJSON[T any](ctx context.Context, st store.Store, table, partitionKey, rowKey string,
	mutate func(existing *T) *T) (*T, bool, error) {

	for attempt := 0; attempt <= casRetries; attempt++ {
		ent, err := st.Get(ctx, table, partitionKey, rowKey)
		if errors.Is(err, store.ErrNotFound) {
			rec := mutate(nil)
			if rec == nil {
				return nil, false, nil
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				return nil, false, fmt.Errorf("encoding %s(%s,%s): %w", table, partitionKey, rowKey, err)
			}
			_, err = st.Insert(ctx, store.Entity{
				Table:        table,
				PartitionKey: partitionKey,
				RowKey:       rowKey,
				Payload:      payload,
			})
			if errors.Is(err, store.ErrEntityExists) {
				// Lost the create race: someone inserted since our read.
				continue
			}
			if err != nil {
				return nil, false, err
			}
			return rec, true, nil
		}
		if err != nil {
			return nil, false, err
		}

		var existing T
		if err := json.Unmarshal(ent.Payload, &existing); err != nil {
			return nil, false, fmt.Errorf("decoding %s(%s,%s): %w", table, partitionKey, rowKey, err)
		}

		rec := mutate(&existing)
		if rec == nil {
			return &existing, false, nil
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, false, fmt.Errorf("encoding %s(%s,%s): %w", table, partitionKey, rowKey, err)
		}

		ent.Payload = payload
		_, err = st.Update(ctx, ent)
		if errors.Is(err, store.ErrPreconditionFailed) || errors.Is(err, store.ErrNotFound) {
			// Stale etag, or the record vanished between read and write.
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return rec, false, nil
	}

	return nil, false, fmt.Errorf("%s(%s,%s): %w", table, partitionKey, rowKey, ErrConcurrentModification)
}
