package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// Outbox is a store-backed Queue: items land in the reminder table, keyed by
// (enqueue date, user), and stay there until a delivery process consumes
// them. Re-enqueueing the same user on the same day overwrites the pending
// item instead of duplicating it.
type Outbox struct {
	store     store.Store
	transform IDTransform
	now       func() time.Time
}

// NewOutbox returns an outbox writing through the given store. A nil
// transform means user keys pass through unchanged.
func NewOutbox(st store.Store, transform IDTransform) *Outbox {
	if transform == nil {
		transform = Identity{}
	}
	return &Outbox{store: st, transform: transform, now: time.Now}
}

// Enqueue stores one reminder item under today's date.
func (o *Outbox) Enqueue(ctx context.Context, item model.ReminderItem) error {
	key, err := o.transform.Transform(item.UserKey)
	if err != nil {
		return fmt.Errorf("queue: transforming user key: %w", err)
	}
	item.UserKey = key

	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("queue: encoding item: %w", err)
	}

	day := o.now().UTC().Format(model.DateFormat)
	e := store.Entity{
		Table:        store.TableReminders,
		PartitionKey: day,
		RowKey:       key,
		Payload:      payload,
	}

	_, err = o.store.Insert(ctx, e)
	if errors.Is(err, store.ErrEntityExists) {
		existing, err := o.store.Get(ctx, store.TableReminders, day, key)
		if err != nil {
			return fmt.Errorf("queue: refreshing pending item: %w", err)
		}
		existing.Payload = payload
		_, err = o.store.Update(ctx, existing)
		return err
	}
	return err
}

// Pending returns the items enqueued on the given date, in user-key order.
func (o *Outbox) Pending(ctx context.Context, day string) ([]model.ReminderItem, error) {
	ents, err := o.store.QueryPartition(ctx, store.TableReminders, day)
	if err != nil {
		return nil, err
	}

	items := make([]model.ReminderItem, 0, len(ents))
	for _, ent := range ents {
		var item model.ReminderItem
		if err := json.Unmarshal(ent.Payload, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Ack removes a delivered item.
func (o *Outbox) Ack(ctx context.Context, day, userKey string) error {
	return o.store.Delete(ctx, store.TableReminders, day, userKey)
}
