// Package queue is the reminder delivery boundary. The service only enqueues;
// whatever drains the queue and talks to users lives elsewhere.
package queue

import (
	"context"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

// Queue accepts reminder items for later delivery.
type Queue interface {
	Enqueue(ctx context.Context, item model.ReminderItem) error
}

// IDTransform maps a user key before it leaves the service, e.g. into an
// encrypted or tokenized form. The transform is opaque to everything here.
type IDTransform interface {
	Transform(userKey string) (string, error)
}

// Identity is the default IDTransform: user keys pass through unchanged.
type Identity struct{}

func (Identity) Transform(userKey string) (string, error) {
	return userKey, nil
}
