// Package ingest runs the daily batch: normalize every report row, fold it
// into the rollups, refresh the inactivity tracker, then advance the refresh
// markers.
package ingest

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/queue"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"
	"github.com/groveale/copilot-usage-scraper/internal/store"
)

// Config carries everything the orchestrator needs, passed explicitly at
// construction.
type Config struct {
	Tracker rollup.TrackerConfig
	// ServiceAccount is a user key to skip when enqueueing reminders.
	ServiceAccount string
}

// Result summarizes one batch.
type Result struct {
	ReportDate       string `json:"reportDate"`
	Rows             int    `json:"rows"`
	Processed        int    `json:"processed"`
	Malformed        int    `json:"malformed"`
	Conflicted       int    `json:"conflicted"`
	Failed           int    `json:"failed"`
	SnapshotsCreated int    `json:"snapshotsCreated"`
	RecordsWritten   int    `json:"recordsWritten"`
	InactivityPurged int    `json:"inactivityPurged"`
}

// Orchestrator owns the write path into the rollup and inactivity tables.
type Orchestrator struct {
	engine  *rollup.Engine
	tracker *rollup.Tracker
	queue   queue.Queue
	cfg     Config
}

// New wires an orchestrator over the given store and reminder queue. The
// queue may be nil when reminders are not in play (offline backfills).
func New(st store.Store, q queue.Queue, cfg Config) *Orchestrator {
	return &Orchestrator{
		engine:  rollup.NewEngine(st),
		tracker: rollup.NewTracker(st, cfg.Tracker),
		queue:   q,
		cfg:     cfg,
	}
}

// Run processes one batch of report rows sequentially. Malformed rows and
// rows that exhaust their conflict retries are logged and skipped; the batch
// continues. The report date is taken from the first well-formed row.
func (o *Orchestrator) Run(ctx context.Context, rows []model.UsageRow) (Result, error) {
	res := Result{Rows: len(rows)}

	res.ReportDate = batchDate(rows)
	if res.ReportDate == "" {
		return res, fmt.Errorf("ingest: no well-formed rows in batch")
	}
	log.Infof("ingest: starting batch for %s with %d rows", res.ReportDate, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		fact, err := rollup.Normalize(row, res.ReportDate)
		if err != nil {
			res.Malformed++
			log.Warnf("ingest: skipping row for %s: %v", row.UserKey, err)
			continue
		}

		applied, err := o.engine.Apply(ctx, fact)
		res.SnapshotsCreated += boolToInt(applied.SnapshotCreated)
		res.RecordsWritten += applied.RecordsWritten
		if err != nil {
			if errors.Is(err, rollup.ErrConcurrentModification) {
				res.Conflicted++
				log.Warnf("ingest: conflict budget exhausted for %s: %v", row.UserKey, err)
				continue
			}
			// A failed row degrades the day's rollups but never aborts
			// the batch.
			res.Failed++
			log.Warnf("ingest: applying row for %s: %v", row.UserKey, err)
			continue
		}

		if err := o.tracker.Observe(ctx, row, fact); err != nil {
			res.Malformed++
			log.Warnf("ingest: inactivity observe failed for %s: %v", row.UserKey, err)
			continue
		}

		res.Processed++
	}

	purged, err := o.tracker.Purge(ctx, res.ReportDate)
	if err != nil {
		return res, fmt.Errorf("ingest: purging recovered users: %w", err)
	}
	res.InactivityPurged = purged

	if err := o.engine.AdvanceMarkers(ctx, res.ReportDate); err != nil {
		return res, fmt.Errorf("ingest: advancing refresh markers: %w", err)
	}

	log.Infof("ingest: batch %s done: %d processed, %d malformed, %d conflicted, %d failed, %d purged",
		res.ReportDate, res.Processed, res.Malformed, res.Conflicted, res.Failed, purged)
	return res, nil
}

// EnqueueReminders pushes a reminder item for every eligible inactive user
// and records the notification against the tracker entry. Returns the number
// of enqueued reminders.
func (o *Orchestrator) EnqueueReminders(ctx context.Context) (int, error) {
	if o.queue == nil {
		return 0, fmt.Errorf("ingest: no reminder queue configured")
	}

	due, err := o.tracker.Eligible(ctx)
	if err != nil {
		return 0, fmt.Errorf("ingest: listing eligible users: %w", err)
	}

	enqueued := 0
	for _, rec := range due {
		if o.cfg.ServiceAccount != "" && rec.UserKey == o.cfg.ServiceAccount {
			continue
		}

		item := model.ReminderItem{
			UserKey:               rec.UserKey,
			DisplayName:           rec.DisplayName,
			LastActivityDate:      rec.LastActivityDate,
			DaysSinceLastActivity: rec.DaysSinceLastActivity,
			NotificationCount:     rec.NotificationCount,
		}
		if err := o.queue.Enqueue(ctx, item); err != nil {
			log.Warnf("ingest: enqueue failed for %s: %v", rec.UserKey, err)
			continue
		}
		if err := o.tracker.MarkReminded(ctx, rec); err != nil {
			log.Warnf("ingest: marking reminder for %s: %v", rec.UserKey, err)
		}
		enqueued++
	}

	log.Infof("ingest: enqueued %d reminders (%d eligible)", enqueued, len(due))
	return enqueued, nil
}

// batchDate picks the batch's report date: the first row whose refresh date
// parses as a calendar date.
func batchDate(rows []model.UsageRow) string {
	for _, row := range rows {
		if _, err := rollup.ParseReportDate(row.ReportRefreshDate); err == nil {
			return row.ReportRefreshDate
		}
	}
	return ""
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
