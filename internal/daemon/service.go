// Package daemon provides the long-running ingestion service: a daily batch
// at a configured hour, reminder enqueueing afterwards, and an HTTP API over
// the rollup tables.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/groveale/copilot-usage-scraper/internal/ingest"
	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"
)

// FetchFunc supplies the day's report rows. Wired to the report client in the
// daemon command, or to a file loader in tests and backfills.
type FetchFunc func(ctx context.Context) ([]model.UsageRow, error)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr string
	// IngestHour is the local hour (0-23) the daily batch runs at.
	IngestHour   int
	EventsBuffer int
}

// Event is emitted after every batch attempt.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Result    ingest.Result `json:"result"`
	Reminders int           `json:"reminders"`
	Error     string        `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time     `json:"started_at"`
	LastBatchAt     time.Time     `json:"last_batch_at"`
	NextBatchAt     time.Time     `json:"next_batch_at"`
	IngestHour      int           `json:"ingest_hour"`
	BatchCount      int64         `json:"batch_count"`
	LastResult      ingest.Result `json:"last_result"`
	LastError       string        `json:"last_error,omitempty"`
	EventCount      int           `json:"event_count"`
	SubscriberCount int           `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg   Config
	orch  *ingest.Orchestrator
	query *rollup.Query
	fetch FetchFunc
	now   func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastBatchAt time.Time
	nextBatchAt time.Time
	batchCount  int64
	lastResult  ingest.Result
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, orch *ingest.Orchestrator, query *rollup.Query, fetch FetchFunc) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:7878"
	}
	if cfg.IngestHour < 0 || cfg.IngestHour > 23 {
		cfg.IngestHour = 3
	}

	return &Service{
		cfg:       cfg,
		orch:      orch,
		query:     query,
		fetch:     fetch,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts the HTTP endpoints and the batch scheduler until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Infof("daemon: listening on %s, next batch at hour %02d:00", s.cfg.Addr, s.cfg.IngestHour)

	for {
		next := s.nextRun()
		s.mu.Lock()
		s.nextBatchAt = next
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-timer.C:
			s.RunBatch(ctx)
		case err := <-errCh:
			timer.Stop()
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// nextRun returns the next occurrence of the configured ingest hour.
func (s *Service) nextRun() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.IngestHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunBatch fetches the day's report, ingests it, and enqueues reminders.
// Also invoked on demand via POST /v1/ingest.
func (s *Service) RunBatch(ctx context.Context) Event {
	now := s.now()

	rows, err := s.fetch(ctx)
	var (
		res       ingest.Result
		reminders int
	)
	if err == nil {
		res, err = s.orch.Run(ctx, rows)
	}
	if err == nil {
		reminders, err = s.orch.EnqueueReminders(ctx)
	}

	s.mu.Lock()
	s.lastBatchAt = now
	s.batchCount++
	s.lastResult = res
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      "batch",
		Timestamp: now,
		Result:    res,
		Reminders: reminders,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Warnf("daemon: batch failed: %v", err)
	}
	s.publishEvent(ev)
	return ev
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastBatchAt:     s.lastBatchAt,
		NextBatchAt:     s.nextBatchAt,
		IngestHour:      s.cfg.IngestHour,
		BatchCount:      s.batchCount,
		LastResult:      s.lastResult,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
