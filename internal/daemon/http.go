package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"
)

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/ingest", s.handleIngest)
	mux.HandleFunc("/v1/completed-activity", s.handleCompletedActivity)
	mux.HandleFunc("/v1/streak", s.handleStreak)
	mux.HandleFunc("/v1/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/v1/inactive", s.handleInactive)
	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ev := s.RunBatch(r.Context())
	if ev.Error != "" {
		w.WriteHeader(http.StatusInternalServerError)
	}
	writeJSON(w, ev)
}

// handleCompletedActivity serves /v1/completed-activity?apps=Teams,Word&
// threshold=2&period=weekly&start=2025-03-03. The start parameter is
// validated against the stored period start: a stale or not-yet-reached key
// yields an empty user list and a non-Active status, mirroring how clients
// already consume this result.
func (s *Service) handleCompletedActivity(w http.ResponseWriter, r *http.Request) {
	apps, err := model.ParseApps(splitList(r.URL.Query().Get("apps")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	threshold := 1
	if v := r.URL.Query().Get("threshold"); v != "" {
		threshold, err = strconv.Atoi(v)
		if err != nil || threshold < 1 {
			http.Error(w, "threshold must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	start := r.URL.Query().Get("start")
	status := rollup.StartDateActive
	if period != model.PeriodAllTime {
		current, err := s.query.StartDate(r.Context(), period)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if current == "" {
			http.Error(w, "no data ingested yet", http.StatusNotFound)
			return
		}
		if start == "" {
			start = current
		}
		status = rollup.StartDateStatus(start, current)
	}

	var users []string
	if status == rollup.StartDateActive {
		users, err = s.query.CompletedActivity(r.Context(), apps, threshold, period, start)
		if err != nil {
			writeQueryError(w, err)
			return
		}
	}

	writeJSON(w, struct {
		Users           []string `json:"users"`
		StartDateStatus string   `json:"startDateStatus"`
	}{orEmpty(users), status})
}

func (s *Service) handleStreak(w http.ResponseWriter, r *http.Request) {
	apps, err := model.ParseApps(splitList(r.URL.Query().Get("apps")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	minStreak, err := strconv.Atoi(r.URL.Query().Get("min"))
	if err != nil || minStreak < 1 {
		http.Error(w, "min must be a positive integer", http.StatusBadRequest)
		return
	}

	users, err := s.query.UsersWithStreak(r.Context(), apps, minStreak)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	writeJSON(w, struct {
		Users []string `json:"users"`
	}{orEmpty(users)})
}

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	app, err := model.ParseApp(r.URL.Query().Get("app"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	period := model.PeriodAllTime
	if v := r.URL.Query().Get("period"); v != "" {
		period, err = model.ParsePeriod(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	start := r.URL.Query().Get("start")
	if start == "" && period != model.PeriodAllTime {
		start, err = s.query.StartDate(r.Context(), period)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	board, err := s.query.Leaderboard(r.Context(), app, period, start, limit)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	writeJSON(w, struct {
		App         model.AppType             `json:"app"`
		Period      model.Period              `json:"period"`
		Leaderboard []rollup.LeaderboardEntry `json:"leaderboard"`
	}{app, period, board})
}

func (s *Service) handleInactive(w http.ResponseWriter, r *http.Request) {
	recs, err := s.query.Inactive(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct {
		Users []model.InactivityRecord `json:"users"`
	}{recs})
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send a status event immediately so clients see current state.
	current := Event{
		Type:      "status",
		Timestamp: time.Now(),
		Result:    s.snapshotStatus().LastResult,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, rollup.ErrInvalidQuery) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orEmpty(users []string) []string {
	if users == nil {
		return []string{}
	}
	return users
}
