package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/groveale/copilot-usage-scraper/internal/model"
)

const sampleRow = `{
	"reportRefreshDate": "2025-03-05",
	"userPrincipalName": "alice@contoso.com",
	"displayName": "Alice",
	"microsoftTeamsCopilotLastActivityDate": "2025-03-05",
	"microsoftTeamsCopilotInteractionCount": 4,
	"designerCopilotInteractionCount": 2
}`

func TestFetchDaily_Pagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/page2" {
			fmt.Fprintf(w, `{"value": [%s]}`, sampleRow)
			return
		}
		fmt.Fprintf(w, `{"value": [%s], "@odata.nextLink": %q}`, sampleRow, srv.URL+"/page2")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	rows, err := c.FetchDaily(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 across pages", len(rows))
	}

	row := rows[0]
	if row.UserKey != "alice@contoso.com" || row.ReportRefreshDate != "2025-03-05" {
		t.Errorf("row = %+v", row)
	}
	if row.LastActivityDates[model.AppTeams] != "2025-03-05" {
		t.Errorf("Teams last activity = %q", row.LastActivityDates[model.AppTeams])
	}
	if row.InteractionCounts[model.AppTeams] != 4 {
		t.Errorf("Teams interactions = %d, want 4", row.InteractionCounts[model.AppTeams])
	}
	if row.InteractionCounts[model.AppDesigner] != 2 {
		t.Errorf("Designer interactions = %d, want 2", row.InteractionCounts[model.AppDesigner])
	}
}

func TestFetchDaily_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("expired"))
	if _, err := c.FetchDaily(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestFetchDaily_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"value": [%s]}`, sampleRow)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	rows, err := c.FetchDaily(context.Background())
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (two failures, one success)", calls.Load())
	}
}

func TestNewClient_Invalid(t *testing.T) {
	if c := NewClient("", StaticToken("tok")); c != nil {
		t.Error("empty base URL should yield nil client")
	}
	if c := NewClient("https://example.com", nil); c != nil {
		t.Error("nil token source should yield nil client")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bare, []byte("["+sampleRow+"]"), 0o600); err != nil {
		t.Fatal(err)
	}
	rows, err := LoadFile(bare)
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	if len(rows) != 1 || rows[0].UserKey != "alice@contoso.com" {
		t.Fatalf("rows = %+v", rows)
	}

	paged := filepath.Join(dir, "paged.json")
	if err := os.WriteFile(paged, []byte(`{"value": [`+sampleRow+`]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	rows, err = LoadFile(paged)
	if err != nil {
		t.Fatalf("paged body: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should error")
	}
}
