package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/db"
	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/services/cache"
	"github.com/j-veylop/fincache-tui/internal/services/market"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type recorder struct {
	mu     sync.Mutex
	titles []string
}

func (r *recorder) notify(title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

func newTestManager(t *testing.T, body string) (*Manager, *recorder, string) {
	t.Helper()
	tmpDir := t.TempDir()

	s := config.Settings{
		DatabasePath: filepath.Join(tmpDir, "data", "financial_data.db"),
		ExportFormat: config.FormatCSV,
		ExportDir:    filepath.Join(tmpDir, "exports"),
	}
	settingsPath := filepath.Join(tmpDir, "config.json")
	if err := config.SaveSettings(settingsPath, s); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body))}, nil
	})

	mgr, err := NewManager(&config.Config{APIKey: "k", SettingsPath: settingsPath},
		WithTransport(transport),
		WithNotifier(rec.notify),
		WithClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 3, 10, 0, 0, 0, time.Local))),
	)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr, rec, tmpDir
}

func TestNewManager(t *testing.T) {
	mgr, _, tmpDir := newTestManager(t, `[]`)

	if mgr.DatabasePath() != filepath.Join(tmpDir, "data", "financial_data.db") {
		t.Errorf("DatabasePath() = %q", mgr.DatabasePath())
	}
	if mgr.Settings().ExportFormat != config.FormatCSV {
		t.Errorf("Settings() = %+v", mgr.Settings())
	}

	status, err := mgr.Budget()
	if err != nil {
		t.Fatal(err)
	}
	if status.Used != 0 || status.Limit != cache.DailyBudget {
		t.Errorf("Budget() = %+v", status)
	}
}

func TestNewManager_StorageError(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := config.DefaultSettings()
	s.DatabasePath = filepath.Join(blocker, "fin.db")
	settingsPath := filepath.Join(tmpDir, "config.json")
	if err := config.SaveSettings(settingsPath, s); err != nil {
		t.Fatal(err)
	}

	_, err := NewManager(&config.Config{APIKey: "k", SettingsPath: settingsPath})
	var storageErr *db.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("NewManager() error = %v, want StorageError", err)
	}
}

func TestManager_RefreshAndExport(t *testing.T) {
	mgr, _, tmpDir := newTestManager(t, `[{"date":"2024-01-01","environmentalScore":60,"total":42}]`)
	esg, _ := endpoints.Lookup("esg")

	ch, _ := mgr.Subscribe()

	res, err := mgr.Refresh(context.Background(), esg, "AAPL")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if res.FromCache {
		t.Error("expected fresh result")
	}

	var gotFetched, gotBudget bool
	timeout := time.After(2 * time.Second)
	for !gotFetched || !gotBudget {
		select {
		case ev := <-ch:
			switch e := ev.(type) {
			case DataFetchedEvent:
				gotFetched = e.Category == "esg" && e.Key == "AAPL"
			case BudgetEvent:
				gotBudget = e.Status.Used == 1
			}
		case <-timeout:
			t.Fatalf("missing events: fetched=%v budget=%v", gotFetched, gotBudget)
		}
	}

	path, err := mgr.Export(esg, "AAPL")
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(tmpDir, "exports") || !strings.HasPrefix(filepath.Base(path), "AAPL_esg_20240603_100000") {
		t.Errorf("export path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "date,environmentalScore,total\n2024-01-01,60,42") {
		t.Errorf("export content = %q", data)
	}

	summary, _ := mgr.CacheSummary()
	if len(summary) != 1 || summary[0].DataPoints != 1 {
		t.Errorf("CacheSummary() = %+v", summary)
	}
}

func TestManager_ExportAll(t *testing.T) {
	mgr, _, _ := newTestManager(t, `[{"date":"2024-01-01","marketCap":1000}]`)
	mc, _ := endpoints.Lookup("marketcap")

	if _, err := mgr.ExportAll(mc); err == nil {
		t.Error("ExportAll() with empty cache should fail")
	}

	for _, sym := range []string{"AAPL", "MSFT"} {
		if _, err := mgr.Refresh(context.Background(), mc, sym); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := mgr.ExportAll(mc)
	if err != nil {
		t.Fatalf("ExportAll() failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("ExportAll() wrote %d files, want 2", len(paths))
	}
}

func TestManager_BudgetNotifications(t *testing.T) {
	mgr, rec, _ := newTestManager(t, `[{"date":"2024-01-01","value":1}]`)
	economic, _ := endpoints.Lookup("economic")

	for i := 0; i < 199; i++ {
		if err := mgr.cache.RecordRequest("/v3/economic"); err != nil {
			t.Fatal(err)
		}
	}

	// 200 crosses the warning share.
	if _, err := mgr.Refresh(context.Background(), economic, "gdp"); err != nil {
		t.Fatal(err)
	}
	if got := rec.list(); len(got) != 1 || got[0] != "API budget running low" {
		t.Fatalf("notifications = %v", got)
	}

	// No repeat while below the limit.
	_, _ = mgr.Refresh(context.Background(), economic, "gdp")
	if got := rec.list(); len(got) != 1 {
		t.Fatalf("notifications = %v, want no repeat", got)
	}

	for i := 0; i < 48; i++ {
		_ = mgr.cache.RecordRequest("/v3/economic")
	}
	_, _ = mgr.Refresh(context.Background(), economic, "gdp")
	got := rec.list()
	if len(got) != 2 || got[1] != "API budget exhausted" {
		t.Fatalf("notifications = %v", got)
	}

	// Exhausted: served from cache, no further notification.
	res, err := mgr.Refresh(context.Background(), economic, "gdp")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback || !errors.Is(res.Err, market.ErrBudgetExhausted) {
		t.Errorf("expected budget fallback, got %+v", res)
	}
	if len(rec.list()) != 2 {
		t.Errorf("notifications = %v", rec.list())
	}
}

func TestManager_SettingsEvents(t *testing.T) {
	mgr, _, tmpDir := newTestManager(t, `[]`)
	ch, _ := mgr.Subscribe()

	if err := mgr.UpdateSetting(config.KeyDatabasePath, filepath.Join(tmpDir, "other.db")); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if e, ok := ev.(SettingsChangedEvent); ok {
				if !e.RestartRequired {
					t.Error("database path change should require restart")
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for SettingsChangedEvent")
		}
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr, _, _ := newTestManager(t, `[]`)

	ch, cmd := mgr.Subscribe()
	if ch == nil || cmd == nil {
		t.Fatal("Subscribe() returned nil")
	}

	mgr.broadcast(ErrorEvent{Service: "test", Error: errors.New("boom")})
	msg := cmd()
	if e, ok := msg.(ErrorEvent); !ok || e.Service != "test" {
		t.Errorf("cmd() = %#v", msg)
	}

	mgr.Unsubscribe(ch)
	if msg := WaitForEvent(ch)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %#v", msg)
	}
}

func TestManager_Projection(t *testing.T) {
	mgr, _, _ := newTestManager(t, `[]`)

	for range 50 {
		if err := mgr.cache.RecordRequest("/v3/ratios"); err != nil {
			t.Fatal(err)
		}
	}

	proj, err := mgr.Projection()
	if err != nil {
		t.Fatalf("Projection() error: %v", err)
	}
	// 50 requests by 10:00 is 5 per hour, 120 by midnight.
	if proj.Status != models.ProjectionSafe || proj.ProjectedTotal != 120 {
		t.Errorf("projection = %+v", proj)
	}

	for range 150 {
		if err := mgr.cache.RecordRequest("/v3/ratios"); err != nil {
			t.Fatal(err)
		}
	}

	proj, err = mgr.Projection()
	if err != nil {
		t.Fatalf("Projection() error: %v", err)
	}
	if proj.Status != models.ProjectionWarning || !proj.WillDeplete {
		t.Errorf("projection = %+v", proj)
	}
	if want := time.Date(2024, 6, 3, 12, 30, 0, 0, time.Local); !proj.DepleteAt.Equal(want) {
		t.Errorf("DepleteAt = %v, want %v", proj.DepleteAt, want)
	}
}
