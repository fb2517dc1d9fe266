package market

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/j-veylop/fincache-tui/internal/db"
	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/services/cache"
)

type testEnv struct {
	service  *Service
	cache    *cache.Manager
	database *db.DB
	clock    *clockwork.FakeClock
	calls    *atomic.Int32
}

func newTestEnv(t *testing.T, status int, body string) *testEnv {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	calls := &atomic.Int32{}
	client := NewClient(ClientConfig{
		APIKey: "k",
		Transport: &MockRoundTripper{
			RoundTripFunc: func(req *http.Request) (*http.Response, error) {
				calls.Add(1)
				return jsonResponse(status, body), nil
			},
		},
	})

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 3, 9, 30, 0, 0, time.Local))
	manager := cache.New(database, cache.WithClock(clock))
	return &testEnv{
		service:  NewService(client, manager),
		cache:    manager,
		database: database,
		clock:    clock,
		calls:    calls,
	}
}

func mustLookup(t *testing.T, category string) endpoints.Descriptor {
	t.Helper()
	d, err := endpoints.Lookup(category)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRefresh_SavesAndCounts(t *testing.T) {
	env := newTestEnv(t, 200, `{"symbol":"AAPL","historical":[{"date":"2024-01-02","close":185.64}]}`)
	price := mustLookup(t, "price")

	res, err := env.service.Refresh(context.Background(), price, "AAPL")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if res.FromCache || res.Fallback {
		t.Errorf("fresh result flagged as cached: %+v", res)
	}

	count, _ := env.cache.DailyRequestCount()
	if count != 1 {
		t.Errorf("DailyRequestCount() = %d, want 1", count)
	}
	usage, _ := env.cache.UsageByEndpoint()
	if len(usage) != 1 || usage[0].Endpoint != "/v3/historical-price-full" {
		t.Errorf("request recorded as %+v", usage)
	}

	cached, err := env.service.Lookup(price, "AAPL")
	if err != nil || cached == nil {
		t.Fatalf("Lookup() = %v, %v", cached, err)
	}
	if !cached.FromCache {
		t.Error("Lookup() result should be FromCache")
	}
	// Only the extracted node is stored.
	if diff := cmp.Diff(res.Payload, cached.Payload); diff != "" {
		t.Errorf("cached payload mismatch (-fresh +cached):\n%s", diff)
	}
	if _, ok := cached.Payload.([]any); !ok {
		t.Errorf("cached payload = %T, want extracted array", cached.Payload)
	}
}

func TestRefresh_BudgetExhausted(t *testing.T) {
	env := newTestEnv(t, 200, `[{"date":"2024-01-01","total":42}]`)
	esg := mustLookup(t, "esg")

	for i := 0; i < cache.DailyBudget; i++ {
		_ = env.cache.RecordRequest("/v3/profile")
	}

	_, err := env.service.Refresh(context.Background(), esg, "AAPL")
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("Refresh() error = %v, want ErrBudgetExhausted", err)
	}
	if env.calls.Load() != 0 {
		t.Errorf("API called %d times with exhausted budget", env.calls.Load())
	}

	_ = env.cache.SaveData("esg", "AAPL", map[string]any{"total": 42})

	res, err := env.service.Refresh(context.Background(), esg, "AAPL")
	if err != nil {
		t.Fatalf("Refresh() with cache failed: %v", err)
	}
	if !res.Fallback || !res.FromCache || !errors.Is(res.Err, ErrBudgetExhausted) {
		t.Errorf("expected budget fallback, got %+v", res)
	}
	if env.calls.Load() != 0 {
		t.Error("API should not be called when the budget is exhausted")
	}
}

func TestRefresh_APIErrorFallsBack(t *testing.T) {
	env := newTestEnv(t, 500, `oops`)
	ratios := mustLookup(t, "ratios")

	_, err := env.service.Refresh(context.Background(), ratios, "AAPL")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("Refresh() error = %v, want APIError 500", err)
	}

	_ = env.cache.SaveData("ratios", "AAPL", []any{map[string]any{"currentRatio": 1}})

	res, err := env.service.Refresh(context.Background(), ratios, "AAPL")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if !res.Fallback || !errors.As(res.Err, &apiErr) {
		t.Errorf("expected API fallback, got %+v", res)
	}

	if count, _ := env.cache.DailyRequestCount(); count != 0 {
		t.Errorf("failed requests should not be counted, got %d", count)
	}
}

func TestRefresh_EmptyNotSaved(t *testing.T) {
	env := newTestEnv(t, 200, `[]`)
	grades := mustLookup(t, "grades")

	_, err := env.service.Refresh(context.Background(), grades, "AAPL")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Refresh() error = %v, want ErrNoData", err)
	}

	res, err := env.service.Lookup(grades, "AAPL")
	if err != nil || res != nil {
		t.Errorf("empty response was cached: %+v, %v", res, err)
	}
	if count, _ := env.cache.DailyRequestCount(); count != 1 {
		t.Errorf("DailyRequestCount() = %d, want 1", count)
	}
}

func TestLookup_Missing(t *testing.T) {
	env := newTestEnv(t, 200, `[]`)

	res, err := env.service.Lookup(mustLookup(t, "esg"), "MSFT")
	if err != nil || res != nil {
		t.Errorf("Lookup() = %+v, %v; want nil, nil", res, err)
	}
}

func TestRefresh_UsesManagerClock(t *testing.T) {
	env := newTestEnv(t, 200, `[{"date":"2024-01-01","total":42}]`)
	esg := mustLookup(t, "esg")

	res, err := env.service.Refresh(context.Background(), esg, "AAPL")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if !res.UpdatedAt.Equal(env.clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", res.UpdatedAt, env.clock.Now())
	}

	cached, err := env.service.Lookup(esg, "AAPL")
	if err != nil || cached == nil {
		t.Fatalf("Lookup() = %v, %v", cached, err)
	}
	if !cached.UpdatedAt.Equal(res.UpdatedAt) {
		t.Errorf("cached UpdatedAt = %v, fresh = %v", cached.UpdatedAt, res.UpdatedAt)
	}
}

func TestRefresh_SavesWhenCounterFails(t *testing.T) {
	env := newTestEnv(t, 200, `[{"date":"2024-01-01","total":42}]`)
	esg := mustLookup(t, "esg")

	_, err := env.database.ExecContext(context.Background(), `
		CREATE TRIGGER reject_counter BEFORE INSERT ON api_requests
		BEGIN SELECT RAISE(ABORT, 'counter unavailable'); END;
	`)
	if err != nil {
		t.Fatal(err)
	}

	res, err := env.service.Refresh(context.Background(), esg, "AAPL")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if res.Fallback {
		t.Error("fresh response should not be flagged as fallback")
	}

	cached, err := env.service.Lookup(esg, "AAPL")
	if err != nil || cached == nil {
		t.Fatalf("payload was not saved: %v, %v", cached, err)
	}
}
