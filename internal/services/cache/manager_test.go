package cache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/j-veylop/fincache-tui/internal/db"
)

func newTestManager(t *testing.T) (*Manager, *clockwork.FakeClock) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 3, 9, 30, 0, 0, time.Local))
	return New(database, WithClock(clock)), clock
}

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode(%s) failed: %v", s, err)
	}
	return v
}

func TestGetCached_Empty(t *testing.T) {
	m, _ := newTestManager(t)

	payload, found, err := m.GetCached("esg", "AAPL")
	if err != nil {
		t.Fatalf("GetCached() failed: %v", err)
	}
	if found || payload != nil {
		t.Errorf("GetCached() = %v, %v; want nothing", payload, found)
	}
}

func TestSaveData_RoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.SaveData("esg", "AAPL", map[string]any{"total": 42}); err != nil {
		t.Fatalf("SaveData() failed: %v", err)
	}

	payload, found, err := m.GetCached("esg", "AAPL")
	if err != nil || !found {
		t.Fatalf("GetCached() = %v, %v", found, err)
	}

	want := map[string]any{"total": json.Number("42")}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Errorf("GetCached() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveData_RoundTripWithPriorRows(t *testing.T) {
	m, clock := newTestManager(t)

	docs := []string{
		`[{"date":"2023-12-31","revenue":383285000000}]`,
		`{"profile":{"companyName":"Apple Inc.","price":189.98,"beta":1.286},"ratios":[]}`,
		`[{"date":"2024-03-31","eps":1.53,"nested":{"a":[1,2,3],"b":null}}]`,
	}

	for _, doc := range docs {
		clock.Advance(time.Minute)
		want := mustDecode(t, doc)
		if err := m.SaveData("income", "AAPL", want); err != nil {
			t.Fatal(err)
		}

		got, found, err := m.GetCached("income", "AAPL")
		if err != nil || !found {
			t.Fatalf("GetCached() = %v, %v", found, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSaveData_LatestWins(t *testing.T) {
	m, _ := newTestManager(t)

	// Same clock reading for both saves.
	_ = m.SaveData("price", "AAPL", mustDecode(t, `{"close":1}`))
	_ = m.SaveData("price", "AAPL", mustDecode(t, `{"close":2}`))

	got, _, err := m.GetCached("price", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(mustDecode(t, `{"close":2}`), got); diff != "" {
		t.Errorf("latest row mismatch (-want +got):\n%s", diff)
	}
}

func TestEntry_Timestamp(t *testing.T) {
	m, clock := newTestManager(t)

	_ = m.SaveData("ratios", "MSFT", []any{})

	entry, err := m.Entry("ratios", "MSFT")
	if err != nil || entry == nil {
		t.Fatalf("Entry() = %v, %v", entry, err)
	}
	if !entry.LastUpdated.Equal(clock.Now()) {
		t.Errorf("LastUpdated = %v, want %v", entry.LastUpdated, clock.Now())
	}
}

func TestDailyRequestCount(t *testing.T) {
	m, clock := newTestManager(t)

	for i := 0; i < 5; i++ {
		endpoint := "/v3/ratios"
		if i%2 == 0 {
			endpoint = "/v4/price-target"
		}
		if err := m.RecordRequest(endpoint); err != nil {
			t.Fatalf("RecordRequest() failed: %v", err)
		}
	}

	count, err := m.DailyRequestCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("DailyRequestCount() = %d, want 5", count)
	}

	// New calendar day starts from zero.
	clock.Advance(24 * time.Hour)
	count, _ = m.DailyRequestCount()
	if count != 0 {
		t.Errorf("DailyRequestCount() after midnight = %d, want 0", count)
	}
}

func TestBudgetExhausted_Boundary(t *testing.T) {
	m, _ := newTestManager(t)

	for i := 0; i < DailyBudget-1; i++ {
		if err := m.RecordRequest("/v3/profile"); err != nil {
			t.Fatal(err)
		}
	}

	exhausted, err := m.BudgetExhausted()
	if err != nil {
		t.Fatal(err)
	}
	if exhausted {
		t.Error("BudgetExhausted() = true at 249 requests")
	}
	if b, _ := m.Budget(); b.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1", b.Remaining())
	}

	_ = m.RecordRequest("/v3/profile")

	exhausted, _ = m.BudgetExhausted()
	if !exhausted {
		t.Error("BudgetExhausted() = false at 250 requests")
	}
	if b, _ := m.Budget(); b.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", b.Remaining())
	}
}

func TestBudgetExhausted_ResetsNextDay(t *testing.T) {
	m, clock := newTestManager(t)

	for i := 0; i < DailyBudget; i++ {
		_ = m.RecordRequest("/v3/grades")
	}
	if exhausted, _ := m.BudgetExhausted(); !exhausted {
		t.Fatal("expected exhausted budget")
	}

	clock.Advance(15 * time.Hour)
	if exhausted, _ := m.BudgetExhausted(); exhausted {
		t.Error("budget should reset on a new calendar day")
	}
}

func TestCacheSummary(t *testing.T) {
	m, _ := newTestManager(t)

	summary, err := m.CacheSummary()
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 0 {
		t.Errorf("expected empty summary, got %d rows", len(summary))
	}

	_ = m.SaveData("price", "AAPL", []any{})
	_ = m.SaveData("price", "AAPL", []any{})
	_ = m.SaveData("price", "MSFT", []any{})

	summary, err = m.CacheSummary()
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]int{}
	for _, s := range summary {
		got[s.Category+"/"+s.Symbol] = s.DataPoints
	}
	want := map[string]int{"price/AAPL": 2, "price/MSFT": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CacheSummary() mismatch (-want +got):\n%s", diff)
	}

	symbols, _ := m.Symbols("price")
	if diff := cmp.Diff([]string{"AAPL", "MSFT"}, symbols); diff != "" {
		t.Errorf("Symbols() mismatch (-want +got):\n%s", diff)
	}

	if rows, _ := m.CategorySummary("esg"); len(rows) != 0 {
		t.Errorf("CategorySummary(esg) = %v, want empty", rows)
	}
}

func TestUsageHistory(t *testing.T) {
	m, clock := newTestManager(t)

	_ = m.RecordRequest("/a")
	clock.Advance(48 * time.Hour)
	_ = m.RecordRequest("/a")
	_ = m.RecordRequest("/b")

	history, err := m.UsageHistory(3)
	if err != nil {
		t.Fatal(err)
	}

	var counts []int
	for _, d := range history {
		counts = append(counts, d.Count)
	}
	if diff := cmp.Diff([]int{1, 0, 2}, counts); diff != "" {
		t.Errorf("UsageHistory() mismatch (-want +got):\n%s", diff)
	}
	if got := history[2].Date.Format("2006-01-02"); got != m.Today() {
		t.Errorf("last day = %s, want %s", got, m.Today())
	}

	usage, _ := m.UsageByEndpoint()
	if len(usage) != 2 {
		t.Errorf("UsageByEndpoint() = %v, want 2 endpoints", usage)
	}
}
