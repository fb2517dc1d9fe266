package db

import (
	"testing"
	"time"

	"github.com/j-veylop/fincache-tui/internal/models"
)

func TestInsertCacheEntry(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	entry := &models.CacheEntry{
		Category: "esg",
		Symbol:   "AAPL",
		RawData:  `{"total":42}`,
	}

	if err := db.InsertCacheEntry(entry); err != nil {
		t.Fatalf("InsertCacheEntry() failed: %v", err)
	}

	if entry.ID == 0 {
		t.Error("InsertCacheEntry() should set ID")
	}
}

func TestGetLatestCacheEntry_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	entry, err := db.GetLatestCacheEntry("esg", "AAPL")
	if err != nil {
		t.Fatalf("GetLatestCacheEntry() failed: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil entry, got %+v", entry)
	}
}

func TestGetLatestCacheEntry_NewestWins(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	// Same timestamp for both rows; insertion order decides.
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	for _, raw := range []string{`{"v":1}`, `{"v":2}`} {
		if err := db.InsertCacheEntry(&models.CacheEntry{
			Category: "price", Symbol: "AAPL", RawData: raw, LastUpdated: ts,
		}); err != nil {
			t.Fatal(err)
		}
	}

	entry, err := db.GetLatestCacheEntry("price", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil {
		t.Fatal("expected entry")
	}
	if entry.RawData != `{"v":2}` {
		t.Errorf("RawData = %s, want {\"v\":2}", entry.RawData)
	}
	if !entry.LastUpdated.Equal(ts) {
		t.Errorf("LastUpdated = %v, want %v", entry.LastUpdated, ts)
	}
}

func TestGetLatestCacheEntry_KeyIsolation(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	_ = db.InsertCacheEntry(&models.CacheEntry{Category: "price", Symbol: "AAPL", RawData: "[1]"})
	_ = db.InsertCacheEntry(&models.CacheEntry{Category: "income", Symbol: "AAPL", RawData: "[2]"})

	entry, err := db.GetLatestCacheEntry("price", "AAPL")
	if err != nil || entry == nil {
		t.Fatalf("GetLatestCacheEntry() = %v, %v", entry, err)
	}
	if entry.RawData != "[1]" {
		t.Errorf("got %s from another category", entry.RawData)
	}

	if entry, _ := db.GetLatestCacheEntry("price", "MSFT"); entry != nil {
		t.Error("expected no entry for MSFT")
	}
}

func TestGetCacheSummary(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	older := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	newer := time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local)

	rows := []models.CacheEntry{
		{Category: "price", Symbol: "AAPL", RawData: "[]", LastUpdated: older},
		{Category: "price", Symbol: "AAPL", RawData: "[]", LastUpdated: newer},
		{Category: "price", Symbol: "MSFT", RawData: "[]", LastUpdated: older},
		{Category: "esg", Symbol: "AAPL", RawData: "{}", LastUpdated: older},
	}
	for i := range rows {
		if err := db.InsertCacheEntry(&rows[i]); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.GetCacheSummary("")
	if err != nil {
		t.Fatalf("GetCacheSummary() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 summary rows, got %d", len(all))
	}

	price, err := db.GetCacheSummary("price")
	if err != nil {
		t.Fatal(err)
	}
	if len(price) != 2 {
		t.Fatalf("expected 2 price rows, got %d", len(price))
	}
	if price[0].Symbol != "AAPL" || price[0].DataPoints != 2 {
		t.Errorf("AAPL row = %+v, want 2 data points", price[0])
	}
	if !price[0].LastUpdated.Equal(newer) {
		t.Errorf("AAPL LastUpdated = %v, want %v", price[0].LastUpdated, newer)
	}
	if price[1].Symbol != "MSFT" || price[1].DataPoints != 1 {
		t.Errorf("MSFT row = %+v, want 1 data point", price[1])
	}
}

func TestGetCacheSummary_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	summary, err := db.GetCacheSummary("")
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 0 {
		t.Errorf("expected empty summary, got %d rows", len(summary))
	}
}

func TestGetCachedSymbols(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, sym := range []string{"MSFT", "AAPL", "MSFT"} {
		_ = db.InsertCacheEntry(&models.CacheEntry{Category: "ratios", Symbol: sym, RawData: "[]"})
	}

	symbols, err := db.GetCachedSymbols("ratios")
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("GetCachedSymbols() = %v, want [AAPL MSFT]", symbols)
	}
}
