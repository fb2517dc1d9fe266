// Package cache stores API responses by category and symbol and enforces the
// daily request budget.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/j-veylop/fincache-tui/internal/db"
	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/models"
)

// DailyBudget is the number of API requests allowed per calendar day.
const DailyBudget = 250

// Manager is the cache and request-budget layer over the store.
type Manager struct {
	db    *db.DB
	clock clockwork.Clock
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for "today" and insertion timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// New creates a Manager backed by database.
func New(database *db.DB, opts ...Option) *Manager {
	m := &Manager{
		db:    database,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the current time on the manager's clock.
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}

// Today returns the current calendar date as stored in the counter table.
func (m *Manager) Today() string {
	return m.clock.Now().Format(db.DateLayout)
}

// RecordRequest counts one outbound request against today's budget.
func (m *Manager) RecordRequest(endpoint string) error {
	if err := m.db.IncrementRequestCount(endpoint, m.Today()); err != nil {
		return fmt.Errorf("record request for %s: %w", endpoint, err)
	}
	return nil
}

// DailyRequestCount returns the number of requests recorded today.
func (m *Manager) DailyRequestCount() (int, error) {
	return m.db.SumRequestCounts(m.Today())
}

// BudgetExhausted reports whether today's requests reached DailyBudget.
func (m *Manager) BudgetExhausted() (bool, error) {
	count, err := m.DailyRequestCount()
	if err != nil {
		return false, err
	}
	return count >= DailyBudget, nil
}

// Budget returns today's usage against DailyBudget.
func (m *Manager) Budget() (models.BudgetStatus, error) {
	count, err := m.DailyRequestCount()
	if err != nil {
		return models.BudgetStatus{}, err
	}
	return models.BudgetStatus{Date: m.Today(), Used: count, Limit: DailyBudget}, nil
}

// GetCached returns the decoded payload most recently saved for the key.
func (m *Manager) GetCached(category, symbol string) (any, bool, error) {
	entry, err := m.db.GetLatestCacheEntry(category, symbol)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}

	payload, err := Decode([]byte(entry.RawData))
	if err != nil {
		return nil, false, fmt.Errorf("decode cached %s/%s: %w", category, symbol, err)
	}
	return payload, true, nil
}

// Entry returns the raw row most recently saved for the key, or nil.
func (m *Manager) Entry(category, symbol string) (*models.CacheEntry, error) {
	return m.db.GetLatestCacheEntry(category, symbol)
}

// SaveData serializes payload and appends it as the newest row for the key.
func (m *Manager) SaveData(category, symbol string, payload any) error {
	return m.SaveDataAt(category, symbol, payload, m.clock.Now())
}

// SaveDataAt is SaveData with an explicit last-updated time.
func (m *Manager) SaveDataAt(category, symbol string, payload any, updated time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", category, symbol, err)
	}

	entry := &models.CacheEntry{
		Category:    category,
		Symbol:      symbol,
		RawData:     string(raw),
		LastUpdated: updated,
	}
	if err := m.db.InsertCacheEntry(entry); err != nil {
		return err
	}

	logger.Debug("cached response", "category", category, "symbol", symbol, "bytes", len(raw))
	return nil
}

// CacheSummary returns one row per cached category and symbol.
func (m *Manager) CacheSummary() ([]models.CacheSummary, error) {
	return m.db.GetCacheSummary("")
}

// CategorySummary returns the summary rows for a single category.
func (m *Manager) CategorySummary(category string) ([]models.CacheSummary, error) {
	return m.db.GetCacheSummary(category)
}

// Symbols returns the symbols cached for a category.
func (m *Manager) Symbols(category string) ([]string, error) {
	return m.db.GetCachedSymbols(category)
}

// UsageByEndpoint returns today's request counts per endpoint.
func (m *Manager) UsageByEndpoint() ([]models.EndpointUsage, error) {
	return m.db.GetRequestCounts(m.Today())
}

// UsageHistory returns one point per day for the last days days, ending
// today. Days without requests are reported as zero.
func (m *Manager) UsageHistory(days int) ([]models.DailyUsage, error) {
	if days <= 0 {
		return nil, nil
	}

	now := m.clock.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

	totals, err := m.db.GetDailyRequestTotals(start.Format(db.DateLayout))
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int, len(totals))
	for _, t := range totals {
		byDate[t.Date.Format(db.DateLayout)] = t.Count
	}

	history := make([]models.DailyUsage, days)
	for i := range history {
		day := start.AddDate(0, 0, i)
		history[i] = models.DailyUsage{Date: day, Count: byDate[day.Format(db.DateLayout)]}
	}
	return history, nil
}

// Decode parses a JSON document, keeping numbers as json.Number so values
// survive a save and reload without float rounding.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
