// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/jonboulle/clockwork"

	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/db"
	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/export"
	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/services/cache"
	"github.com/j-veylop/fincache-tui/internal/services/market"
	"github.com/j-veylop/fincache-tui/internal/services/projection"
	"github.com/j-veylop/fincache-tui/internal/services/settings"
)

const (
	// Budget share at which a warning notification is sent.
	budgetWarnFraction = 0.8

	// Days of history behind the budget projection.
	projectionDays = 14
)

type (
	// SettingsChangedEvent is emitted when config.json changes.
	SettingsChangedEvent struct {
		Settings config.Settings
		Previous config.Settings
		// RestartRequired is set when the database path changed.
		RestartRequired bool
	}

	// BudgetEvent is emitted after each refresh with today's usage.
	BudgetEvent struct {
		Status models.BudgetStatus
	}

	// DataFetchedEvent is emitted when a fresh response was cached.
	DataFetchedEvent struct {
		Category string
		Key      string
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SettingsChangedEvent) isServiceEvent() {}
func (BudgetEvent) isServiceEvent()          {}
func (DataFetchedEvent) isServiceEvent()     {}
func (ErrorEvent) isServiceEvent()           {}

// Option configures a Manager.
type Option func(*options)

type options struct {
	clock     clockwork.Clock
	transport http.RoundTripper
	notify    func(title, body string) error
}

// WithClock sets the clock used for the budget day and file timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithTransport sets the HTTP transport used for API calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithNotifier replaces desktop notifications.
func WithNotifier(notify func(title, body string) error) Option {
	return func(o *options) { o.notify = notify }
}

// Manager orchestrates services and event routing.
type Manager struct {
	database    *db.DB
	settings    *settings.Service
	cache       *cache.Manager
	market      *market.Service
	projection  *projection.Service
	exporter    *export.Exporter
	notify      func(title, body string) error
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	lastUsed    int
	mu          sync.RWMutex
	budgetMu    sync.Mutex
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	o := options{
		clock: clockwork.NewRealClock(),
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		notify:   o.notify,
		stopChan: make(chan struct{}),
	}

	var err error
	m.settings, err = settings.New(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(m.settings.Current().DatabasePath)
	if err != nil {
		_ = m.settings.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.cache = cache.New(m.database, cache.WithClock(o.clock))

	client := market.NewClient(market.ClientConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.HTTPTimeout,
		Transport:         o.transport,
		RequestsPerSecond: market.DefaultClientConfig().RequestsPerSecond,
	})
	m.market = market.NewService(client, m.cache)
	m.projection = projection.New(o.clock)
	m.exporter = export.New(m.settings, o.clock)

	if used, err := m.cache.DailyRequestCount(); err == nil {
		m.lastUsed = used
	}

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.settings.Events():
			m.handleSettingsEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleSettingsEvent(event settings.Event) {
	switch event.Type {
	case settings.EventChanged:
		m.broadcast(SettingsChangedEvent{
			Settings:        event.Settings,
			Previous:        event.Previous,
			RestartRequired: event.Settings.DatabasePath != m.database.Path(),
		})

	case settings.EventError:
		m.broadcast(ErrorEvent{
			Service: "settings",
			Error:   event.Error,
		})
	}
}

// Lookup returns the cached result for key, or nil when nothing is cached.
func (m *Manager) Lookup(d endpoints.Descriptor, key string) (*market.Result, error) {
	return m.market.Lookup(d, key)
}

// Refresh fetches key from the API, falling back to cached data when the
// budget is spent or the call fails.
func (m *Manager) Refresh(ctx context.Context, d endpoints.Descriptor, key string) (*market.Result, error) {
	res, err := m.market.Refresh(ctx, d, key)
	if err == nil && !res.Fallback {
		m.broadcast(DataFetchedEvent{Category: d.Category, Key: key})
	}
	m.checkBudget()
	return res, err
}

// checkBudget broadcasts today's usage and notifies when it crosses the
// warning share or the full budget.
func (m *Manager) checkBudget() {
	status, err := m.cache.Budget()
	if err != nil {
		logger.Error("failed to read budget", "error", err)
		return
	}

	m.budgetMu.Lock()
	prev := m.lastUsed
	m.lastUsed = status.Used
	m.budgetMu.Unlock()

	m.broadcast(BudgetEvent{Status: status})

	warnAt := int(float64(status.Limit) * budgetWarnFraction)
	switch {
	case prev < status.Limit && status.Used >= status.Limit:
		m.sendNotification("API budget exhausted",
			fmt.Sprintf("All %d requests for %s are used. Cached data only until tomorrow.", status.Limit, status.Date))
	case prev < warnAt && status.Used >= warnAt:
		m.sendNotification("API budget running low",
			fmt.Sprintf("%d of %d requests used today (%d left).", status.Used, status.Limit, status.Remaining()))
	}
}

func (m *Manager) sendNotification(title, body string) {
	if m.notify == nil {
		return
	}
	if err := m.notify(title, body); err != nil {
		logger.Warn("desktop notification failed", "error", err)
	}
}

// ExportResult writes a result's full record set to a file.
func (m *Manager) ExportResult(d endpoints.Descriptor, res *market.Result) (string, error) {
	table, err := d.Table(res.Key, res.Payload)
	if err != nil {
		return "", err
	}
	headers, rows := table.ExportData()
	return m.exporter.Export(d.ExportBase(res.Key), headers, rows)
}

// Export writes the cached data for key to a file.
func (m *Manager) Export(d endpoints.Descriptor, key string) (string, error) {
	res, err := m.Lookup(d, key)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", fmt.Errorf("no cached %s data for %s", d.Title, key)
	}
	return m.ExportResult(d, res)
}

// ExportAll writes one file per cached key of the category. Keys that fail
// are skipped and reported in the joined error.
func (m *Manager) ExportAll(d endpoints.Descriptor) ([]string, error) {
	keys, err := m.cache.Symbols(d.Category)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no %s data available to export", d.Title)
	}

	var paths []string
	var errs []error
	for _, key := range keys {
		path, err := m.Export(d, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// Budget returns today's usage against the daily budget.
func (m *Manager) Budget() (models.BudgetStatus, error) {
	return m.cache.Budget()
}

// Projection forecasts today's usage from the pace so far and recent days.
func (m *Manager) Projection() (*models.BudgetProjection, error) {
	status, err := m.cache.Budget()
	if err != nil {
		return nil, err
	}
	history, err := m.cache.UsageHistory(projectionDays)
	if err != nil {
		return nil, err
	}
	return m.projection.Calculate(status, history), nil
}

// CacheSummary returns one row per cached category and symbol.
func (m *Manager) CacheSummary() ([]models.CacheSummary, error) {
	return m.cache.CacheSummary()
}

// CategorySummary returns the cached keys of one category.
func (m *Manager) CategorySummary(category string) ([]models.CacheSummary, error) {
	return m.cache.CategorySummary(category)
}

// UsageHistory returns daily request totals for the last days days.
func (m *Manager) UsageHistory(days int) ([]models.DailyUsage, error) {
	return m.cache.UsageHistory(days)
}

// UsageByEndpoint returns today's request counts per endpoint.
func (m *Manager) UsageByEndpoint() ([]models.EndpointUsage, error) {
	return m.cache.UsageByEndpoint()
}

// Settings returns the current settings.
func (m *Manager) Settings() config.Settings {
	return m.settings.Current()
}

// SettingsPath returns the settings file path.
func (m *Manager) SettingsPath() string {
	return m.settings.Path()
}

// UpdateSetting validates and persists one setting.
func (m *Manager) UpdateSetting(key, value string) error {
	return m.settings.Update(key, value)
}

// DatabasePath returns the path of the open database.
func (m *Manager) DatabasePath() string {
	return m.database.Path()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if err := m.settings.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := m.database.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
