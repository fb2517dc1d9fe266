// Package cache provides the tab showing API usage and cached data.
package cache

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/fincache-tui/internal/app"
	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/services"
	"github.com/j-veylop/fincache-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the cache tab.
type keyMap struct {
	ToggleRange key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// snapshot is everything the tab shows, read in one pass.
type snapshot struct {
	projection *models.BudgetProjection
	budget     models.BudgetStatus
	endpoints  []models.EndpointUsage
	history    []models.DailyUsage
	summary    []models.CacheSummary
}

type snapshotLoadedMsg struct {
	data snapshot
}

type snapshotErrorMsg struct {
	err error
}

// Model represents the cache tab state.
type Model struct {
	state      *app.State
	services   *services.Manager
	budgetBar  components.BudgetBar
	data       *snapshot
	lastLoaded time.Time
	errorMsg   string
	keys       keyMap
	viewport   viewport.Model
	timeRange  models.TimeRange
	width      int
	height     int
	loading    bool
}

// New creates a new cache tab.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:     state,
		services:  svc,
		budgetBar: components.NewBudgetBar(),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange14Days,
	}
}

// Init loads the first snapshot.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

func (m *Model) loadCmd() tea.Cmd {
	svc := m.services
	days := m.timeRange.Days()
	return func() tea.Msg {
		if svc == nil {
			return snapshotErrorMsg{err: fmt.Errorf("services not initialized")}
		}

		var s snapshot
		var err error
		if s.budget, err = svc.Budget(); err != nil {
			return snapshotErrorMsg{err: err}
		}
		if s.endpoints, err = svc.UsageByEndpoint(); err != nil {
			return snapshotErrorMsg{err: err}
		}
		if s.history, err = svc.UsageHistory(days); err != nil {
			return snapshotErrorMsg{err: err}
		}
		if s.summary, err = svc.CacheSummary(); err != nil {
			return snapshotErrorMsg{err: err}
		}
		if s.projection, err = svc.Projection(); err != nil {
			return snapshotErrorMsg{err: err}
		}
		return snapshotLoadedMsg{data: s}
	}
}

// Update handles messages for the cache tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotLoadedMsg:
		m.data = &msg.data
		m.loading = false
		m.errorMsg = ""
		m.lastLoaded = time.Now()

	case snapshotErrorMsg:
		m.loading = false
		m.errorMsg = msg.err.Error()
		return m, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("Cache error: %s", m.errorMsg),
				Duration: app.LongNotificationDuration,
			}
		}

	case app.RefreshMsg:
		return m, m.reload()

	case app.ServiceEventMsg:
		switch msg.Event.(type) {
		case services.BudgetEvent, services.DataFetchedEvent:
			return m, m.reload()
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ToggleRange) {
			m.timeRange = m.timeRange.Next()
			m.loading = false
			return m, m.reload()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) reload() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	return m.loadCmd()
}

// SetSize sets the available size for the cache tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleRange, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.ToggleRange}, {m.keys.Up, m.keys.Down}}
}
