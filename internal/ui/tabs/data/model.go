// Package data provides the tab for fetching, viewing and exporting
// endpoint data.
package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/fincache-tui/internal/app"
	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/services"
	"github.com/j-veylop/fincache-tui/internal/services/market"
	"github.com/j-veylop/fincache-tui/internal/ui/components"
)

type mode int

const (
	modeEndpoints mode = iota
	modeActions
	modeInput
	modeConfirm
	modeLoading
	modeTable
	modeCached
)

type purpose int

const (
	purposeFetch purpose = iota
	purposeExport
)

const (
	actionGet = iota
	actionViewCached
	actionExport
	actionBack
)

var actionLabels = []string{"Get data", "View cached data", "Export data", "Back"}

// keyMap defines the key bindings specific to the data tab.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Back      key.Binding
	Export    key.Binding
	ExportAll key.Binding
	Yes       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		ExportAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "export all")),
		Yes:       key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "refresh from API")),
	}
}

// lookupMsg carries the cached result for a key, or nil when none exists.
type lookupMsg struct {
	err    error
	result *market.Result
	key    string
	direct bool
}

// fetchedMsg carries the outcome of an API refresh.
type fetchedMsg struct {
	err    error
	result *market.Result
	key    string
}

// cachedListMsg carries the cached keys of the current category.
type cachedListMsg struct {
	err   error
	items []models.CacheSummary
}

// Model represents the data tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	commands *app.Commands

	current   endpoints.Descriptor
	result    *market.Result
	view      *endpoints.Table
	endpoints []endpoints.Descriptor
	cached    []models.CacheSummary

	input   textinput.Model
	table   table.Model
	spinner components.LoadingSpinner
	keys    keyMap

	pending  string
	inputErr string

	mode      mode
	returnTo  mode
	purpose   purpose
	cursor    int
	actionIdx int
	width     int
	height    int
}

// New creates a new data tab.
func New(state *app.State, svc *services.Manager) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 32

	return &Model{
		state:     state,
		services:  svc,
		commands:  app.NewCommands(svc),
		endpoints: endpoints.All(),
		input:     ti,
		spinner:   components.NewSpinner(""),
		keys:      defaultKeyMap(),
	}
}

// Init initializes the data tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether the symbol prompt owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.mode == modeInput
}

// Update handles messages for the data tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case lookupMsg:
		return m, m.handleLookup(msg)

	case fetchedMsg:
		return m, m.handleFetched(msg)

	case cachedListMsg:
		if msg.err != nil {
			m.mode = modeActions
			return m, m.commands.NotifyError(fmt.Sprintf("Failed to read cache: %v", msg.err))
		}
		m.cached = msg.items
		m.table = newCachedTable(msg.items, m.tableHeight())
		return m, nil

	case app.RefreshMsg:
		if m.mode == modeCached {
			return m, m.loadCachedCmd()
		}

	default:
		if m.spinner.Active() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		if m.mode == modeInput {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case modeEndpoints:
		return m.handleEndpointsKey(msg)
	case modeActions:
		return m.handleActionsKey(msg)
	case modeInput:
		return m.handleInputKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeTable:
		return m.handleTableKey(msg)
	case modeCached:
		return m.handleCachedKey(msg)
	}
	return nil
}

func (m *Model) handleEndpointsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.endpoints)-1)
	case key.Matches(msg, m.keys.Select):
		m.current = m.endpoints[m.cursor]
		m.actionIdx = actionGet
		m.mode = modeActions
	}
	return nil
}

func (m *Model) handleActionsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.actionIdx = max(m.actionIdx-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.actionIdx = min(m.actionIdx+1, len(actionLabels)-1)
	case key.Matches(msg, m.keys.Back):
		m.mode = modeEndpoints
	case key.Matches(msg, m.keys.Select):
		switch m.actionIdx {
		case actionGet:
			return m.startInput(purposeFetch)
		case actionViewCached:
			m.mode = modeCached
			m.cached = nil
			return m.loadCachedCmd()
		case actionExport:
			return m.startInput(purposeExport)
		case actionBack:
			m.mode = modeEndpoints
		}
	}
	return nil
}

func (m *Model) startInput(p purpose) tea.Cmd {
	m.purpose = p
	m.inputErr = ""
	m.input.Reset()
	m.input.Placeholder = m.current.PromptText()
	m.mode = modeInput
	return m.input.Focus()
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.mode = modeActions
		return nil

	case tea.KeyEnter:
		k := m.current.NormalizeKey(m.input.Value())
		if k == "" {
			m.inputErr = fmt.Sprintf("No %s entered.", m.current.Label())
			return nil
		}
		m.input.Blur()
		m.inputErr = ""

		if m.purpose == purposeExport {
			m.mode = modeActions
			return m.commands.Export(m.current, k)
		}
		return m.lookupCmd(k, false)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Yes) {
		return m.startFetch(m.pending)
	}
	// Anything else keeps the cached copy.
	return m.showResult(m.result, modeActions)
}

func (m *Model) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = m.returnTo
		if m.mode == modeCached {
			return m.loadCachedCmd()
		}
		return nil
	case key.Matches(msg, m.keys.Export):
		if m.result != nil {
			return m.commands.ExportResult(m.current, m.result)
		}
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) handleCachedKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeActions
		return nil
	case key.Matches(msg, m.keys.ExportAll):
		return m.commands.ExportAll(m.current)
	}

	selected := m.selectedSymbol()
	if selected == "" {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Select):
		return m.lookupCmd(selected, true)
	case key.Matches(msg, m.keys.Export):
		return m.commands.Export(m.current, selected)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) handleLookup(msg lookupMsg) tea.Cmd {
	if msg.err != nil {
		m.mode = modeActions
		return m.commands.NotifyError(fmt.Sprintf("Failed to read cache: %v", msg.err))
	}

	if msg.direct {
		if msg.result == nil {
			return m.commands.NotifyWarning(fmt.Sprintf("No cached %s data for %s", m.current.Title, msg.key))
		}
		return m.showResult(msg.result, modeCached)
	}

	if msg.result != nil {
		m.result = msg.result
		m.pending = msg.key
		m.mode = modeConfirm
		return nil
	}
	return m.startFetch(msg.key)
}

func (m *Model) handleFetched(msg fetchedMsg) tea.Cmd {
	m.spinner.Stop()

	if msg.err != nil {
		m.mode = modeActions
		switch {
		case errors.Is(msg.err, market.ErrNoData):
			return m.commands.NotifyWarning(fmt.Sprintf("No %s data available for %s.", m.current.Title, msg.key))
		case errors.Is(msg.err, market.ErrBudgetExhausted):
			return m.commands.NotifyWarning(fmt.Sprintf("%v. No cached data available for %s.", msg.err, msg.key))
		default:
			return m.commands.NotifyError(fmt.Sprintf("Error fetching %s: %v", m.current.Title, msg.err))
		}
	}

	cmd := m.showResult(msg.result, modeActions)
	if msg.result.Fallback {
		return tea.Batch(cmd, m.commands.NotifyWarning(fmt.Sprintf("%v. Using cached data instead.", msg.result.Err)))
	}
	return cmd
}

// showResult renders res as a table; back returns to returnTo.
func (m *Model) showResult(res *market.Result, returnTo mode) tea.Cmd {
	view, err := m.current.Table(res.Key, res.Payload)
	if err != nil {
		m.mode = returnTo
		return m.commands.NotifyWarning(fmt.Sprintf("%s for %s: %v", m.current.Title, res.Key, err))
	}

	m.result = res
	m.view = view
	m.table = newDataTable(view, m.tableHeight())
	m.returnTo = returnTo
	m.mode = modeTable
	return nil
}

func (m *Model) startFetch(k string) tea.Cmd {
	m.mode = modeLoading
	label := fmt.Sprintf("Fetching %s for %s from API...", m.current.Title, k)

	d := m.current
	svc := m.services
	fetch := func() tea.Msg {
		if svc == nil {
			return fetchedMsg{key: k, err: errors.New("services not initialized")}
		}
		res, err := svc.Refresh(context.Background(), d, k)
		return fetchedMsg{key: k, result: res, err: err}
	}
	return tea.Batch(m.spinner.Start(label), fetch)
}

func (m *Model) lookupCmd(k string, direct bool) tea.Cmd {
	d := m.current
	svc := m.services
	return func() tea.Msg {
		if svc == nil {
			return lookupMsg{key: k, direct: direct, err: errors.New("services not initialized")}
		}
		res, err := svc.Lookup(d, k)
		return lookupMsg{key: k, result: res, err: err, direct: direct}
	}
}

func (m *Model) loadCachedCmd() tea.Cmd {
	category := m.current.Category
	svc := m.services
	return func() tea.Msg {
		if svc == nil {
			return cachedListMsg{err: errors.New("services not initialized")}
		}
		items, err := svc.CategorySummary(category)
		return cachedListMsg{items: items, err: err}
	}
}

func (m *Model) tableHeight() int {
	return max(m.height-8, 5)
}

// SetSize sets the available size for the data tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-12, 20)
	m.table.SetHeight(m.tableHeight())
}

// ShortHelp returns the key bindings for the current screen.
func (m *Model) ShortHelp() []key.Binding {
	switch m.mode {
	case modeTable:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Export, m.keys.Back}
	case modeCached:
		return []key.Binding{m.keys.Select, m.keys.Export, m.keys.ExportAll, m.keys.Back}
	case modeConfirm:
		return []key.Binding{m.keys.Yes}
	default:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Back}
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Back},
		{m.keys.Export, m.keys.ExportAll, m.keys.Yes},
	}
}
