// Package settings provides the tab for viewing and editing config.json.
package settings

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/fincache-tui/internal/app"
	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/services"
)

var descriptions = map[string]string{
	config.KeyDatabasePath: "SQLite database file (applies on restart)",
	config.KeyExportFormat: "csv or xlsx",
	config.KeyExportDir:    "Directory for exported files",
}

// keyMap defines the key bindings specific to the settings tab.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Edit   key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit / save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the settings tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	keys     keyMap
	input    textinput.Model
	viewport viewport.Model
	keyNames []string
	inputErr string
	cursor   int
	width    int
	height   int
	editing  bool
}

// New creates a new settings tab.
func New(state *app.State, svc *services.Manager) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256

	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		input:    ti,
		viewport: viewport.New(0, 0),
		keyNames: config.Keys(),
	}
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether a value is being edited.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.editing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.editing {
		return m, m.handleEditKey(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(keyMsg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.keyNames)-1)
	case key.Matches(keyMsg, m.keys.Edit):
		return m, m.startEdit()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) startEdit() tea.Cmd {
	value, _ := m.current().Get(m.keyNames[m.cursor])
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.inputErr = ""
	m.editing = true
	return m.input.Focus()
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopEdit()
		return nil

	case key.Matches(msg, m.keys.Edit):
		name := m.keyNames[m.cursor]
		if m.services == nil {
			m.inputErr = "services not initialized"
			return nil
		}
		if err := m.services.UpdateSetting(name, m.input.Value()); err != nil {
			m.inputErr = err.Error()
			return nil
		}
		m.stopEdit()

		if name == config.KeyDatabasePath && m.services.Settings().DatabasePath != m.services.DatabasePath() {
			return notify(app.NotificationWarning, "Database path saved; it takes effect on next start")
		}
		return notify(app.NotificationSuccess, fmt.Sprintf("Saved %s", name))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) stopEdit() {
	m.editing = false
	m.inputErr = ""
	m.input.Blur()
}

// current returns the live settings, falling back to the shared state.
func (m *Model) current() config.Settings {
	if m.services != nil {
		return m.services.Settings()
	}
	return m.state.GetSettings()
}

func notify(t app.NotificationType, message string) tea.Cmd {
	return func() tea.Msg {
		return app.AddNotificationMsg{
			Type:     t,
			Message:  message,
			Duration: app.DefaultNotificationDuration,
		}
	}
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.Width = max(min(width-30, 60), 20)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.Edit, m.keys.Cancel}
	}
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Edit}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Edit, m.keys.Cancel},
	}
}
