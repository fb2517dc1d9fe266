package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/fincache-tui/internal/ui/styles"
)

// LoadingSpinner wraps a bubble spinner with a label and an active flag so
// views can show it only while a request is in flight.
type LoadingSpinner struct {
	spinner spinner.Model
	label   string
	style   lipgloss.Style
	active  bool
}

// NewSpinner creates an inactive spinner with the given label.
func NewSpinner(label string) LoadingSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return LoadingSpinner{
		spinner: s,
		label:   label,
		style:   lipgloss.NewStyle().Foreground(styles.TextSecondary),
	}
}

// Start activates the spinner with a new label and returns its tick.
func (l *LoadingSpinner) Start(label string) tea.Cmd {
	l.label = label
	l.active = true
	return l.spinner.Tick
}

// Stop deactivates the spinner. Pending ticks are ignored.
func (l *LoadingSpinner) Stop() {
	l.active = false
}

// Active reports whether the spinner is running.
func (l LoadingSpinner) Active() bool {
	return l.active
}

// Update advances the spinner while it is active.
func (l LoadingSpinner) Update(msg tea.Msg) (LoadingSpinner, tea.Cmd) {
	if !l.active {
		return l, nil
	}
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// View renders the spinner frame with its label.
func (l LoadingSpinner) View() string {
	return l.spinner.View() + " " + l.style.Render(l.label)
}

// Label returns the current label.
func (l LoadingSpinner) Label() string {
	return l.label
}

// RenderSpinnerCentered renders a spinner centered in a given width and height.
func RenderSpinnerCentered(s *LoadingSpinner, width, height int) string {
	return styles.CenterBoth(s.View(), width, height)
}
