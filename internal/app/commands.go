package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/services"
	"github.com/j-veylop/fincache-tui/internal/services/market"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadBudgetCmd reads today's usage from the store.
func loadBudgetCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		status, err := mgr.Budget()
		return BudgetLoadedMsg{Status: status, Error: err}
	}
}

func exportCmd(mgr *services.Manager, d endpoints.Descriptor, key string) tea.Cmd {
	return func() tea.Msg {
		path, err := mgr.Export(d, key)
		if err != nil {
			return ExportResultMsg{Error: err}
		}
		return ExportResultMsg{Paths: []string{path}}
	}
}

func exportResultCmd(mgr *services.Manager, d endpoints.Descriptor, res *market.Result) tea.Cmd {
	return func() tea.Msg {
		path, err := mgr.ExportResult(d, res)
		if err != nil {
			return ExportResultMsg{Error: err}
		}
		return ExportResultMsg{Paths: []string{path}}
	}
}

func exportAllCmd(mgr *services.Manager, d endpoints.Descriptor) tea.Cmd {
	return func() tea.Msg {
		paths, err := mgr.ExportAll(d)
		return ExportResultMsg{Paths: paths, Error: err}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// Commands exposes the command constructors to the tabs.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// LoadBudget returns a command that reads today's usage.
func (c *Commands) LoadBudget() tea.Cmd {
	return loadBudgetCmd(c.manager)
}

// Export returns a command that exports the cached data for key.
func (c *Commands) Export(d endpoints.Descriptor, key string) tea.Cmd {
	return exportCmd(c.manager, d, key)
}

// ExportResult returns a command that exports an already loaded result.
func (c *Commands) ExportResult(d endpoints.Descriptor, res *market.Result) tea.Cmd {
	return exportResultCmd(c.manager, d, res)
}

// ExportAll returns a command that exports every cached key of a category.
func (c *Commands) ExportAll(d endpoints.Descriptor) tea.Cmd {
	return exportAllCmd(c.manager, d)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
