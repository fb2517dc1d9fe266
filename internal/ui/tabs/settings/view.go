package settings

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/fincache-tui/internal/ui/styles"
	"github.com/j-veylop/fincache-tui/internal/version"
)

// View renders the settings tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderSettingsCard(),
		m.renderPathsCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Settings")
	subtitle := styles.HelpStyle.Render("Stored in config.json; edits apply immediately")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderSettingsCard() string {
	current := m.current()

	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}
	for i, name := range m.keyNames {
		value, _ := current.Get(name)
		selected := i == m.cursor

		label := styles.ListItemStyle.Width(18).Render(name)
		if selected {
			label = styles.SelectedListItemStyle.Width(18).Render(name)
		}

		switch {
		case selected && m.editing:
			rows = append(rows, label+" "+m.input.View())
			if m.inputErr != "" {
				rows = append(rows, styles.ErrorTextStyle.Render("  "+m.inputErr))
			}
		default:
			valueStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
			rows = append(rows, label+" "+valueStyle.Render(value))
		}
		if selected {
			rows = append(rows, styles.HelpStyle.Render("  "+descriptions[name]))
		}
	}

	rows = append(rows, "")
	if m.editing {
		rows = append(rows, styles.HelpStyle.Render("enter save • esc cancel"))
	} else {
		rows = append(rows, styles.HelpStyle.Render("enter edit"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderPathsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Files"), ""}

	if m.services != nil {
		rows = append(rows,
			renderRow("Config File", m.services.SettingsPath()),
			renderRow("Open Database", m.services.DatabasePath()),
		)
		if pending := m.services.Settings().DatabasePath; pending != m.services.DatabasePath() {
			rows = append(rows, styles.WarningTextStyle.Render("Restart to switch to "+pending))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Services not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About fincache"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
