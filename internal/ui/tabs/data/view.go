package data

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/ui/components"
	"github.com/j-veylop/fincache-tui/internal/ui/styles"
)

const maxColumnWidth = 24

// View renders the data tab.
func (m *Model) View() string {
	var content string

	switch m.mode {
	case modeEndpoints:
		content = m.renderEndpoints()
	case modeActions:
		content = m.renderActions()
	case modeInput:
		content = m.renderInput()
	case modeConfirm:
		content = m.renderConfirm()
	case modeLoading:
		return components.RenderSpinnerCentered(&m.spinner, m.width, m.height)
	case modeTable:
		content = m.renderTable()
	case modeCached:
		content = m.renderCached()
	}

	return styles.DocStyle.Render(content)
}

func (m *Model) renderEndpoints() string {
	rows := []string{
		styles.TitleStyle.Render("Financial Data"),
		styles.HelpStyle.Render("Select an endpoint"),
		"",
	}
	for i, d := range m.endpoints {
		rows = append(rows, renderItem(d.Title, i == m.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderActions() string {
	rows := []string{
		styles.TitleStyle.Render(m.current.Title),
		styles.HelpStyle.Render(m.current.Path),
		"",
	}
	for i, label := range actionLabels {
		rows = append(rows, renderItem(label, i == m.actionIdx))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderInput() string {
	heading := "Get " + m.current.Title
	if m.purpose == purposeExport {
		heading = "Export " + m.current.Title
	}

	rows := []string{
		styles.TitleStyle.Render(heading),
		styles.HelpStyle.Render(m.current.PromptText()),
		"",
		m.input.View(),
	}
	if m.inputErr != "" {
		rows = append(rows, "", styles.ErrorTextStyle.Render(m.inputErr))
	}
	rows = append(rows, "", styles.HelpStyle.Render("enter confirm • esc cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderConfirm() string {
	updated := ""
	if m.result != nil && !m.result.UpdatedAt.IsZero() {
		updated = fmt.Sprintf(" (updated %s)", humanize.Time(m.result.UpdatedAt))
	}

	question := fmt.Sprintf("Found cached %s data for %s%s.", m.current.Title, m.pending, updated)
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render(m.current.Title),
		"",
		question,
		styles.WarningTextStyle.Render("Refresh from API? (y/N)"),
	)
}

func (m *Model) renderTable() string {
	if m.view == nil {
		return ""
	}

	var badge string
	switch {
	case m.result.Fallback:
		badge = styles.WarningTextStyle.Render("cached (refresh failed)")
	case m.result.FromCache:
		badge = styles.CachedBadgeStyle.Render("cached")
	default:
		badge = styles.SuccessTextStyle.Render("fresh")
	}

	meta := badge
	if !m.result.UpdatedAt.IsZero() {
		meta += styles.HelpStyle.Render(" • updated " + humanize.Time(m.result.UpdatedAt))
	}

	footer := fmt.Sprintf("%s rows • e export • esc back", humanize.Comma(int64(len(m.view.Records))))

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render(m.view.Title),
		meta,
		"",
		m.table.View(),
		"",
		styles.HelpStyle.Render(footer),
	)
}

func (m *Model) renderCached() string {
	rows := []string{
		styles.TitleStyle.Render("Cached " + m.current.Title),
		"",
	}

	if len(m.cached) == 0 {
		rows = append(rows,
			styles.HelpStyle.Render(fmt.Sprintf("No cached %s data.", m.current.Title)),
			"",
			styles.HelpStyle.Render("esc back"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	rows = append(rows,
		m.table.View(),
		"",
		styles.HelpStyle.Render("enter view • e export • a export all • esc back"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderItem(label string, selected bool) string {
	if selected {
		return styles.SelectedListItemStyle.Render("> " + label)
	}
	return styles.ListItemStyle.Render("  " + label)
}

// newDataTable builds a table for an endpoint view.
func newDataTable(view *endpoints.Table, height int) table.Model {
	rows := view.Rows(0)

	cols := make([]table.Column, len(view.Columns))
	for i, c := range view.Columns {
		width := lipgloss.Width(c.Header)
		for _, r := range rows {
			width = max(width, lipgloss.Width(r[i]))
		}
		cols[i] = table.Column{Title: c.Header, Width: min(width, maxColumnWidth)}
	}

	return newTable(cols, toRows(rows), height)
}

// newCachedTable builds the table of cached keys.
func newCachedTable(items []models.CacheSummary, height int) table.Model {
	cols := []table.Column{
		{Title: "Symbol", Width: 12},
		{Title: "Last Updated", Width: 20},
		{Title: "Data Points", Width: 12},
	}

	rows := make([]table.Row, len(items))
	for i, item := range items {
		rows[i] = table.Row{
			item.Symbol,
			humanize.Time(item.LastUpdated),
			humanize.Comma(int64(item.DataPoints)),
		}
	}

	return newTable(cols, rows, height)
}

func newTable(cols []table.Column, rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Cell = styles.TableCellStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)
	return t
}

func toRows(cells [][]string) []table.Row {
	rows := make([]table.Row, len(cells))
	for i, c := range cells {
		rows[i] = table.Row(c)
	}
	return rows
}

// selectedSymbol returns the key under the cursor of the cached list.
func (m *Model) selectedSymbol() string {
	if len(m.cached) == 0 {
		return ""
	}
	return strings.TrimSpace(m.cached[min(m.table.Cursor(), len(m.cached)-1)].Symbol)
}
