package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/ui/components"
	"github.com/j-veylop/fincache-tui/internal/ui/styles"
)

// View renders the cache tab.
func (m *Model) View() string {
	if m.data == nil {
		if m.errorMsg != "" {
			return m.renderError()
		}
		return m.renderLoading()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderBudgetCard(),
		m.renderHistoryCard(),
		m.renderSummaryCard(),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading cache statistics..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Cache")

	var subtitle string
	if !m.lastLoaded.IsZero() {
		subtitle = styles.HelpStyle.Render("Updated " + humanize.Time(m.lastLoaded))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderBudgetCard() string {
	width := m.cardWidth()
	status := m.data.budget

	rows := []string{
		styles.CardTitleStyle.Render("API Requests Today"),
		"",
		m.budgetBar.View(status, width-4),
		styles.HelpStyle.Render(fmt.Sprintf("%d remaining for %s", status.Remaining(), status.Date)),
		m.renderProjection(),
		"",
		styles.SubTitleStyle.Render("By endpoint"),
		components.RenderEndpointUsage(m.data.endpoints, width-4),
	}

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderProjection() string {
	proj := m.data.projection
	if proj == nil || proj.Status == models.ProjectionUnknown {
		return styles.HelpStyle.Render("No requests yet today")
	}

	var line string
	switch {
	case proj.Used >= proj.Limit:
		line = fmt.Sprintf("Budget spent; resets in %s", formatDuration(proj.TimeUntilReset))
	case proj.WillDeplete:
		line = fmt.Sprintf("At %.1f req/h the budget runs out around %s", proj.Rate, proj.DepleteAt.Format("15:04"))
	default:
		line = fmt.Sprintf("On pace for ~%d of %d today", proj.ProjectedTotal, proj.Limit)
	}

	statusStyle := styles.BudgetOKStyle
	switch proj.Status {
	case models.ProjectionWarning:
		statusStyle = styles.BudgetWarnStyle
	case models.ProjectionCritical:
		statusStyle = styles.BudgetSpentStyle
	}

	return statusStyle.Render(line) + styles.HelpStyle.Render(fmt.Sprintf(" • %s (%s confidence)", proj.VsHistorical, proj.Confidence))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func (m *Model) renderHistoryCard() string {
	width := m.cardWidth()

	values := make([]float64, len(m.data.history))
	for i, d := range m.data.history {
		values[i] = float64(d.Count)
	}

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	title := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.CardTitleStyle.Render("Requests per Day"),
		"  ",
		rangeStyle.Render("[t] "+m.timeRange.String()),
	)
	if spark := components.RenderSparkline(values, 30); spark != "" {
		title = lipgloss.JoinHorizontal(lipgloss.Center, title, "  ",
			lipgloss.NewStyle().Foreground(styles.Primary).Render(spark))
	}

	rows := []string{title, ""}
	chart := components.RenderUsageChart(m.data.history, max(width-12, 30), 8)
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderSummaryCard() string {
	width := m.cardWidth()

	rows := []string{styles.CardTitleStyle.Render("Cached Data"), ""}
	if len(m.data.summary) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No data cached yet."))
	} else {
		points := 0
		for _, s := range m.data.summary {
			points += s.DataPoints
		}
		rows = append(rows,
			components.RenderSummaryTable(m.data.summary),
			styles.HelpStyle.Render(fmt.Sprintf("%d symbols • %s data points",
				len(m.data.summary), humanize.Comma(int64(points)))),
		)
	}

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
