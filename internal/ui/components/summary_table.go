package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/ui/styles"
)

// SummaryTimeFormat is how cache timestamps are shown in summaries.
const SummaryTimeFormat = "2006-01-02 15:04:05"

var summaryHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(styles.Primary).
	Padding(0, 1)

// RenderSummaryTable renders one row per cached category and symbol.
func RenderSummaryTable(items []models.CacheSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("Category", "Symbol", "Last Updated", "Data Points").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return summaryHeaderStyle
			}
			return styles.TableCellStyle
		})

	for _, item := range items {
		t.Row(
			item.Category,
			item.Symbol,
			item.LastUpdated.Format(SummaryTimeFormat),
			humanize.Comma(int64(item.DataPoints)),
		)
	}
	return t.Render()
}
