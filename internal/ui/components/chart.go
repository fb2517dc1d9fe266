package components

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.LowerBound(0),
		asciigraph.SeriesColors(asciigraph.Cyan),
	)
}

// RenderUsageChart plots daily request totals, oldest first.
func RenderUsageChart(days []models.DailyUsage, width, height int) string {
	if len(days) == 0 {
		return styles.HelpStyle.Render("No requests recorded")
	}

	data := make([]float64, len(days))
	for i, d := range days {
		data[i] = float64(d.Count)
	}

	caption := fmt.Sprintf("Requests per day, %s to %s",
		days[0].Date.Format("Jan 2"), days[len(days)-1].Date.Format("Jan 2"))
	return RenderLineChart(data, width, height, caption)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, len(l))
	}

	barWidth := max(width-maxLabelLen-10, 10)

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := styles.InfoTextStyle.Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%*s │%s %s", maxLabelLen, label, bar, humanize.Comma(int64(v))))
	}

	return strings.Join(lines, "\n")
}

// RenderEndpointUsage renders today's per-endpoint request counts as bars.
func RenderEndpointUsage(usage []models.EndpointUsage, width int) string {
	if len(usage) == 0 {
		return styles.HelpStyle.Render("No requests today")
	}

	values := make([]float64, len(usage))
	labels := make([]string, len(usage))
	for i, u := range usage {
		values[i] = float64(u.Count)
		labels[i] = u.Endpoint
	}
	return RenderBarChart(values, labels, width)
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = min(max(normalized, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}
